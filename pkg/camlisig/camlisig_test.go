/*
Copyright 2024 The Perkeepy Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package camlisig

import (
	"strings"
	"testing"
)

const sampleArmor = `-----BEGIN PGP SIGNATURE-----
Version: GnuPG v1

iQEcBAABAgAGBQJRz5p0AAoJEON76cpbPb0M
=ABCD
-----END PGP SIGNATURE-----`

func TestToCamliSig(t *testing.T) {
	got, err := ToCamliSig(sampleArmor)
	if err != nil {
		t.Fatalf("ToCamliSig: %v", err)
	}
	want := "iQEcBAABAgAGBQJRz5p0AAoJEON76cpbPb0M=ABCD"
	if got != want {
		t.Errorf("ToCamliSig() = %q, want %q", got, want)
	}
}

func TestFromCamliSig(t *testing.T) {
	sig := "iQEcBAABAgAGBQJRz5p0AAoJEON76cpbPb0M=ABCD"
	got, err := FromCamliSig(sig)
	if err != nil {
		t.Fatalf("FromCamliSig: %v", err)
	}
	if !strings.HasPrefix(got, "-----BEGIN PGP SIGNATURE-----\n\n") {
		t.Errorf("missing header: %q", got)
	}
	if !strings.HasSuffix(got, "-----END PGP SIGNATURE-----\n") {
		t.Errorf("missing footer: %q", got)
	}
	if !strings.Contains(got, "=ABCD\n") {
		t.Errorf("missing CRC line: %q", got)
	}
}

func TestNearRoundTrip(t *testing.T) {
	sig := strings.Repeat("A", 140) + "=XYZW"
	armored, err := FromCamliSig(sig)
	if err != nil {
		t.Fatalf("FromCamliSig: %v", err)
	}
	back, err := ToCamliSig(armored)
	if err != nil {
		t.Fatalf("ToCamliSig: %v", err)
	}
	if back != sig {
		t.Errorf("round trip = %q, want %q", back, sig)
	}
}

func TestToCamliSigMalformed(t *testing.T) {
	if _, err := ToCamliSig("not armor at all"); err != ErrMalformedArmor {
		t.Errorf("err = %v, want ErrMalformedArmor", err)
	}
}

func TestFromCamliSigMalformed(t *testing.T) {
	if _, err := FromCamliSig("nocrcseparator"); err != ErrMalformedCamliSig {
		t.Errorf("err = %v, want ErrMalformedCamliSig", err)
	}
}
