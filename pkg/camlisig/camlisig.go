/*
Copyright 2011 Google Inc.
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

// Package camlisig converts between multi-line armored PGP signatures
// and the compact single-line form embedded in signed Camli documents
// as the "camliSig" field.
package camlisig

import (
	"errors"
	"fmt"
	"strings"
)

const lineWidth = 64

var (
	// ErrMalformedArmor is returned by ToCamliSig when the input isn't
	// recognizable PGP armor (no blank line, or no trailing dashed
	// footer after it).
	ErrMalformedArmor = errors.New("camlisig: malformed armored signature")

	// ErrMalformedCamliSig is returned by FromCamliSig when the input
	// has no '=' separating the base64 body from its CRC.
	ErrMalformedCamliSig = errors.New("camlisig: malformed camliSig: no CRC separator")
)

// ToCamliSig converts an ASCII-armored detached PGP signature into the
// compact single-line form embedded in a signed document's "camliSig"
// field.
func ToCamliSig(armored string) (string, error) {
	trimmed := strings.TrimSpace(armored)

	bodyStart := strings.Index(trimmed, "\n\n")
	if bodyStart == -1 {
		return "", ErrMalformedArmor
	}
	bodyStart += len("\n\n")

	bodyEnd := strings.Index(trimmed[bodyStart:], "\n-----")
	if bodyEnd == -1 {
		return "", ErrMalformedArmor
	}
	bodyEnd += bodyStart

	body := trimmed[bodyStart:bodyEnd]
	return strings.ReplaceAll(body, "\n", ""), nil
}

// FromCamliSig converts a compact single-line camliSig back into a
// canonical multi-line armored PGP signature. The round trip is
// near-idempotent: armor headers present in an original armored
// signature (e.g. "Version:") are not recoverable and so are dropped.
func FromCamliSig(camliSig string) (string, error) {
	lastEq := strings.LastIndex(camliSig, "=")
	if lastEq == -1 {
		return "", ErrMalformedCamliSig
	}
	payload := camliSig[:lastEq]
	crc := camliSig[lastEq:]

	var buf strings.Builder
	fmt.Fprint(&buf, "-----BEGIN PGP SIGNATURE-----\n\n")
	for len(payload) > 0 {
		n := lineWidth
		if n > len(payload) {
			n = len(payload)
		}
		fmt.Fprintf(&buf, "%s\n", payload[:n])
		payload = payload[n:]
	}
	fmt.Fprintf(&buf, "%s\n", crc)
	fmt.Fprint(&buf, "-----END PGP SIGNATURE-----\n")
	return buf.String(), nil
}
