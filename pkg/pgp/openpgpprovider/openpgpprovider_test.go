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

package openpgpprovider

import (
	"bytes"
	"context"
	"testing"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
)

// newTestEntity generates a throwaway keypair and returns both the
// entity (for building a secret keyring) and its armored public key.
func newTestEntity(t *testing.T) (*openpgp.Entity, string) {
	t.Helper()
	entity, err := openpgp.NewEntity("test", "", "test@example.com", nil)
	if err != nil {
		t.Fatalf("NewEntity: %v", err)
	}

	var buf bytes.Buffer
	wc, err := armor.Encode(&buf, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("armor.Encode: %v", err)
	}
	if err := entity.PrimaryKey.Serialize(wc); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	wc.Close()
	return entity, buf.String()
}

func armoredSecretKeyRing(t *testing.T, entity *openpgp.Entity) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	wc, err := armor.Encode(&buf, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("armor.Encode: %v", err)
	}
	if err := entity.SerializePrivate(wc, nil); err != nil {
		t.Fatalf("SerializePrivate: %v", err)
	}
	wc.Close()
	return &buf
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	ctx := context.Background()
	entity, armoredPub := newTestEntity(t)

	provider, err := New(armoredSecretKeyRing(t, entity))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fp, err := provider.Fingerprint(ctx, armoredPub)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	data := []byte(`{"camliVersion":1,"hello":"world"`)
	sig, err := provider.SignDetachedArmored(ctx, fp, data)
	if err != nil {
		t.Fatalf("SignDetachedArmored: %v", err)
	}

	ok, err := provider.Verify(ctx, data, sig, armoredPub)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("Verify() = false, want true")
	}
}

func TestVerifyRejectsTamperedData(t *testing.T) {
	ctx := context.Background()
	entity, armoredPub := newTestEntity(t)
	provider, err := New(armoredSecretKeyRing(t, entity))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	fp, _ := provider.Fingerprint(ctx, armoredPub)

	data := []byte(`{"camliVersion":1,"hello":"world"`)
	sig, err := provider.SignDetachedArmored(ctx, fp, data)
	if err != nil {
		t.Fatalf("SignDetachedArmored: %v", err)
	}

	tampered := []byte(`{"camliVersion":1,"hello":"earth"`)
	ok, err := provider.Verify(ctx, tampered, sig, armoredPub)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("Verify() of tampered data = true, want false")
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	ctx := context.Background()
	entityA, armoredPubA := newTestEntity(t)
	_, armoredPubB := newTestEntity(t)

	provider, err := New(armoredSecretKeyRing(t, entityA))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	fpA, err := provider.Fingerprint(ctx, armoredPubA)
	if err != nil {
		t.Fatalf("Fingerprint: %v", err)
	}

	data := []byte(`{"camliVersion":1}`)
	sig, err := provider.SignDetachedArmored(ctx, fpA, data)
	if err != nil {
		t.Fatalf("SignDetachedArmored: %v", err)
	}

	// Signed with A's key, but verified against B's unrelated public key.
	ok, err := provider.Verify(ctx, data, sig, armoredPubB)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if ok {
		t.Error("Verify() against unrelated public key = true, want false (key-binding)")
	}
}
