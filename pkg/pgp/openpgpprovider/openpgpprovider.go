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

// Package openpgpprovider implements pkg/pgp's Provider interface on
// top of golang.org/x/crypto/openpgp, the pure-Go PGP implementation
// the teacher corpus already vendored a fork of.
package openpgpprovider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/openpgp"
	"golang.org/x/crypto/openpgp/armor"
	"golang.org/x/crypto/openpgp/packet"

	"github.com/aviau/perkeepy/pkg/pgp"
)

const maxArmoredPublicKeySize = 256 << 10

// Provider signs with private keys drawn from a loaded secret
// keyring, and inspects/verifies against whatever public key material
// callers hand it directly (it keeps no public keyring of its own).
type Provider struct {
	secring openpgp.EntityList
}

// New loads a secret keyring (ASCII-armored) to sign with. Signing
// will fail for any fingerprint not present in it; fingerprinting and
// verification need no keyring and work even with an empty Provider.
func New(secretKeyring io.Reader) (*Provider, error) {
	el, err := openpgp.ReadArmoredKeyRing(secretKeyring)
	if err != nil {
		return nil, &pgp.KeyError{Err: fmt.Errorf("reading secret keyring: %w", err)}
	}
	return &Provider{secring: el}, nil
}

func fingerprintHex(fp [20]byte) string {
	return fmt.Sprintf("%X", fp)
}

func (p *Provider) entityForFingerprint(fingerprint string) *openpgp.Entity {
	want := strings.ToUpper(fingerprint)
	for _, e := range p.secring {
		if e.PrimaryKey != nil && fingerprintHex(e.PrimaryKey.Fingerprint) == want {
			return e
		}
	}
	return nil
}

// SignDetachedArmored implements pgp.Signer.
func (p *Provider) SignDetachedArmored(ctx context.Context, fingerprint string, data []byte) (string, error) {
	entity := p.entityForFingerprint(fingerprint)
	if entity == nil {
		return "", &pgp.SignerError{Err: fmt.Errorf("no private key in keyring for fingerprint %s", fingerprint)}
	}
	var buf bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&buf, entity, bytes.NewReader(data), nil); err != nil {
		return "", &pgp.SignerError{Err: err}
	}
	return buf.String(), nil
}

func decodePublicKey(armoredPublicKey string) (*packet.PublicKey, error) {
	lr := io.LimitReader(strings.NewReader(armoredPublicKey), maxArmoredPublicKeySize)
	block, err := armor.Decode(lr)
	if err != nil {
		return nil, fmt.Errorf("decoding armor: %w", err)
	}
	if block == nil {
		return nil, errors.New("no PGP armor block found")
	}
	if block.Type != openpgp.PublicKeyType {
		return nil, fmt.Errorf("unexpected armor block type %q", block.Type)
	}
	pkt, err := packet.Read(block.Body)
	if err != nil {
		return nil, fmt.Errorf("reading public key packet: %w", err)
	}
	pub, ok := pkt.(*packet.PublicKey)
	if !ok {
		return nil, errors.New("armor block did not contain a public key packet")
	}
	return pub, nil
}

// Fingerprint implements pgp.KeyInspector.
func (p *Provider) Fingerprint(ctx context.Context, armoredPublicKey string) (string, error) {
	pub, err := decodePublicKey(armoredPublicKey)
	if err != nil {
		return "", &pgp.KeyError{Err: err}
	}
	return fingerprintHex(pub.Fingerprint), nil
}

// Verify implements pgp.Verifier. It additionally confirms that the
// signature was produced by the exact public key supplied, not merely
// by some key whose signature happens to validate.
func (p *Provider) Verify(ctx context.Context, data []byte, armoredSig, armoredPublicKey string) (bool, error) {
	wantFingerprint, err := p.Fingerprint(ctx, armoredPublicKey)
	if err != nil {
		return false, &pgp.VerifierError{Err: err}
	}

	keyring, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredPublicKey))
	if err != nil {
		return false, &pgp.VerifierError{Err: fmt.Errorf("reading public key: %w", err)}
	}

	signer, err := openpgp.CheckArmoredDetachedSignature(keyring, bytes.NewReader(data), strings.NewReader(armoredSig))
	if err != nil {
		// Signature didn't check out; that's a false verdict, not an
		// error calling Verify.
		return false, nil
	}
	if signer == nil || signer.PrimaryKey == nil {
		return false, nil
	}
	return fingerprintHex(signer.PrimaryKey.Fingerprint) == wantFingerprint, nil
}

var _ pgp.Provider = (*Provider)(nil)
