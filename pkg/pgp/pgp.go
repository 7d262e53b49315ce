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

// Package pgp declares the three minimal capabilities the jsonsign
// layer needs from a PGP implementation: producing a detached
// signature, inspecting a public key's fingerprint, and verifying a
// signature against a public key. The core never touches key material
// directly; concrete providers (this module ships one backed by
// golang.org/x/crypto/openpgp) are external collaborators.
package pgp

import "context"

// Signer produces an ASCII-armored PGP detached signature over data
// using the private key identified by fingerprint.
type Signer interface {
	SignDetachedArmored(ctx context.Context, fingerprint string, data []byte) (armored string, err error)
}

// KeyInspector extracts the fingerprint from an armored public key, to
// select the matching private key.
type KeyInspector interface {
	Fingerprint(ctx context.Context, armoredPublicKey string) (fingerprint string, err error)
}

// Verifier reports whether armoredSig is a valid detached signature
// over data made with armoredPublicKey. Implementations MUST also
// confirm the signature's key matches the supplied public key's
// fingerprint; a signature made by any key verifying against any
// public-key reference would defeat key-binding.
type Verifier interface {
	Verify(ctx context.Context, data []byte, armoredSig, armoredPublicKey string) (ok bool, err error)
}

// Provider bundles all three capabilities, the shape most callers want.
type Provider interface {
	Signer
	KeyInspector
	Verifier
}

// SignerError wraps a failure to produce a detached signature.
type SignerError struct{ Err error }

func (e *SignerError) Error() string { return "pgp: sign failed: " + e.Err.Error() }
func (e *SignerError) Unwrap() error { return e.Err }

// KeyError wraps a failure to parse or inspect a key.
type KeyError struct{ Err error }

func (e *KeyError) Error() string { return "pgp: key error: " + e.Err.Error() }
func (e *KeyError) Unwrap() error { return e.Err }

// VerifierError wraps a failure encountered while attempting
// verification (as distinct from verification simply failing, which
// Verify reports via its bool return).
type VerifierError struct{ Err error }

func (e *VerifierError) Error() string { return "pgp: verify error: " + e.Err.Error() }
func (e *VerifierError) Unwrap() error { return e.Err }
