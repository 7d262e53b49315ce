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

// Package jsonsign signs and verifies the detached-PGP-signed JSON
// documents used throughout the blob store: claims and permanodes.
// The signed form appends a byte-exact "camliSig" trailer to the
// caller's own unsigned JSON object, byte-for-byte; see Sign and
// Verify.
package jsonsign

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/aviau/perkeepy/pkg/blob"
	"github.com/aviau/perkeepy/pkg/camlisig"
	"github.com/aviau/perkeepy/pkg/pgp"
)

// sigSeparator is the literal, byte-exact delimiter between the
// signed prefix and the embedded signature. Verify locates the LAST
// occurrence of this string to recover the signed prefix.
const sigSeparator = `,"camliSig":"`

var (
	ErrNotAnObject          = errors.New("jsonsign: not a JSON object")
	ErrUnknownCamliVersion  = errors.New("jsonsign: camliVersion missing or not 1")
	ErrMissingSigner        = errors.New("jsonsign: camliSigner missing or not a string")
	ErrSignerKeyUnavailable = errors.New("jsonsign: signer's public key blob unavailable")
	ErrMissingCamliSig      = errors.New("jsonsign: camliSig missing or not a string")
)

// canonicalPrefix right-strips trailing whitespace from the caller's
// own unsigned JSON text and removes the final '}'. It operates on
// that text directly rather than decoding-and-re-marshaling it
// through a map: encoding/json sorts map keys on marshal, which would
// silently reorder the caller's fields and break wire compatibility
// with the byte layout other Camli implementations produce. Callers
// are responsible for having already confirmed raw decodes as a JSON
// object (Sign does, via its own json.Unmarshal for field
// extraction).
func canonicalPrefix(raw []byte) (string, error) {
	s := strings.TrimRightFunc(string(raw), unicode.IsSpace)
	if len(s) == 0 || s[len(s)-1] != '}' {
		return "", ErrNotAnObject
	}
	return s[:len(s)-1], nil
}

// Sign signs unsignedJSON, an unsigned JSON object naming its signer
// via "camliSigner", and returns the signed document:
//
//	<signed_prefix>,"camliSig":"<camlisig>"}\n
func Sign(ctx context.Context, unsignedJSON string, fetcher blob.Fetcher, signer pgp.Signer, inspector pgp.KeyInspector) (string, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(unsignedJSON), &m); err != nil {
		return "", ErrNotAnObject
	}
	if v, ok := m["camliVersion"]; !ok || !isOne(v) {
		return "", ErrUnknownCamliVersion
	}
	signerStr, ok := m["camliSigner"].(string)
	if !ok {
		return "", ErrMissingSigner
	}
	signerRef, ok := blob.Parse(signerStr)
	if !ok {
		return "", ErrMissingSigner
	}

	pubKeyBlob, err := blob.FromFetcher(ctx, fetcher, signerRef)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignerKeyUnavailable, err)
	}
	pubKeyBytes, err := pubKeyBlob.Bytes(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSignerKeyUnavailable, err)
	}

	fingerprint, err := inspector.Fingerprint(ctx, string(pubKeyBytes))
	if err != nil {
		return "", err
	}

	prefix, err := canonicalPrefix([]byte(unsignedJSON))
	if err != nil {
		return "", err
	}

	armoredSig, err := signer.SignDetachedArmored(ctx, fingerprint, []byte(prefix))
	if err != nil {
		return "", err
	}
	camliSig, err := camlisig.ToCamliSig(armoredSig)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%s%s\"}\n", prefix, sigSeparator, camliSig), nil
}

// isOne reports whether v (as decoded by encoding/json from a numeric
// literal) represents the integer 1.
func isOne(v interface{}) bool {
	f, ok := v.(float64)
	return ok && f == 1
}

// VerifyResult carries the outcome of a successful Verify, including
// the fields the caller will usually want without re-parsing.
type VerifyResult struct {
	Signer blob.Ref
	Sig    string
}

// Verify checks whether signedDocument carries a valid detached
// signature, traceable to the public key named by its camliSigner
// field and fetchable via fetcher.
func Verify(ctx context.Context, signedDocument string, fetcher blob.Fetcher, verifier pgp.Verifier) (bool, *VerifyResult, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(signedDocument), &m); err != nil {
		return false, nil, ErrNotAnObject
	}
	camliSig, ok := m["camliSig"].(string)
	if !ok {
		return false, nil, ErrMissingCamliSig
	}
	signerStr, ok := m["camliSigner"].(string)
	if !ok {
		return false, nil, ErrMissingSigner
	}
	signerRef, ok := blob.Parse(signerStr)
	if !ok {
		return false, nil, ErrMissingSigner
	}

	armoredSig, err := camlisig.FromCamliSig(camliSig)
	if err != nil {
		return false, nil, err
	}

	pubKeyBlob, err := blob.FromFetcher(ctx, fetcher, signerRef)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrSignerKeyUnavailable, err)
	}
	pubKeyBytes, err := pubKeyBlob.Bytes(ctx)
	if err != nil {
		return false, nil, fmt.Errorf("%w: %v", ErrSignerKeyUnavailable, err)
	}

	idx := strings.LastIndex(signedDocument, sigSeparator)
	if idx == -1 {
		return false, nil, ErrMissingCamliSig
	}
	prefix := signedDocument[:idx]

	ok, err = verifier.Verify(ctx, []byte(prefix), armoredSig, string(pubKeyBytes))
	if err != nil {
		return false, nil, err
	}
	if !ok {
		return false, nil, nil
	}
	return true, &VerifyResult{Signer: signerRef, Sig: camliSig}, nil
}
