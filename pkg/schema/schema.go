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

// Package schema manipulates the typed JSON documents that give
// meaning to raw blobs: bytes, file, permanode and claim.
//
// A schema blob is a JSON object, stored as an ordinary blob, that
// carries at least a camliVersion and a camliType. This package
// parses and validates that JSON and exposes typed views over it.
package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"go4.org/strutil"

	"github.com/aviau/perkeepy/pkg/blob"
	"github.com/aviau/perkeepy/pkg/constants"
)

func init() {
	// Register the small, frequently repeated camliType strings in
	// strutil's common-string table. Parse decodes through
	// encoding/json, which does not consult that table.
	strutil.RegisterCommonString(
		string(TypeBytes),
		string(TypeFile),
		string(TypePermanode),
		string(TypeClaim),
	)
}

// CamliType is the value of a schema blob's "camliType" field.
type CamliType string

// The four camliType variants this package understands.
const (
	TypeBytes     CamliType = "bytes"
	TypeFile      CamliType = "file"
	TypePermanode CamliType = "permanode"
	TypeClaim     CamliType = "claim"
)

// ClaimType is the value of a claim schema's "claimType" field.
type ClaimType string

// The three claimType variants.
const (
	ClaimAddAttribute ClaimType = "add-attribute"
	ClaimSetAttribute ClaimType = "set-attribute"
	ClaimDelAttribute ClaimType = "del-attribute"
)

// Part is one entry of a bytes/file schema's "parts" array: either a
// reference to raw bytes (BlobRef) or to a nested bytes schema
// (BytesRef), never both.
type Part struct {
	Size     uint64   `json:"size"`
	BlobRef  blob.Ref `json:"blobRef,omitempty"`
	BytesRef blob.Ref `json:"bytesRef,omitempty"`
}

// rawSchema is the superset of every field any of the four variants
// may carry. It is the convenient json.Unmarshal target; validate
// checks that the fields required by camliType are actually present.
type rawSchema struct {
	CamliVersion int    `json:"camliVersion"`
	CamliType    string `json:"camliType"`

	Parts []Part `json:"parts,omitempty"`

	FileName  string `json:"fileName,omitempty"`
	UnixMtime string `json:"unixMtime,omitempty"`

	Random      string   `json:"random,omitempty"`
	CamliSigner blob.Ref `json:"camliSigner,omitempty"`

	CamliSig  string   `json:"camliSig,omitempty"`
	ClaimDate string   `json:"claimDate,omitempty"`
	PermaNode blob.Ref `json:"permaNode,omitempty"`
	Attribute string   `json:"attribute,omitempty"`
	Value     string   `json:"value,omitempty"`
	ClaimType string   `json:"claimType,omitempty"`
}

// Schema is a parsed and validated schema blob. It borrows (does not
// copy) the underlying Blob.
type Schema struct {
	blob *blob.Blob
	raw  rawSchema
}

// Blob returns the underlying blob this Schema was parsed from.
func (s *Schema) Blob() *blob.Blob { return s.blob }

// Type returns the schema's camliType.
func (s *Schema) Type() CamliType { return CamliType(s.raw.CamliType) }

// ValidationError aggregates every grammar violation found while
// validating a schema document, rather than stopping at the first.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	return "schema: invalid schema blob: " + strings.Join(e.Violations, "; ")
}

// Sentinel parse-stage errors, returned before validation even runs.
var (
	ErrSchemaTooLarge = fmt.Errorf("schema: blob exceeds %d bytes", constants.MaxSchemaBlobSize)
	ErrNotUTF8        = fmt.Errorf("schema: blob is not valid UTF-8")
	ErrNotJSON        = fmt.Errorf("schema: blob does not parse as JSON")
	ErrNotAnObject    = fmt.Errorf("schema: blob is not a JSON object")
)

// SchemaTypeMismatchError is returned by the typed-view accessors
// (Bytes, File, Permanode, Claim) when the schema's camliType doesn't
// match the requested view.
type SchemaTypeMismatchError struct {
	Want, Got CamliType
}

func (e *SchemaTypeMismatchError) Error() string {
	return fmt.Sprintf("schema: camliType mismatch: want %q, got %q", e.Want, e.Got)
}

// Parse parses and validates b as a schema blob, enforcing in order:
// size, UTF-8, JSON object syntax, then the camliType-specific
// grammar. Parse errors (the first three stages) short-circuit; grammar
// violations are collected into a single ValidationError.
func Parse(ctx context.Context, b *blob.Blob) (*Schema, error) {
	contents, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	if len(contents) > constants.MaxSchemaBlobSize {
		return nil, ErrSchemaTooLarge
	}
	if !utf8.Valid(contents) {
		return nil, ErrNotUTF8
	}

	var raw json.RawMessage
	if err := json.Unmarshal(contents, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, ErrNotAnObject
	}

	var rs rawSchema
	dec := json.NewDecoder(bytes.NewReader(contents))
	dec.UseNumber()
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}

	if violations := validate(&rs); len(violations) > 0 {
		return nil, &ValidationError{Violations: violations}
	}

	return &Schema{blob: b, raw: rs}, nil
}

// validate checks the cross-constraints from §4.6 of the design and
// returns every violation found, rather than stopping at the first.
func validate(rs *rawSchema) []string {
	var v []string

	if rs.CamliVersion != 1 {
		v = append(v, fmt.Sprintf("camliVersion must be 1, got %d", rs.CamliVersion))
	}
	if rs.CamliType == "" {
		v = append(v, "missing camliType")
	}

	switch CamliType(rs.CamliType) {
	case TypeBytes, TypeFile:
		for i, p := range rs.Parts {
			hasBlob := p.BlobRef.Valid()
			hasBytes := p.BytesRef.Valid()
			if hasBlob && hasBytes {
				v = append(v, fmt.Sprintf("parts[%d]: both blobRef and bytesRef set", i))
			} else if !hasBlob && !hasBytes {
				v = append(v, fmt.Sprintf("parts[%d]: neither blobRef nor bytesRef set", i))
			}
		}
	case TypePermanode:
		if rs.Random == "" {
			v = append(v, "permanode requires non-empty random")
		}
		if !rs.CamliSigner.Valid() {
			v = append(v, "permanode requires camliSigner")
		}
	case TypeClaim:
		if !rs.CamliSigner.Valid() {
			v = append(v, "claim requires camliSigner")
		}
		if rs.CamliSig == "" {
			v = append(v, "claim requires camliSig")
		}
		if rs.ClaimDate == "" {
			v = append(v, "claim requires claimDate")
		}
		if !rs.PermaNode.Valid() {
			v = append(v, "claim requires permaNode")
		}
		if rs.Attribute == "" {
			v = append(v, "claim requires attribute")
		}
		switch ClaimType(rs.ClaimType) {
		case ClaimAddAttribute, ClaimSetAttribute:
			if rs.Value == "" {
				v = append(v, "claimType "+rs.ClaimType+" requires value")
			}
		case ClaimDelAttribute:
			if rs.Value != "" {
				v = append(v, "claimType del-attribute forbids value")
			}
		default:
			v = append(v, fmt.Sprintf("unknown claimType %q", rs.ClaimType))
		}
	case "":
		// already reported above
	default:
		v = append(v, fmt.Sprintf("unknown camliType %q", rs.CamliType))
	}

	return v
}

// BytesSchema is the typed view of a "bytes" schema blob.
type BytesSchema struct{ *Schema }

// Bytes returns the schema as a typed BytesSchema view, or
// SchemaTypeMismatchError if camliType isn't "bytes".
func (s *Schema) Bytes() (BytesSchema, error) {
	if s.Type() != TypeBytes {
		return BytesSchema{}, &SchemaTypeMismatchError{Want: TypeBytes, Got: s.Type()}
	}
	return BytesSchema{s}, nil
}

// Parts returns the bytes schema's part list, in document order.
func (b BytesSchema) Parts() []Part { return b.raw.Parts }

// FileSchema is the typed view of a "file" schema blob.
type FileSchema struct{ *Schema }

// File returns the schema as a typed FileSchema view, or
// SchemaTypeMismatchError if camliType isn't "file".
func (s *Schema) File() (FileSchema, error) {
	if s.Type() != TypeFile {
		return FileSchema{}, &SchemaTypeMismatchError{Want: TypeFile, Got: s.Type()}
	}
	return FileSchema{s}, nil
}

// Parts returns the file schema's part list, in document order.
func (f FileSchema) Parts() []Part { return f.raw.Parts }

// FileName returns the file schema's fileName field.
func (f FileSchema) FileName() string { return f.raw.FileName }

// UnixMtime returns the file schema's unixMtime field, verbatim.
func (f FileSchema) UnixMtime() string { return f.raw.UnixMtime }

// PermanodeSchema is the typed view of a "permanode" schema blob.
type PermanodeSchema struct{ *Schema }

// Permanode returns the schema as a typed PermanodeSchema view, or
// SchemaTypeMismatchError if camliType isn't "permanode".
func (s *Schema) Permanode() (PermanodeSchema, error) {
	if s.Type() != TypePermanode {
		return PermanodeSchema{}, &SchemaTypeMismatchError{Want: TypePermanode, Got: s.Type()}
	}
	return PermanodeSchema{s}, nil
}

// Random returns the permanode's nonce.
func (p PermanodeSchema) Random() string { return p.raw.Random }

// Signer returns the Ref of the permanode's authorizing public key blob.
func (p PermanodeSchema) Signer() blob.Ref { return p.raw.CamliSigner }

// ClaimSchema is the typed view of a "claim" schema blob.
type ClaimSchema struct{ *Schema }

// Claim returns the schema as a typed ClaimSchema view, or
// SchemaTypeMismatchError if camliType isn't "claim".
func (s *Schema) Claim() (ClaimSchema, error) {
	if s.Type() != TypeClaim {
		return ClaimSchema{}, &SchemaTypeMismatchError{Want: TypeClaim, Got: s.Type()}
	}
	return ClaimSchema{s}, nil
}

// Signer returns the Ref of the claim's authorizing public key blob.
func (c ClaimSchema) Signer() blob.Ref { return c.raw.CamliSigner }

// Sig returns the claim's camliSig field (the camlisig-form signature).
func (c ClaimSchema) Sig() string { return c.raw.CamliSig }

// ClaimDate returns the claim's claimDate field, verbatim (RFC3339).
func (c ClaimSchema) ClaimDate() string { return c.raw.ClaimDate }

// Permanode returns the Ref of the permanode this claim mutates.
func (c ClaimSchema) Permanode() blob.Ref { return c.raw.PermaNode }

// Attribute returns the name of the attribute being mutated.
func (c ClaimSchema) Attribute() string { return c.raw.Attribute }

// Value returns the claim's value, or "" for a del-attribute claim.
func (c ClaimSchema) Value() string { return c.raw.Value }

// ClaimType returns the claim's claimType.
func (c ClaimSchema) ClaimType() ClaimType { return ClaimType(c.raw.ClaimType) }
