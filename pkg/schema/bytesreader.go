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

package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/aviau/perkeepy/pkg/blob"
)

// MaxPartTreeDepth bounds how deeply a BytesReader will descend into
// nested bytesRef parts. Cycles are impossible (a blob can't reference
// its own hash), but a pathologically deep chain of bytes schemas
// could otherwise exhaust the stack.
const MaxPartTreeDepth = 256

// ErrDepthExceeded is returned when a part tree nests bytesRefs more
// than MaxPartTreeDepth deep.
var ErrDepthExceeded = errors.New("schema: bytes part tree exceeds maximum depth")

// CorruptPartTreeError wraps a failure to parse a nested bytesRef as a
// valid bytes schema.
type CorruptPartTreeError struct {
	Ref blob.Ref
	Err error
}

func (e *CorruptPartTreeError) Error() string {
	return fmt.Sprintf("schema: corrupt part tree at %s: %v", e.Ref, e.Err)
}
func (e *CorruptPartTreeError) Unwrap() error { return e.Err }

// BytesReader reassembles the logical byte stream described by a
// bytes- or file-typed schema's parts list, fetching referenced blobs
// (and recursively, nested bytes schemas) through a Fetcher.
type BytesReader struct {
	fetcher blob.Fetcher
	parts   []Part
}

// NewBytesReader returns a BytesReader over parts, fetching through f.
func NewBytesReader(f blob.Fetcher, parts []Part) *BytesReader {
	return &BytesReader{fetcher: f, parts: parts}
}

// Read reassembles and returns the full byte stream in document order.
func (r *BytesReader) Read(ctx context.Context) ([]byte, error) {
	return r.readDepth(ctx, r.parts, 0)
}

func (r *BytesReader) readDepth(ctx context.Context, parts []Part, depth int) ([]byte, error) {
	if depth > MaxPartTreeDepth {
		return nil, ErrDepthExceeded
	}

	var out []byte
	for _, p := range parts {
		switch {
		case p.BlobRef.Valid():
			b, err := blob.FromFetcher(ctx, r.fetcher, p.BlobRef)
			if err != nil {
				return nil, err
			}
			contents, err := b.Bytes(ctx)
			if err != nil {
				return nil, err
			}
			out = append(out, contents...)

		case p.BytesRef.Valid():
			b, err := blob.FromFetcher(ctx, r.fetcher, p.BytesRef)
			if err != nil {
				return nil, err
			}
			nested, err := Parse(ctx, b)
			if err != nil {
				return nil, &CorruptPartTreeError{Ref: p.BytesRef, Err: err}
			}
			bs, err := nested.Bytes()
			if err != nil {
				return nil, &CorruptPartTreeError{Ref: p.BytesRef, Err: err}
			}
			sub, err := r.readDepth(ctx, bs.Parts(), depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, sub...)

		default:
			// Schema validation guarantees exactly one of blobRef /
			// bytesRef is set; an empty part here would mean the
			// schema that produced this Part list wasn't validated.
			return nil, &CorruptPartTreeError{Err: errors.New("part has neither blobRef nor bytesRef")}
		}
	}
	return out, nil
}
