/*
Copyright 2014 The Camlistore Authors
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

package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

// Blob is a binding of a Ref to a lazy byte producer. The producer is
// invoked at most once, on first use, and its result is memoized;
// every subsequent call to Open or Bytes returns the cached content.
//
// A Blob's Ref never changes. Its bytes, once read, never change
// either: this is what content addressing guarantees.
type Blob struct {
	ref     Ref
	readAll func(ctx context.Context) ([]byte, error)

	mu       sync.Mutex
	resolved bool
	contents []byte
	err      error
}

// NewBlob constructs a Blob from a Ref and a producer function that
// returns the blob's full contents. The producer is not called until
// the Blob's bytes are first requested.
func NewBlob(ref Ref, readAll func(ctx context.Context) ([]byte, error)) *Blob {
	return &Blob{ref: ref, readAll: readAll}
}

// FromContents builds a Blob directly from bytes already in memory,
// computing its Ref under the currently recommended digest algorithm.
func FromContents(contents []byte) *Blob {
	cp := make([]byte, len(contents))
	copy(cp, contents)
	return &Blob{ref: RefFromContents(cp), resolved: true, contents: cp}
}

// Ref returns the blob's reference.
func (b *Blob) Ref() Ref { return b.ref }

// Bytes returns the blob's contents, invoking and memoizing the
// producer on the first call. Producer failures propagate to every
// caller.
func (b *Blob) Bytes(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.resolved {
		b.contents, b.err = b.readAll(ctx)
		b.resolved = true
	}
	return b.contents, b.err
}

// Open returns an io.Reader over the blob's memoized contents.
func (b *Blob) Open(ctx context.Context) (io.Reader, error) {
	contents, err := b.Bytes(ctx)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(contents), nil
}

// IsUTF8 reports whether the blob's contents are entirely valid UTF-8.
func (b *Blob) IsUTF8(ctx context.Context) (bool, error) {
	contents, err := b.Bytes(ctx)
	if err != nil {
		return false, err
	}
	return utf8.Valid(contents), nil
}

// IsValid reports whether digesting the blob's contents under its
// Ref's algorithm reproduces the Ref's digest. Clients that don't
// trust their storage backend's integrity should call this after
// fetching.
func (b *Blob) IsValid(ctx context.Context) bool {
	contents, err := b.Bytes(ctx)
	if err != nil {
		return false
	}
	h := b.ref.Hash()
	h.Write(contents)
	return b.ref.HashMatches(h)
}

// FromFetcher fetches ref from f and returns it wrapped as a Blob
// under that same Ref, whose producer simply replays the
// already-fetched bytes. It does not itself validate the digest
// (is_valid is a predicate, not a fetch, per the core contract);
// call Blob.IsValid for that.
func FromFetcher(ctx context.Context, f Fetcher, ref Ref) (*Blob, error) {
	rc, _, err := f.Fetch(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("blob: fetching %v: %w", ref, err)
	}
	defer rc.Close()
	contents, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("blob: reading %v: %w", ref, err)
	}
	return &Blob{ref: ref, resolved: true, contents: contents}, nil
}
