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

// Package memory provides an in-memory blobserver.Storage, used in
// tests and as a reference implementation of the Storage contract.
package memory

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"

	"github.com/aviau/perkeepy/pkg/blob"
)

// Storage is an in-memory implementation of blobserver.Storage. Its
// zero value is ready to use.
type Storage struct {
	mu     sync.RWMutex
	m      map[blob.Ref][]byte
	sorted []string // blob.Ref.String(), kept sorted
}

// NewStorage returns an empty in-memory Storage.
func NewStorage() *Storage {
	return &Storage{}
}

// Fetch implements blob.Fetcher.
func (s *Storage) Fetch(ctx context.Context, ref blob.Ref) (io.ReadCloser, uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[ref]
	if !ok {
		return nil, 0, blob.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), uint32(len(b)), nil
}

// ReceiveBlob implements blobserver.Receiver. Receiving an already
// present ref is a no-op: content addressing means the bytes can only
// be identical, so the second write is simply discarded after being
// drained from source.
func (s *Storage) ReceiveBlob(ctx context.Context, ref blob.Ref, source io.Reader) (blob.SizedRef, error) {
	all, err := io.ReadAll(source)
	if err != nil {
		return blob.SizedRef{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[blob.Ref][]byte)
	}
	if _, had := s.m[ref]; !had {
		s.m[ref] = all
		s.sorted = append(s.sorted, ref.String())
		sort.Strings(s.sorted)
	}
	return blob.SizedRef{Ref: ref, Size: uint32(len(all))}, nil
}

// EnumerateBlobs implements blobserver.Enumerator. It honors after by
// skipping every key lexically less than or equal to it, regardless
// of whether after itself is present in the store.
func (s *Storage) EnumerateBlobs(ctx context.Context, dest chan<- blob.SizedRef, after blob.Ref, limit int) error {
	defer close(dest)
	s.mu.RLock()
	defer s.mu.RUnlock()
	afterStr := ""
	if after.Valid() {
		afterStr = after.String()
	}
	n := 0
	for _, k := range s.sorted {
		if k <= afterStr {
			continue
		}
		ref := blob.MustParse(k)
		select {
		case dest <- blob.SizedRef{Ref: ref, Size: uint32(len(s.m[ref]))}:
		case <-ctx.Done():
			return ctx.Err()
		}
		n++
		if limit > 0 && n == limit {
			break
		}
	}
	return nil
}

// NumBlobs returns the number of blobs currently stored.
func (s *Storage) NumBlobs() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

// BlobContents returns the stored bytes for ref, for use in tests.
func (s *Storage) BlobContents(ref blob.Ref) (contents []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.m[ref]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp, true
}
