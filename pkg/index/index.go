/*
Copyright 2014 The Camlistore Authors.
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

// Package index implements the blob-receiving side of an indexer: a
// Receiver that additionally exposes per-blob metadata and tracks,
// via a sorted KV have-set, which blobs it has already seen.
//
// The full indexing key layout (recpn, signerkeyid, signerattrvalue,
// claim, meta...) that a claim-aware search index would need is a
// forward-compatibility point, not required here: this Indexer is a
// pure observer over a "have:<ref>" have-set until claim-based search
// is built on top of it.
package index

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/aviau/perkeepy/pkg/blob"
)

const indexedSuffix = "|indexed"

// BlobMeta is what the Indexer remembers about a received blob.
type BlobMeta struct {
	Ref  blob.Ref
	Size uint32
}

// Indexer is a blobserver.Receiver backed by a goleveldb database,
// recording a "have:<ref>" entry for every blob it successfully
// receives. Receiving the same blob twice is a no-op after the first.
type Indexer struct {
	mu sync.Mutex
	db *leveldb.DB
}

// Open opens (creating if necessary) a goleveldb database at path to
// back an Indexer.
func Open(path string) (*Indexer, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("index: opening %s: %w", path, err)
	}
	return &Indexer{db: db}, nil
}

// Close releases the underlying database.
func (ix *Indexer) Close() error {
	return ix.db.Close()
}

func haveKey(ref blob.Ref) []byte {
	return []byte("have:" + ref.String())
}

// ReceiveBlob implements blobserver.Receiver. It drains source fully
// (the caller's trust boundary, e.g. blobserver.Receive, is
// responsible for digest verification); a blob already marked
// indexed is a no-op that still drains source, since callers may have
// already committed to streaming it.
func (ix *Indexer) ReceiveBlob(ctx context.Context, ref blob.Ref, source io.Reader) (blob.SizedRef, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if meta, err := ix.blobMetaLocked(ref); err != nil {
		return blob.SizedRef{}, err
	} else if meta != nil {
		if _, err := io.Copy(io.Discard, source); err != nil {
			return blob.SizedRef{}, err
		}
		return blob.SizedRef{Ref: ref, Size: meta.Size}, nil
	}

	n, err := io.Copy(io.Discard, source)
	if err != nil {
		return blob.SizedRef{}, err
	}
	size := uint32(n)

	val := strconv.FormatUint(uint64(size), 10) + indexedSuffix
	if err := ix.db.Put(haveKey(ref), []byte(val), nil); err != nil {
		return blob.SizedRef{}, err
	}
	return blob.SizedRef{Ref: ref, Size: size}, nil
}

// BlobMeta returns what the Indexer knows about ref, or nil if ref
// hasn't been received.
func (ix *Indexer) BlobMeta(ctx context.Context, ref blob.Ref) (*BlobMeta, error) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return ix.blobMetaLocked(ref)
}

func (ix *Indexer) blobMetaLocked(ref blob.Ref) (*BlobMeta, error) {
	val, err := ix.db.Get(haveKey(ref), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	sizeStr, ok := strings.CutSuffix(string(val), indexedSuffix)
	if !ok {
		return nil, fmt.Errorf("index: malformed have-set entry for %s", ref)
	}
	size, err := strconv.ParseUint(sizeStr, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("index: malformed have-set entry for %s: %w", ref, err)
	}
	return &BlobMeta{Ref: ref, Size: uint32(size)}, nil
}
