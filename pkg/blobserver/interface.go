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

// Package blobserver defines the capability interfaces narrow enough
// that each consumer of a blob store depends on only as much of it as
// it actually needs: a signer needs only a Fetcher, an indexer needs
// only a Receiver, and so on. Storage composes all three into the
// full contract a concrete backend (memory, s3, ...) must satisfy.
package blobserver

import (
	"context"
	"errors"
	"io"

	"github.com/aviau/perkeepy/pkg/blob"
)

// ErrCorruptBlob is returned by a Receiver when it independently
// verifies an incoming blob's digest and finds it doesn't match the
// claimed Ref.
var ErrCorruptBlob = errors.New("blobserver: corrupt blob; digest doesn't match")

// Fetcher retrieves a blob by reference. It is an alias for blob.Fetcher
// so that code importing only blobserver doesn't also need to import
// blob for this particular capability.
type Fetcher = blob.Fetcher

// Enumerator lists the Refs held by a store in ascending textual
// order.
type Enumerator interface {
	// EnumerateBlobs sends SizedRefs into dest in ascending textual
	// order, starting strictly after the Ref named by after (or from
	// the beginning, if after is the zero Ref). EnumerateBlobs must
	// close dest before returning, whether it returns an error or
	// exhausts the store or the context is canceled.
	//
	// Implementations that paginate internally must track the last
	// Ref yielded and use it (not any Ref later overwritten in a
	// shared loop variable) to request the next page.
	EnumerateBlobs(ctx context.Context, dest chan<- blob.SizedRef, after blob.Ref, limit int) error
}

// Receiver accepts newly uploaded blobs and writes them to permanent
// storage. Receiving an already-present Ref is a no-op: content
// addressing guarantees the bytes can only be identical.
type Receiver interface {
	// ReceiveBlob validates (if the implementation chooses to) and
	// stores a blob with contents read from source. Implementations
	// MAY reject the blob if its contents don't hash to ref.
	ReceiveBlob(ctx context.Context, ref blob.Ref, source io.Reader) (blob.SizedRef, error)
}

// Storage is the full contract a concrete blobserver backend
// implements. Most consumers should depend on the narrowest capability
// interface above that they actually need.
type Storage interface {
	Fetcher
	Enumerator
	Receiver
}

// FetcherEnumerator composes the two read-only capabilities, used by
// callers (like a verifying importer) that never write.
type FetcherEnumerator interface {
	Fetcher
	Enumerator
}
