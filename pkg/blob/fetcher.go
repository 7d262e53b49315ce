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

package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned by Fetcher.Fetch when no blob with the
// requested Ref exists in the store.
var ErrNotFound = errors.New("blob: not found")

// Fetcher is the narrowest capability a caller needs to read a single
// blob by reference. The jsonsign and schema packages depend on
// nothing more than this.
type Fetcher interface {
	// Fetch returns the blob named by ref. The caller must Close the
	// returned ReadCloser. If no such blob exists, Fetch returns
	// ErrNotFound.
	Fetch(ctx context.Context, ref Ref) (contents io.ReadCloser, size uint32, err error)
}

// FetcherFunc adapts a function to a Fetcher.
type FetcherFunc func(ctx context.Context, ref Ref) (io.ReadCloser, uint32, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, ref Ref) (io.ReadCloser, uint32, error) {
	return f(ctx, ref)
}
