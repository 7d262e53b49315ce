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

package blobserver

import (
	"context"
	"io"

	"github.com/aviau/perkeepy/pkg/blob"
)

// Receive is a trust-boundary helper for callers (an HTTP upload
// handler, say) that don't already know source hashes to ref. It
// tees source through ref's hash while handing it to rcv, and once
// rcv has consumed it in full, fails with ErrCorruptBlob if the
// digest doesn't match, rather than trusting the Receiver to have
// checked this itself.
func Receive(ctx context.Context, rcv Receiver, ref blob.Ref, source io.Reader) (blob.SizedRef, error) {
	h := ref.Hash()
	sb, err := rcv.ReceiveBlob(ctx, ref, io.TeeReader(source, h))
	if err != nil {
		return blob.SizedRef{}, err
	}
	if !ref.HashMatches(h) {
		return blob.SizedRef{}, ErrCorruptBlob
	}
	return sb, nil
}
