/*
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
	"bytes"
	"context"
	"testing"

	"github.com/aviau/perkeepy/pkg/blob"
	"github.com/aviau/perkeepy/pkg/blobserver/memory"
)

func TestBytesReaderConcatenatesInOrder(t *testing.T) {
	ctx := context.Background()
	sto := memory.NewStorage()

	fooRef := put(t, sto, []byte("foo"))
	barRef := put(t, sto, []byte("bar"))

	doc := `{"camliVersion":1,"camliType":"bytes","parts":[` +
		`{"blobRef":"` + fooRef.String() + `","size":3},` +
		`{"blobRef":"` + barRef.String() + `","size":3}` +
		`]}`
	docRef := put(t, sto, []byte(doc))

	b, err := blob.FromFetcher(ctx, sto, docRef)
	if err != nil {
		t.Fatalf("FromFetcher: %v", err)
	}
	s, err := Parse(ctx, b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bs, err := s.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	got, err := NewBytesReader(sto, bs.Parts()).Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "foobar" {
		t.Errorf("Read() = %q, want %q", got, "foobar")
	}
}

func TestBytesReaderDescendsNestedBytesRef(t *testing.T) {
	ctx := context.Background()
	sto := memory.NewStorage()

	fooRef := put(t, sto, []byte("foo"))
	nestedDoc := `{"camliVersion":1,"camliType":"bytes","parts":[{"blobRef":"` + fooRef.String() + `","size":3}]}`
	nestedRef := put(t, sto, []byte(nestedDoc))

	barRef := put(t, sto, []byte("bar"))
	topDoc := `{"camliVersion":1,"camliType":"bytes","parts":[` +
		`{"bytesRef":"` + nestedRef.String() + `","size":3},` +
		`{"blobRef":"` + barRef.String() + `","size":3}` +
		`]}`
	topRef := put(t, sto, []byte(topDoc))

	b, err := blob.FromFetcher(ctx, sto, topRef)
	if err != nil {
		t.Fatalf("FromFetcher: %v", err)
	}
	s, err := Parse(ctx, b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bs, err := s.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	got, err := NewBytesReader(sto, bs.Parts()).Read(ctx)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "foobar" {
		t.Errorf("Read() = %q, want %q", got, "foobar")
	}
}

func TestBytesReaderCorruptPartTree(t *testing.T) {
	ctx := context.Background()
	sto := memory.NewStorage()

	garbageRef := put(t, sto, []byte("not a schema"))
	topDoc := `{"camliVersion":1,"camliType":"bytes","parts":[{"bytesRef":"` + garbageRef.String() + `","size":1}]}`
	topRef := put(t, sto, []byte(topDoc))

	b, err := blob.FromFetcher(ctx, sto, topRef)
	if err != nil {
		t.Fatalf("FromFetcher: %v", err)
	}
	s, err := Parse(ctx, b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bs, err := s.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	_, err = NewBytesReader(sto, bs.Parts()).Read(ctx)
	if _, ok := err.(*CorruptPartTreeError); !ok {
		t.Fatalf("err = %T, want *CorruptPartTreeError", err)
	}
}

func TestBytesReaderDepthExceeded(t *testing.T) {
	ctx := context.Background()
	sto := memory.NewStorage()

	leafRef := put(t, sto, []byte("x"))
	ref := put(t, sto, []byte(`{"camliVersion":1,"camliType":"bytes","parts":[{"blobRef":"`+leafRef.String()+`","size":1}]}`))

	// Nest bytes schemas two levels deeper than MaxPartTreeDepth allows, each
	// wrapping the previous via bytesRef, so the reader's recursion
	// trips the depth guard rather than exhausting the stack.
	for i := 0; i < MaxPartTreeDepth+2; i++ {
		ref = put(t, sto, []byte(`{"camliVersion":1,"camliType":"bytes","parts":[{"bytesRef":"`+ref.String()+`","size":1}]}`))
	}

	b, err := blob.FromFetcher(ctx, sto, ref)
	if err != nil {
		t.Fatalf("FromFetcher: %v", err)
	}
	s, err := Parse(ctx, b)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	bs, err := s.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}

	_, err = NewBytesReader(sto, bs.Parts()).Read(ctx)
	if err != ErrDepthExceeded {
		t.Fatalf("err = %v, want ErrDepthExceeded", err)
	}
}

// put stores contents in sto and returns its Ref. Defined locally
// (rather than imported) since memory's own tests define a similar,
// string-taking unexported helper in its own package.
func put(t *testing.T, sto *memory.Storage, contents []byte) blob.Ref {
	t.Helper()
	ref := blob.RefFromContents(contents)
	if _, err := sto.ReceiveBlob(context.Background(), ref, bytes.NewReader(contents)); err != nil {
		t.Fatalf("ReceiveBlob: %v", err)
	}
	return ref
}
