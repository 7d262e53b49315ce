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

package blob

import (
	"context"
	"errors"
	"testing"
)

func TestBlobFromContentsIsValid(t *testing.T) {
	b := FromContents([]byte("test"))
	const want = "sha224-90a3ed9e32b2aaf4c61c410eb925426119e1a9dc53d4286ade99a809"
	if got := b.Ref().String(); got != want {
		t.Fatalf("Ref() = %q; want %q", got, want)
	}
	if !b.IsValid(context.Background()) {
		t.Error("IsValid() = false for untampered blob")
	}
}

func TestBlobInvalidAfterTamperedProducer(t *testing.T) {
	ref := RefFromContents([]byte("test"))
	b := NewBlob(ref, func(context.Context) ([]byte, error) {
		return []byte("other"), nil
	})
	if b.IsValid(context.Background()) {
		t.Error("IsValid() = true for tampered blob producer")
	}
}

func TestBlobProducerCalledOnce(t *testing.T) {
	calls := 0
	b := NewBlob(RefFromContents([]byte("x")), func(context.Context) ([]byte, error) {
		calls++
		return []byte("x"), nil
	})
	for i := 0; i < 3; i++ {
		if _, err := b.Bytes(context.Background()); err != nil {
			t.Fatal(err)
		}
	}
	if calls != 1 {
		t.Errorf("producer called %d times; want 1", calls)
	}
}

func TestBlobProducerFailurePropagates(t *testing.T) {
	wantErr := errors.New("boom")
	b := NewBlob(RefFromContents([]byte("x")), func(context.Context) ([]byte, error) {
		return nil, wantErr
	})
	_, err := b.Bytes(context.Background())
	if !errors.Is(err, wantErr) {
		t.Errorf("Bytes() error = %v; want %v", err, wantErr)
	}
	if b.IsValid(context.Background()) {
		t.Error("IsValid() = true despite producer failure")
	}
}

func TestIsUTF8(t *testing.T) {
	ok, err := FromContents([]byte("hello")).IsUTF8(context.Background())
	if err != nil || !ok {
		t.Errorf("IsUTF8() = %v, %v; want true, nil", ok, err)
	}
	bad, err := FromContents([]byte{0xff, 0xfe, 0xfd}).IsUTF8(context.Background())
	if err != nil || bad {
		t.Errorf("IsUTF8() = %v, %v; want false, nil", bad, err)
	}
}
