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

package s3

import (
	"bytes"
	"context"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/aviau/perkeepy/pkg/blob"
	"github.com/aviau/perkeepy/pkg/constants"
)

// ReceiveBlob implements blobserver.Receiver with a put-object. The
// body must be buffered to memory first: PutObject needs a seekable
// body to compute its own checksums and to retry.
func (s *Storage) ReceiveBlob(ctx context.Context, ref blob.Ref, source io.Reader) (blob.SizedRef, error) {
	buf, err := io.ReadAll(io.LimitReader(source, constants.MaxBlobSize+1))
	if err != nil {
		return blob.SizedRef{}, &BackendError{Op: "read-body", Err: err}
	}
	if len(buf) > constants.MaxBlobSize {
		return blob.SizedRef{}, &BackendError{Op: "put-object", Err: errTooLarge}
	}
	_, err = s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(ref.String())),
		Body:   bytes.NewReader(buf),
	})
	if err != nil {
		return blob.SizedRef{}, &BackendError{Op: "put-object", Err: err}
	}
	return blob.SizedRef{Ref: ref, Size: uint32(len(buf))}, nil
}

var errTooLarge = blobTooLargeError{}

type blobTooLargeError struct{}

func (blobTooLargeError) Error() string { return "blob exceeds maximum size" }
