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

package s3

import (
	"context"
	"path"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/aviau/perkeepy/pkg/blob"
)

// MaxEnumerate is the largest page EnumerateBlobs will request from a
// single ListObjectsV2 call.
const MaxEnumerate = 1000

// EnumerateBlobs drives a paginated list-objects request, yielding
// Refs in ascending order starting strictly after the ref named by
// after. It tracks the last ref seen in an explicit local variable
// (rather than reusing a shared loop variable across pages) so that
// an empty trailing page can't leave the cursor pointed at a stale
// value.
func (s *Storage) EnumerateBlobs(ctx context.Context, dest chan<- blob.SizedRef, after blob.Ref, limit int) error {
	defer close(dest)

	lastSeen := s.dirPrefix
	if after.Valid() {
		lastSeen = s.key(after.String())
	}

	n := 0
	for {
		pageSize := int64(MaxEnumerate)
		out, err := s.client.ListObjectsV2WithContext(ctx, &s3.ListObjectsV2Input{
			Bucket:     aws.String(s.bucket),
			Prefix:     aws.String(s.dirPrefix),
			StartAfter: aws.String(lastSeen),
			MaxKeys:    aws.Int64(pageSize),
		})
		if err != nil {
			return &BackendError{Op: "list-objects", Err: err}
		}
		if len(out.Contents) == 0 {
			return nil
		}
		for _, obj := range out.Contents {
			key := aws.StringValue(obj.Key)
			lastSeen = key

			dir, file := path.Split(key)
			if dir != s.dirPrefix {
				continue
			}
			ref, ok := blob.Parse(file)
			if !ok {
				continue
			}
			sr := blob.SizedRef{Ref: ref, Size: uint32(aws.Int64Value(obj.Size))}
			select {
			case dest <- sr:
			case <-ctx.Done():
				return ctx.Err()
			}
			n++
			if limit > 0 && n == limit {
				return nil
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			return nil
		}
	}
}
