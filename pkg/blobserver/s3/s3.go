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

// Package s3 implements blobserver.Storage against an Amazon S3
// (or S3-compatible) bucket, mapping each Ref to the object key
// "<dirPrefix><ref-text>".
package s3

import (
	"strings"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// Storage implements blobserver.Storage on top of an S3 bucket.
type Storage struct {
	client    s3iface.S3API
	bucket    string
	dirPrefix string // either "" or ends in "/"
}

// Config describes how to reach a bucket.
type Config struct {
	Bucket    string
	DirPrefix string // optional; a trailing "/" is added if missing
}

// New constructs a Storage from an established AWS session and config.
func New(sess *session.Session, cfg Config) *Storage {
	return newWithClient(s3.New(sess), cfg)
}

func newWithClient(client s3iface.S3API, cfg Config) *Storage {
	prefix := cfg.DirPrefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Storage{
		client:    client,
		bucket:    cfg.Bucket,
		dirPrefix: prefix,
	}
}

func (s *Storage) key(refText string) string {
	return s.dirPrefix + refText
}
