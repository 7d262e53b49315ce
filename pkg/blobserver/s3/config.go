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
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"go4.org/jsonconfig"
)

// NewFromConfig builds a Storage from a low-level server config object,
// in the style of:
//
//	{
//	  "bucket": "mybucket/optional/dir/prefix",
//	  "aws_access_key": "...",
//	  "aws_secret_access_key": "...",
//	  "hostname": "s3.amazonaws.com",
//	  "region": "us-east-1"
//	}
func NewFromConfig(config jsonconfig.Obj) (*Storage, error) {
	bucket := config.RequiredString("bucket")
	accessKey := config.RequiredString("aws_access_key")
	secretKey := config.RequiredString("aws_secret_access_key")
	hostname := config.OptionalString("hostname", "s3.amazonaws.com")
	region := config.OptionalString("region", "us-east-1")
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var dirPrefix string
	if parts := strings.SplitN(bucket, "/", 2); len(parts) > 1 {
		bucket, dirPrefix = parts[0], parts[1]
	}

	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(hostname),
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	return New(sess, Config{Bucket: bucket, DirPrefix: dirPrefix}), nil
}
