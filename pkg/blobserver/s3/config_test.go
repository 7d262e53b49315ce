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
	"testing"

	"go4.org/jsonconfig"
)

func TestNewFromConfigSplitsBucketPrefix(t *testing.T) {
	sto, err := NewFromConfig(jsonconfig.Obj{
		"bucket":                "mybucket/some/dir",
		"aws_access_key":        "AKIAEXAMPLE",
		"aws_secret_access_key": "secretexample",
	})
	if err != nil {
		t.Fatalf("NewFromConfig: %v", err)
	}
	if sto.bucket != "mybucket" {
		t.Errorf("bucket = %q, want %q", sto.bucket, "mybucket")
	}
	if sto.dirPrefix != "some/dir/" {
		t.Errorf("dirPrefix = %q, want %q", sto.dirPrefix, "some/dir/")
	}
}

func TestNewFromConfigRequiresBucket(t *testing.T) {
	_, err := NewFromConfig(jsonconfig.Obj{
		"aws_access_key":        "AKIAEXAMPLE",
		"aws_secret_access_key": "secretexample",
	})
	if err == nil {
		t.Fatal("expected error for missing bucket")
	}
}
