/*
Copyright 2014 The Perkeep Authors

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

// Package constants holds the few size limits shared across the blob,
// schema and blobserver packages.
package constants

// MaxBlobSize is the upper bound on the size of a single blob accepted
// by a Storage implementation.
const MaxBlobSize = 16 << 20

// MaxSchemaBlobSize is the upper bound on the size of a schema blob:
// a JSON document describing bytes/file/permanode/claim structure.
// Schema blobs are always small; this limit exists so that a hostile
// or buggy blob can't be parsed as JSON with unbounded memory use.
const MaxSchemaBlobSize = 1000000
