/*
Copyright 2013 Google Inc.
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

// Package blob defines types to refer to and retrieve content-addressed
// blobs, the base unit of storage of the system.
package blob

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"hash"
	"regexp"
	"strings"
)

// Pattern is the regular expression which matches a blobref. It does
// not contain ^ or $.
const Pattern = `\b([a-z][a-z0-9]*)-([a-f0-9]+)\b`

var refPattern = regexp.MustCompile("^" + Pattern + "$")

// digestSize is the number of raw digest bytes for sha224, the only
// digest algorithm currently registered. It is kept as its own
// constant (rather than sha256.Size, which is 32) because Go's
// standard library exposes SHA-224 through the sha256 package using
// a distinct constructor.
const digestSize = 28

// digestAlgorithm describes a content digest algorithm that can back a Ref.
// The set of registered algorithms is closed at init time; adding a new
// one means adding an entry to algorithms and a constructor here.
type digestAlgorithm struct {
	name    string
	size    int // digest bytes
	newHash func() hash.Hash
}

var algorithms = map[string]*digestAlgorithm{}

func registerAlgorithm(a *digestAlgorithm) {
	algorithms[a.name] = a
}

var sha224Algorithm = &digestAlgorithm{
	name:    "sha224",
	size:    digestSize,
	newHash: sha256.New224,
}

func init() {
	registerAlgorithm(sha224Algorithm)
}

// RecommendedAlgorithm is the digest algorithm used by FromContents and
// by every Ref minted by this package's convenience constructors.
const RecommendedAlgorithm = "sha224"

// Ref is a reference to a blob, naming it by content digest. It is a
// comparable value type: two Refs are == iff they name the same
// algorithm and the same digest bytes, and a Ref is safe to use as a
// map key or to compare with ==.
//
// The zero Ref is invalid; test with Valid.
type Ref struct {
	alg    *digestAlgorithm
	digest [digestSize]byte
	n      int // bytes of digest actually populated (== alg.size when alg != nil)
}

// Valid reports whether r is a non-zero Ref.
func (r Ref) Valid() bool { return r.alg != nil }

// HashName returns the lowercase algorithm name of r, e.g. "sha224".
// It panics if r is zero.
func (r Ref) HashName() string {
	if r.alg == nil {
		panic("blob: HashName called on invalid Ref")
	}
	return r.alg.name
}

const hexDigit = "0123456789abcdef"

// Digest returns the lowercase hex digest of r, without the
// "<algorithm>-" prefix. It panics if r is zero.
func (r Ref) Digest() string {
	if r.alg == nil {
		panic("blob: Digest called on invalid Ref")
	}
	return hexEncode(r.digest[:r.n])
}

func hexEncode(b []byte) string {
	buf := make([]byte, len(b)*2)
	for i, c := range b {
		buf[i*2] = hexDigit[c>>4]
		buf[i*2+1] = hexDigit[c&0xf]
	}
	return string(buf)
}

// String returns the canonical "<algorithm>-<hex>" textual form of r.
func (r Ref) String() string {
	if r.alg == nil {
		return "<invalid-blob.Ref>"
	}
	return r.alg.name + "-" + r.Digest()
}

// Hash returns a fresh hash.Hash of r's algorithm. It panics if r is zero.
func (r Ref) Hash() hash.Hash {
	if r.alg == nil {
		panic("blob: Hash called on invalid Ref")
	}
	return r.alg.newHash()
}

// HashMatches reports whether h's current sum equals r's digest.
func (r Ref) HashMatches(h hash.Hash) bool {
	if r.alg == nil {
		return false
	}
	sum := h.Sum(nil)
	if len(sum) != r.n {
		return false
	}
	for i, b := range sum {
		if r.digest[i] != b {
			return false
		}
	}
	return true
}

// Equal reports whether r and o name the same algorithm and digest.
// It is equivalent to r == o.
func (r Ref) Equal(o Ref) bool { return r == o }

// Less reports whether r sorts strictly before o in the ascending
// textual ordering used by EnumerateBlobs.
func (r Ref) Less(o Ref) bool { return r.String() < o.String() }

// Parse parses s as a "<algorithm>-<hex>" blob reference. It reports
// ok=false if the algorithm is unregistered, the separator is absent,
// or the hex portion doesn't match the algorithm's digest length.
func Parse(s string) (ref Ref, ok bool) {
	i := strings.IndexByte(s, '-')
	if i < 0 {
		return Ref{}, false
	}
	name, hex := s[:i], s[i+1:]
	alg, ok := algorithms[name]
	if !ok {
		return Ref{}, false
	}
	if len(hex) != alg.size*2 {
		return Ref{}, false
	}
	var digest [digestSize]byte
	for i := 0; i < len(hex); i += 2 {
		hi, ok1 := hexVal(hex[i])
		lo, ok2 := hexVal(hex[i+1])
		if !ok1 || !ok2 {
			return Ref{}, false
		}
		digest[i/2] = hi<<4 | lo
	}
	return Ref{alg: alg, digest: digest, n: alg.size}, true
}

// ParseOrZero is like Parse but returns the zero Ref (Valid() == false)
// on failure instead of a boolean.
func ParseOrZero(s string) Ref {
	ref, ok := Parse(s)
	if !ok {
		return Ref{}
	}
	return ref
}

// MustParse is like Parse but panics if s is invalid.
func MustParse(s string) Ref {
	ref, ok := Parse(s)
	if !ok {
		panic("blob: invalid ref " + s)
	}
	return ref
}

func hexVal(b byte) (byte, bool) {
	switch {
	case '0' <= b && b <= '9':
		return b - '0', true
	case 'a' <= b && b <= 'f':
		return b - 'a' + 10, true
	default:
		return 0, false
	}
}

// refFromHash builds a Ref of the given algorithm from a finalized hash.
func refFromHash(alg *digestAlgorithm, h hash.Hash) Ref {
	sum := h.Sum(nil)
	if len(sum) != alg.size {
		panic(fmt.Sprintf("blob: hash produced %d bytes; algorithm %q wants %d", len(sum), alg.name, alg.size))
	}
	var digest [digestSize]byte
	copy(digest[:], sum)
	return Ref{alg: alg, digest: digest, n: alg.size}
}

// RefFromContents returns the Ref naming b under the currently
// recommended digest algorithm.
func RefFromContents(b []byte) Ref {
	h := sha224Algorithm.newHash()
	h.Write(b)
	return refFromHash(sha224Algorithm, h)
}

// RefFromString is a convenience wrapper around RefFromContents.
func RefFromString(s string) Ref {
	return RefFromContents([]byte(s))
}

// MarshalJSON implements json.Marshaler, emitting the canonical
// "<algorithm>-<hex>" string form.
func (r Ref) MarshalJSON() ([]byte, error) {
	if r.alg == nil {
		return nil, errors.New("blob: cannot marshal invalid Ref")
	}
	s := r.String()
	buf := make([]byte, 0, len(s)+2)
	buf = append(buf, '"')
	buf = append(buf, s...)
	buf = append(buf, '"')
	return buf, nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (r *Ref) UnmarshalJSON(d []byte) error {
	if r.alg != nil {
		return errors.New("blob: cannot unmarshal into a non-zero Ref")
	}
	if len(d) < 2 || d[0] != '"' || d[len(d)-1] != '"' {
		return fmt.Errorf("blob: expecting JSON string to unmarshal, got %q", d)
	}
	s := string(d[1 : len(d)-1])
	p, ok := Parse(s)
	if !ok {
		return fmt.Errorf("blob: invalid blobref %q", s)
	}
	*r = p
	return nil
}

// ValidRefString reports whether s parses as a valid Ref.
func ValidRefString(s string) bool {
	return refPattern.MatchString(s) && ParseOrZero(s).Valid()
}

// SizedRef pairs a Ref with the size of the blob it names, as produced
// by EnumerateBlobs.
type SizedRef struct {
	Ref
	Size uint32
}

func (sr SizedRef) String() string {
	return fmt.Sprintf("[%s; %d bytes]", sr.Ref.String(), sr.Size)
}
