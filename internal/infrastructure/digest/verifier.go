// Package digest implements the admin credential check: a one-way digest of
// the candidate secret compared with a reference digest.
//
// The comparison is plain string equality, not constant-time. The reference
// digest ships with the binary and the check runs on the operator's own
// machine, so it deters casual access and is not a trust boundary.
package digest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

// DefaultAdminDigest is the compiled-in SHA-256 reference digest of the admin password.
const DefaultAdminDigest = "78bd1dbdddb25d4cf807859ab64066f89aebde5f2913ea3be71aba730c79d127"

// Algorithm names a supported 256-bit digest.
type Algorithm string

const (
	SHA256     Algorithm = "sha256"
	SHA3_256   Algorithm = "sha3-256"
	BLAKE2b256 Algorithm = "blake2b-256"
)

var ErrUnknownAlgorithm = errors.New("unknown digest algorithm")

var algorithms = map[Algorithm]func([]byte) [32]byte{
	SHA256:     sha256.Sum256,
	SHA3_256:   sha3.Sum256,
	BLAKE2b256: blake2b.Sum256,
}

// ParseAlgorithm maps a configured name onto an Algorithm.
func ParseAlgorithm(s string) (Algorithm, error) {
	a := Algorithm(strings.ToLower(strings.TrimSpace(s)))
	if a == "" {
		return SHA256, nil
	}
	if _, ok := algorithms[a]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, s)
	}
	return a, nil
}

// Hex returns the lowercase hexadecimal digest of the UTF-8 bytes of s.
func Hex(a Algorithm, s string) (string, error) {
	sum, ok := algorithms[a]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAlgorithm, a)
	}
	d := sum([]byte(s))
	return hex.EncodeToString(d[:]), nil
}

// Verifier checks candidates against a fixed reference digest. It holds no
// mutable state and is safe for concurrent use.
type Verifier struct {
	algorithm Algorithm
	reference string
}

// NewVerifier returns a Verifier for reference, a hex digest produced by algorithm.
func NewVerifier(algorithm Algorithm, reference string) (*Verifier, error) {
	if _, ok := algorithms[algorithm]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, algorithm)
	}
	ref := strings.ToLower(strings.TrimSpace(reference))
	if _, err := hex.DecodeString(ref); err != nil || len(ref) != 64 {
		return nil, fmt.Errorf("reference digest must be 64 hex characters")
	}
	return &Verifier{algorithm: algorithm, reference: ref}, nil
}

// Algorithm returns the digest algorithm in use.
func (v *Verifier) Algorithm() Algorithm {
	return v.algorithm
}

// Verify reports whether the digest of candidate equals the reference.
// An empty candidate never matches.
func (v *Verifier) Verify(_ context.Context, candidate string) bool {
	if candidate == "" {
		return false
	}
	got, err := Hex(v.algorithm, candidate)
	if err != nil {
		return false
	}
	return got == v.reference
}
