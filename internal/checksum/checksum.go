// Package checksum verifies downloaded artifacts against the digests
// published in a release manifest.
package checksum

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"sort"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Size is the digest width of every hashing algorithm in this package.
const Size = 32

const hexPrefix = "0x"

// Algorithm selects a digest function or a verification policy.
// Unverified and All are policies only: they never appear on a Checksum.
type Algorithm int

const (
	Keccak256 Algorithm = iota + 1
	SHA256
	Unverified
	All
)

func (a Algorithm) String() string {
	switch a {
	case Keccak256:
		return "keccak256"
	case SHA256:
		return "sha256"
	case Unverified:
		return "unverified"
	case All:
		return "all"
	default:
		return fmt.Sprintf("unknown(%d)", int(a))
	}
}

// ParseAlgorithm parses the names produced by Algorithm.String.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch strings.ToLower(name) {
	case "keccak256", "keccak-256":
		return Keccak256, nil
	case "sha256", "sha-256":
		return SHA256, nil
	case "unverified", "none":
		return Unverified, nil
	case "all":
		return All, nil
	default:
		return 0, fmt.Errorf("unknown checksum algorithm: %q", name)
	}
}

// Hashing reports whether the algorithm is a digest function rather than a policy.
func (a Algorithm) Hashing() bool {
	return a == Keccak256 || a == SHA256
}

// Hasher returns a fresh streaming hash for a digest algorithm.
func (a Algorithm) Hasher() (hash.Hash, error) {
	switch a {
	case Keccak256:
		return sha3.NewLegacyKeccak256(), nil
	case SHA256:
		return sha256.New(), nil
	default:
		return nil, fmt.Errorf("%s is not a digest algorithm", a)
	}
}

// Checksum is an algorithm tag plus its fixed-width digest.
type Checksum struct {
	algorithm Algorithm
	digest    [Size]byte
}

// New builds a checksum from raw digest bytes. A digest of the wrong
// length is rejected here rather than reported as a mismatch later.
func New(algorithm Algorithm, digest []byte) (Checksum, error) {
	if !algorithm.Hashing() {
		return Checksum{}, fmt.Errorf("%s is not a digest algorithm", algorithm)
	}
	if len(digest) != Size {
		return Checksum{}, fmt.Errorf("invalid %s digest length: got %d, want %d", algorithm, len(digest), Size)
	}
	c := Checksum{algorithm: algorithm}
	copy(c.digest[:], digest)
	return c, nil
}

// Parse decodes a 0x-prefixed hex digest.
func Parse(algorithm Algorithm, s string) (Checksum, error) {
	raw, ok := strings.CutPrefix(s, hexPrefix)
	if !ok {
		return Checksum{}, fmt.Errorf("parse %s digest %q: missing 0x prefix", algorithm, s)
	}
	digest, err := hex.DecodeString(raw)
	if err != nil {
		return Checksum{}, fmt.Errorf("parse %s digest %q: %w", algorithm, s, err)
	}
	return New(algorithm, digest)
}

// Sum hashes data in full.
func Sum(algorithm Algorithm, data []byte) (Checksum, error) {
	h, err := algorithm.Hasher()
	if err != nil {
		return Checksum{}, err
	}
	h.Write(data)
	return New(algorithm, h.Sum(nil))
}

func (c Checksum) Algorithm() Algorithm { return c.algorithm }

func (c Checksum) String() string {
	return hexPrefix + hex.EncodeToString(c.digest[:])
}

func (c Checksum) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Compare orders checksums by algorithm and then digest bytes.
func (c Checksum) Compare(other Checksum) int {
	if c.algorithm != other.algorithm {
		if c.algorithm < other.algorithm {
			return -1
		}
		return 1
	}
	return bytes.Compare(c.digest[:], other.digest[:])
}

// MismatchError is returned when computed and published digests differ.
type MismatchError struct {
	Algorithm Algorithm
	Expected  string
	Found     string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch (%s): expected %s, found %s", e.Algorithm, e.Expected, e.Found)
}

// Verify hashes data with the expected checksum's algorithm and compares.
func Verify(expected Checksum, data []byte) error {
	found, err := Sum(expected.algorithm, data)
	if err != nil {
		return err
	}
	if found != expected {
		return &MismatchError{
			Algorithm: expected.algorithm,
			Expected:  expected.String(),
			Found:     found.String(),
		}
	}
	return nil
}

// ErrNoChecksum means the policy asked for a digest the artifact does not publish.
var ErrNoChecksum = errors.New("checksum: no published digest")

// Set holds the checksums published for one artifact, at most one per algorithm.
type Set map[Algorithm]Checksum

// Add inserts c, replacing any existing checksum for the same algorithm.
func (s Set) Add(c Checksum) {
	s[c.algorithm] = c
}

// Sorted returns the checksums in algorithm order.
func (s Set) Sorted() []Checksum {
	out := make([]Checksum, 0, len(s))
	for _, c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Compare(out[j]) < 0 })
	return out
}

// VerifyPolicy checks data against the published set under a policy.
// All requires every published checksum to verify; an empty set fails.
func VerifyPolicy(policy Algorithm, set Set, data []byte) error {
	switch policy {
	case Unverified:
		return nil
	case All:
		if len(set) == 0 {
			return fmt.Errorf("verify all: %w", ErrNoChecksum)
		}
		for _, c := range set.Sorted() {
			if err := Verify(c, data); err != nil {
				return err
			}
		}
		return nil
	case Keccak256, SHA256:
		c, ok := set[policy]
		if !ok {
			return fmt.Errorf("verify %s: %w", policy, ErrNoChecksum)
		}
		return Verify(c, data)
	default:
		return fmt.Errorf("unknown checksum policy %s", policy)
	}
}
