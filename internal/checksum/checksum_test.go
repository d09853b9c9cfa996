package checksum

import (
	"errors"
	"testing"

	"github.com/alecthomas/assert/v2"
)

const (
	sha256ABC    = "0xba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	keccak256ABC = "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"
	keccak256Nil = "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"
)

func TestKnownVectors(t *testing.T) {
	tests := []struct {
		algorithm Algorithm
		data      string
		want      string
	}{
		{SHA256, "abc", sha256ABC},
		{Keccak256, "abc", keccak256ABC},
		{Keccak256, "", keccak256Nil},
	}
	for _, tt := range tests {
		t.Run(tt.algorithm.String()+"/"+tt.data, func(t *testing.T) {
			got, err := Sum(tt.algorithm, []byte(tt.data))
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	c, err := Parse(SHA256, sha256ABC)
	assert.NoError(t, err)
	assert.Equal(t, SHA256, c.Algorithm())
	assert.Equal(t, sha256ABC, c.String())

	sum, err := Sum(SHA256, []byte("abc"))
	assert.NoError(t, err)
	assert.True(t, sum == c)
	assert.Equal(t, 0, sum.Compare(c))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(SHA256, sha256ABC[2:])
	assert.Error(t, err)

	_, err = Parse(SHA256, "0xzz")
	assert.Error(t, err)

	_, err = Parse(SHA256, "0xabcd")
	assert.EqualError(t, err, "invalid sha256 digest length: got 2, want 32")

	_, err = Parse(All, sha256ABC)
	assert.Error(t, err)
}

func TestVerify(t *testing.T) {
	expected, err := Parse(SHA256, sha256ABC)
	assert.NoError(t, err)
	assert.NoError(t, Verify(expected, []byte("abc")))
}

func TestVerifyMismatchReportsBothDigests(t *testing.T) {
	expected, err := Parse(Keccak256, keccak256Nil)
	assert.NoError(t, err)

	err = Verify(expected, []byte("abc"))
	var mismatch *MismatchError
	assert.True(t, errors.As(err, &mismatch))
	assert.Equal(t, Keccak256, mismatch.Algorithm)
	assert.Equal(t, keccak256Nil, mismatch.Expected)
	assert.Equal(t, keccak256ABC, mismatch.Found)
	assert.Contains(t, err.Error(), "expected "+keccak256Nil)
	assert.Contains(t, err.Error(), "found "+keccak256ABC)
}

func TestVerifyPolicy(t *testing.T) {
	sha, err := Parse(SHA256, sha256ABC)
	assert.NoError(t, err)
	keccak, err := Parse(Keccak256, keccak256ABC)
	assert.NoError(t, err)
	wrongKeccak, err := Parse(Keccak256, keccak256Nil)
	assert.NoError(t, err)

	good := Set{SHA256: sha, Keccak256: keccak}
	oneBad := Set{SHA256: sha, Keccak256: wrongKeccak}
	shaOnly := Set{SHA256: sha}

	data := []byte("abc")
	assert.NoError(t, VerifyPolicy(SHA256, good, data))
	assert.NoError(t, VerifyPolicy(Keccak256, good, data))
	assert.NoError(t, VerifyPolicy(All, good, data))
	assert.NoError(t, VerifyPolicy(Unverified, nil, []byte("anything")))

	assert.NoError(t, VerifyPolicy(SHA256, oneBad, data))
	var mismatch *MismatchError
	assert.True(t, errors.As(VerifyPolicy(All, oneBad, data), &mismatch))
	assert.Equal(t, Keccak256, mismatch.Algorithm)

	assert.True(t, errors.Is(VerifyPolicy(Keccak256, shaOnly, data), ErrNoChecksum))
	assert.True(t, errors.Is(VerifyPolicy(All, Set{}, data), ErrNoChecksum))
}

func TestParseAlgorithm(t *testing.T) {
	for _, a := range []Algorithm{Keccak256, SHA256, Unverified, All} {
		parsed, err := ParseAlgorithm(a.String())
		assert.NoError(t, err)
		assert.Equal(t, a, parsed)
	}
	_, err := ParseAlgorithm("md5")
	assert.Error(t, err)
}

func TestSetSorted(t *testing.T) {
	sha, _ := Parse(SHA256, sha256ABC)
	keccak, _ := Parse(Keccak256, keccak256ABC)
	s := Set{}
	s.Add(sha)
	s.Add(keccak)
	assert.Equal(t, []Checksum{keccak, sha}, s.Sorted())
}
