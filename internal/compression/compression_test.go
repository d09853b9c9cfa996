package compression

import (
	"bytes"
	"io"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/alecthomas/assert/v2"
	"github.com/pierrec/lz4/v4"
)

func codecs() []Codec {
	return []Codec{
		Identity{},
		Deflate{},
		Deflate{Level: LevelNone},
		Deflate{Level: LevelFast},
		Deflate{Level: LevelBest},
		Brotli{},
		Brotli{BufferSize: 16, Quality: 9, LGWin: 18},
		LZ4{},
		LZ4{Level: LevelBest, BlockSize: lz4.Block64Kb},
		Zstd{},
		Zstd{Level: LevelBest},
	}
}

func payloads() map[string][]byte {
	random := make([]byte, 300_000)
	r := rand.New(rand.NewPCG(1, 2))
	for i := range random {
		random[i] = byte(r.Uint32())
	}
	return map[string][]byte{
		"empty":      {},
		"single":     {0x42},
		"text":       bytes.Repeat([]byte("pragma solidity ^0.8.0;\n"), 5000),
		"random":     random,
		"zero-block": make([]byte, 1<<20),
	}
}

func TestRoundTrip(t *testing.T) {
	for _, c := range codecs() {
		for name, data := range payloads() {
			t.Run(c.Name()+"/"+name, func(t *testing.T) {
				encoded, err := Encode(c, data)
				assert.NoError(t, err)
				decoded, err := Decode(c, encoded)
				assert.NoError(t, err)
				assert.True(t, bytes.Equal(data, decoded), "round trip changed %d bytes of input", len(data))
			})
		}
	}
}

// Writes arriving in small pieces must decode to the same stream as one
// bulk write.
func TestStreamingWrites(t *testing.T) {
	data := payloads()["text"]
	for _, c := range codecs() {
		t.Run(c.Name(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := c.NewWriter(&buf)
			assert.NoError(t, err)
			for chunk := range slices.Chunk(data, 777) {
				_, err := w.Write(chunk)
				assert.NoError(t, err)
			}
			assert.NoError(t, w.Close())

			r, err := c.NewReader(&buf)
			assert.NoError(t, err)
			got, err := io.ReadAll(r)
			assert.NoError(t, err)
			assert.NoError(t, r.Close())
			assert.True(t, bytes.Equal(data, got))
		})
	}
}

func TestCompressibleDataShrinks(t *testing.T) {
	data := payloads()["text"]
	for _, c := range []Codec{Deflate{}, Brotli{}, LZ4{}, Zstd{}} {
		encoded, err := Encode(c, data)
		assert.NoError(t, err)
		assert.True(t, len(encoded) < len(data)/4, "%s: %d >= %d", c.Name(), len(encoded), len(data)/4)
	}
}

func TestIdentityIsPassthrough(t *testing.T) {
	data := []byte("unchanged")
	encoded, err := Encode(Identity{}, data)
	assert.NoError(t, err)
	assert.Equal(t, data, encoded)
}

func TestDecodeGarbage(t *testing.T) {
	for _, c := range []Codec{Deflate{}, LZ4{}, Zstd{}} {
		_, err := Decode(c, []byte("definitely not a compressed stream"))
		assert.Error(t, err, c.Name())
	}
}

func TestParse(t *testing.T) {
	for _, name := range []string{"identity", "deflate", "brotli", "lz4", "zstd"} {
		c, err := Parse(name)
		assert.NoError(t, err)
		assert.Equal(t, name, c.Name())
	}
	c, err := Parse("")
	assert.NoError(t, err)
	assert.Equal(t, "identity", c.Name())

	_, err = Parse("gzip")
	assert.Error(t, err)
}

func TestNewWithLevel(t *testing.T) {
	data := bytes.Repeat([]byte("solc-linux-amd64-v0.8.2+commit.661d1103\n"), 500)
	for _, name := range []string{"deflate", "brotli", "lz4", "zstd"} {
		for _, l := range []Level{LevelFast, LevelBest} {
			c, err := New(name, l)
			assert.NoError(t, err)
			enc, err := Encode(c, data)
			assert.NoError(t, err)
			dec, err := Decode(c, enc)
			assert.NoError(t, err)
			assert.Equal(t, data, dec, name+" "+l.String())
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{LevelDefault, LevelNone, LevelFast, LevelBest} {
		parsed, err := ParseLevel(l.String())
		assert.NoError(t, err)
		assert.Equal(t, l, parsed)
	}
	_, err := ParseLevel("extreme")
	assert.Error(t, err)
}
