// Package compression provides the codecs used for compressed release
// payloads and for compressed cache storage.
//
// Every codec is a stateless value; encoders and decoders are streaming
// adapters created per call.
package compression

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Codec is a symmetric compression strategy.
type Codec interface {
	Name() string
	// NewWriter wraps w; data is flushed and the stream finalized on Close.
	// Close does not close w.
	NewWriter(w io.Writer) (io.WriteCloser, error)
	NewReader(r io.Reader) (io.ReadCloser, error)
}

// Level is a codec-independent compression level.
type Level int

const (
	LevelDefault Level = iota
	LevelNone
	LevelFast
	LevelBest
)

func (l Level) String() string {
	switch l {
	case LevelDefault:
		return "default"
	case LevelNone:
		return "none"
	case LevelFast:
		return "fast"
	case LevelBest:
		return "best"
	default:
		return fmt.Sprintf("unknown(%d)", int(l))
	}
}

func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return LevelDefault, nil
	case "none":
		return LevelNone, nil
	case "fast":
		return LevelFast, nil
	case "best":
		return LevelBest, nil
	default:
		return 0, fmt.Errorf("unknown compression level: %q", name)
	}
}

// Parse returns the codec registered under name with default settings.
func Parse(name string) (Codec, error) {
	return New(name, LevelDefault)
}

// New returns the codec registered under name tuned to level.
func New(name string, level Level) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "none", "identity":
		return Identity{}, nil
	case "deflate":
		return Deflate{Level: level}, nil
	case "brotli", "br":
		return Brotli{Quality: brotliQuality(level)}, nil
	case "lz4":
		return LZ4{Level: level}, nil
	case "zstd":
		return Zstd{Level: level}, nil
	default:
		return nil, fmt.Errorf("unknown codec: %q", name)
	}
}

// Encode compresses data in one shot.
func Encode(c Codec, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := c.NewWriter(&buf)
	if err != nil {
		return nil, fmt.Errorf("%s encoder: %w", c.Name(), err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("%s encode: %w", c.Name(), err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("%s encode: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// Decode decompresses data in one shot.
func Decode(c Codec, data []byte) ([]byte, error) {
	r, err := c.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s decoder: %w", c.Name(), err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", c.Name(), err)
	}
	return out, nil
}

// Identity passes bytes through untouched.
type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return nopWriteCloser{w}, nil
}

func (Identity) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(r), nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
