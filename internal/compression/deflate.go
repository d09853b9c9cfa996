package compression

import (
	"io"

	"github.com/klauspost/compress/flate"
)

// Deflate is a raw DEFLATE stream codec (no zlib or gzip framing).
type Deflate struct {
	Level Level
}

func (Deflate) Name() string { return "deflate" }

func (d Deflate) flateLevel() int {
	switch d.Level {
	case LevelNone:
		return flate.NoCompression
	case LevelFast:
		return flate.BestSpeed
	case LevelBest:
		return flate.BestCompression
	default:
		return flate.DefaultCompression
	}
}

func (d Deflate) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return flate.NewWriter(w, d.flateLevel())
}

func (Deflate) NewReader(r io.Reader) (io.ReadCloser, error) {
	return flate.NewReader(r), nil
}
