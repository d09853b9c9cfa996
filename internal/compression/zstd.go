package compression

import (
	"io"

	"github.com/klauspost/compress/zstd"
)

// Zstd is a zstandard stream codec.
type Zstd struct {
	Level Level
}

func (Zstd) Name() string { return "zstd" }

func (z Zstd) encoderLevel() zstd.EncoderLevel {
	switch z.Level {
	case LevelNone, LevelFast:
		return zstd.SpeedFastest
	case LevelBest:
		return zstd.SpeedBetterCompression
	default:
		return zstd.SpeedDefault
	}
}

func (z Zstd) NewWriter(w io.Writer) (io.WriteCloser, error) {
	return zstd.NewWriter(w,
		zstd.WithEncoderLevel(z.encoderLevel()),
		zstd.WithEncoderConcurrency(1),
	)
}

func (Zstd) NewReader(r io.Reader) (io.ReadCloser, error) {
	d, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, err
	}
	return d.IOReadCloser(), nil
}
