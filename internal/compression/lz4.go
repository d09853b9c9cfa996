package compression

import (
	"io"

	"github.com/pierrec/lz4/v4"
)

// LZ4 is a framed LZ4 stream codec. The frame is finalized once, when the
// writer is closed.
type LZ4 struct {
	Level Level
	// BlockSize is the maximum frame block size; zero keeps the 4MB default.
	BlockSize lz4.BlockSize
}

func (LZ4) Name() string { return "lz4" }

func (l LZ4) compressionLevel() lz4.CompressionLevel {
	switch l.Level {
	case LevelBest:
		return lz4.Level9
	case LevelDefault:
		return lz4.Level5
	default:
		return lz4.Fast
	}
}

func (l LZ4) NewWriter(w io.Writer) (io.WriteCloser, error) {
	zw := lz4.NewWriter(w)
	options := []lz4.Option{lz4.CompressionLevelOption(l.compressionLevel())}
	if l.BlockSize != 0 {
		options = append(options, lz4.BlockSizeOption(l.BlockSize))
	}
	if err := zw.Apply(options...); err != nil {
		return nil, err
	}
	return zw, nil
}

func (LZ4) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(lz4.NewReader(r)), nil
}
