package compression

import (
	"bufio"
	"io"

	"github.com/andybalholm/brotli"
)

const defaultBrotliBuffer = 4096

// Brotli is a brotli stream codec. Zero fields select the library defaults.
type Brotli struct {
	// BufferSize is the size of the internal read and write buffers.
	BufferSize int
	Quality    int
	LGWin      int
}

func (Brotli) Name() string { return "brotli" }

func brotliQuality(l Level) int {
	switch l {
	case LevelNone, LevelFast:
		return 1
	case LevelBest:
		return brotli.BestCompression
	default:
		return 0
	}
}

func (b Brotli) bufferSize() int {
	if b.BufferSize > 0 {
		return b.BufferSize
	}
	return defaultBrotliBuffer
}

func (b Brotli) NewWriter(w io.Writer) (io.WriteCloser, error) {
	quality := b.Quality
	if quality == 0 {
		quality = brotli.DefaultCompression
	}
	bw := brotli.NewWriterOptions(w, brotli.WriterOptions{Quality: quality, LGWin: b.LGWin})
	return &brotliWriter{buf: bufio.NewWriterSize(bw, b.bufferSize()), bw: bw}, nil
}

func (b Brotli) NewReader(r io.Reader) (io.ReadCloser, error) {
	return io.NopCloser(bufio.NewReaderSize(brotli.NewReader(r), b.bufferSize())), nil
}

type brotliWriter struct {
	buf *bufio.Writer
	bw  *brotli.Writer
}

func (w *brotliWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *brotliWriter) Close() error {
	if err := w.buf.Flush(); err != nil {
		w.bw.Close()
		return err
	}
	return w.bw.Close()
}
