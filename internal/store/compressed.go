package store

import (
	"fmt"
	"io"

	"github.com/aweris/relcache/internal/compression"
)

// CompressedStore encodes everything written through it and decodes
// everything read. A name must always be read back with the codec it was
// written with.
type CompressedStore struct {
	inner Storage
	codec compression.Codec
}

func NewCompressed(inner Storage, codec compression.Codec) *CompressedStore {
	return &CompressedStore{inner: inner, codec: codec}
}

func (s *CompressedStore) Root() string { return s.inner.Root() }

func (s *CompressedStore) Reader(name string) (io.ReadCloser, bool, error) {
	rc, ok, err := s.inner.Reader(name)
	if err != nil || !ok {
		return nil, ok, err
	}
	dec, err := s.codec.NewReader(rc)
	if err != nil {
		rc.Close()
		return nil, false, fmt.Errorf("failed to decompress object: %w", err)
	}
	return &decodingReader{ReadCloser: dec, src: rc}, true, nil
}

func (s *CompressedStore) Writer(name string) (io.WriteCloser, error) {
	wc, err := s.inner.Writer(name)
	if err != nil {
		return nil, err
	}
	enc, err := s.codec.NewWriter(wc)
	if err != nil {
		Abort(wc)
		return nil, fmt.Errorf("failed to compress object: %w", err)
	}
	return &encodingWriter{WriteCloser: enc, dst: wc}, nil
}

// Stat reports the compressed size.
func (s *CompressedStore) Stat(name string) (int64, bool) { return s.inner.Stat(name) }

func (s *CompressedStore) List(prefix string) ([]string, error) { return List(s.inner, prefix) }

type decodingReader struct {
	io.ReadCloser
	src io.ReadCloser
}

func (r *decodingReader) Close() error {
	err := r.ReadCloser.Close()
	if cerr := r.src.Close(); err == nil {
		err = cerr
	}
	return err
}

type encodingWriter struct {
	io.WriteCloser
	dst io.WriteCloser
}

func (w *encodingWriter) Close() error {
	if err := w.WriteCloser.Close(); err != nil {
		Abort(w.dst)
		return fmt.Errorf("failed to compress object: %w", err)
	}
	return w.dst.Close()
}

func (w *encodingWriter) Abort() error {
	w.WriteCloser.Close()
	return Abort(w.dst)
}
