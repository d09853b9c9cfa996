package store

import (
	"errors"
	"io"
)

// Op is the direction of a transfer.
type Op int

const (
	OpRead Op = iota
	OpWrite
)

func (o Op) String() string {
	if o == OpWrite {
		return "write"
	}
	return "read"
}

// Event reports the running byte count of one transfer. The final event
// for a transfer has Done set.
type Event struct {
	Op    Op
	Name  string
	Bytes int64
	Done  bool
}

type ProgressFunc func(Event)

// ProgressStore reports bytes flowing through the inner storage.
type ProgressStore struct {
	inner Storage
	fn    ProgressFunc
}

func NewProgress(inner Storage, fn ProgressFunc) *ProgressStore {
	return &ProgressStore{inner: inner, fn: fn}
}

func (s *ProgressStore) Root() string { return s.inner.Root() }

func (s *ProgressStore) Reader(name string) (io.ReadCloser, bool, error) {
	rc, ok, err := s.inner.Reader(name)
	if err != nil || !ok {
		return nil, ok, err
	}
	return &progressReader{rc: rc, counter: counter{op: OpRead, name: name, fn: s.fn}}, true, nil
}

func (s *ProgressStore) Writer(name string) (io.WriteCloser, error) {
	wc, err := s.inner.Writer(name)
	if err != nil {
		return nil, err
	}
	return &progressWriter{wc: wc, counter: counter{op: OpWrite, name: name, fn: s.fn}}, nil
}

func (s *ProgressStore) Stat(name string) (int64, bool) { return s.inner.Stat(name) }

func (s *ProgressStore) List(prefix string) ([]string, error) { return List(s.inner, prefix) }

type counter struct {
	op    Op
	name  string
	fn    ProgressFunc
	bytes int64
	done  bool
}

func (c *counter) add(n int) {
	if n <= 0 {
		return
	}
	c.bytes += int64(n)
	c.fn(Event{Op: c.op, Name: c.name, Bytes: c.bytes})
}

func (c *counter) finish() {
	if c.done {
		return
	}
	c.done = true
	c.fn(Event{Op: c.op, Name: c.name, Bytes: c.bytes, Done: true})
}

type progressReader struct {
	rc io.ReadCloser
	counter
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.rc.Read(p)
	r.add(n)
	if errors.Is(err, io.EOF) {
		r.finish()
	}
	return n, err
}

func (r *progressReader) Close() error {
	r.finish()
	return r.rc.Close()
}

type progressWriter struct {
	wc io.WriteCloser
	counter
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.wc.Write(p)
	w.add(n)
	return n, err
}

// Close reports completion only once the object is published.
func (w *progressWriter) Close() error {
	if err := w.wc.Close(); err != nil {
		return err
	}
	w.finish()
	return nil
}

func (w *progressWriter) Abort() error {
	return Abort(w.wc)
}
