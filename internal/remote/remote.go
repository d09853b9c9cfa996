// Package remote implements the downloaders that fetch release artifacts.
//
// Every backend answers the same question: "give me the bytes at this URL".
// - Local reads from a Storage root (mirrors, air-gapped installs)
// - HTTP issues a GET with a pooled client
// - OCI pulls the artifact layer from a container registry
//
// A missing object is a response with StatusNotFound, not an error.
// Errors are reserved for transport failures and policy denials.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Downloader fetches the bytes behind a URL.
type Downloader interface {
	Download(ctx context.Context, rawURL string) (*Response, error)
}

// Response is a status plus a body stream. Callers must close Body.
type Response struct {
	StatusCode int
	// ContentLength is -1 when unknown.
	ContentLength int64
	Body          io.ReadCloser
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func notFound() *Response {
	return &Response{StatusCode: http.StatusNotFound, Body: io.NopCloser(bytes.NewReader(nil))}
}

var (
	ErrForbidden         = errors.New("remote: forbidden by download policy")
	ErrUnsupportedScheme = errors.New("remote: unsupported url scheme")
)

// TransportError wraps a failure to talk to the origin at all.
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DeniedError is returned when a policy rejects a URL.
type DeniedError struct {
	URL    string
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("download %s: %s", e.URL, e.Reason)
}

func (e *DeniedError) Is(target error) bool { return target == ErrForbidden }
