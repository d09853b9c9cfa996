package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/aweris/relcache/internal/store"
)

// Local serves URLs out of a Storage. The URL path, minus prefix, is the
// object name; host and query are ignored.
type Local struct {
	storage store.Storage
	prefix  string
}

func NewLocal(storage store.Storage, prefix string) *Local {
	return &Local{storage: storage, prefix: strings.Trim(prefix, "/")}
}

func (d *Local) Download(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	name := strings.TrimPrefix(path.Clean("/"+u.Path), "/")
	if d.prefix != "" {
		rel, ok := strings.CutPrefix(name, d.prefix+"/")
		if !ok {
			return notFound(), nil
		}
		name = rel
	}
	if name == "" {
		return notFound(), nil
	}
	rc, ok, err := d.storage.Reader(name)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read %s from %s: %w", name, d.storage.Root(), err)}
	}
	if !ok {
		return notFound(), nil
	}
	// Stat reports stored bytes, which differ from the body for compressed storages.
	return &Response{StatusCode: http.StatusOK, ContentLength: -1, Body: rc}, nil
}
