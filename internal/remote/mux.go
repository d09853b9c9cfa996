package remote

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Mux dispatches on the URL scheme.
type Mux struct {
	backends map[string]Downloader
}

func NewMux() *Mux {
	return &Mux{backends: make(map[string]Downloader)}
}

// Handle registers d for each scheme, replacing earlier registrations.
func (m *Mux) Handle(d Downloader, schemes ...string) *Mux {
	for _, s := range schemes {
		m.backends[strings.ToLower(s)] = d
	}
	return m
}

func (m *Mux) Download(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	d, ok := m.backends[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)}
	}
	return d.Download(ctx, rawURL)
}
