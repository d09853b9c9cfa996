package remote

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/aweris/relcache/internal/pattern"
)

// Predicate inspects a URL. A non-empty reason rejects it.
type Predicate func(u *url.URL) (reason string)

// AllowSchemes rejects URLs whose scheme is not listed.
func AllowSchemes(schemes ...string) Predicate {
	return func(u *url.URL) string {
		if slices.Contains(schemes, strings.ToLower(u.Scheme)) {
			return ""
		}
		return fmt.Sprintf("scheme %q is not allowed", u.Scheme)
	}
}

// AllowHosts rejects URLs whose host is not listed. Local file URLs have
// no host and are not affected.
func AllowHosts(hosts ...string) Predicate {
	return func(u *url.URL) string {
		if u.Host == "" || slices.Contains(hosts, strings.ToLower(u.Hostname())) || slices.Contains(hosts, strings.ToLower(u.Host)) {
			return ""
		}
		return fmt.Sprintf("host %q is not allowed", u.Host)
	}
}

// DenyMatching rejects URLs whose string form matches p.
func DenyMatching(p pattern.Pattern) Predicate {
	return func(u *url.URL) string {
		if p.Match(u.String()) {
			return fmt.Sprintf("url matches deny rule %s", p)
		}
		return ""
	}
}

// Policy checks every predicate before delegating. The inner downloader
// never sees a rejected URL.
type Policy struct {
	inner      Downloader
	predicates []Predicate
}

func NewPolicy(inner Downloader, predicates ...Predicate) *Policy {
	return &Policy{inner: inner, predicates: predicates}
}

func (p *Policy) Download(ctx context.Context, rawURL string) (*Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	for _, check := range p.predicates {
		if reason := check(u); reason != "" {
			return nil, &DeniedError{URL: rawURL, Reason: reason}
		}
	}
	return p.inner.Download(ctx, rawURL)
}
