package remote

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	"github.com/google/go-containerregistry/pkg/v1/remote/transport"
)

const maxTagLength = 128

// OCI pulls artifacts published as single-layer images. The last URL path
// segment becomes the tag, the rest the repository:
//
//	oci://ghcr.io/acme/solc/linux-amd64/solc-linux-amd64-v0.8.2+commit.661d1103
//	=> ghcr.io/acme/solc/linux-amd64:solc-linux-amd64-v0.8.2_commit.661d1103
//
// The body is the first layer's blob, byte for byte.
type OCI struct {
	auth      Authenticator
	transport http.RoundTripper
	insecure  bool
}

// NewOCI creates a registry downloader. A nil auth uses the docker
// keychain; a nil transport uses the library default.
func NewOCI(auth Authenticator, rt http.RoundTripper) *OCI {
	return &OCI{auth: auth, transport: rt}
}

// SetInsecure allows plain http registries.
func (d *OCI) SetInsecure(insecure bool) {
	d.insecure = insecure
}

func (d *OCI) Download(ctx context.Context, rawURL string) (*Response, error) {
	ref, err := d.reference(rawURL)
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: err}
	}
	img, err := remote.Image(ref, d.remoteOptions(ctx, ref)...)
	if err != nil {
		if isNotFound(err) {
			return notFound(), nil
		}
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("fetch image: %w", err)}
	}
	layers, err := img.Layers()
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("get layers: %w", err)}
	}
	if len(layers) == 0 {
		return notFound(), nil
	}
	size, err := layers[0].Size()
	if err != nil {
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("get layer size: %w", err)}
	}
	rc, err := layers[0].Compressed()
	if err != nil {
		if isNotFound(err) {
			return notFound(), nil
		}
		return nil, &TransportError{URL: rawURL, Err: fmt.Errorf("read layer: %w", err)}
	}
	return &Response{StatusCode: http.StatusOK, ContentLength: size, Body: rc}, nil
}

// Reference exposes the image a URL maps to.
func (d *OCI) Reference(rawURL string) (string, error) {
	ref, err := d.reference(rawURL)
	if err != nil {
		return "", err
	}
	return ref.String(), nil
}

func (d *OCI) reference(rawURL string) (name.Reference, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "oci" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	p := path.Clean("/" + u.Path)
	if u.Host == "" || p == "/" || path.Dir(p) == "/" {
		return nil, fmt.Errorf("invalid oci url %q: want oci://registry/repository/name", rawURL)
	}
	repo := u.Host + path.Dir(p)
	var opts []name.Option
	if d.insecure {
		opts = append(opts, name.Insecure)
	}
	ref, err := name.NewTag(repo+":"+sanitizeTag(path.Base(p)), opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid image ref for %q: %w", rawURL, err)
	}
	return ref, nil
}

// sanitizeTag maps a file name onto the tag grammar [\w][\w.-]{0,127}.
func sanitizeTag(s string) string {
	var b strings.Builder
	for i, r := range s {
		ok := r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9'
		if i > 0 {
			ok = ok || r == '.' || r == '-'
		}
		if ok {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	tag := b.String()
	if len(tag) > maxTagLength {
		tag = tag[:maxTagLength]
	}
	return tag
}

func (d *OCI) remoteOptions(ctx context.Context, ref name.Reference) []remote.Option {
	options := []remote.Option{remote.WithContext(ctx)}
	if d.transport != nil {
		options = append(options, remote.WithTransport(d.transport))
	}
	if d.auth != nil {
		username, password, err := d.auth.Authenticate(ref.Context().RegistryStr())
		if err == nil && username != "" {
			return append(options, remote.WithAuth(&authn.Basic{
				Username: username,
				Password: password,
			}))
		}
	}
	return append(options, remote.WithAuthFromKeychain(authn.DefaultKeychain))
}

func isNotFound(err error) bool {
	var terr *transport.Error
	return errors.As(err, &terr) && terr.StatusCode == http.StatusNotFound
}
