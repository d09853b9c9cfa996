package relcache

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aweris/relcache/internal/checksum"
	"github.com/aweris/relcache/internal/manifest"
	"github.com/aweris/relcache/internal/remote"
)

var (
	ErrNotFound       = errors.New("relcache: not found")
	ErrUnknownVersion = errors.New("relcache: version not in manifest")
	ErrNoOrigin       = errors.New("relcache: no origin configured")

	ErrNoChecksum = checksum.ErrNoChecksum
	ErrForbidden  = remote.ErrForbidden
	ErrNoRelease  = manifest.ErrNoRelease
)

// MismatchError is returned when a download does not match its published digest.
type MismatchError = checksum.MismatchError

// FetchError is a download that completed with a non-success status.
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

func (e *FetchError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}
