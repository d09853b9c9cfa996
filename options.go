package relcache

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aweris/relcache/internal/checksum"
	"github.com/aweris/relcache/internal/remote"
)

const (
	DefaultOrigin   = "https://binaries.soliditylang.org"
	DefaultManifest = "list.json"
)

// Options configures a Manager.
type Options struct {
	Origin   string
	Manifest string
	Platform string

	// CacheDir backs the default storage when Storage is nil.
	CacheDir string
	Storage  Storage
	// StorageCodec compresses objects at rest.
	StorageCodec Codec

	Downloader  Downloader
	Auth        Authenticator
	Timeout     time.Duration
	Concurrency int

	// PayloadCodec decodes artifacts that are published compressed.
	PayloadCodec Codec
	Checksum     checksum.Algorithm
	// Force refetches even when the asset is cached.
	Force bool

	Logger   logrus.FieldLogger
	Progress func(ProgressEvent)
}

// DefaultTimeout bounds each request of the default downloader.
const DefaultTimeout = 5 * time.Minute

// Option is a functional option for configuring New.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Origin:      DefaultOrigin,
		Manifest:    DefaultManifest,
		Platform:    DefaultPlatform(),
		CacheDir:    defaultCacheDir(),
		Concurrency: remote.DefaultConcurrency,
		Timeout:     DefaultTimeout,
		Checksum:    checksum.All,
		Logger:      logrus.StandardLogger(),
	}
}

// WithOrigin sets the base URL builds are published under.
func WithOrigin(origin string) Option {
	return func(o *Options) { o.Origin = origin }
}

// WithManifest sets the listing file name, relative to the platform directory.
func WithManifest(name string) Option {
	return func(o *Options) { o.Manifest = name }
}

// WithPlatform sets the platform directory, e.g. "linux-amd64".
func WithPlatform(platform string) Option {
	return func(o *Options) { o.Platform = platform }
}

// WithCacheDir sets the local cache directory.
func WithCacheDir(dir string) Option {
	return func(o *Options) { o.CacheDir = dir }
}

// WithStorage replaces the default directory storage.
func WithStorage(s Storage) Option {
	return func(o *Options) { o.Storage = s }
}

// WithStorageCodec compresses cached objects with c.
func WithStorageCodec(c Codec) Option {
	return func(o *Options) { o.StorageCodec = c }
}

// WithDownloader replaces the default scheme-dispatching downloader.
func WithDownloader(d Downloader) Option {
	return func(o *Options) { o.Downloader = d }
}

// WithAuth sets registry credentials for oci:// origins.
func WithAuth(auth Authenticator) Option {
	return func(o *Options) { o.Auth = auth }
}

// WithTimeout bounds each HTTP request of the default downloader.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithConcurrency sets the number of parallel downloads.
func WithConcurrency(n int) Option {
	return func(o *Options) {
		if n > 0 {
			o.Concurrency = n
		}
	}
}

// WithPayloadCodec decodes downloaded artifacts before caching them.
func WithPayloadCodec(c Codec) Option {
	return func(o *Options) { o.PayloadCodec = c }
}

// WithChecksum selects the verification policy.
func WithChecksum(alg checksum.Algorithm) Option {
	return func(o *Options) { o.Checksum = alg }
}

// WithForce ignores cached assets.
func WithForce(force bool) Option {
	return func(o *Options) { o.Force = force }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithProgress reports every cache read and write.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(o *Options) { o.Progress = fn }
}

// DefaultPlatform maps the running OS onto the origin's platform directory.
// Releases are only published for amd64.
func DefaultPlatform() string {
	switch runtime.GOOS {
	case "darwin":
		return "macosx-amd64"
	case "windows":
		return "windows-amd64"
	default:
		return "linux-amd64"
	}
}

func defaultCacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "relcache")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "relcache")
	}
	return ".relcache"
}
