package relcache

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/aweris/relcache/internal/checksum"
	"github.com/aweris/relcache/internal/compression"
	"github.com/aweris/relcache/internal/remote"
	"github.com/aweris/relcache/internal/store"
)

// Storage backends selectable from configuration.
const (
	StorageDirect  = "direct"
	StorageOS      = "os"
	StorageMemory  = "memory"
	StorageAltRoot = "altroot"
	StorageOverlay = "overlay"
)

// Config is the file/env/flag form of Options.
type Config struct {
	Origin   string `mapstructure:"origin"`
	Manifest string `mapstructure:"manifest"`
	Platform string `mapstructure:"platform"`

	CacheDir string `mapstructure:"cache_dir"`
	Storage  string `mapstructure:"storage"`
	// OverlayDirs are read-only layers below CacheDir for the overlay backend.
	OverlayDirs []string `mapstructure:"overlay_dirs"`
	// AltRootBase jails the altroot backend below CacheDir.
	AltRootBase string `mapstructure:"altroot_base"`
	Codec       string `mapstructure:"codec"`
	CodecLevel  string `mapstructure:"codec_level"`

	PayloadCodec string        `mapstructure:"payload_codec"`
	Checksum     string        `mapstructure:"checksum"`
	Concurrency  int           `mapstructure:"concurrency"`
	Timeout      time.Duration `mapstructure:"timeout"`
	AllowHosts   []string      `mapstructure:"allow_hosts"`

	Registry RegistryConfig `mapstructure:"registry"`
}

// RegistryConfig holds credentials for oci:// origins.
type RegistryConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Insecure bool   `mapstructure:"insecure"`
}

// DefaultConfig mirrors the defaults of New.
func DefaultConfig() Config {
	o := defaultOptions()
	return Config{
		Origin:      o.Origin,
		Manifest:    o.Manifest,
		Platform:    o.Platform,
		CacheDir:    o.CacheDir,
		Storage:     StorageDirect,
		Codec:       "none",
		Checksum:    o.Checksum.String(),
		Concurrency: o.Concurrency,
		Timeout:     o.Timeout,
	}
}

// FromConfig translates c into options for New.
func FromConfig(c Config) ([]Option, error) {
	opts := []Option{
		WithConcurrency(c.Concurrency),
		WithTimeout(c.Timeout),
	}
	if c.Origin != "" {
		opts = append(opts, WithOrigin(strings.TrimRight(c.Origin, "/")))
	}
	if c.Manifest != "" {
		opts = append(opts, WithManifest(c.Manifest))
	}
	if c.Platform != "" {
		opts = append(opts, WithPlatform(c.Platform))
	}
	if c.CacheDir != "" {
		opts = append(opts, WithCacheDir(expandPath(c.CacheDir)))
	}

	s, err := newStorage(c)
	if err != nil {
		return nil, err
	}
	if s != nil {
		opts = append(opts, WithStorage(s))
	}

	if c.Codec != "" {
		level, err := compression.ParseLevel(c.CodecLevel)
		if err != nil {
			return nil, fmt.Errorf("storage codec: %w", err)
		}
		codec, err := compression.New(c.Codec, level)
		if err != nil {
			return nil, fmt.Errorf("storage codec: %w", err)
		}
		if _, identity := codec.(compression.Identity); !identity {
			opts = append(opts, WithStorageCodec(codec))
		}
	}
	if c.PayloadCodec != "" {
		codec, err := compression.Parse(c.PayloadCodec)
		if err != nil {
			return nil, fmt.Errorf("payload codec: %w", err)
		}
		if _, identity := codec.(compression.Identity); !identity {
			opts = append(opts, WithPayloadCodec(codec))
		}
	}
	if c.Checksum != "" {
		alg, err := checksum.ParseAlgorithm(c.Checksum)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithChecksum(alg))
	}

	auth := remote.NewBasicAuthenticator(c.Registry.Username, c.Registry.Password)
	if auth != nil {
		opts = append(opts, WithAuth(auth))
	}
	if len(c.AllowHosts) > 0 || c.Registry.Insecure {
		d := newDownloader(c.Timeout, c.Concurrency, auth, c.Registry.Insecure)
		if len(c.AllowHosts) > 0 {
			hosts := make([]string, len(c.AllowHosts))
			for i, h := range c.AllowHosts {
				hosts[i] = strings.ToLower(h)
			}
			d = remote.NewPolicy(d, remote.AllowHosts(hosts...))
		}
		opts = append(opts, WithDownloader(d))
	}
	return opts, nil
}

// newStorage returns nil for the default backend, which New creates lazily
// from the cache directory.
func newStorage(c Config) (Storage, error) {
	dir := expandPath(c.CacheDir)
	if dir == "" {
		dir = defaultCacheDir()
	}
	switch strings.ToLower(c.Storage) {
	case "", StorageDirect:
		return nil, nil
	case StorageOS:
		root, err := store.OS(dir)
		if err != nil {
			return nil, err
		}
		return store.NewVFS(root), nil
	case StorageMemory:
		return store.NewVFS(store.Memory()), nil
	case StorageAltRoot:
		root, err := store.OS(dir)
		if err != nil {
			return nil, err
		}
		base := c.AltRootBase
		if base == "" {
			base = "/"
		}
		jail, err := store.AltRoot(root, base)
		if err != nil {
			return nil, err
		}
		return store.NewVFS(jail), nil
	case StorageOverlay:
		top, err := store.OS(dir)
		if err != nil {
			return nil, err
		}
		layers := []store.Root{top}
		for _, d := range c.OverlayDirs {
			lower, err := store.OS(expandPath(d))
			if err != nil {
				return nil, err
			}
			layers = append(layers, lower)
		}
		root, err := store.Overlay(layers...)
		if err != nil {
			return nil, err
		}
		return store.NewVFS(root), nil
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", c.Storage)
	}
}

// newDownloader dispatches http(s), file and oci URLs.
func newDownloader(timeout time.Duration, concurrency int, auth Authenticator, insecure bool) Downloader {
	client := remote.NewHTTPClient(timeout, concurrency)
	oci := remote.NewOCI(auth, client.Transport)
	oci.SetInsecure(insecure)
	files := store.NewVFS(store.NewRoot(afero.NewReadOnlyFs(afero.NewOsFs()), "file:"))
	return remote.NewMux().
		Handle(remote.NewHTTP(client), "http", "https").
		Handle(remote.NewLocal(files, ""), "file").
		Handle(oci, "oci")
}
