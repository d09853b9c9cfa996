package relcache

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/sync/singleflight"

	"github.com/aweris/relcache/internal/checksum"
	"github.com/aweris/relcache/internal/compression"
	"github.com/aweris/relcache/internal/manifest"
	"github.com/aweris/relcache/internal/pattern"
	"github.com/aweris/relcache/internal/store"
)

// Asset is a release artifact present in the cache.
type Asset struct {
	Version *semver.Version
	Build   *Build
	// Path is the storage name: <platform>/<version>/<release path>.
	Path string
	// Size is the stored size, which differs from the artifact size when
	// the storage compresses.
	Size int64
	// Cached is true when the asset was already present and nothing was downloaded.
	Cached bool
}

// Manager fetches, verifies and caches release artifacts from one origin.
// It is safe for concurrent use.
type Manager struct {
	opts       Options
	storage    Storage
	downloader Downloader
	log        *logrus.Entry

	inflight singleflight.Group

	mu       sync.Mutex
	manifest *manifest.Manifest
}

// New creates a Manager. Without options it downloads from the public
// solc-bin origin into the user cache directory.
func New(opts ...Option) (*Manager, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Origin == "" {
		return nil, ErrNoOrigin
	}
	if _, err := url.Parse(options.Origin); err != nil {
		return nil, fmt.Errorf("invalid origin %q: %w", options.Origin, err)
	}

	s := options.Storage
	if s == nil {
		direct, err := store.NewDirect(expandPath(options.CacheDir))
		if err != nil {
			return nil, err
		}
		s = direct
	}
	if options.StorageCodec != nil {
		s = store.NewCompressed(s, options.StorageCodec)
	}
	if options.Progress != nil {
		s = store.NewProgress(s, options.Progress)
	}

	d := options.Downloader
	if d == nil {
		d = newDownloader(options.Timeout, options.Concurrency, options.Auth, false)
	}

	return &Manager{
		opts:       *options,
		storage:    s,
		downloader: d,
		log: options.Logger.WithFields(logrus.Fields{
			"origin":   options.Origin,
			"platform": options.Platform,
		}),
	}, nil
}

// Storage returns the cache storage, including configured decorators.
func (m *Manager) Storage() Storage { return m.storage }

// Manifest downloads and parses the release listing. A successful result
// is kept for the lifetime of the Manager.
func (m *Manager) Manifest(ctx context.Context) (*Manifest, error) {
	if mf := m.cachedManifest(); mf != nil {
		return mf, nil
	}
	u, err := m.url(m.opts.Manifest)
	if err != nil {
		return nil, err
	}
	v, err := m.share(ctx, u, func(ctx context.Context) (any, error) {
		return m.loadManifest(ctx, u)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Manifest), nil
}

func (m *Manager) cachedManifest() *Manifest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.manifest
}

func (m *Manager) loadManifest(ctx context.Context, u string) (*Manifest, error) {
	if mf := m.cachedManifest(); mf != nil {
		return mf, nil
	}
	log := m.log.WithField("url", u)
	log.Debug("downloading manifest")

	data, err := m.download(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	mf, err := manifest.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	log.WithField("builds", mf.Len()).Debug("manifest loaded")
	m.mu.Lock()
	m.manifest = mf
	m.mu.Unlock()
	return mf, nil
}

// Resolve turns a selection into versions using the manifest.
func (m *Manager) Resolve(ctx context.Context, sel Selection) ([]*semver.Version, error) {
	mf, err := m.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	return mf.Resolve(sel)
}

// Fetch makes version available in the cache. A cached asset is returned
// without touching the network or re-verifying it. Concurrent calls for the
// same version share one download, which outlives the cancellation of any
// single caller.
func (m *Manager) Fetch(ctx context.Context, version *semver.Version) (*Asset, error) {
	mf, err := m.Manifest(ctx)
	if err != nil {
		return nil, err
	}
	build, ok := mf.Build(version)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownVersion, version)
	}
	name := m.AssetPath(build)

	v, err := m.share(ctx, name, func(ctx context.Context) (any, error) {
		return m.fetch(ctx, build, name)
	})
	if err != nil {
		return nil, err
	}
	asset := *v.(*Asset)
	return &asset, nil
}

// share runs fn once per key across concurrent callers. fn is detached from
// the caller's cancellation and bounded by the transport timeout; each caller
// stops waiting when its own ctx is done.
func (m *Manager) share(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	detached := context.WithoutCancel(ctx)
	ch := m.inflight.DoChan(key, func() (any, error) { return fn(detached) })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

func (m *Manager) fetch(ctx context.Context, build *Build, name string) (*Asset, error) {
	log := m.log.WithFields(logrus.Fields{
		"version": build.Version.String(),
		"path":    name,
	})
	asset := &Asset{Version: build.Version, Build: build, Path: name}

	if !m.opts.Force {
		if size, ok := m.storage.Stat(name); ok {
			log.Debug("cache hit")
			asset.Size = size
			asset.Cached = true
			return asset, nil
		}
	}

	u, err := m.url(build.Path)
	if err != nil {
		return nil, err
	}
	log = log.WithField("url", u)
	log.Info("downloading")

	data, err := m.download(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", build.Version, err)
	}
	if err := checksum.VerifyPolicy(m.opts.Checksum, build.Checksums, data); err != nil {
		log.WithError(err).Warn("verification failed")
		return nil, fmt.Errorf("verify %s: %w", build.Version, err)
	}
	if m.opts.PayloadCodec != nil {
		data, err = compression.Decode(m.opts.PayloadCodec, data)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", build.Version, err)
		}
	}
	if err := m.write(name, data); err != nil {
		return nil, err
	}

	asset.Size, _ = m.storage.Stat(name)
	log.WithField("bytes", len(data)).Info("cached")
	return asset, nil
}

func (m *Manager) download(ctx context.Context, u string) ([]byte, error) {
	resp, err := m.downloader.Download(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if !resp.OK() {
		return nil, &FetchError{URL: u, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", u, err)
	}
	return data, nil
}

func (m *Manager) write(name string, data []byte) error {
	w, err := m.storage.Writer(name)
	if err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		store.Abort(w)
		return fmt.Errorf("store %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("store %s: %w", name, err)
	}
	return nil
}

// FetchAll fetches versions in parallel and stops at the first failure.
// Assets are returned in ascending version order.
func (m *Manager) FetchAll(ctx context.Context, versions []*semver.Version) ([]*Asset, error) {
	var mu sync.Mutex
	assets := make([]*Asset, 0, len(versions))

	p := pool.New().WithMaxGoroutines(m.opts.Concurrency).WithContext(ctx).WithCancelOnError()
	for _, v := range versions {
		p.Go(func(ctx context.Context) error {
			asset, err := m.Fetch(ctx, v)
			if err != nil {
				return err
			}
			mu.Lock()
			assets = append(assets, asset)
			mu.Unlock()
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	slices.SortFunc(assets, func(a, b *Asset) int { return a.Version.Compare(b.Version) })
	return assets, nil
}

// Install resolves sel and fetches every selected version.
func (m *Manager) Install(ctx context.Context, sel Selection) ([]*Asset, error) {
	versions, err := m.Resolve(ctx, sel)
	if err != nil {
		return nil, err
	}
	m.log.WithFields(logrus.Fields{"selection": sel.String(), "versions": len(versions)}).Debug("resolved")
	return m.FetchAll(ctx, versions)
}

// Open streams a cached version. It never downloads.
func (m *Manager) Open(version *semver.Version) (io.ReadCloser, error) {
	prefix := m.opts.Platform + "/" + version.String() + "/"
	names, err := store.List(m.storage, prefix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("%w: %s is not cached", ErrNotFound, version)
	}
	rc, ok, err := m.storage.Reader(names[0])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, names[0])
	}
	return rc, nil
}

// List returns the cached asset paths of this platform matching p.
func (m *Manager) List(p pattern.Pattern) ([]string, error) {
	names, err := store.List(m.storage, m.opts.Platform+"/")
	if err != nil {
		return nil, err
	}
	return pattern.Filter(p, names), nil
}

// AssetPath is the storage name of b: <platform>/<version>/<release file>.
func (m *Manager) AssetPath(b *Build) string {
	return path.Join(m.opts.Platform, b.Version.String(), path.Base(b.Path))
}

func (m *Manager) url(name string) (string, error) {
	u, err := url.JoinPath(m.opts.Origin, m.opts.Platform, name)
	if err != nil {
		return "", fmt.Errorf("build url for %s: %w", name, err)
	}
	return u, nil
}

func expandPath(p string) string {
	if strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, p[2:])
		}
	}
	return p
}
