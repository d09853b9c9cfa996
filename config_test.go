package relcache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/alecthomas/assert/v2"

	"github.com/aweris/relcache/internal/compression"
	"github.com/aweris/relcache/internal/store"
)

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, DefaultOrigin, c.Origin)
	assert.Equal(t, DefaultManifest, c.Manifest)
	assert.Equal(t, DefaultPlatform(), c.Platform)
	assert.Equal(t, "all", c.Checksum)
	assert.Equal(t, StorageDirect, c.Storage)
}

func configManager(t *testing.T, c Config) *Manager {
	t.Helper()
	opts, err := FromConfig(c)
	assert.NoError(t, err)
	m, err := New(opts...)
	assert.NoError(t, err)
	return m
}

func TestFromConfigBackends(t *testing.T) {
	o := newOrigin(t, "", versions)
	lower := t.TempDir()

	for _, backend := range []string{StorageDirect, StorageOS, StorageMemory, StorageAltRoot, StorageOverlay} {
		t.Run(backend, func(t *testing.T) {
			c := DefaultConfig()
			c.Origin = o.URL + "/"
			c.Platform = platform
			c.CacheDir = t.TempDir()
			c.Storage = backend
			c.AltRootBase = "jail"
			c.OverlayDirs = []string{lower}
			c.Codec = "zstd"
			c.CodecLevel = "best"

			m := configManager(t, c)
			_, ok := m.Storage().(*store.CompressedStore)
			assert.True(t, ok)

			assets, err := m.Install(context.Background(), Selection{All: true})
			assert.NoError(t, err)
			assert.Equal(t, 3, len(assets))

			rc, err := m.Open(semver.MustParse("0.8.1"))
			assert.NoError(t, err)
			assert.Equal(t, string(payload("0.8.1")), readAll(t, rc))
		})
	}

	// Overlay writes land in the cache directory, never in lower layers.
	entries, err := os.ReadDir(lower)
	assert.NoError(t, err)
	assert.Equal(t, 0, len(entries))
}

func TestFromConfigAltRootJail(t *testing.T) {
	o := newOrigin(t, "", versions)
	c := DefaultConfig()
	c.Origin = o.URL
	c.Platform = platform
	c.CacheDir = t.TempDir()
	c.Storage = StorageAltRoot
	c.AltRootBase = "jail"
	c.Codec = ""

	m := configManager(t, c)
	_, err := m.Fetch(context.Background(), semver.MustParse("0.8.2"))
	assert.NoError(t, err)

	_, err = os.Stat(filepath.Join(c.CacheDir, "jail", platform, "0.8.2", releasePath("0.8.2")))
	assert.NoError(t, err)
}

func TestFromConfigOverlayReadsLowerLayers(t *testing.T) {
	o := newOrigin(t, "", versions)
	o.put(platform+"/"+releasePath("0.8.1"), nil)

	// A pre-seeded read-only cache satisfies the request without the origin.
	lower := t.TempDir()
	seeded := filepath.Join(lower, platform, "0.8.1", releasePath("0.8.1"))
	assert.NoError(t, os.MkdirAll(filepath.Dir(seeded), 0755))
	assert.NoError(t, os.WriteFile(seeded, payload("0.8.1"), 0644))

	c := DefaultConfig()
	c.Origin = o.URL
	c.Platform = platform
	c.CacheDir = t.TempDir()
	c.Storage = StorageOverlay
	c.OverlayDirs = []string{lower}

	m := configManager(t, c)
	asset, err := m.Fetch(context.Background(), semver.MustParse("0.8.1"))
	assert.NoError(t, err)
	assert.True(t, asset.Cached)
}

func TestFromConfigPayloadCodec(t *testing.T) {
	brotli := func(data []byte) []byte {
		out, err := compression.Encode(compression.Brotli{}, data)
		if err != nil {
			panic(err)
		}
		return out
	}
	o := newOrigin(t, "", versions, brotli)

	c := DefaultConfig()
	c.Origin = o.URL
	c.Platform = platform
	c.Storage = StorageMemory
	c.PayloadCodec = "br"
	c.Checksum = "sha256"

	m := configManager(t, c)
	_, err := m.Fetch(context.Background(), semver.MustParse("0.8.3"))
	assert.NoError(t, err)
	rc, err := m.Open(semver.MustParse("0.8.3"))
	assert.NoError(t, err)
	assert.Equal(t, string(payload("0.8.3")), readAll(t, rc))
}

func TestFromConfigAllowHosts(t *testing.T) {
	o := newOrigin(t, "", versions)
	c := DefaultConfig()
	c.Origin = o.URL
	c.Platform = platform
	c.Storage = StorageMemory
	c.AllowHosts = []string{"binaries.soliditylang.org"}

	m := configManager(t, c)
	_, err := m.Manifest(context.Background())
	assert.True(t, errors.Is(err, ErrForbidden))
	assert.Equal(t, 0, o.requests(platform+"/list.json"))

	c.AllowHosts = []string{"127.0.0.1"}
	m = configManager(t, c)
	_, err = m.Manifest(context.Background())
	assert.NoError(t, err)
}

func TestFromConfigErrors(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"storage":       func(c *Config) { c.Storage = "tape" },
		"codec":         func(c *Config) { c.Codec = "rar" },
		"payload codec": func(c *Config) { c.PayloadCodec = "rar" },
		"checksum":      func(c *Config) { c.Checksum = "md5" },
		"codec level":   func(c *Config) { c.Codec, c.CodecLevel = "zstd", "extreme" },
	} {
		t.Run(name, func(t *testing.T) {
			c := DefaultConfig()
			c.CacheDir = t.TempDir()
			mutate(&c)
			_, err := FromConfig(c)
			assert.Error(t, err)
		})
	}
}

func TestNewWithoutOrigin(t *testing.T) {
	_, err := New(WithOrigin(""))
	assert.True(t, errors.Is(err, ErrNoOrigin))
}
