package relcache

import (
	"github.com/aweris/relcache/internal/compression"
	"github.com/aweris/relcache/internal/manifest"
	"github.com/aweris/relcache/internal/pattern"
	"github.com/aweris/relcache/internal/remote"
	"github.com/aweris/relcache/internal/store"
)

// Storage is the public interface for cache storage.
// Re-exported from internal/store for convenience.
type Storage = store.Storage

// Downloader is the public interface for artifact transports.
// Re-exported from internal/remote for convenience.
type Downloader = remote.Downloader

// Codec is a compression strategy for payloads and stored objects.
type Codec = compression.Codec

// Authenticator provides credentials for registry downloads.
type Authenticator = remote.Authenticator

// Selection is a version request; see ParseSelection.
type Selection = manifest.Selection

// Manifest is a parsed release listing.
type Manifest = manifest.Manifest

// Build is one release in a Manifest.
type Build = manifest.Build

// ProgressEvent reports bytes moving in and out of the cache.
type ProgressEvent = store.Event

// ParseSelection builds a Selection from an explicit version, a semver
// constraint and the "all versions" switch.
func ParseSelection(target, requirement string, all bool) (Selection, error) {
	return manifest.ParseSelection(target, requirement, all)
}

// Pattern filters listings and cached paths.
type Pattern = pattern.Pattern

// ParsePattern compiles "/regexp/" or an exact match; "" matches everything.
func ParsePattern(rule string) (Pattern, error) {
	return pattern.Parse(rule)
}
