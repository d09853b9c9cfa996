// Package relcache fetches, verifies and caches compiler release builds.
//
// An origin publishes one listing per platform (<origin>/<platform>/list.json)
// naming every build with its keccak256 and sha256 digests. A Manager
// resolves version requests against that listing, downloads the matching
// builds, verifies them and stores them under <platform>/<version>/<file>.
// Cached builds are served without network access.
//
// Basic usage:
//
//	m, _ := relcache.New()
//
//	// Latest release
//	sel, _ := relcache.ParseSelection("", "", false)
//	assets, _ := m.Install(ctx, sel)
//	fmt.Println(assets[0].Path)
//
//	// Everything matching a constraint
//	sel, _ = relcache.ParseSelection("", ">=0.8.0 <0.9.0", false)
//	assets, _ = m.Install(ctx, sel)
//
//	// Read a cached build
//	rc, _ := m.Open(semver.MustParse("0.8.19"))
//	defer rc.Close()
//
// Mirrors and registries:
//
//	m, _ := relcache.New(relcache.WithOrigin("file:///srv/solc-bin"))
//	m, _ := relcache.New(relcache.WithOrigin("oci://ghcr.io/acme/solc"))
//
// Storage can be any Storage; the internal store package provides a plain
// directory and afero-backed physical, in-memory, jailed and overlay roots.
// WithStorageCodec compresses objects at rest.
package relcache
