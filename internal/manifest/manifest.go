// Package manifest parses release listings and decides which builds a
// version request refers to.
//
// The listing is the solc-bin list.json format:
//
//	{
//	  "builds": [{
//	    "path": "solc-linux-amd64-v0.8.2+commit.661d1103",
//	    "version": "0.8.2",
//	    "build": "commit.661d1103",
//	    "longVersion": "0.8.2+commit.661d1103",
//	    "keccak256": "0x…",
//	    "sha256": "0x…",
//	    "urls": ["dweb:/ipfs/…"]
//	  }],
//	  "releases": {"0.8.2": "solc-linux-amd64-v0.8.2+commit.661d1103"},
//	  "latestRelease": "0.8.2"
//	}
package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Masterminds/semver/v3"

	"github.com/aweris/relcache/internal/checksum"
	"github.com/aweris/relcache/internal/pattern"
)

var ErrDuplicateVersion = errors.New("manifest: duplicate version")

// Build is one published release artifact.
type Build struct {
	Path        string
	Version     *semver.Version
	BuildID     string
	LongVersion string
	Checksums   checksum.Set
	URLs        []string
}

type buildJSON struct {
	Path        string   `json:"path"`
	Version     string   `json:"version"`
	Build       string   `json:"build,omitempty"`
	LongVersion string   `json:"longVersion,omitempty"`
	Keccak256   string   `json:"keccak256,omitempty"`
	SHA256      string   `json:"sha256,omitempty"`
	URLs        []string `json:"urls,omitempty"`
}

type manifestJSON struct {
	Builds        []*Build          `json:"builds"`
	Releases      map[string]string `json:"releases,omitempty"`
	LatestRelease string            `json:"latestRelease,omitempty"`
}

func (b *Build) UnmarshalJSON(data []byte) error {
	var raw buildJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Path == "" {
		return fmt.Errorf("build %q: missing path", raw.Version)
	}
	v, err := semver.StrictNewVersion(raw.Version)
	if err != nil {
		return fmt.Errorf("build %q: invalid version: %w", raw.Version, err)
	}
	sums := checksum.Set{}
	for alg, hex := range map[checksum.Algorithm]string{checksum.Keccak256: raw.Keccak256, checksum.SHA256: raw.SHA256} {
		if hex == "" {
			continue
		}
		c, err := checksum.Parse(alg, hex)
		if err != nil {
			return fmt.Errorf("build %s: %w", raw.Version, err)
		}
		sums.Add(c)
	}
	*b = Build{
		Path:        raw.Path,
		Version:     v,
		BuildID:     raw.Build,
		LongVersion: raw.LongVersion,
		Checksums:   sums,
		URLs:        raw.URLs,
	}
	return nil
}

func (b Build) MarshalJSON() ([]byte, error) {
	raw := buildJSON{
		Path:        b.Path,
		Version:     b.Version.String(),
		Build:       b.BuildID,
		LongVersion: b.LongVersion,
		URLs:        b.URLs,
	}
	if c, ok := b.Checksums[checksum.Keccak256]; ok {
		raw.Keccak256 = c.String()
	}
	if c, ok := b.Checksums[checksum.SHA256]; ok {
		raw.SHA256 = c.String()
	}
	return json.Marshal(raw)
}

// Manifest is the read-only set of builds known to an origin, one per version.
type Manifest struct {
	builds   []*Build
	byKey    map[string]*Build
	releases map[string]string
	latest   *semver.Version
}

// Parse decodes and validates a listing.
func Parse(r io.Reader) (*Manifest, error) {
	var raw manifestJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m, err := New(raw.Builds...)
	if err != nil {
		return nil, err
	}
	m.releases = raw.Releases
	if raw.LatestRelease != "" {
		v, err := semver.StrictNewVersion(raw.LatestRelease)
		if err != nil {
			return nil, fmt.Errorf("parse manifest: invalid latestRelease: %w", err)
		}
		if _, ok := m.byKey[key(v)]; ok {
			m.latest = v
		}
	}
	return m, nil
}

// New builds a manifest from builds, rejecting duplicate versions.
func New(builds ...*Build) (*Manifest, error) {
	m := &Manifest{byKey: make(map[string]*Build, len(builds))}
	for _, b := range builds {
		if b == nil || b.Version == nil {
			return nil, errors.New("manifest: build without version")
		}
		k := key(b.Version)
		if _, ok := m.byKey[k]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateVersion, b.Version)
		}
		m.byKey[k] = b
		m.builds = append(m.builds, b)
	}
	sort.Slice(m.builds, func(i, j int) bool { return m.builds[i].Version.LessThan(m.builds[j].Version) })
	return m, nil
}

// key ignores build metadata, which semver does not order by.
func key(v *semver.Version) string {
	k := fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
	if v.Prerelease() != "" {
		k += "-" + v.Prerelease()
	}
	return k
}

func (m *Manifest) MarshalJSON() ([]byte, error) {
	raw := manifestJSON{Builds: m.builds, Releases: m.releases}
	if m.latest != nil {
		raw.LatestRelease = m.latest.String()
	}
	return json.Marshal(raw)
}

// Len is the number of builds.
func (m *Manifest) Len() int { return len(m.builds) }

// Versions returns every known version in ascending order.
func (m *Manifest) Versions() []*semver.Version {
	out := make([]*semver.Version, len(m.builds))
	for i, b := range m.builds {
		out[i] = b.Version
	}
	return out
}

// Build looks up the build for v.
func (m *Manifest) Build(v *semver.Version) (*Build, bool) {
	b, ok := m.byKey[key(v)]
	return b, ok
}

// LatestRelease returns the origin's declared latest release, or else the
// highest version with neither prerelease nor build metadata.
func (m *Manifest) LatestRelease() (*semver.Version, bool) {
	if m.latest != nil {
		return m.latest, true
	}
	for i := len(m.builds) - 1; i >= 0; i-- {
		v := m.builds[i].Version
		if v.Prerelease() == "" && v.Metadata() == "" {
			return v, true
		}
	}
	return nil, false
}

// FilterBuildsByRequirement returns the builds whose version satisfies c.
func (m *Manifest) FilterBuildsByRequirement(c *semver.Constraints) []*Build {
	var out []*Build
	for _, b := range m.builds {
		if c.Check(b.Version) {
			out = append(out, b)
		}
	}
	return out
}

// FilterBuilds returns the builds whose release path matches p.
func (m *Manifest) FilterBuilds(p pattern.Pattern) []*Build {
	var out []*Build
	for _, b := range m.builds {
		if p.Match(b.Path) {
			out = append(out, b)
		}
	}
	return out
}
