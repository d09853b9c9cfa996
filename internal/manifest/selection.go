package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var ErrNoRelease = errors.New("manifest: no stable release")

// Selection is a version request. All wins over Target, Target over
// Requirement; an empty selection means the latest release.
type Selection struct {
	All         bool
	Target      *semver.Version
	Requirement *semver.Constraints
}

// ParseSelection builds a Selection from command line flags. Empty strings
// leave the field unset.
func ParseSelection(target, requirement string, all bool) (Selection, error) {
	sel := Selection{All: all}
	if target = strings.TrimSpace(target); target != "" {
		v, err := semver.NewVersion(strings.TrimPrefix(target, "v"))
		if err != nil {
			return Selection{}, fmt.Errorf("parse target version %q: %w", target, err)
		}
		sel.Target = v
	}
	if requirement = strings.TrimSpace(requirement); requirement != "" {
		c, err := semver.NewConstraint(requirement)
		if err != nil {
			return Selection{}, fmt.Errorf("parse requirement %q: %w", requirement, err)
		}
		sel.Requirement = c
	}
	return sel, nil
}

func (s Selection) String() string {
	switch {
	case s.All:
		return "all"
	case s.Target != nil:
		return s.Target.String()
	case s.Requirement != nil:
		return s.Requirement.String()
	default:
		return "latest"
	}
}

// Resolve returns the versions s refers to in ascending order. A target is
// returned as is, even if the manifest does not list it.
func (m *Manifest) Resolve(s Selection) ([]*semver.Version, error) {
	switch {
	case s.All:
		return m.Versions(), nil
	case s.Target != nil:
		return []*semver.Version{s.Target}, nil
	case s.Requirement != nil:
		builds := m.FilterBuildsByRequirement(s.Requirement)
		out := make([]*semver.Version, len(builds))
		for i, b := range builds {
			out[i] = b.Version
		}
		return out, nil
	}
	v, ok := m.LatestRelease()
	if !ok {
		return nil, ErrNoRelease
	}
	return []*semver.Version{v}, nil
}
