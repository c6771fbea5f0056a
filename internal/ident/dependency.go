package ident

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// VersionReq wraps a semver constraint, keeping the original requirement
// string around for lockfile/error messages (semver.Constraints does not
// round-trip its input verbatim).
type VersionReq struct {
	raw    string
	constr *semver.Constraints
}

// ParseVersionReq parses a requirement string ("^1.2", "~1.2.3",
// ">=1.0, <2.0", "=1.2.3") with semver/v3 constraint rules; a bare "1.2.3"
// has no implied caret and matches exactly 1.2.3.
func ParseVersionReq(s string) (VersionReq, error) {
	c, err := semver.NewConstraint(s)
	if err != nil {
		return VersionReq{}, fmt.Errorf("parsing version requirement %q: %w", s, err)
	}
	return VersionReq{raw: s, constr: c}, nil
}

// MustVersionReq panics on parse failure; reserved for literals known good
// at compile time (tests, default requirements).
func MustVersionReq(s string) VersionReq {
	r, err := ParseVersionReq(s)
	if err != nil {
		panic(err)
	}
	return r
}

// Any is a version requirement matching every version ("*").
func Any() VersionReq {
	return MustVersionReq("*")
}

// Matches reports whether v satisfies the requirement.
func (r VersionReq) Matches(v *semver.Version) bool {
	if r.constr == nil {
		return true
	}
	return r.constr.Check(v)
}

// Intersect returns the requirement that matches exactly what both r and o
// match. semver.Constraints doesn't expose true intersection, so Harbour
// represents the intersection as the conjunction of both raw strings; two
// requirements conflict (spec.md §4.3 "Conflict") when the resulting
// constraint matches nothing in a candidate set the caller checks
// separately.
func (r VersionReq) Intersect(o VersionReq) (VersionReq, error) {
	if r.raw == "" {
		return o, nil
	}
	if o.raw == "" {
		return r, nil
	}
	combined := r.raw + ", " + o.raw
	return ParseVersionReq(combined)
}

func (r VersionReq) String() string {
	if r.raw == "" {
		return "*"
	}
	return r.raw
}

// IsSatisfiable reports whether any version in candidates matches r. The
// resolver uses this to distinguish an empty intersection (Conflict) from
// simply having no candidates yet (Missing).
func (r VersionReq) IsSatisfiable(candidates []*semver.Version) bool {
	for _, v := range candidates {
		if r.Matches(v) {
			return true
		}
	}
	return false
}

// Dependency is (name, source, version requirement, requested features,
// optional) as specified in spec.md §3.
type Dependency struct {
	Name     Name
	Source   SourceId
	Req      VersionReq
	Features []string
	Optional bool
}
