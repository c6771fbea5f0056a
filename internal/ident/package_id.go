package ident

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// PackageId is (name, version, source) — the node identity for the resolve
// graph and the lockfile. Version is a *semver.Version, so PackageId is
// comparable and usable as a map key, but two ids are then the same key
// only when they share the same Version pointer; Equal and String compare
// by value.
type PackageId struct {
	Name    Name
	Version *semver.Version
	Source  SourceId
}

// NewPackageId builds a PackageId from an already-parsed version, interning
// name. It does no parsing or validation of its own: callers parse the
// version string (manifest/shim decoding surfaces the parse error to the
// user directly).
func NewPackageId(name string, version *semver.Version, src SourceId) PackageId {
	return PackageId{Name: Intern(name), Version: version, Source: src}
}

func (p PackageId) String() string {
	return fmt.Sprintf("%s v%s (%s)", p.Name, p.Version, p.Source)
}

// Less defines the total order used for sorted lockfile/tree output:
// (name, version, source-key).
func (p PackageId) Less(o PackageId) bool {
	if p.Name.String() != o.Name.String() {
		return p.Name.String() < o.Name.String()
	}
	if c := p.Version.Compare(o.Version); c != 0 {
		return c < 0
	}
	return p.Source.Key() < o.Source.Key()
}

// Equal reports whether p and o identify the same package node: same name,
// same semver version, and same source (including any precise git pin).
func (p PackageId) Equal(o PackageId) bool {
	return p.Name == o.Name && p.Source.Equal(o.Source) &&
		p.Version.Equal(o.Version)
}

// NameSource is the (name, SourceId) pair the resolver and lockfile use to
// enforce "at most one selected version per (name, SourceId)" (spec.md
// §3's resolve-graph guarantee, and property 1 in §8).
type NameSource struct {
	Name   Name
	Source SourceId
}

func (p PackageId) NameSource() NameSource {
	return NameSource{Name: p.Name, Source: p.Source}
}
