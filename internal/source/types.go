// Package source implements the Source contract (spec.md §4.2): the Path,
// Git and Registry providers that answer dependency queries during
// resolution and load full packages on demand, plus the SourceCache that
// owns them keyed by SourceId.
package source

import (
	"context"

	"github.com/Masterminds/semver/v3"
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
)

// Summary is a lightweight fingerprint of a candidate package, produced
// without loading the full manifest where possible (spec.md §4.1
// "Summary").
type Summary struct {
	ID           ident.PackageId
	Dependencies []ident.Dependency
	Features     []string
}

// Package is the full typed package loaded from a source at a specific id.
type Package struct {
	ID       ident.PackageId
	Manifest *manifest.Manifest
	Dir      string // on-disk location of the loaded package
}

// Source is the polymorphic contract over {Path, Git, Registry} providers.
type Source interface {
	// Name identifies the provider variant for logging.
	Name() string
	// Supports reports whether this source answers queries for dep.
	Supports(dep ident.Dependency) bool
	// Query enumerates candidate versions matching dep.
	Query(ctx context.Context, dep ident.Dependency) ([]Summary, error)
	// EnsureReady idempotently performs any I/O needed before this source
	// can answer package queries.
	EnsureReady(ctx context.Context) error
	// LoadPackage loads the full typed package at id.
	LoadPackage(ctx context.Context, id ident.PackageId) (*Package, error)
	// PackagePath locates the source on disk.
	PackagePath(id ident.PackageId) (string, error)
	// IsCached reports whether id's source material is already on disk.
	IsCached(id ident.PackageId) bool
}

// VersionOf parses a manifest's declared version string, returning nil on
// failure (callers treat an unparseable version as a non-match).
func VersionOf(m *manifest.Manifest) *semver.Version {
	if m.Package == nil {
		return nil
	}
	v, err := semver.NewVersion(m.Package.Version)
	if err != nil {
		return nil
	}
	return v
}
