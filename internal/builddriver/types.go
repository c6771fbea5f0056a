// Package builddriver orchestrates one workspace build (spec.md §4.6):
// validating the requested BuildIntent against every package's chosen
// backend, walking the resolve graph leaves-first, and driving each
// package's configure/build/install/discover_exports before resolving
// and producing the root targets' final artifacts.
package builddriver

import (
	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
	"github.com/harbour-pm/harbour/internal/resolve"
	"github.com/harbour-pm/harbour/internal/surface"
)

// ArtifactKind mirrors manifest.TargetKind for the driver's output report,
// kept distinct so callers never need to import manifest just to read a
// build result.
type ArtifactKind int

const (
	ArtifactExecutable ArtifactKind = iota
	ArtifactStaticLib
	ArtifactSharedLib
)

// Artifact is one produced build output (spec.md §4.6 "Emit one
// Artifact{path, kind, target}").
type Artifact struct {
	Path   string
	Kind   ArtifactKind
	Target string
	Pkg    ident.PackageId
}

// CompileCommand is one row accumulated for compile_commands.json.
type CompileCommand struct {
	Directory string
	File      string
	Arguments []string
}

// Result is everything produced by one Build call.
type Result struct {
	Artifacts       []Artifact
	CompileCommands []CompileCommand
	// Flats carries each produced root target's flattened, provenance-tagged
	// surface (keyed by target name), feeding `harbour explain`/`flags`/
	// `linkplan` reporting without re-running the build.
	Flats map[string]*surface.Flat
	// DiscoveredSurfaces carries each built package's DiscoveredSurface
	// (keyed by package name), feeding `harbour ffi bundle` without
	// re-running discover_exports.
	DiscoveredSurfaces map[string]*backend.DiscoveredSurface
}

// PackageLoader resolves a PackageId to its manifest and on-disk root,
// abstracting over the concrete source kind (path/git/registry). The
// driver depends only on this narrow interface so it never needs to import
// internal/source directly.
type PackageLoader interface {
	LoadPackage(id ident.PackageId) (*manifest.Manifest, string, error)
}

// Driver ties the resolve graph, manifest/source loading, and backend
// registry together to run one workspace build.
type Driver struct {
	Graph    *resolve.Graph
	Loader   PackageLoader
	Backends *backend.Registry
	Default  backend.Backend // used when a package names no explicit backend

	BuildRoot  string // deps_dir root; each package builds under BuildRoot/<name>-<version>
	OutputDir  string
	HostTriple string
}

// packageBuild is the driver's per-package working state accumulated while
// walking the graph leaves-first.
type packageBuild struct {
	id       ident.PackageId
	m        *manifest.Manifest
	root     string
	buildDir string
	be       backend.Backend
	surf     *backend.DiscoveredSurface
}
