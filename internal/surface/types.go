// Package surface defines a target's compile/link requirements and
// computes, for a given target, the transitive closure of those
// requirements across the dependency graph (spec.md §3 "Target & Surface"
// and §4.5).
package surface

import "github.com/harbour-pm/harbour/internal/ident"

// Origin tags where a flattened surface entry came from, for provenance
// reporting via `harbour flags`/`harbour linkplan`.
type Origin int

const (
	OriginManifest Origin = iota
	OriginShimOverride
	OriginBackendDiscovery
	OriginVcpkg
)

func (o Origin) String() string {
	switch o {
	case OriginManifest:
		return "manifest"
	case OriginShimOverride:
		return "shim-override"
	case OriginBackendDiscovery:
		return "backend-discovery"
	case OriginVcpkg:
		return "vcpkg"
	default:
		return "unknown"
	}
}

// Visibility distinguishes requirements propagated to consumers (Public)
// from those used only while building the declaring target (Private).
type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Public {
		return "public"
	}
	return "private"
}

// Provenance records where a flattened surface entry originated: which
// package declared it, under what visibility, and through which mechanism.
type Provenance struct {
	Package    ident.PackageId
	Visibility Visibility
	Origin     Origin
}

// Predicate conditions a surface entry on target triple / OS / backend, per
// spec.md §3 ("Surfaces carry optional conditional predicates").
type Predicate struct {
	Triple  string // empty matches any triple
	OS      string // empty matches any OS
	Backend string // empty matches any backend
}

// Matches reports whether the predicate holds for the given evaluation
// context. An empty field in the predicate always matches.
func (p Predicate) Matches(triple, os, backend string) bool {
	if p.Triple != "" && p.Triple != triple {
		return false
	}
	if p.OS != "" && p.OS != os {
		return false
	}
	if p.Backend != "" && p.Backend != backend {
		return false
	}
	return true
}

// CompileSurface is the compile-time half of a target's requirements.
type CompileSurface struct {
	IncludeDirs    []CondString
	Defines        []CondDefine
	ExtraFlags     []CondString
	RequiresCPP    string // e.g. "17"; empty means unspecified
}

// LinkSurface is the link-time half of a target's requirements.
type LinkSurface struct {
	LibDirs    []CondString
	DepLibs    []DepLib
	SystemLibs []CondString
	Frameworks []CondString // Apple frameworks
	ExtraFlags []CondString
}

// Surface is a target's full declared (or computed) compile/link
// requirements, split by visibility.
type Surface struct {
	CompilePublic  CompileSurface
	CompilePrivate CompileSurface
	LinkPublic     LinkSurface
	LinkPrivate    LinkSurface
}

// CondString is a plain string value with an optional conditional
// predicate attached.
type CondString struct {
	Value     string
	Predicate Predicate
}

// CondDefine is a preprocessor define, optionally valued ("FOO" or
// "FOO=1"), with an optional conditional predicate.
type CondDefine struct {
	Name      string
	Value     string // empty means value-less define
	Predicate Predicate
}

// LibKind distinguishes static archives from shared objects in a
// discovered or synthesized link entry.
type LibKind int

const (
	LibStatic LibKind = iota
	LibShared
)

// DepLib is a single library a target must link against: either a
// synthetic reference to another package's built artifact (Path set by the
// surface resolver) or a short library name the backend/linker resolves.
type DepLib struct {
	Name      string // short library name (no "lib" prefix / extension)
	Path      string // on-disk path, when known (dependency's built artifact)
	Kind      LibKind
	SoName    string // shared-library soname, if discovered
	Predicate Predicate
}

// FlatItem pairs a flattened value with its provenance.
type FlatItem[T any] struct {
	Value      T
	Provenance Provenance
}

// Flat is the per-target output of the surface resolver: every compile and
// link requirement reachable from the target, deduplicated and ordered per
// spec.md §4.5 and the invariants in §8.
type Flat struct {
	IncludeDirs []FlatItem[string]
	Defines     []FlatItem[CondDefine]
	CompileFlags []FlatItem[string]
	RequiresCPP string

	LibDirs    []FlatItem[string]
	DepLibs    []FlatItem[DepLib]
	SystemLibs []FlatItem[string]
	Frameworks []FlatItem[string]
	LinkFlags  []FlatItem[string]
}
