// Package shimfile defines the registry shim and registry-config on-disk
// formats (spec.md §3 "Registry shim", "Registry config") and the fixed
// `index/<letter>/<name>/<version>.toml` layout they live under.
package shimfile

import "github.com/harbour-pm/harbour/internal/surface"

// SourceKind distinguishes a shim's upstream acquisition method.
type SourceKind int

const (
	ShimSourceGit SourceKind = iota
	ShimSourceTarball
)

// GitSource is a shim's `[source.git]` table.
type GitSource struct {
	URL      string
	Rev      string // 40-hex SHA
	Checksum string // optional
}

// TarballSource is a shim's `[source.tarball]` table.
type TarballSource struct {
	URL          string
	SHA256       string
	StripPrefix  string
}

// Source is the shim's upstream acquisition method: exactly one of Git or
// Tarball is set (enforced at decode time).
type Source struct {
	Kind    SourceKind
	Git     *GitSource
	Tarball *TarballSource
}

// Patch is one `[[patches]]` entry: a relative path to a patch file plus
// the required sha256 of that file's bytes.
type Patch struct {
	File   string
	SHA256 string
}

// BackendConfig is a shim's optional `[build]` table.
type BackendConfig struct {
	Backend      string
	CMakeOptions []string
}

// HarnessConfig is a shim's optional `[harness]` table.
type HarnessConfig struct {
	Header   string
	TestCall string
	Lang     string // "c" or "c++"/"cxx"
}

// Shim is the per-(package, version) recipe described in spec.md §3/§6.
type Shim struct {
	Name    string
	Version string

	Source Source
	Patches []Patch

	// SurfaceOverride fully replaces the upstream-declared surface when
	// set (spec.md: "full replacement of the compile/link surfaces
	// declared by the upstream").
	SurfaceOverride *surface.Surface
	// NativeSources is the `[surface_override].sources` glob list, valid
	// only alongside the native backend.
	NativeSources []string

	Backend *BackendConfig
	Harness *HarnessConfig
}

// RegistryConfig is a registry root's `config.toml` (spec.md §3 "Registry
// config").
type RegistryConfig struct {
	Name            string
	RegistryVersion int
	Layout          string
	DefaultBranch   string
	Curated         *CuratedPolicy
}

// CuratedPolicy is the optional curated-subset policy in a RegistryConfig.
type CuratedPolicy struct {
	MinPlatformCount int
	RequireCIPass    bool
	RequireHarness   bool
	MaxTier          int
}
