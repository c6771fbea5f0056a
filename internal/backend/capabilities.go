// Package backend implements the capability-typed build-backend shim layer
// (spec.md §4.4): frozen capability declarations per backend, a three-stage
// validator that rejects impossible build requests before any work
// happens, and the Native/CMake/Meson/Custom backend implementations
// themselves behind a process-global registry.
package backend

// Support tags how strongly a backend supports an optional phase.
type Support int

const (
	NotSupported Support = iota
	Optional
	Required
)

// ArtifactKind is a kind of build output a backend can be asked to emit.
type ArtifactKind int

const (
	ArtifactStatic ArtifactKind = iota
	ArtifactShared
	ArtifactExecutable
	ArtifactHeaderOnly
)

// PlatformFeatures records hard facts about cross/sysroot/toolchain-file
// support.
type PlatformFeatures struct {
	CrossCompile   bool
	Sysroot        bool
	ToolchainFile  bool
}

// LinkageFeatures records hard facts about a backend's linking support.
type LinkageFeatures struct {
	Static             bool
	Shared             bool
	SymbolVisibility   bool
	RpathLevel         int // 0 = none, 1 = basic, 2 = full $ORIGIN-relative control
	ImportLibGen       bool
	RuntimeBundle      bool
}

// InstallContract records a backend's install-step behaviour.
type InstallContract struct {
	RequiresInstallStep bool
	SupportsPrefix      bool
	Deterministic       bool
}

// ExportDiscoveryContract records whether and how a backend can introspect
// its install prefix for a DiscoveredSurface.
type ExportDiscoveryContract struct {
	Supported bool
}

// Capabilities is the frozen, hard-facts record for one backend (spec.md
// §3 "Backend capabilities"). Capabilities never change based on user
// configuration; only Defaults do.
type Capabilities struct {
	BackendID string

	Configure Support
	Build     Support
	Test      Support
	Install   Support
	Clean     Support

	Platform PlatformFeatures
	Artifacts map[ArtifactKind]bool
	BothStaticAndSharedInOneInvocation bool

	Linkage LinkageFeatures

	InjectionMethods []string // e.g. "cache-variable", "env", "toolchain-file"
	DependencyFormats []string // e.g. "pkg-config", "cmake-config", "find-library"

	Install2 InstallContract
	ExportDiscovery ExportDiscoveryContract

	CacheSensitiveTo []string // e.g. "compiler-version", "build-type", "option-hash"
}

// Defaults is policy, not capability: changing these never requires
// re-declaring Capabilities (spec.md §3 "Backend defaults").
type Defaults struct {
	InjectionOrder       []string
	PreferredGenerator   string
	ProfileToBuildType    map[string]string
	SanitizerFlagPresets map[string][]string
	DefaultParallelism   int
}
