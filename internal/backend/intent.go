package backend

// Linkage is the user's linkage preference.
type Linkage int

const (
	LinkAuto Linkage = iota
	LinkStatic
	LinkShared
)

// TargetCategory filters which declared targets a build touches.
type TargetCategory int

const (
	CategoryLib TargetCategory = iota
	CategoryBin
	CategoryTests
	CategoryTools
	CategoryExamples
	CategoryDocs
)

// BuildIntent is the abstract user request a build or verify run is
// validated against (spec.md §3 "Build intent").
type BuildIntent struct {
	Linkage         Linkage
	LinkagePreferences []Linkage // ordered, used when Linkage == LinkAuto
	ArtifactKinds   []ArtifactKind
	Profile         string
	FFI             bool
	ToolchainPin    string // e.g. "gcc", "clang", empty if unpinned
	ToolchainVersionPin string
	TargetTriple    string // empty means host
	ForcedBackend   string
	CxxStandard     string // e.g. "17", "20"; empty means unspecified
	Categories      []TargetCategory
	TargetFilter    []string
	Parallelism     int
}

// IsCrossCompile reports whether TargetTriple differs from the host triple
// passed by the caller.
func (b BuildIntent) IsCrossCompile(hostTriple string) bool {
	return b.TargetTriple != "" && b.TargetTriple != hostTriple
}

// BuildContext is passed to every backend operation (spec.md §4.4).
type BuildContext struct {
	PackageRoot   string
	BuildDir      string
	InstallPrefix string
	Release       bool
	Jobs          int
	Verbose       bool
}

// Options is the opaque key-value table interpreted only by the chosen
// backend (spec.md §3 "Backend options").
type Options map[string]any
