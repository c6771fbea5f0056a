package manifest

import (
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/surface"
)

// TargetKind is the kind of artifact a target produces.
type TargetKind int

const (
	TargetExe TargetKind = iota
	TargetStaticLib
	TargetSharedLib
	TargetHeaderOnly
)

func ParseTargetKind(s string) (TargetKind, bool) {
	switch s {
	case "exe":
		return TargetExe, true
	case "staticlib":
		return TargetStaticLib, true
	case "sharedlib":
		return TargetSharedLib, true
	case "headeronly":
		return TargetHeaderOnly, true
	default:
		return 0, false
	}
}

func (k TargetKind) String() string {
	switch k {
	case TargetExe:
		return "exe"
	case TargetStaticLib:
		return "staticlib"
	case TargetSharedLib:
		return "sharedlib"
	case TargetHeaderOnly:
		return "headeronly"
	default:
		return "unknown"
	}
}

// PackageMeta is the deserialised [package] block.
type PackageMeta struct {
	Name        string
	Version     string
	Description string
	License     string
	Authors     []string
}

// DependencySpec is one entry of [dependencies]: either a bare version
// requirement string or an inline table. Decoding both shapes into one Go
// type is handled in decode.go via toml.Primitive.
type DependencySpec struct {
	VersionReq string
	Path       string
	Git        string
	Branch     string
	Tag        string
	Rev        string
	Optional   bool
	Features   []string
	Registry   string
}

// IsPath reports whether this spec names a path dependency.
func (d DependencySpec) IsPath() bool { return d.Path != "" }

// IsGit reports whether this spec names a git dependency.
func (d DependencySpec) IsGit() bool { return d.Git != "" }

// BackendRecipe is a target's `[targets.NAME.backend]` block: which backend
// to use and its opaque options.
type BackendRecipe struct {
	Backend string
	Options map[string]any
}

// FFIConfig is a target's optional FFI settings.
type FFIConfig struct {
	Enabled bool
}

// Target is one `[targets.NAME]` entry.
type Target struct {
	Name    string
	Kind    TargetKind
	Sources []string // explicit source-file glob list
	Surface surface.Surface
	Backend *BackendRecipe
	FFI     *FFIConfig
}

// ProfileSpec is one `[profile.*]` section.
type ProfileSpec struct {
	OptLevel  string
	DebugInfo bool
	LTO       bool
	Sanitizers []string
	ExtraCFlags  []string
	ExtraLDFlags []string
}

// WorkspaceSection is the deserialised [workspace] block.
type WorkspaceSection struct {
	Members        []string
	Excludes       []string
	DefaultMembers []string
	Dependencies   map[string]DependencySpec
}

// Manifest is the deserialised form of one Harbour.toml/Harbor.toml file.
// It is either a package manifest (Package != nil), a virtual workspace
// (Workspace != nil, Package == nil), or a hybrid (both set) — spec.md
// §4.1's three manifest shapes.
type Manifest struct {
	Dir          string // absolute directory containing this manifest
	Package      *PackageMeta
	Workspace    *WorkspaceSection
	Dependencies map[string]DependencySpec
	Targets      map[string]Target
	Profiles     map[string]ProfileSpec
}

// IsVirtualWorkspace reports whether this manifest declares a workspace but
// no package of its own.
func (m *Manifest) IsVirtualWorkspace() bool {
	return m.Workspace != nil && m.Package == nil
}

// IsHybrid reports whether this manifest is both a package and a workspace
// root.
func (m *Manifest) IsHybrid() bool {
	return m.Workspace != nil && m.Package != nil
}

// PackageName returns the interned package name, or the zero Name if this
// manifest has no [package] block.
func (m *Manifest) PackageName() ident.Name {
	if m.Package == nil {
		return ident.Name{}
	}
	return ident.Intern(m.Package.Name)
}
