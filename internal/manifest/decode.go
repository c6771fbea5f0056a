package manifest

import (
	"fmt"
	"sort"

	"github.com/BurntSushi/toml"
)

// rawManifest mirrors the on-disk TOML shape with dependency tables left as
// toml.Primitive so each entry can be decoded as either a bare string or an
// inline table (spec.md §3's "A spec is either a bare version requirement
// string or an inline table").
type rawManifest struct {
	Package   *rawPackage              `toml:"package"`
	Workspace *rawWorkspace            `toml:"workspace"`
	Dependencies map[string]toml.Primitive `toml:"dependencies"`
	Targets   map[string]rawTarget     `toml:"targets"`
	Profile   map[string]rawProfile    `toml:"profile"`
}

type rawPackage struct {
	Name        string   `toml:"name"`
	Version     string   `toml:"version"`
	Description string   `toml:"description"`
	License     string   `toml:"license"`
	Authors     []string `toml:"authors"`
}

type rawWorkspace struct {
	Members        []string                  `toml:"members"`
	Exclude        []string                  `toml:"exclude"`
	DefaultMembers []string                  `toml:"default-members"`
	Dependencies   map[string]toml.Primitive `toml:"dependencies"`
}

type rawDependencyTable struct {
	Version  string   `toml:"version"`
	Path     string   `toml:"path"`
	Git      string   `toml:"git"`
	Branch   string   `toml:"branch"`
	Tag      string   `toml:"tag"`
	Rev      string   `toml:"rev"`
	Optional bool     `toml:"optional"`
	Features []string `toml:"features"`
	Registry string   `toml:"registry"`
}

type rawSurfaceSide struct {
	IncludeDirs []string          `toml:"include_dirs"`
	Defines     []string          `toml:"defines"`
	Flags       []string          `toml:"flags"`
	RequiresCPP string            `toml:"requires_cpp"`
	LibDirs     []string          `toml:"lib_dirs"`
	Libs        []string          `toml:"libs"`
	SystemLibs  []string          `toml:"system_libs"`
	Frameworks  []string          `toml:"frameworks"`
}

type rawSurface struct {
	CompilePublic  rawSurfaceSide `toml:"compile_public"`
	CompilePrivate rawSurfaceSide `toml:"compile_private"`
	LinkPublic     rawSurfaceSide `toml:"link_public"`
	LinkPrivate    rawSurfaceSide `toml:"link_private"`
}

type rawBackendRecipe struct {
	Backend string         `toml:"backend"`
	Options map[string]any `toml:"options"`
}

type rawFFI struct {
	Enabled bool `toml:"enabled"`
}

type rawTarget struct {
	Kind    string            `toml:"kind"`
	Sources []string          `toml:"sources"`
	Surface rawSurface        `toml:"surface"`
	Backend *rawBackendRecipe `toml:"backend"`
	FFI     *rawFFI           `toml:"ffi"`
}

type rawProfile struct {
	OptLevel     string   `toml:"opt-level"`
	DebugInfo    bool     `toml:"debug-info"`
	LTO          bool     `toml:"lto"`
	Sanitizers   []string `toml:"sanitizers"`
	ExtraCFlags  []string `toml:"extra-cflags"`
	ExtraLDFlags []string `toml:"extra-ldflags"`
}

// Decode parses TOML bytes into a Manifest rooted at dir. Unknown
// top-level fields are rejected (spec.md §4.1 step 2); the `[dependencies]`
// and backend `options` tables are intentionally open and not subject to
// that check.
func Decode(data []byte, dir string) (*Manifest, error) {
	var raw rawManifest
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, wrapErr(KindParseError, dir, "invalid TOML", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			// Keys inside dependency tables are decoded later, by
			// decodeDependencies, so they still show up here.
			if k[0] == "dependencies" || (len(k) > 1 && k[0] == "workspace" && k[1] == "dependencies") {
				continue
			}
			keys = append(keys, k.String())
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			return nil, newErr(KindSchemaViolation, dir, fmt.Sprintf("unknown field(s): %v", keys))
		}
	}

	m := &Manifest{
		Dir:      dir,
		Targets:  make(map[string]Target),
		Profiles: make(map[string]ProfileSpec),
	}

	if raw.Package != nil {
		if raw.Package.Name == "" {
			return nil, newErr(KindSchemaViolation, dir, "[package] missing required field \"name\"")
		}
		if raw.Package.Version == "" {
			return nil, newErr(KindSchemaViolation, dir, "[package] missing required field \"version\"")
		}
		m.Package = &PackageMeta{
			Name:        raw.Package.Name,
			Version:     raw.Package.Version,
			Description: raw.Package.Description,
			License:     raw.Package.License,
			Authors:     raw.Package.Authors,
		}
	}

	if raw.Workspace != nil {
		wsDeps, err := decodeDependencies(meta, raw.Workspace.Dependencies, dir)
		if err != nil {
			return nil, err
		}
		m.Workspace = &WorkspaceSection{
			Members:        raw.Workspace.Members,
			Excludes:       raw.Workspace.Exclude,
			DefaultMembers: raw.Workspace.DefaultMembers,
			Dependencies:   wsDeps,
		}
	}

	deps, err := decodeDependencies(meta, raw.Dependencies, dir)
	if err != nil {
		return nil, err
	}
	m.Dependencies = deps

	for name, rt := range raw.Targets {
		kind, ok := ParseTargetKind(rt.Kind)
		if !ok {
			return nil, newErr(KindSchemaViolation, dir, fmt.Sprintf("targets.%s: unknown kind %q", name, rt.Kind))
		}
		t := Target{
			Name:    name,
			Kind:    kind,
			Sources: rt.Sources,
			Surface: decodeSurface(rt.Surface),
		}
		if rt.Backend != nil {
			t.Backend = &BackendRecipe{Backend: rt.Backend.Backend, Options: rt.Backend.Options}
		}
		if rt.FFI != nil {
			t.FFI = &FFIConfig{Enabled: rt.FFI.Enabled}
		}
		m.Targets[name] = t
	}

	for name, rp := range raw.Profile {
		m.Profiles[name] = ProfileSpec{
			OptLevel:     rp.OptLevel,
			DebugInfo:    rp.DebugInfo,
			LTO:          rp.LTO,
			Sanitizers:   rp.Sanitizers,
			ExtraCFlags:  rp.ExtraCFlags,
			ExtraLDFlags: rp.ExtraLDFlags,
		}
	}

	return m, nil
}

func decodeDependencies(meta toml.MetaData, raw map[string]toml.Primitive, dir string) (map[string]DependencySpec, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(map[string]DependencySpec, len(raw))
	for name, prim := range raw {
		spec, err := decodeOneDependency(meta, prim)
		if err != nil {
			return nil, newErr(KindSchemaViolation, dir, fmt.Sprintf("dependencies.%s: %v", name, err))
		}
		out[name] = spec
	}
	return out, nil
}

func decodeOneDependency(meta toml.MetaData, prim toml.Primitive) (DependencySpec, error) {
	var bare string
	if err := meta.PrimitiveDecode(prim, &bare); err == nil {
		return DependencySpec{VersionReq: bare}, nil
	}

	var tbl rawDependencyTable
	if err := meta.PrimitiveDecode(prim, &tbl); err != nil {
		return DependencySpec{}, fmt.Errorf("must be a version string or an inline table: %w", err)
	}

	exclusive := 0
	if tbl.Branch != "" {
		exclusive++
	}
	if tbl.Tag != "" {
		exclusive++
	}
	if tbl.Rev != "" {
		exclusive++
	}
	if exclusive > 1 {
		return DependencySpec{}, fmt.Errorf("at most one of branch/tag/rev may be set")
	}

	return DependencySpec{
		VersionReq: tbl.Version,
		Path:       tbl.Path,
		Git:        tbl.Git,
		Branch:     tbl.Branch,
		Tag:        tbl.Tag,
		Rev:        tbl.Rev,
		Optional:   tbl.Optional,
		Features:   tbl.Features,
		Registry:   tbl.Registry,
	}, nil
}
