package shimfile

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/harbour-pm/harbour/internal/surface"
)

type rawShim struct {
	Package rawPackageRef     `toml:"package"`
	Source  rawSource         `toml:"source"`
	Patches []rawPatch        `toml:"patches"`
	Surface *rawSurfaceOverride `toml:"surface_override"`
	Build   *rawBuild         `toml:"build"`
	Harness *rawHarness       `toml:"harness"`
}

type rawPackageRef struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

type rawSource struct {
	Git     *rawGit     `toml:"git"`
	Tarball *rawTarball `toml:"tarball"`
}

type rawGit struct {
	URL      string `toml:"url"`
	Rev      string `toml:"rev"`
	Checksum string `toml:"checksum"`
}

type rawTarball struct {
	URL         string `toml:"url"`
	SHA256      string `toml:"sha256"`
	StripPrefix string `toml:"strip_prefix"`
}

type rawPatch struct {
	File   string `toml:"file"`
	SHA256 string `toml:"sha256"`
}

type rawSurfaceSide struct {
	IncludeDirs []string `toml:"include_dirs"`
	Defines     []string `toml:"defines"`
	Libs        []string `toml:"libs"`
}

type rawSurfaceOverride struct {
	CompilePublic rawSurfaceSide `toml:"compile_public"`
	LinkPublic    rawSurfaceSide `toml:"link_public"`
	Sources       []string       `toml:"sources"`
}

type rawCMake struct {
	Options []string `toml:"options"`
}

type rawBuild struct {
	Backend string   `toml:"backend"`
	CMake   rawCMake `toml:"cmake"`
}

type rawHarness struct {
	Header   string `toml:"header"`
	TestCall string `toml:"test_call"`
	Lang     string `toml:"lang"`
}

// DecodeShim parses one `index/<letter>/<name>/<version>.toml` file.
func DecodeShim(data []byte, path string) (*Shim, error) {
	var raw rawShim
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, newErr(path, "invalid TOML: "+err.Error())
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, newErr(path, fmt.Sprintf("unknown field(s): %v", undecoded))
	}

	if raw.Package.Name == "" || raw.Package.Version == "" {
		return nil, newErr(path, "[package] requires name and version")
	}

	shim := &Shim{Name: raw.Package.Name, Version: raw.Package.Version}

	hasGit := raw.Source.Git != nil
	hasTarball := raw.Source.Tarball != nil
	switch {
	case hasGit && hasTarball:
		return nil, newErr(path, "[source] may not declare both git and tarball")
	case hasGit:
		if len(raw.Source.Git.Rev) != 40 {
			return nil, newErr(path, "[source.git].rev must be a 40-hex commit SHA")
		}
		shim.Source = Source{Kind: ShimSourceGit, Git: &GitSource{
			URL: raw.Source.Git.URL, Rev: raw.Source.Git.Rev, Checksum: raw.Source.Git.Checksum,
		}}
	case hasTarball:
		if raw.Source.Tarball.SHA256 == "" {
			return nil, newErr(path, "[source.tarball] requires sha256")
		}
		shim.Source = Source{Kind: ShimSourceTarball, Tarball: &TarballSource{
			URL: raw.Source.Tarball.URL, SHA256: raw.Source.Tarball.SHA256, StripPrefix: raw.Source.Tarball.StripPrefix,
		}}
	default:
		return nil, newErr(path, "[source] must declare exactly one of git or tarball")
	}

	for _, p := range raw.Patches {
		if p.File == "" || p.SHA256 == "" {
			return nil, newErr(path, "[[patches]] entries require file and sha256")
		}
		shim.Patches = append(shim.Patches, Patch{File: p.File, SHA256: p.SHA256})
	}

	if raw.Surface != nil {
		s := surfaceFromRaw(raw.Surface)
		shim.SurfaceOverride = &s
		shim.NativeSources = raw.Surface.Sources
	}


	if raw.Build != nil {
		shim.Backend = &BackendConfig{Backend: raw.Build.Backend, CMakeOptions: raw.Build.CMake.Options}
	}

	if raw.Harness != nil {
		lang := raw.Harness.Lang
		if lang != "c" && lang != "c++" && lang != "cxx" {
			return nil, newErr(path, "[harness].lang must be \"c\" or \"c++\"")
		}
		shim.Harness = &HarnessConfig{Header: raw.Harness.Header, TestCall: raw.Harness.TestCall, Lang: lang}
	}

	return shim, nil
}

func surfaceFromRaw(raw *rawSurfaceOverride) surface.Surface {
	cs := surface.CompileSurface{}
	for _, d := range raw.CompilePublic.IncludeDirs {
		cs.IncludeDirs = append(cs.IncludeDirs, surface.CondString{Value: d})
	}
	for _, d := range raw.CompilePublic.Defines {
		name, value, _ := strings.Cut(d, "=")
		cs.Defines = append(cs.Defines, surface.CondDefine{Name: name, Value: value})
	}

	ls := surface.LinkSurface{}
	for _, l := range raw.LinkPublic.Libs {
		ls.DepLibs = append(ls.DepLibs, surface.DepLib{Name: l, Kind: surface.LibStatic})
	}

	return surface.Surface{CompilePublic: cs, LinkPublic: ls}
}
