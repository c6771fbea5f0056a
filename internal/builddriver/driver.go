package builddriver

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
	"github.com/harbour-pm/harbour/internal/resolve"
	"github.com/harbour-pm/harbour/internal/surface"
)

// BuildError reports which package, phase, and backend a build failure
// came from (spec.md §4.6 "the error surfaces the failing package, phase,
// backend, and command").
type BuildError struct {
	Package ident.PackageId
	Phase   string
	Backend string
	Wrapped error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("package %s: %s (%s backend): %v", e.Package, e.Phase, e.Backend, e.Wrapped)
}

func (e *BuildError) Unwrap() error { return e.Wrapped }

type graphAdapter struct {
	g     *resolve.Graph
	byKey map[string]*resolve.Node
}

func newGraphAdapter(g *resolve.Graph) *graphAdapter {
	byKey := make(map[string]*resolve.Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byKey[n.ID.String()] = n
	}
	return &graphAdapter{g: g, byKey: byKey}
}

func (a *graphAdapter) roots() []ident.PackageId { return a.g.Roots }

func (a *graphAdapter) depsOf(id ident.PackageId) []ident.PackageId {
	n, ok := a.byKey[id.String()]
	if !ok {
		return nil
	}
	return n.Dependencies
}

func (a *graphAdapter) Deps(id ident.PackageId) []ident.PackageId { return a.depsOf(id) }

// Build runs one full workspace build per spec.md §4.6: validate, walk the
// graph leaves-first configuring/building/installing each package, then
// resolve and produce the requested root targets.
func (d *Driver) Build(ctx context.Context, intent backend.BuildIntent, opts backend.Options) (*Result, error) {
	adapter := newGraphAdapter(d.Graph)
	order := topoOrder(adapter)

	builds := make(map[string]*packageBuild, len(order))
	surfNodes := make(map[ident.PackageId]surface.Node, len(order))
	result := &Result{Flats: make(map[string]*surface.Flat), DiscoveredSurfaces: make(map[string]*backend.DiscoveredSurface, len(order))}

	for _, id := range order {
		m, root, err := d.Loader.LoadPackage(id)
		if err != nil {
			return nil, &BuildError{Package: id, Phase: "load", Wrapped: err}
		}

		be := d.selectBackend(m)
		if err := d.validatePackage(be, intent, m); err != nil {
			return nil, &BuildError{Package: id, Phase: "validate", Backend: be.ID(), Wrapped: err}
		}

		pb := &packageBuild{
			id:       id,
			m:        m,
			root:     root,
			buildDir: filepath.Join(d.BuildRoot, packageDirName(id)),
			be:       be,
		}
		builds[id.String()] = pb

		bc := backend.BuildContext{
			PackageRoot:   root,
			BuildDir:      pb.buildDir,
			InstallPrefix: pb.buildDir,
			Release:       intent.Profile == "release",
			Jobs:          intent.Parallelism,
		}

		libTarget := libTargetName(m)
		recipeOpts := recipeOptions(m, libTarget)

		if be.Capabilities().Configure != backend.NotSupported {
			if _, err := be.Configure(ctx, bc, recipeOpts); err != nil {
				return nil, &BuildError{Package: id, Phase: "configure", Backend: be.ID(), Wrapped: err}
			}
		}
		if _, err := be.Build(ctx, bc, recipeOpts); err != nil {
			return nil, &BuildError{Package: id, Phase: "build", Backend: be.ID(), Wrapped: err}
		}
		if be.Capabilities().Install != backend.NotSupported {
			if _, err := be.Install(ctx, bc, recipeOpts); err != nil {
				return nil, &BuildError{Package: id, Phase: "install", Backend: be.ID(), Wrapped: err}
			}
		}

		var discovered *backend.DiscoveredSurface
		if be.Capabilities().ExportDiscovery.Supported {
			discovered, err = be.DiscoverExports(ctx, bc)
			if err != nil {
				return nil, &BuildError{Package: id, Phase: "discover_exports", Backend: be.ID(), Wrapped: err}
			}
		}
		pb.surf = discovered
		if discovered != nil {
			result.DiscoveredSurfaces[id.Name.String()] = discovered
		}

		surfNodes[id] = buildSurfaceNode(id, libTarget, m, discovered)
	}

	for _, rootID := range d.Graph.Roots {
		pb, ok := builds[rootID.String()]
		if !ok {
			continue
		}
		for name, t := range pb.m.Targets {
			if !targetSelected(intent, name, t) {
				continue
			}
			surfNodes[rootID] = surface.Node{
				ID:        rootID,
				Targets:   map[string]surface.Surface{name: t.Surface},
				LibTarget: name,
			}
			flat := surface.Flatten(rootID, name, surfNodes, adapter, surface.EvalContext{
				Triple:  intent.TargetTriple,
				Backend: pb.be.ID(),
			})

			artifactPath, kind, err := d.produceRootTarget(ctx, pb, name, t, flat, intent)
			if err != nil {
				return nil, &BuildError{Package: rootID, Phase: "link", Backend: pb.be.ID(), Wrapped: err}
			}

			result.Artifacts = append(result.Artifacts, Artifact{Path: artifactPath, Kind: kind, Target: name, Pkg: rootID})
			result.CompileCommands = append(result.CompileCommands, compileCommandsFor(pb, name, flat)...)
			result.Flats[name] = flat
		}
	}

	return result, nil
}

func (d *Driver) selectBackend(m *manifest.Manifest) backend.Backend {
	for _, t := range m.Targets {
		if t.Backend != nil && t.Backend.Backend != "" {
			if be := d.Backends.Get(t.Backend.Backend); be != nil {
				return be
			}
		}
	}
	return d.Default
}

func (d *Driver) validatePackage(be backend.Backend, intent backend.BuildIntent, m *manifest.Manifest) error {
	var inputs []backend.PackageValidationInput
	for name, t := range m.Targets {
		linkable := t.Kind == manifest.TargetStaticLib || t.Kind == manifest.TargetSharedLib
		empty := len(t.Surface.CompilePublic.IncludeDirs) == 0 && len(t.Surface.LinkPublic.DepLibs) == 0
		inputs = append(inputs, backend.PackageValidationInput{TargetName: name, SurfaceIsEmpty: empty, Linkable: linkable})
	}
	errs := backend.Validate(be, intent, backend.Options{}, nil, d.HostTriple, inputs)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%d validation error(s): %v", len(errs), errs)
}

func packageDirName(id ident.PackageId) string {
	return fmt.Sprintf("%s-%s", id.Name.String(), id.Version.String())
}

func libTargetName(m *manifest.Manifest) string {
	for name, t := range m.Targets {
		switch t.Kind {
		case manifest.TargetStaticLib, manifest.TargetSharedLib, manifest.TargetHeaderOnly:
			return name
		}
	}
	return ""
}

func recipeOptions(m *manifest.Manifest, targetName string) backend.Options {
	if targetName == "" {
		return backend.Options{}
	}
	t, ok := m.Targets[targetName]
	if !ok || t.Backend == nil {
		return backend.Options{}
	}
	out := backend.Options{}
	for k, v := range t.Backend.Options {
		out[k] = v
	}
	return out
}

func targetSelected(intent backend.BuildIntent, name string, t manifest.Target) bool {
	if len(intent.TargetFilter) > 0 {
		for _, want := range intent.TargetFilter {
			if want == name {
				return true
			}
		}
		return false
	}
	return t.Kind == manifest.TargetExe
}

func buildSurfaceNode(id ident.PackageId, libTarget string, m *manifest.Manifest, discovered *backend.DiscoveredSurface) surface.Node {
	if discovered == nil || libTarget == "" {
		targets := make(map[string]surface.Surface, len(m.Targets))
		for name, t := range m.Targets {
			targets[name] = t.Surface
		}
		return surface.Node{ID: id, Targets: targets, LibTarget: libTarget}
	}

	s := m.Targets[libTarget].Surface
	s.CompilePublic.IncludeDirs = append(s.CompilePublic.IncludeDirs, stringsToCond(discovered.IncludeDirs)...)
	s.CompilePublic.ExtraFlags = append(s.CompilePublic.ExtraFlags, stringsToCond(discovered.ExtraCompileFlags)...)
	s.LinkPublic.ExtraFlags = append(s.LinkPublic.ExtraFlags, stringsToCond(discovered.ExtraLinkFlags)...)
	s.LinkPublic.SystemLibs = append(s.LinkPublic.SystemLibs, stringsToCond(discovered.RuntimeDeps)...)

	node := surface.Node{
		ID:        id,
		Targets:   map[string]surface.Surface{libTarget: s},
		LibTarget: libTarget,
	}
	if len(discovered.Libraries) > 0 {
		node.ArtifactPath = discovered.Libraries[0].Path
		node.ArtifactKind = discovered.Libraries[0].Kind
	}
	for _, lib := range discovered.Libraries[minInt(1, len(discovered.Libraries)):] {
		s.LinkPublic.DepLibs = append(s.LinkPublic.DepLibs, surface.DepLib{Name: lib.Name, Path: lib.Path, Kind: lib.Kind, SoName: lib.SoName})
	}
	node.Targets[libTarget] = s
	return node
}

func stringsToCond(ss []string) []surface.CondString {
	out := make([]surface.CondString, 0, len(ss))
	for _, s := range ss {
		out = append(out, surface.CondString{Value: s})
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// produceRootTarget drives the final link (or archive) for one root target
// using its flattened surface, returning the produced artifact path and
// kind.
func (d *Driver) produceRootTarget(ctx context.Context, pb *packageBuild, name string, t manifest.Target, flat *surface.Flat, intent backend.BuildIntent) (string, ArtifactKind, error) {
	if err := os.MkdirAll(d.OutputDir, 0o755); err != nil {
		return "", 0, err
	}

	bc := backend.BuildContext{
		PackageRoot:   pb.root,
		BuildDir:      pb.buildDir,
		InstallPrefix: d.OutputDir,
		Release:       intent.Profile == "release",
		Jobs:          intent.Parallelism,
	}

	opts := recipeOptions(pb.m, name)
	includeDirs := make([]string, 0, len(flat.IncludeDirs))
	for _, it := range flat.IncludeDirs {
		includeDirs = append(includeDirs, it.Value)
	}
	var libs, libDirs []string
	for _, it := range flat.DepLibs {
		if it.Value.Path != "" {
			libDirs = append(libDirs, filepath.Dir(it.Value.Path))
		}
		libs = append(libs, it.Value.Name)
	}
	for _, it := range flat.LibDirs {
		libDirs = append(libDirs, it.Value)
	}
	opts["sources"] = t.Sources
	opts["include_dirs"] = includeDirs
	opts["lib_name"] = name
	opts["libs"] = libs
	opts["lib_dirs"] = libDirs

	switch t.Kind {
	case manifest.TargetStaticLib:
		opts["kind"] = "staticlib"
		if _, err := pb.be.Build(ctx, bc, opts); err != nil {
			return "", 0, err
		}
		return filepath.Join(pb.buildDir, "lib"+name+".a"), ArtifactStaticLib, nil
	case manifest.TargetSharedLib:
		opts["kind"] = "sharedlib"
		if _, err := pb.be.Build(ctx, bc, opts); err != nil {
			return "", 0, err
		}
		return filepath.Join(pb.buildDir, "lib"+name+".so"), ArtifactSharedLib, nil
	default:
		opts["kind"] = "exe"
		if _, err := pb.be.Build(ctx, bc, opts); err != nil {
			return "", 0, err
		}
		return filepath.Join(pb.buildDir, name), ArtifactExecutable, nil
	}
}
