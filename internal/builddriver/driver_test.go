package builddriver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
	"github.com/harbour-pm/harbour/internal/surface"
)

func mustSemver(t *testing.T, s string) *semver.Version {
	t.Helper()
	v, err := semver.NewVersion(s)
	if err != nil {
		t.Fatalf("parse version %q: %v", s, err)
	}
	return v
}

// fakeBackend is a Backend that never shells out, letting these tests
// exercise the driver's orchestration without a real compiler toolchain.
type fakeBackend struct {
	id           string
	builds       int
	installs     int
	cleans       int
	discoverPath string
}

func (f *fakeBackend) ID() string { return f.id }
func (f *fakeBackend) Capabilities() backend.Capabilities {
	return backend.Capabilities{
		BackendID: f.id,
		Build:     backend.Required,
		Install:   backend.Required,
		Clean:     backend.Required,
		Artifacts: map[backend.ArtifactKind]bool{backend.ArtifactStatic: true, backend.ArtifactExecutable: true},
		Linkage:   backend.LinkageFeatures{Static: true, Shared: true},
		ExportDiscovery: backend.ExportDiscoveryContract{Supported: true},
	}
}
func (f *fakeBackend) Defaults() backend.Defaults { return backend.Defaults{} }
func (f *fakeBackend) Availability(ctx context.Context) backend.Availability {
	return backend.Availability{Kind: backend.AlwaysAvailable}
}
func (f *fakeBackend) Configure(ctx context.Context, bc backend.BuildContext, opts backend.Options) (backend.ConfigureResult, error) {
	return backend.ConfigureResult{Skipped: true}, nil
}
func (f *fakeBackend) Build(ctx context.Context, bc backend.BuildContext, opts backend.Options) (backend.BuildResult, error) {
	f.builds++
	return backend.BuildResult{}, nil
}
func (f *fakeBackend) Test(ctx context.Context, bc backend.BuildContext, opts backend.Options) (backend.TestResult, error) {
	return backend.TestResult{}, nil
}
func (f *fakeBackend) Install(ctx context.Context, bc backend.BuildContext, opts backend.Options) (backend.InstallResult, error) {
	f.installs++
	return backend.InstallResult{}, nil
}
func (f *fakeBackend) Clean(ctx context.Context, bc backend.BuildContext, opts backend.Options) error {
	f.cleans++
	return os.RemoveAll(bc.BuildDir)
}
func (f *fakeBackend) DiscoverExports(ctx context.Context, bc backend.BuildContext) (*backend.DiscoveredSurface, error) {
	if f.discoverPath == "" {
		return &backend.DiscoveredSurface{}, nil
	}
	return &backend.DiscoveredSurface{
		Libraries: []backend.DiscoveredLibrary{{Name: f.id, Path: f.discoverPath, Kind: surface.LibStatic}},
	}, nil
}
func (f *fakeBackend) Doctor(ctx context.Context) backend.DoctorReport { return backend.DoctorReport{} }
func (f *fakeBackend) ValidateExtra(intent backend.BuildIntent, opts backend.Options) []error {
	return nil
}

type fakeLoader struct {
	packages map[string]*manifest.Manifest
	roots    map[string]string
}

func (l *fakeLoader) LoadPackage(id ident.PackageId) (*manifest.Manifest, string, error) {
	m := l.packages[id.Name.String()]
	return m, l.roots[id.Name.String()], nil
}

func TestCleanIsIdempotent(t *testing.T) {
	tmp := t.TempDir()
	be := &fakeBackend{id: "fake"}
	reg := backend.NewRegistry()
	reg.Register(be)

	d := &Driver{
		Backends: reg,
		Default:  be,
		BuildRoot: tmp,
		OutputDir: filepath.Join(tmp, "out"),
	}

	pkgID := testPackageId(t, "mylib", "1.0.0")
	loader := &fakeLoader{
		packages: map[string]*manifest.Manifest{"mylib": {Package: &manifest.PackageMeta{Name: "mylib"}, Targets: map[string]manifest.Target{}}},
		roots:    map[string]string{"mylib": tmp},
	}
	d.Loader = loader

	if err := d.Clean(context.Background(), []ident.PackageId{pkgID}, backend.BuildIntent{}); err != nil {
		t.Fatalf("first clean: %v", err)
	}
	if err := d.Clean(context.Background(), []ident.PackageId{pkgID}, backend.BuildIntent{}); err != nil {
		t.Fatalf("second clean on an already-clean tree: %v", err)
	}
	if be.cleans != 2 {
		t.Fatalf("expected Clean to be called twice, got %d", be.cleans)
	}
}

func TestTopoOrderVisitsDependenciesBeforeDependents(t *testing.T) {
	app := testPackageId(t, "app", "0.1.0")
	mylib := testPackageId(t, "mylib", "1.0.0")

	g := &fakeGraph{
		rootIDs: []ident.PackageId{app},
		deps:    map[string][]ident.PackageId{app.String(): {mylib}},
	}

	order := topoOrder(g)
	if len(order) != 2 {
		t.Fatalf("expected 2 packages in topo order, got %d", len(order))
	}
	if order[0].String() != mylib.String() || order[1].String() != app.String() {
		t.Fatalf("expected mylib before app, got %v then %v", order[0], order[1])
	}
}

type fakeGraph struct {
	rootIDs []ident.PackageId
	deps    map[string][]ident.PackageId
}

func (g *fakeGraph) roots() []ident.PackageId { return g.rootIDs }
func (g *fakeGraph) depsOf(id ident.PackageId) []ident.PackageId {
	return g.deps[id.String()]
}

func TestBuildSurfaceNodeUsesDiscoveredArtifactForSyntheticDepLib(t *testing.T) {
	id := testPackageId(t, "mylib", "1.0.0")
	m := &manifest.Manifest{
		Targets: map[string]manifest.Target{
			"mylib": {Name: "mylib", Kind: manifest.TargetStaticLib},
		},
	}
	discovered := &backend.DiscoveredSurface{
		IncludeDirs: []string{"/abs/mylib/include"},
		Libraries:   []backend.DiscoveredLibrary{{Name: "mylib", Path: "/deps/libmylib.a", Kind: surface.LibStatic}},
	}

	node := buildSurfaceNode(id, "mylib", m, discovered)
	if node.ArtifactPath != "/deps/libmylib.a" {
		t.Fatalf("expected artifact path to come from discovery, got %q", node.ArtifactPath)
	}
	compileSurf := node.Targets["mylib"].CompilePublic
	if len(compileSurf.IncludeDirs) != 1 || compileSurf.IncludeDirs[0].Value != "/abs/mylib/include" {
		t.Fatalf("expected discovered include dir to be merged in, got %+v", compileSurf.IncludeDirs)
	}
}

func testPackageId(t *testing.T, name, version string) ident.PackageId {
	t.Helper()
	return ident.NewPackageId(name, mustSemver(t, version), ident.NewPathSource("/fake/"+name))
}
