package builddriver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
	"github.com/harbour-pm/harbour/internal/resolve"
	"github.com/harbour-pm/harbour/internal/source"
)

// cacheLoader adapts a source.Cache into a PackageLoader, the same way
// cmd/harbour's cachePackageLoader does, so this test exercises the real
// hand-off between resolve.Resolver's output and the driver instead of a
// hand-built synthetic graph.
type cacheLoader struct {
	cache *source.Cache
}

func (l *cacheLoader) LoadPackage(id ident.PackageId) (*manifest.Manifest, string, error) {
	src := l.cache.Get(id.Source)
	pkg, err := src.LoadPackage(context.Background(), id)
	if err != nil {
		return nil, "", err
	}
	return pkg.Manifest, pkg.Dir, nil
}

func writeManifest(t *testing.T, dir, name, version string, deps map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "[package]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n"
	for depName, depDir := range deps {
		content += "\n[dependencies." + depName + "]\npath = \"" + depDir + "\"\n"
	}
	content += "\n[targets." + name + "]\nkind = \"exe\"\n"
	if err := os.WriteFile(filepath.Join(dir, "Harbour.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestResolveThenBuildSimpleDependency drives a real resolve.Resolver
// output through Driver.Build (spec.md §8 scenario S1: app -> mylib). It
// guards against the resolver handing the driver version-less dependency
// placeholders, which previously made every non-root package's LoadPackage
// call fail with ErrNotFound since PathSource.LoadPackage compares the
// full PackageId (including Version) via PackageId.Equal.
func TestResolveThenBuildSimpleDependency(t *testing.T) {
	root := t.TempDir()
	appDir := filepath.Join(root, "app")
	mylibDir := filepath.Join(root, "mylib")

	writeManifest(t, mylibDir, "mylib", "1.0.0", nil)
	writeManifest(t, appDir, "app", "0.1.0", map[string]string{"mylib": "../mylib"})

	cache := source.NewCache(t.TempDir())
	rootDeps := []ident.Dependency{
		{Name: ident.Intern("mylib"), Source: ident.NewPathSource(mylibDir), Req: ident.Any()},
	}
	rootIDs := []ident.PackageId{ident.NewPackageId("app", mustSemver(t, "0.1.0"), ident.NewPathSource(appDir))}

	r := resolve.New(cache, nil, resolve.Flags{})
	graph, err := r.Resolve(context.Background(), rootDeps, rootIDs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	mylibNode := graph.NodeFor(ident.Intern("mylib"), ident.NewPathSource(mylibDir))
	if mylibNode == nil {
		t.Fatal("expected a selected node for mylib")
	}
	if mylibNode.ID.Version == nil || mylibNode.ID.Version.String() != "1.0.0" {
		t.Fatalf("expected mylib's selected version to be 1.0.0, got %v", mylibNode.ID.Version)
	}

	appNode := graph.NodeFor(ident.Intern("app"), ident.NewPathSource(appDir))
	if appNode == nil {
		t.Fatal("expected a selected node for app")
	}
	if len(appNode.Dependencies) != 1 || appNode.Dependencies[0].Version == nil {
		t.Fatalf("expected app's forward edge to mylib to carry a resolved version, got %+v", appNode.Dependencies)
	}
	if !appNode.Dependencies[0].Equal(mylibNode.ID) {
		t.Fatalf("expected app's forward edge to equal mylib's selected PackageId, got %v want %v", appNode.Dependencies[0], mylibNode.ID)
	}

	be := &fakeBackend{id: "native"}
	reg := backend.NewRegistry()
	reg.Register(be)

	d := &Driver{
		Graph:     graph,
		Loader:    &cacheLoader{cache: cache},
		Backends:  reg,
		Default:   be,
		BuildRoot: filepath.Join(root, "deps"),
		OutputDir: filepath.Join(root, "out"),
	}

	result, err := d.Build(context.Background(), backend.BuildIntent{TargetFilter: []string{"app"}}, backend.Options{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("expected exactly one produced artifact, got %d", len(result.Artifacts))
	}
	if be.builds == 0 {
		t.Fatal("expected the backend's Build to have run for at least one package")
	}
}
