package resolve

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/Masterminds/semver/v3"

	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/source"
)

func writePkg(t *testing.T, dir, name, version string, deps map[string]string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	content := "[package]\nname = \"" + name + "\"\nversion = \"" + version + "\"\n"
	for depName, depDir := range deps {
		content += "\n[dependencies." + depName + "]\npath = \"" + depDir + "\"\n"
	}
	if err := os.WriteFile(filepath.Join(dir, "Harbour.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// TestResolveUniqueSelectionPerNameSource covers property 1 in spec.md §8:
// a diamond dependency (app -> a -> common, app -> b -> common) resolves
// to exactly one selected node for "common".
func TestResolveUniqueSelectionPerNameSource(t *testing.T) {
	root := t.TempDir()
	commonDir := filepath.Join(root, "common")
	aDir := filepath.Join(root, "a")
	bDir := filepath.Join(root, "b")

	writePkg(t, commonDir, "common", "1.0.0", nil)
	writePkg(t, aDir, "a", "1.0.0", map[string]string{"common": "../common"})
	writePkg(t, bDir, "b", "1.0.0", map[string]string{"common": "../common"})

	cache := source.NewCache(t.TempDir())
	rootDeps := []ident.Dependency{
		{Name: ident.Intern("a"), Source: ident.NewPathSource(aDir), Req: ident.Any()},
		{Name: ident.Intern("b"), Source: ident.NewPathSource(bDir), Req: ident.Any()},
	}

	r := New(cache, nil, Flags{})
	graph, err := r.Resolve(context.Background(), rootDeps, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	count := 0
	for ns := range graph.Nodes {
		if ns.Name.String() == "common" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one selected node for \"common\", got %d", count)
	}
}

// TestResolveOutputsAreSortedDeterministically covers property 2: the
// resolver's Sorted() output is ordered by (name, version, source).
func TestResolveOutputsAreSortedDeterministically(t *testing.T) {
	root := t.TempDir()
	zDir := filepath.Join(root, "zpkg")
	aDir := filepath.Join(root, "apkg")
	writePkg(t, zDir, "zpkg", "1.0.0", nil)
	writePkg(t, aDir, "apkg", "1.0.0", nil)

	cache := source.NewCache(t.TempDir())
	rootDeps := []ident.Dependency{
		{Name: ident.Intern("zpkg"), Source: ident.NewPathSource(zDir), Req: ident.Any()},
		{Name: ident.Intern("apkg"), Source: ident.NewPathSource(aDir), Req: ident.Any()},
	}

	r := New(cache, nil, Flags{})
	graph, err := r.Resolve(context.Background(), rootDeps, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	sorted := graph.Sorted()
	if len(sorted) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(sorted))
	}
	if sorted[0].Name.String() != "apkg" || sorted[1].Name.String() != "zpkg" {
		t.Fatalf("expected apkg before zpkg, got %v then %v", sorted[0].Name, sorted[1].Name)
	}
}

// TestResolveForwardEdgesCarryResolvedVersions guards against Node.Dependencies
// holding version-less placeholders: every non-root package's forward edge
// must equal its dependency's actually-selected PackageId, since
// PathSource/RegistrySource.LoadPackage reject an id whose Version doesn't
// match via PackageId.Equal.
func TestResolveForwardEdgesCarryResolvedVersions(t *testing.T) {
	root := t.TempDir()
	appDir := filepath.Join(root, "app")
	mylibDir := filepath.Join(root, "mylib")

	writePkg(t, mylibDir, "mylib", "1.0.0", nil)
	writePkg(t, appDir, "app", "0.1.0", map[string]string{"mylib": "../mylib"})

	cache := source.NewCache(t.TempDir())
	rootDeps := []ident.Dependency{
		{Name: ident.Intern("mylib"), Source: ident.NewPathSource(mylibDir), Req: ident.Any()},
	}
	rootIDs := []ident.PackageId{ident.NewPackageId("app", mustSemverT(t, "0.1.0"), ident.NewPathSource(appDir))}

	r := New(cache, nil, Flags{})
	graph, err := r.Resolve(context.Background(), rootDeps, rootIDs)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	mylibNode := graph.NodeFor(ident.Intern("mylib"), ident.NewPathSource(mylibDir))
	if mylibNode == nil {
		t.Fatal("expected a selected node for mylib")
	}
	if mylibNode.ID.Version == nil {
		t.Fatal("expected mylib's selected PackageId to carry a resolved version")
	}

	appNode := graph.NodeFor(ident.Intern("app"), ident.NewPathSource(appDir))
	if appNode == nil {
		t.Fatal("expected a selected node for app")
	}
	if len(appNode.Dependencies) != 1 {
		t.Fatalf("expected app to have exactly one forward edge, got %+v", appNode.Dependencies)
	}
	dep := appNode.Dependencies[0]
	if dep.Version == nil {
		t.Fatal("expected app's forward edge to mylib to carry a resolved version, got nil")
	}
	if !dep.Equal(mylibNode.ID) {
		t.Fatalf("expected app's forward edge to equal mylib's selected PackageId, got %v want %v", dep, mylibNode.ID)
	}
}

func mustSemverT(t *testing.T, s string) *semver.Version {
	t.Helper()
	v, err := semver.NewVersion(s)
	if err != nil {
		t.Fatalf("parse version %q: %v", s, err)
	}
	return v
}

func TestResolveConflictingPathAndRegistrySameName(t *testing.T) {
	root := t.TempDir()
	widgetDir := filepath.Join(root, "widget")
	writePkg(t, widgetDir, "widget", "1.0.0", nil)

	cache := source.NewCache(t.TempDir())
	rootDeps := []ident.Dependency{
		{Name: ident.Intern("widget"), Source: ident.NewPathSource(widgetDir), Req: ident.Any()},
		{Name: ident.Intern("widget"), Source: ident.NewRegistrySource("https://example.com/registry"), Req: ident.Any()},
	}

	r := New(cache, nil, Flags{})
	_, err := r.Resolve(context.Background(), rootDeps, nil)
	if err == nil {
		t.Fatal("expected a conflict error for the same name under two different SourceIds")
	}
	if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected *ConflictError, got %T: %v", err, err)
	}
}

func TestLockfileEncodeDecodeRoundTrips(t *testing.T) {
	root := t.TempDir()
	aDir := filepath.Join(root, "a")
	writePkg(t, aDir, "a", "1.0.0", nil)

	cache := source.NewCache(t.TempDir())
	rootDeps := []ident.Dependency{
		{Name: ident.Intern("a"), Source: ident.NewPathSource(aDir), Req: ident.Any()},
	}
	r := New(cache, nil, Flags{})
	graph, err := r.Resolve(context.Background(), rootDeps, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	lf := FromGraph(graph)
	encoded := lf.Encode()

	decoded, err := DecodeLockfile(encoded)
	if err != nil {
		t.Fatalf("DecodeLockfile: %v", err)
	}
	if decoded.Version != LockfileVersion {
		t.Fatalf("expected version %d, got %d", LockfileVersion, decoded.Version)
	}
	if len(decoded.Packages) != 1 || decoded.Packages[0].Name != "a" {
		t.Fatalf("unexpected decoded packages: %+v", decoded.Packages)
	}
}
