package surface

import (
	"testing"

	"github.com/Masterminds/semver/v3"
	"github.com/harbour-pm/harbour/internal/ident"
)

type mapGraph map[ident.PackageId][]ident.PackageId

func (g mapGraph) Deps(id ident.PackageId) []ident.PackageId { return g[id] }

func pkgID(t *testing.T, name, version string) ident.PackageId {
	t.Helper()
	v, err := semver.NewVersion(version)
	if err != nil {
		t.Fatalf("bad version %q: %v", version, err)
	}
	return ident.NewPackageId(name, v, ident.NewPathSource("/src/"+name))
}

// S1 from spec.md §8: app -> mylib, mylib declares include dir "include".
func TestFlattenSimplePathDep(t *testing.T) {
	app := pkgID(t, "app", "0.1.0")
	mylib := pkgID(t, "mylib", "1.0.0")

	nodes := map[ident.PackageId]Node{
		app: {
			ID: app,
			Targets: map[string]Surface{
				"app": {},
			},
		},
		mylib: {
			ID:        mylib,
			LibTarget: "mylib",
			Targets: map[string]Surface{
				"mylib": {
					CompilePublic: CompileSurface{
						IncludeDirs: []CondString{{Value: "/abs/mylib/include"}},
					},
				},
			},
			ArtifactPath: "/target/debug/deps/libmylib.a",
			ArtifactKind: LibStatic,
		},
	}
	g := mapGraph{app: {mylib}}

	flat := Flatten(app, "app", nodes, g, EvalContext{})
	if len(flat.IncludeDirs) != 1 || flat.IncludeDirs[0].Value != "/abs/mylib/include" {
		t.Fatalf("expected mylib's include dir to propagate, got %+v", flat.IncludeDirs)
	}
	if flat.IncludeDirs[0].Provenance.Package.Name.String() != "mylib" {
		t.Fatalf("expected provenance attributed to mylib")
	}
	if len(flat.DepLibs) != 1 || flat.DepLibs[0].Value.Path != "/target/debug/deps/libmylib.a" {
		t.Fatalf("expected synthetic dep-lib entry for mylib, got %+v", flat.DepLibs)
	}
}

// Property 3: compile_surface(T).include_dirs has no duplicates.
func TestFlattenDedupIncludeDirs(t *testing.T) {
	app := pkgID(t, "app", "0.1.0")
	a := pkgID(t, "a", "1.0.0")
	b := pkgID(t, "b", "1.0.0")

	shared := CompileSurface{IncludeDirs: []CondString{{Value: "/shared/include"}}}
	nodes := map[ident.PackageId]Node{
		app: {ID: app, Targets: map[string]Surface{"app": {}}},
		a:   {ID: a, LibTarget: "a", Targets: map[string]Surface{"a": {CompilePublic: shared}}},
		b:   {ID: b, LibTarget: "b", Targets: map[string]Surface{"b": {CompilePublic: shared}}},
	}
	g := mapGraph{app: {a, b}}

	flat := Flatten(app, "app", nodes, g, EvalContext{})
	if len(flat.IncludeDirs) != 1 {
		t.Fatalf("expected deduplication to a single include dir, got %+v", flat.IncludeDirs)
	}
}

// Property 4: for A -> B, B appears after A in link_surface(T).DepLibs.
func TestFlattenLinkOrderLeavesLast(t *testing.T) {
	app := pkgID(t, "app", "0.1.0")
	a := pkgID(t, "a", "1.0.0") // app depends on a
	b := pkgID(t, "b", "1.0.0") // a depends on b (leaf)

	mk := func(id ident.PackageId, name string) Node {
		return Node{
			ID:        id,
			LibTarget: name,
			Targets:   map[string]Surface{name: {}},
		}
	}
	nodes := map[ident.PackageId]Node{
		app: {ID: app, Targets: map[string]Surface{"app": {}}},
		a:   mk(a, "a"),
		b:   mk(b, "b"),
	}
	nodes[a] = Node{ID: a, LibTarget: "a", Targets: map[string]Surface{"a": {}}, ArtifactPath: "/deps/liba.a", ArtifactKind: LibStatic}
	nodes[b] = Node{ID: b, LibTarget: "b", Targets: map[string]Surface{"b": {}}, ArtifactPath: "/deps/libb.a", ArtifactKind: LibStatic}
	g := mapGraph{app: {a}, a: {b}}

	flat := Flatten(app, "app", nodes, g, EvalContext{})
	if len(flat.DepLibs) != 2 {
		t.Fatalf("expected two dep libs, got %+v", flat.DepLibs)
	}
	if flat.DepLibs[0].Value.Name != "a" || flat.DepLibs[1].Value.Name != "b" {
		t.Fatalf("expected a before leaf b, got order %s, %s", flat.DepLibs[0].Value.Name, flat.DepLibs[1].Value.Name)
	}
}
