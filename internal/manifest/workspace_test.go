package manifest

import (
	"os"
	"path/filepath"
	"testing"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, CanonicalManifestName), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// S6 from spec.md §8: workspace.members with an exclude pattern.
func TestWorkspaceExcludePattern(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, `
[workspace]
members = ["packages/*"]
exclude = ["packages/experimental"]
`)
	writeManifest(t, filepath.Join(root, "packages", "a"), "[package]\nname = \"a\"\nversion = \"1.0.0\"\n")
	writeManifest(t, filepath.Join(root, "packages", "b"), "[package]\nname = \"b\"\nversion = \"1.0.0\"\n")
	writeManifest(t, filepath.Join(root, "packages", "experimental"), "[package]\nname = \"experimental\"\nversion = \"1.0.0\"\n")

	ws, err := Load(root, "debug")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(ws.Members) != 2 {
		t.Fatalf("expected 2 members, got %d: %+v", len(ws.Members), ws.Members)
	}
	if ws.Members[0].Name.String() != "a" || ws.Members[1].Name.String() != "b" {
		t.Fatalf("expected sorted [a, b], got [%s, %s]", ws.Members[0].Name, ws.Members[1].Name)
	}
}

func TestAmbiguousManifestBothNamesPresent(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[package]\nname = \"app\"\nversion = \"0.1.0\"\n")
	if err := os.WriteFile(filepath.Join(root, AliasManifestName), []byte("[package]\nname = \"app\"\nversion = \"0.1.0\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadManifestFile(root)
	if err == nil {
		t.Fatalf("expected AmbiguousManifest error")
	}
	if e, ok := err.(*Error); !ok || e.Kind != KindAmbiguousManifest {
		t.Fatalf("expected AmbiguousManifest, got %v", err)
	}
}

func TestNestedWorkspaceRejected(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[workspace]\nmembers = [\"sub\"]\n")
	writeManifest(t, filepath.Join(root, "sub"), "[package]\nname = \"sub\"\nversion = \"1.0.0\"\n\n[workspace]\nmembers = []\n")

	_, err := Load(root, "debug")
	if err == nil {
		t.Fatalf("expected NestedWorkspace error")
	}
	if e, ok := err.(*Error); !ok || e.Kind != KindNestedWorkspace {
		t.Fatalf("expected NestedWorkspace, got %v", err)
	}
}

func TestEmptyMembersRejected(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "[workspace]\nmembers = []\n")

	_, err := Load(root, "debug")
	if err == nil {
		t.Fatalf("expected EmptyMembers error")
	}
	if e, ok := err.(*Error); !ok || e.Kind != KindEmptyMembers {
		t.Fatalf("expected EmptyMembers, got %v", err)
	}
}

func TestAddThenRemoveDependencyIntoExistingTableRoundTrips(t *testing.T) {
	original := []byte("[package]\nname = \"app\"\nversion = \"0.1.0\"\n\n[dependencies]\nzlib = \"^1.2\"\n")

	added, err := AddDependency(original, "mylib", "^2.0")
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	removed, err := RemoveDependency(added, "mylib")
	if err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	if string(removed) != string(original) {
		t.Fatalf("expected round-trip to original:\nwant=%q\ngot=%q", original, removed)
	}
}
