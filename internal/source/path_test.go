package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/harbour-pm/harbour/internal/ident"
)

func writeManifest(t *testing.T, dir, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, "Harbour.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestPathSourceQueryMatchesVersion(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"widget\"\nversion = \"1.2.0\"\n")

	ps := NewPathSource(dir)
	dep := ident.Dependency{
		Name:   ident.Intern("widget"),
		Source: ident.NewPathSource(dir),
		Req:    ident.MustVersionReq("^1.0"),
	}

	summaries, err := ps.Query(context.Background(), dep)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("expected exactly one summary, got %d", len(summaries))
	}
	if summaries[0].ID.Name != dep.Name {
		t.Fatalf("unexpected name %v", summaries[0].ID.Name)
	}
}

func TestPathSourceQueryRejectsVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"widget\"\nversion = \"2.0.0\"\n")

	ps := NewPathSource(dir)
	dep := ident.Dependency{
		Name:   ident.Intern("widget"),
		Source: ident.NewPathSource(dir),
		Req:    ident.MustVersionReq("^1.0"),
	}

	summaries, err := ps.Query(context.Background(), dep)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(summaries) != 0 {
		t.Fatalf("expected no match for incompatible version, got %d", len(summaries))
	}
}

func TestCacheReturnsSameSourceForEqualIds(t *testing.T) {
	dir := t.TempDir()
	c := NewCache(t.TempDir())
	id := ident.NewPathSource(dir)

	a := c.Get(id)
	b := c.Get(id)
	if a != b {
		t.Fatal("expected Cache.Get to return the same Source instance for equal SourceIds")
	}
}
