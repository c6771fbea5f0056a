package ident

import "testing"

func TestInternStability(t *testing.T) {
	a := Intern("mylib")
	b := Intern("mylib")
	if a != b {
		t.Fatalf("expected interned names to compare equal, got %v != %v", a, b)
	}
	c := Intern("other")
	if a == c {
		t.Fatalf("distinct strings must not intern to the same Name")
	}
}

func TestSourceIdEquality(t *testing.T) {
	p1 := NewPathSource("/abs/mylib")
	p2 := NewPathSource("/abs/mylib")
	if !p1.Equal(p2) {
		t.Fatalf("expected equal path sources")
	}

	g1 := NewGitSource("https://git.example/lib", GitRef{Kind: GitTag, Name: "v1.0"}, "abc123")
	g2 := NewGitSource("https://git.example/lib", GitRef{Kind: GitTag, Name: "v1.0"}, "def456")
	if g1.Equal(g2) {
		t.Fatalf("git sources pinned to different commits must compare unequal")
	}
	if g1.Equal(g1.WithPrecise("other")) {
		t.Fatalf("WithPrecise must change identity")
	}
}

func TestPackageIdOrdering(t *testing.T) {
	src := NewRegistrySource("https://registry.example")
	a := NewPackageId("foo", mustVersion(t, "1.2.0"), src)
	b := NewPackageId("foo", mustVersion(t, "1.3.1"), src)
	if !a.Less(b) {
		t.Fatalf("expected 1.2.0 < 1.3.1")
	}
	if b.Less(a) {
		t.Fatalf("ordering must be antisymmetric")
	}
}
