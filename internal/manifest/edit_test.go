package manifest

import (
	"bytes"
	"testing"
)

func TestAddDependencyCreatesTable(t *testing.T) {
	src := []byte("[package]\nname = \"app\"\nversion = \"0.1.0\"\n")
	out, err := AddDependency(src, "zlib", "^1.2")
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	m, err := Decode(out, "/ws/app")
	if err != nil {
		t.Fatalf("decode after add: %v\n%s", err, out)
	}
	if m.Dependencies["zlib"].VersionReq != "^1.2" {
		t.Fatalf("expected zlib dependency to be added, got %+v", m.Dependencies["zlib"])
	}
}

func TestAddDependencyUpdatesExistingEntry(t *testing.T) {
	src := []byte("[package]\nname = \"app\"\nversion = \"0.1.0\"\n\n[dependencies]\nzlib = \"^1.2\"\n")
	out, err := AddDependency(src, "zlib", "^1.3")
	if err != nil {
		t.Fatalf("AddDependency: %v", err)
	}
	m, err := Decode(out, "/ws/app")
	if err != nil {
		t.Fatalf("decode after update: %v\n%s", err, out)
	}
	if m.Dependencies["zlib"].VersionReq != "^1.3" {
		t.Fatalf("expected zlib requirement updated to ^1.3, got %+v", m.Dependencies["zlib"])
	}
}

func TestAddThenRemoveDependencyRoundTrips(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"trailing newline", "[package]\nname = \"app\"\nversion = \"0.1.0\"\n"},
		{"no trailing newline", "[package]\nname = \"app\"\nversion = \"0.1.0\""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			src := []byte(tc.src)
			added, err := AddDependency(src, "zlib", "^1.2")
			if err != nil {
				t.Fatalf("AddDependency: %v", err)
			}
			back, err := RemoveDependency(added, "zlib")
			if err != nil {
				t.Fatalf("RemoveDependency: %v", err)
			}
			if !bytes.Equal(back, src) {
				t.Fatalf("round trip mismatch:\noriginal: %q\nresult:   %q", src, back)
			}
		})
	}
}

func TestRemoveDependencyKeepsOtherEntries(t *testing.T) {
	src := []byte("[package]\nname = \"app\"\nversion = \"0.1.0\"\n\n[dependencies]\nmylib = { path = \"../mylib\" }\nzlib = \"^1.2\"\n")
	out, err := RemoveDependency(src, "zlib")
	if err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	m, err := Decode(out, "/ws/app")
	if err != nil {
		t.Fatalf("decode after remove: %v\n%s", err, out)
	}
	if _, ok := m.Dependencies["zlib"]; ok {
		t.Fatalf("expected zlib to be removed, still present")
	}
	if m.Dependencies["mylib"].Path != "../mylib" {
		t.Fatalf("expected mylib dependency to survive removal, got %+v", m.Dependencies["mylib"])
	}
}

func TestRemoveDependencyIsNoOpWhenAbsent(t *testing.T) {
	src := []byte("[package]\nname = \"app\"\nversion = \"0.1.0\"\n")
	out, err := RemoveDependency(src, "zlib")
	if err != nil {
		t.Fatalf("RemoveDependency: %v", err)
	}
	if !bytes.Equal(out, src) {
		t.Fatalf("expected no-op, got %q", out)
	}
}
