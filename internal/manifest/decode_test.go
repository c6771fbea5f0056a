package manifest

import "testing"

func TestDecodeBareAndTableDependencies(t *testing.T) {
	src := []byte(`
[package]
name = "app"
version = "0.1.0"

[dependencies]
mylib = { path = "../mylib" }
zlib = "^1.2"
`)
	m, err := Decode(src, "/ws/app")
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if m.Dependencies["mylib"].Path != "../mylib" {
		t.Fatalf("expected path dependency, got %+v", m.Dependencies["mylib"])
	}
	if m.Dependencies["zlib"].VersionReq != "^1.2" {
		t.Fatalf("expected bare version requirement, got %+v", m.Dependencies["zlib"])
	}
}

func TestDecodeRejectsUnknownTopLevelField(t *testing.T) {
	src := []byte(`
[package]
name = "app"
version = "0.1.0"

[nonsense]
foo = 1
`)
	_, err := Decode(src, "/ws/app")
	if err == nil {
		t.Fatalf("expected SchemaViolation for unknown top-level table")
	}
	var me *Error
	if !asError(err, &me) || me.Kind != KindSchemaViolation {
		t.Fatalf("expected SchemaViolation, got %v", err)
	}
}

func TestDecodeRejectsConflictingGitRefs(t *testing.T) {
	src := []byte(`
[package]
name = "app"
version = "0.1.0"

[dependencies]
lib = { git = "https://git.example/lib", branch = "main", tag = "v1" }
`)
	_, err := Decode(src, "/ws/app")
	if err == nil {
		t.Fatalf("expected error for branch+tag both set")
	}
}

func asError(err error, target **Error) bool {
	if e, ok := err.(*Error); ok {
		*target = e
		return true
	}
	return false
}
