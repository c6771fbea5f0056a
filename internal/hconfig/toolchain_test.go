package hconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnvVarWinsOverProjectFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".harbour"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "[toolchain]\ncc = \"/usr/bin/file-gcc\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".harbour", "toolchain.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CC", "/usr/bin/env-gcc")
	ov, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ov.CC != "/usr/bin/env-gcc" {
		t.Fatalf("expected env var to win, got %q", ov.CC)
	}
}

func TestProjectFileWinsWithoutEnv(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".harbour"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := "[toolchain]\ncc = \"/usr/bin/file-gcc\"\n"
	if err := os.WriteFile(filepath.Join(dir, ".harbour", "toolchain.toml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("CC", "")
	ov, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ov.CC != "/usr/bin/file-gcc" {
		t.Fatalf("expected project file value, got %q", ov.CC)
	}
}
