package shimfile

import "testing"

func validGitShim() string {
	return "" +
		"[package]\n" +
		"name = \"zlib\"\n" +
		"version = \"1.3.1\"\n" +
		"\n" +
		"[source.git]\n" +
		"url = \"https://github.com/madler/zlib\"\n" +
		"rev = \"51b7f2abdade71cd9bb0e7a373ef2610ec6f9daf\"\n"
}

func TestDecodeValidGitShim(t *testing.T) {
	shim, err := DecodeShim([]byte(validGitShim()), "index/z/zlib/1.3.1.toml")
	if err != nil {
		t.Fatalf("DecodeShim: %v", err)
	}
	if shim.Source.Kind != ShimSourceGit {
		t.Fatalf("expected git source, got %v", shim.Source.Kind)
	}
	if shim.Source.Git.Rev != "51b7f2abdade71cd9bb0e7a373ef2610ec6f9daf" {
		t.Fatalf("unexpected rev %q", shim.Source.Git.Rev)
	}
}

func TestDecodeRejectsBothGitAndTarball(t *testing.T) {
	data := "" +
		"[package]\n" +
		"name = \"zlib\"\n" +
		"version = \"1.3.1\"\n" +
		"\n" +
		"[source.git]\n" +
		"url = \"https://github.com/madler/zlib\"\n" +
		"rev = \"51b7f2abdade71cd9bb0e7a373ef2610ec6f9daf\"\n" +
		"\n" +
		"[source.tarball]\n" +
		"url = \"https://example.com/zlib.tar.gz\"\n" +
		"sha256 = \"deadbeef\"\n"

	_, err := DecodeShim([]byte(data), "index/z/zlib/1.3.1.toml")
	if err == nil {
		t.Fatal("expected error for shim declaring both git and tarball sources")
	}
}

func TestDecodeRejectsShortGitRev(t *testing.T) {
	data := "" +
		"[package]\n" +
		"name = \"zlib\"\n" +
		"version = \"1.3.1\"\n" +
		"\n" +
		"[source.git]\n" +
		"url = \"https://github.com/madler/zlib\"\n" +
		"rev = \"abc123\"\n"

	_, err := DecodeShim([]byte(data), "index/z/zlib/1.3.1.toml")
	if err == nil {
		t.Fatal("expected error for non-40-hex git rev")
	}
}

func TestDecodeRejectsMissingSource(t *testing.T) {
	data := "" +
		"[package]\n" +
		"name = \"zlib\"\n" +
		"version = \"1.3.1\"\n"

	_, err := DecodeShim([]byte(data), "index/z/zlib/1.3.1.toml")
	if err == nil {
		t.Fatal("expected error when no source table is present")
	}
}

func TestDecodeRejectsUnknownField(t *testing.T) {
	data := validGitShim() + "\nbogus_field = true\n"
	_, err := DecodeShim([]byte(data), "index/z/zlib/1.3.1.toml")
	if err == nil {
		t.Fatal("expected error for unknown field under [source.git]")
	}
}

func TestDecodeSurfaceOverrideAndHarness(t *testing.T) {
	data := validGitShim() +
		"\n[surface_override]\n" +
		"sources = [\"src/*.c\"]\n" +
		"\n[surface_override.compile_public]\n" +
		"include_dirs = [\"include\"]\n" +
		"defines = [\"ZLIB_CONST=1\"]\n" +
		"\n[surface_override.link_public]\n" +
		"libs = [\"z\"]\n" +
		"\n[harness]\n" +
		"lang = \"c\"\n" +
		"header = \"zlib.h\"\n" +
		"test_call = \"zlibVersion();\"\n"

	shim, err := DecodeShim([]byte(data), "index/z/zlib/1.3.1.toml")
	if err != nil {
		t.Fatalf("DecodeShim: %v", err)
	}
	if shim.SurfaceOverride == nil {
		t.Fatal("expected surface override to be set")
	}
	if len(shim.SurfaceOverride.CompilePublic.IncludeDirs) != 1 {
		t.Fatalf("expected one include dir, got %d", len(shim.SurfaceOverride.CompilePublic.IncludeDirs))
	}
	if shim.Harness == nil || shim.Harness.Lang != "c" {
		t.Fatal("expected harness with lang=c")
	}
}

func TestShimPathRoundTrips(t *testing.T) {
	path := ShimPath("zlib", "1.3.1")
	if path != "index/z/zlib/1.3.1.toml" {
		t.Fatalf("unexpected path %q", path)
	}
	name, version, ok := ParseShimPath(path)
	if !ok || name != "zlib" || version != "1.3.1" {
		t.Fatalf("ParseShimPath(%q) = %q, %q, %v", path, name, version, ok)
	}
}

func TestDecodeRegistryConfigRejectsUnsupportedVersion(t *testing.T) {
	data := "name = \"central\"\nregistry_version = 2\nlayout = \"letter/name/version\"\n"
	_, err := DecodeRegistryConfig([]byte(data), "config.toml")
	if err == nil {
		t.Fatal("expected error for unsupported registry_version")
	}
}

func TestDecodeRegistryConfigValid(t *testing.T) {
	data := "name = \"central\"\nregistry_version = 1\nlayout = \"letter/name/version\"\ndefault_branch = \"main\"\n"
	cfg, err := DecodeRegistryConfig([]byte(data), "config.toml")
	if err != nil {
		t.Fatalf("DecodeRegistryConfig: %v", err)
	}
	if cfg.Name != "central" || cfg.DefaultBranch != "main" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}
