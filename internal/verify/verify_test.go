package verify

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/harbour-pm/harbour/internal/shimfile"
)

func writeShim(t *testing.T, registryRoot, name, version, body string) {
	t.Helper()
	path := filepath.Join(registryRoot, shimfile.ShimPath(name, version))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write shim: %v", err)
	}
}

const minimalShimBody = `
[package]
name = "zlib"
version = "%s"

[source.git]
url = "https://git.example/zlib"
rev = "0123456789abcdef0123456789abcdef01234567"
`

func TestResolveShimPicksLatestSemver(t *testing.T) {
	root := t.TempDir()
	writeShim(t, root, "zlib", "1.2.0", sprintfShim("1.2.0"))
	writeShim(t, root, "zlib", "1.3.1", sprintfShim("1.3.1"))
	writeShim(t, root, "zlib", "1.2.11", sprintfShim("1.2.11"))

	shim, ver, err := resolveShim(root, "zlib", "latest")
	if err != nil {
		t.Fatalf("resolveShim: %v", err)
	}
	if ver != "1.3.1" {
		t.Fatalf("expected latest version 1.3.1, got %s", ver)
	}
	if shim.Name != "zlib" {
		t.Fatalf("expected shim name zlib, got %s", shim.Name)
	}
}

func sprintfShim(version string) string {
	return replaceVersion(minimalShimBody, version)
}

func replaceVersion(tmpl, version string) string {
	out := make([]byte, 0, len(tmpl))
	for i := 0; i < len(tmpl); i++ {
		if i+1 < len(tmpl) && tmpl[i] == '%' && tmpl[i+1] == 's' {
			out = append(out, version...)
			i++
			continue
		}
		out = append(out, tmpl[i])
	}
	return string(out)
}

func TestTimedStepStopsPipelineOnFailure(t *testing.T) {
	res := &Result{Passed: true}

	ok := timedStep(res, "Resolve", func() (string, []string, error) {
		return "ok", nil, nil
	})
	if !ok || !res.Passed {
		t.Fatalf("expected first step to pass")
	}

	ok = timedStep(res, "Fetch", func() (string, []string, error) {
		return "", nil, errBoom
	})
	if ok {
		t.Fatalf("expected second step to signal stop")
	}
	if res.Passed {
		t.Fatalf("expected Result.Passed to flip false after a failing step")
	}
	if len(res.Steps) != 2 {
		t.Fatalf("expected 2 recorded steps, got %d", len(res.Steps))
	}
	if res.Steps[1].Passed {
		t.Fatalf("expected Fetch step to be recorded as failed")
	}
}

var errBoom = fmtErrorf("boom")

func fmtErrorf(s string) error { return &testErr{s} }

type testErr struct{ s string }

func (e *testErr) Error() string { return e.s }

func TestHarnessSourceFormatsCCall(t *testing.T) {
	h := &shimfile.HarnessConfig{Header: "zlib.h", TestCall: "zlibVersion()", Lang: "c"}
	src := harnessSource(h)
	if !contains(src, "#include <zlib.h>") || !contains(src, "zlibVersion();") {
		t.Fatalf("unexpected harness source: %s", src)
	}
	if harnessExt("c") != "c" || harnessExt("c++") != "cpp" || harnessExt("cxx") != "cpp" {
		t.Fatalf("unexpected harness extensions")
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (func() bool {
		for i := 0; i+len(sub) <= len(s); i++ {
			if s[i:i+len(sub)] == sub {
				return true
			}
		}
		return false
	})()
}

func TestExtractTarRejectsPathTraversal(t *testing.T) {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	if err := tw.WriteHeader(&tar.Header{Name: "../escape.txt", Mode: 0o644, Size: 4}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	tw.Write([]byte("evil"))
	tw.Close()

	dest := t.TempDir()
	if err := extractTar(&buf, dest); err == nil {
		t.Fatalf("expected path traversal to be rejected")
	}
}

func TestFetchTarballVerifiesChecksum(t *testing.T) {
	tarball, sha := buildTestTarball(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(tarball)
	}))
	defer srv.Close()

	dest := t.TempDir()
	_, err := fetchTarball(context.Background(), &shimfile.TarballSource{URL: srv.URL, SHA256: "deadbeef"}, filepath.Join(dest, "bad"))
	if err == nil {
		t.Fatalf("expected sha256 mismatch to be rejected")
	}

	out, err := fetchTarball(context.Background(), &shimfile.TarballSource{URL: srv.URL, SHA256: sha}, filepath.Join(dest, "good"))
	if err != nil {
		t.Fatalf("fetchTarball with correct checksum: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(out, "hello.txt")); statErr != nil {
		t.Fatalf("expected extracted file, got %v", statErr)
	}
}

func buildTestTarball(t *testing.T) ([]byte, string) {
	t.Helper()
	var raw bytes.Buffer
	tw := tar.NewWriter(&raw)
	content := []byte("hello world")
	if err := tw.WriteHeader(&tar.Header{Name: "hello.txt", Mode: 0o644, Size: int64(len(content))}); err != nil {
		t.Fatalf("tar header: %v", err)
	}
	if _, err := tw.Write(content); err != nil {
		t.Fatalf("tar write: %v", err)
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("tar close: %v", err)
	}

	var gzBuf bytes.Buffer
	gw := gzip.NewWriter(&gzBuf)
	if _, err := gw.Write(raw.Bytes()); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	sum := sha256.Sum256(gzBuf.Bytes())
	return gzBuf.Bytes(), hex.EncodeToString(sum[:])
}

func TestWriteJSONStableSchema(t *testing.T) {
	res := &Result{
		Package: "zlib", Version: "1.3.1", Passed: false,
		Steps: []VerifyStep{
			{Name: "Resolve", Passed: true, Message: "resolved zlib v1.3.1"},
			{Name: "Harness", Passed: false, Message: "harness exited 1", Warnings: []string{"slow"}},
		},
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, res); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}

	var decoded jsonResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode JSON output: %v", err)
	}
	if decoded.Package != "zlib" || decoded.Passed {
		t.Fatalf("unexpected top-level fields: %+v", decoded)
	}
	if len(decoded.Steps) != 2 || decoded.Steps[1].Name != "Harness" || decoded.Steps[1].Passed {
		t.Fatalf("unexpected steps: %+v", decoded.Steps)
	}
}

func TestWriteGitHubActionsAnnotatesFailures(t *testing.T) {
	res := &Result{
		Package: "zlib", Version: "1.3.1", Passed: false,
		Steps: []VerifyStep{
			{Name: "Harness", Passed: false, Message: "harness exited 1"},
		},
	}
	var buf bytes.Buffer
	WriteGitHubActions(&buf, res)
	out := buf.String()
	if !contains(out, "::error::Harness failed: harness exited 1") {
		t.Fatalf("expected error annotation, got:\n%s", out)
	}
	if !contains(out, "## Verify summary") {
		t.Fatalf("expected markdown summary group, got:\n%s", out)
	}
}
