package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/harbour-pm/harbour/internal/shimfile"
)

func buildTarGz(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		hdr := &tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatal(err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	tw.Close()
	gz.Close()
	return buf.Bytes()
}

func TestFetchTarballVerifiesChecksumBeforeExtraction(t *testing.T) {
	archive := buildTarGz(t, map[string]string{"zlib-1.3.1/zlib.h": "int x;"})
	correctSum := sha256.Sum256(archive)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(archive)
	}))
	defer srv.Close()

	cacheDir := t.TempDir()
	reg := NewRegistrySource("https://example.com/registry", cacheDir)

	t.Run("mismatch fails before extraction", func(t *testing.T) {
		dest := filepath.Join(cacheDir, "upstream", "bad")
		err := reg.fetchTarball(context.Background(), &shimfile.TarballSource{
			URL:    srv.URL,
			SHA256: "0000000000000000000000000000000000000000000000000000000000000",
		}, dest)
		if err == nil {
			t.Fatal("expected checksum mismatch error")
		}
		srcErr, ok := err.(*Error)
		if !ok || srcErr.Kind != ErrChecksumMismatch {
			t.Fatalf("expected ErrChecksumMismatch, got %v", err)
		}
		if _, statErr := os.Stat(dest); statErr == nil {
			t.Fatal("extraction must not happen after a checksum mismatch")
		}
	})

	t.Run("match extracts honouring strip_prefix", func(t *testing.T) {
		dest := filepath.Join(cacheDir, "upstream", "good")
		err := reg.fetchTarball(context.Background(), &shimfile.TarballSource{
			URL:         srv.URL,
			SHA256:      hex.EncodeToString(correctSum[:]),
			StripPrefix: "zlib-1.3.1",
		}, dest)
		if err != nil {
			t.Fatalf("fetchTarball: %v", err)
		}
		if _, statErr := os.Stat(filepath.Join(dest, "zlib.h")); statErr != nil {
			t.Fatalf("expected extracted file at dest root: %v", statErr)
		}
	})
}
