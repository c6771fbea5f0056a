package verify

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/harbour-pm/harbour/internal/shimfile"
)

// fetchSource materializes a shim's declared source into destDir, returning
// the directory sources actually live under (destDir itself, or destDir
// joined with a tarball's strip_prefix) plus any non-fatal warnings (spec.md
// §4.7 step 2).
func fetchSource(ctx context.Context, shim *shimfile.Shim, destDir string) (string, []string, error) {
	switch shim.Source.Kind {
	case shimfile.ShimSourceGit:
		var warnings []string
		if shim.Source.Git.Checksum != "" {
			warnings = append(warnings, "source.git.checksum is set but Harbour defines no verification "+
				"algorithm for it; the declared commit sha is the sole integrity check")
		}
		if err := fetchGit(ctx, shim.Source.Git, destDir); err != nil {
			return "", warnings, err
		}
		return destDir, warnings, nil
	case shimfile.ShimSourceTarball:
		dir, err := fetchTarball(ctx, shim.Source.Tarball, destDir)
		if err != nil {
			return "", nil, err
		}
		return dir, nil, nil
	default:
		return "", nil, fmt.Errorf("verify: shim has no recognized source")
	}
}

// fetchGit clones (or reuses) a checkout at git.Rev. Shallow reuse: if the
// checkout already exists with HEAD at the recorded commit, nothing is
// re-fetched.
func fetchGit(ctx context.Context, g *shimfile.GitSource, destDir string) error {
	if repo, err := gogit.PlainOpen(destDir); err == nil {
		if head, err := repo.Head(); err == nil && head.Hash().String() == g.Rev {
			return nil
		}
	}

	if err := os.RemoveAll(destDir); err != nil {
		return fmt.Errorf("verify: clearing %s: %w", destDir, err)
	}
	if err := os.MkdirAll(filepath.Dir(destDir), 0o755); err != nil {
		return fmt.Errorf("verify: creating %s: %w", filepath.Dir(destDir), err)
	}

	repo, err := gogit.PlainCloneContext(ctx, destDir, false, &gogit.CloneOptions{URL: g.URL})
	if err != nil {
		return fmt.Errorf("verify: cloning %s: %w", g.URL, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("verify: opening worktree for %s: %w", g.URL, err)
	}
	if err := wt.Checkout(&gogit.CheckoutOptions{Hash: plumbing.NewHash(g.Rev)}); err != nil {
		return fmt.Errorf("verify: checking out %s at %s: %w", g.URL, g.Rev, err)
	}
	return nil
}

// fetchTarball downloads tb.URL, verifies its sha256 against tb.SHA256
// (mandatory, spec.md §4.7 step 2), and extracts it into destDir.
func fetchTarball(ctx context.Context, tb *shimfile.TarballSource, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, tb.URL, nil)
	if err != nil {
		return "", fmt.Errorf("verify: building request for %s: %w", tb.URL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verify: downloading %s: %w", tb.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("verify: downloading %s: unexpected status %s", tb.URL, resp.Status)
	}

	h := sha256.New()
	body := io.TeeReader(resp.Body, h)

	if err := os.RemoveAll(destDir); err != nil {
		return "", fmt.Errorf("verify: clearing %s: %w", destDir, err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("verify: creating %s: %w", destDir, err)
	}

	gz, err := gzip.NewReader(body)
	if err != nil {
		return "", fmt.Errorf("verify: %s is not a gzip tarball: %w", tb.URL, err)
	}
	if err := extractTar(gz, destDir); err != nil {
		return "", err
	}
	// Drain any unread tail so the checksum covers the entire download.
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", fmt.Errorf("verify: reading remainder of %s: %w", tb.URL, err)
	}

	sum := hex.EncodeToString(h.Sum(nil))
	if !strings.EqualFold(sum, tb.SHA256) {
		return "", fmt.Errorf("verify: %s sha256 mismatch: got %s, want %s", tb.URL, sum, tb.SHA256)
	}

	if tb.StripPrefix != "" {
		return filepath.Join(destDir, tb.StripPrefix), nil
	}
	return destDir, nil
}

func extractTar(r io.Reader, destDir string) error {
	cleanDest := filepath.Clean(destDir)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("verify: reading tar entry: %w", err)
		}

		target := filepath.Join(destDir, hdr.Name)
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(filepath.Separator)) {
			return fmt.Errorf("verify: tar entry %q escapes destination", hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			if err := writeTarFile(target, tr, hdr.Mode); err != nil {
				return err
			}
		}
	}
}

func writeTarFile(target string, r io.Reader, mode int64) error {
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(mode))
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
