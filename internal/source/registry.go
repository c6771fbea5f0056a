package source

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/shimfile"
)

// RegistrySource performs a lightweight index fetch of the registry root
// (itself a git repository) on EnsureReady, then answers queries by reading
// shim files out of the checkout (spec.md §4.2 "Registry provider").
type RegistrySource struct {
	url       string
	cacheDir  string
	indexRepo *GitSource

	ready    bool
	readyErr error
}

// NewRegistrySource constructs a provider for the registry whose index
// lives at url (a git remote), caching under cacheDir.
func NewRegistrySource(url, cacheDir string) *RegistrySource {
	return &RegistrySource{
		url:      url,
		cacheDir: cacheDir,
		indexRepo: NewGitSource(url, ident.GitRef{Kind: ident.GitDefaultBranch}, filepath.Join(cacheDir, "registry-index")),
	}
}

func (r *RegistrySource) Name() string { return "registry" }

func (r *RegistrySource) Supports(dep ident.Dependency) bool {
	return dep.Source.Kind == ident.SourceRegistry && dep.Source.URL == r.url
}

func (r *RegistrySource) EnsureReady(ctx context.Context) error {
	if r.ready {
		return r.readyErr
	}
	r.ready = true
	r.readyErr = r.indexRepo.EnsureReady(ctx)
	return r.readyErr
}

func (r *RegistrySource) indexDir() string {
	path, _ := r.indexRepo.PackagePath(ident.PackageId{})
	return path
}

// LoadShim reads index/<letter>/<name>/<version>.toml out of the registry
// checkout.
func (r *RegistrySource) LoadShim(ctx context.Context, name, version string) (*shimfile.Shim, error) {
	if err := r.EnsureReady(ctx); err != nil {
		return nil, err
	}
	rel := shimfile.ShimPath(name, version)
	full := filepath.Join(r.indexDir(), rel)
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, wrapErr(ErrNotFound, "registry", "reading shim "+rel, err)
	}
	shim, err := shimfile.DecodeShim(data, full)
	if err != nil {
		return nil, wrapErr(ErrManifestInvalid, "registry", "decoding shim "+rel, err)
	}
	return shim, nil
}

// availableVersions enumerates every version present for name in the
// registry's index directory.
func (r *RegistrySource) availableVersions(name string) ([]string, error) {
	letter := "_"
	if name != "" {
		letter = strings.ToLower(name[:1])
	}
	dir := filepath.Join(r.indexDir(), "index", letter, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrapErr(ErrIO, "registry", "listing versions for "+name, err)
	}

	versions := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".toml"))
	}
	sort.Strings(versions)
	return versions, nil
}

func (r *RegistrySource) Query(ctx context.Context, dep ident.Dependency) ([]Summary, error) {
	if !r.Supports(dep) {
		return nil, nil
	}
	if err := r.EnsureReady(ctx); err != nil {
		return nil, err
	}

	versions, err := r.availableVersions(dep.Name.String())
	if err != nil {
		return nil, err
	}

	var out []Summary
	for _, vs := range versions {
		v, err := semver.NewVersion(vs)
		if err != nil {
			continue
		}
		if !dep.Req.Matches(v) {
			continue
		}
		pkgID := ident.NewPackageId(dep.Name.String(), v, ident.NewRegistrySource(r.url))
		shim, err := r.LoadShim(ctx, dep.Name.String(), vs)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{ID: pkgID, Dependencies: shimRuntimeDeps(shim)})
	}
	return out, nil
}

// shimRuntimeDeps is empty: registry shims in this layout do not declare
// their own transitive dependency list separately from the upstream
// package (unlike git/path providers, whose manifests carry [dependencies]
// directly). Packages fetched through the registry are leaves from the
// resolver's perspective; a shim's surface override adds no dependency
// edges either.
func shimRuntimeDeps(shim *shimfile.Shim) []ident.Dependency {
	return nil
}

// FetchUpstream downloads and caches a shim's upstream source material and
// returns the directory containing the extracted/checked-out sources.
// Tarballs are extracted under <cache>/upstream/<shim content hash>; git
// sources use the git provider's own checkout under <cache>/git.
// Resolution never calls this: only the
// build driver and verify pipeline do (spec.md §4.2).
func (r *RegistrySource) FetchUpstream(ctx context.Context, shim *shimfile.Shim) (string, error) {
	key := shimContentHash(shim)
	dest := filepath.Join(r.cacheDir, "upstream", key)

	switch shim.Source.Kind {
	case shimfile.ShimSourceGit:
		g := shim.Source.Git
		gs := NewGitSource(g.URL, ident.GitRef{Kind: ident.GitRev, Name: g.Rev}, r.cacheDir)
		if err := gs.EnsureReady(ctx); err != nil {
			return "", err
		}
		return gs.PackagePath(ident.PackageId{})
	case shimfile.ShimSourceTarball:
		return dest, r.fetchTarball(ctx, shim.Source.Tarball, dest)
	default:
		return "", newErr(ErrIO, "registry", "shim has no recognised source")
	}
}

func shimContentHash(shim *shimfile.Shim) string {
	var raw string
	switch shim.Source.Kind {
	case shimfile.ShimSourceGit:
		raw = "git:" + shim.Source.Git.URL + "#" + shim.Source.Git.Rev
	case shimfile.ShimSourceTarball:
		raw = "tarball:" + shim.Source.Tarball.SHA256
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// fetchTarball downloads, sha256-verifies (failing before extraction on
// mismatch), and extracts a tarball source honouring strip_prefix
// (spec.md §4.2, property 7 "Checksum enforcement").
func (r *RegistrySource) fetchTarball(ctx context.Context, t *shimfile.TarballSource, dest string) error {
	if _, err := os.Stat(dest); err == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return wrapErr(ErrIO, "registry", "building request for "+t.URL, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return wrapErr(ErrIO, "registry", "downloading "+t.URL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return newErr(ErrIO, "registry", fmt.Sprintf("downloading %s: HTTP %d", t.URL, resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return wrapErr(ErrIO, "registry", "reading response body for "+t.URL, err)
	}

	sum := sha256.Sum256(body)
	got := hex.EncodeToString(sum[:])
	if !strings.EqualFold(got, t.SHA256) {
		return newErr(ErrChecksumMismatch, "registry", fmt.Sprintf("%s: expected sha256 %s, got %s", t.URL, t.SHA256, got))
	}

	return extractTarGz(body, dest, t.StripPrefix)
}

func extractTarGz(body []byte, dest, stripPrefix string) error {
	gz, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return wrapErr(ErrIO, "registry", "opening gzip stream", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return wrapErr(ErrIO, "registry", "creating extraction directory "+dest, err)
	}

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return wrapErr(ErrIO, "registry", "reading tar entry", err)
		}

		name := hdr.Name
		if stripPrefix != "" {
			rel := strings.TrimPrefix(name, stripPrefix)
			if rel == name {
				continue // entry is outside the prefix, skip it
			}
			name = strings.TrimPrefix(rel, "/")
		}
		if name == "" {
			continue
		}

		target := filepath.Join(dest, filepath.Clean(name))
		if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
			return newErr(ErrIO, "registry", "tar entry escapes destination: "+hdr.Name)
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return wrapErr(ErrIO, "registry", "creating directory "+target, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return wrapErr(ErrIO, "registry", "creating directory for "+target, err)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return wrapErr(ErrIO, "registry", "creating file "+target, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return wrapErr(ErrIO, "registry", "writing file "+target, err)
			}
			f.Close()
		}
	}
}

func (r *RegistrySource) LoadPackage(ctx context.Context, id ident.PackageId) (*Package, error) {
	return nil, newErr(ErrIO, "registry", "LoadPackage is not supported: fetch the shim's upstream source via FetchUpstream instead")
}

func (r *RegistrySource) PackagePath(id ident.PackageId) (string, error) {
	return "", newErr(ErrIO, "registry", "PackagePath is not supported: fetch the shim's upstream source via FetchUpstream instead")
}

func (r *RegistrySource) IsCached(id ident.PackageId) bool {
	return false
}
