package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
)

var sanitizeRe = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeURLForPath turns a remote URL into a filesystem-safe fragment for
// cache directory naming (spec.md §4.2 "Git provider": "<cache>/git/<sanitized-url>-<ref-hash>/").
func sanitizeURLForPath(url string) string {
	return sanitizeRe.ReplaceAllString(url, "_")
}

func refHash(ref ident.GitRef) string {
	sum := sha256.Sum256([]byte(ref.String()))
	return hex.EncodeToString(sum[:])[:8]
}

// GitSource stores one checkout under <cache>/git/<sanitized-url>-<ref-hash>/
// and hard-resets it to the resolved commit on EnsureReady (spec.md §4.2
// "Git provider").
type GitSource struct {
	remote        string
	ref           ident.GitRef
	checkoutPath  string
	sourceID      ident.SourceId

	ready   bool
	readyErr error
	precise string
	loaded  *Package
}

// NewGitSource constructs a provider for one (remote, ref) pair, rooted
// under cacheDir.
func NewGitSource(remote string, ref ident.GitRef, cacheDir string) *GitSource {
	dirName := fmt.Sprintf("%s-%s", sanitizeURLForPath(remote), refHash(ref))
	return &GitSource{
		remote:       remote,
		ref:          ref,
		checkoutPath: filepath.Join(cacheDir, "git", dirName),
		sourceID:     ident.NewGitSource(remote, ref, ""),
	}
}

func (g *GitSource) Name() string { return "git" }

func (g *GitSource) Supports(dep ident.Dependency) bool {
	return dep.Source.Kind == ident.SourceGit && dep.Source.URL == g.remote
}

// EnsureReady clones (or fetches) the remote, then resolves and hard-resets
// to the target reference, caching the resolved commit as the precise
// identifier.
func (g *GitSource) EnsureReady(ctx context.Context) error {
	if g.ready {
		return g.readyErr
	}
	g.ready = true
	g.readyErr = g.fetchAndCheckout(ctx)
	return g.readyErr
}

func (g *GitSource) fetchAndCheckout(ctx context.Context) error {
	repo, err := g.openOrClone(ctx)
	if err != nil {
		return err
	}
	commit, err := g.resolveRef(repo)
	if err != nil {
		return err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return wrapErr(ErrIO, "git", "opening worktree for "+g.remote, err)
	}
	if err := wt.Reset(&gogit.ResetOptions{Commit: *commit, Mode: gogit.HardReset}); err != nil {
		return wrapErr(ErrIO, "git", "hard-resetting "+g.remote+" to "+commit.String(), err)
	}
	g.precise = commit.String()
	return nil
}

func (g *GitSource) openOrClone(ctx context.Context) (*gogit.Repository, error) {
	if _, err := os.Stat(g.checkoutPath); err == nil {
		repo, err := gogit.PlainOpen(g.checkoutPath)
		if err != nil {
			return nil, wrapErr(ErrIO, "git", "opening cached checkout at "+g.checkoutPath, err)
		}
		remote, err := repo.Remote("origin")
		if err != nil {
			return nil, wrapErr(ErrIO, "git", "reading origin remote at "+g.checkoutPath, err)
		}
		err = remote.FetchContext(ctx, &gogit.FetchOptions{
			RefSpecs: []gogit.RefSpec{"refs/heads/*:refs/heads/*"},
			Tags:     gogit.AllTags,
		})
		if err != nil && err != gogit.NoErrAlreadyUpToDate {
			return nil, wrapErr(ErrIO, "git", "fetching "+g.remote, err)
		}
		return repo, nil
	}

	if err := os.MkdirAll(filepath.Dir(g.checkoutPath), 0o755); err != nil {
		return nil, wrapErr(ErrIO, "git", "creating cache directory for "+g.remote, err)
	}
	repo, err := gogit.PlainCloneContext(ctx, g.checkoutPath, false, &gogit.CloneOptions{
		URL:  g.remote,
		Tags: gogit.AllTags,
	})
	if err != nil {
		return nil, wrapErr(ErrIO, "git", "cloning "+g.remote, err)
	}
	return repo, nil
}

func (g *GitSource) resolveRef(repo *gogit.Repository) (*plumbing.Hash, error) {
	switch g.ref.Kind {
	case ident.GitDefaultBranch:
		head, err := repo.Head()
		if err != nil {
			return nil, wrapErr(ErrIO, "git", "reading HEAD of "+g.remote, err)
		}
		h := head.Hash()
		return &h, nil
	case ident.GitBranch:
		ref, err := repo.Reference(plumbing.NewBranchReferenceName(g.ref.Name), true)
		if err != nil {
			return nil, wrapErr(ErrNotFound, "git", "branch "+g.ref.Name+" not found in "+g.remote, err)
		}
		h := ref.Hash()
		return &h, nil
	case ident.GitTag:
		ref, err := repo.Reference(plumbing.NewTagReferenceName(g.ref.Name), true)
		if err != nil {
			return nil, wrapErr(ErrNotFound, "git", "tag "+g.ref.Name+" not found in "+g.remote, err)
		}
		h := ref.Hash()
		return &h, nil
	case ident.GitRev:
		h := plumbing.NewHash(g.ref.Name)
		if _, err := repo.CommitObject(h); err != nil {
			return nil, wrapErr(ErrNotFound, "git", "revision "+g.ref.Name+" not found in "+g.remote, err)
		}
		return &h, nil
	default:
		return nil, newErr(ErrIO, "git", "unknown git reference kind")
	}
}

func (g *GitSource) load(ctx context.Context) (*Package, error) {
	if g.loaded != nil {
		return g.loaded, nil
	}
	if err := g.EnsureReady(ctx); err != nil {
		return nil, err
	}

	m, err := manifest.LoadManifestFile(g.checkoutPath)
	if err != nil {
		return nil, wrapErr(ErrManifestInvalid, "git", "loading manifest from "+g.remote, err)
	}
	if m.Package == nil {
		return nil, newErr(ErrManifestInvalid, "git", g.remote+" has no [package] block")
	}
	v := VersionOf(m)
	if v == nil {
		return nil, newErr(ErrManifestInvalid, "git", g.remote+" has an unparseable package version")
	}

	preciseID := g.sourceID.WithPrecise(g.precise)
	pkgID := ident.NewPackageId(m.Package.Name, v, preciseID)
	g.loaded = &Package{ID: pkgID, Manifest: m, Dir: g.checkoutPath}
	return g.loaded, nil
}

func (g *GitSource) Query(ctx context.Context, dep ident.Dependency) ([]Summary, error) {
	if !g.Supports(dep) {
		return nil, nil
	}
	pkg, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	if pkg.ID.Name != dep.Name {
		return nil, nil
	}
	if !dep.Req.Matches(pkg.ID.Version) {
		return nil, nil
	}
	sum, err := summaryOf(pkg)
	if err != nil {
		return nil, err
	}
	return []Summary{sum}, nil
}

func (g *GitSource) LoadPackage(ctx context.Context, id ident.PackageId) (*Package, error) {
	pkg, err := g.load(ctx)
	if err != nil {
		return nil, err
	}
	if !pkg.ID.Equal(id) {
		return nil, newErr(ErrNotFound, "git", "no package matching "+id.String()+" from "+g.remote)
	}
	return pkg, nil
}

func (g *GitSource) PackagePath(id ident.PackageId) (string, error) {
	return g.checkoutPath, nil
}

func (g *GitSource) IsCached(id ident.PackageId) bool {
	_, err := os.Stat(g.checkoutPath)
	return err == nil
}

// Precise returns the resolved commit hash, empty until EnsureReady has run.
func (g *GitSource) Precise() string { return g.precise }
