package source

import (
	"context"
	"path/filepath"

	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
)

// PathSource loads the manifest at a fixed directory. Version match is
// exact: the single candidate is rejected if the name or semver version
// does not satisfy the dependency (spec.md §4.2 "Path provider").
type PathSource struct {
	dir      string
	id       ident.SourceId
	loaded   *Package
	loadErr  error
	didLoad  bool
}

// NewPathSource constructs a provider rooted at an already-canonicalised
// absolute directory.
func NewPathSource(dir string) *PathSource {
	return &PathSource{dir: dir, id: ident.NewPathSource(dir)}
}

func (p *PathSource) Name() string { return "path" }

func (p *PathSource) Supports(dep ident.Dependency) bool {
	return dep.Source.Kind == ident.SourcePath && dep.Source.Path == p.dir
}

func (p *PathSource) EnsureReady(ctx context.Context) error {
	_, err := p.load()
	return err
}

func (p *PathSource) load() (*Package, error) {
	if p.didLoad {
		return p.loaded, p.loadErr
	}
	p.didLoad = true

	m, err := manifest.LoadManifestFile(p.dir)
	if err != nil {
		p.loadErr = wrapErr(ErrManifestInvalid, "path", "loading manifest at "+p.dir, err)
		return nil, p.loadErr
	}
	if m.Package == nil {
		p.loadErr = newErr(ErrManifestInvalid, "path", p.dir+" has no [package] block")
		return nil, p.loadErr
	}

	v := VersionOf(m)
	if v == nil {
		p.loadErr = newErr(ErrManifestInvalid, "path", p.dir+" has an unparseable package version")
		return nil, p.loadErr
	}

	pkgID := ident.NewPackageId(m.Package.Name, v, p.id)
	p.loaded = &Package{ID: pkgID, Manifest: m, Dir: p.dir}
	return p.loaded, nil
}

func (p *PathSource) Query(ctx context.Context, dep ident.Dependency) ([]Summary, error) {
	if !p.Supports(dep) {
		return nil, nil
	}
	pkg, err := p.load()
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

func (p *PathSource) LoadPackage(ctx context.Context, id ident.PackageId) (*Package, error) {
	pkg, err := p.load()
	if err != nil {
		return nil, err
	}
	if !pkg.ID.Equal(id) {
		return nil, newErr(ErrNotFound, "path", "no package matching "+id.String()+" at "+p.dir)
	}
	return pkg, nil
}

func (p *PathSource) PackagePath(id ident.PackageId) (string, error) {
	return filepath.Clean(p.dir), nil
}

func (p *PathSource) IsCached(id ident.PackageId) bool { return true }

func summaryOf(pkg *Package) (Summary, error) {
	deps, err := DependenciesOf(pkg.Manifest, pkg.Dir)
	if err != nil {
		return Summary{}, err
	}
	return Summary{ID: pkg.ID, Dependencies: deps, Features: []string{}}, nil
}

// DependenciesOf translates a manifest's [dependencies] table into the
// ident.Dependency list the resolver walks. Exported so cmd/harbour can
// build a workspace's root dependency set without duplicating this logic.
func DependenciesOf(m *manifest.Manifest, dir string) ([]ident.Dependency, error) {
	deps := make([]ident.Dependency, 0, len(m.Dependencies))
	for name, spec := range m.Dependencies {
		d, err := DependencyFromSpec(name, spec, dir)
		if err != nil {
			return nil, err
		}
		deps = append(deps, d)
	}
	return deps, nil
}

// DependencyFromSpec converts one manifest dependency entry into the
// identity the resolver and source providers key on.
func DependencyFromSpec(name string, spec manifest.DependencySpec, dir string) (ident.Dependency, error) {
	var srcID ident.SourceId
	switch {
	case spec.IsPath():
		srcID = ident.NewPathSource(filepath.Clean(filepath.Join(dir, spec.Path)))
	case spec.IsGit():
		ref := gitRefFromSpec(spec)
		srcID = ident.NewGitSource(spec.Git, ref, "")
	default:
		srcID = ident.NewRegistrySource(spec.Registry)
	}

	req := ident.Any()
	if spec.VersionReq != "" {
		var err error
		req, err = ident.ParseVersionReq(spec.VersionReq)
		if err != nil {
			return ident.Dependency{}, wrapErr(ErrManifestInvalid, "path", "dependency "+name+" has an invalid version requirement", err)
		}
	}

	return ident.Dependency{
		Name:     ident.Intern(name),
		Source:   srcID,
		Req:      req,
		Features: spec.Features,
		Optional: spec.Optional,
	}, nil
}

func gitRefFromSpec(spec manifest.DependencySpec) ident.GitRef {
	switch {
	case spec.Rev != "":
		return ident.GitRef{Kind: ident.GitRev, Name: spec.Rev}
	case spec.Tag != "":
		return ident.GitRef{Kind: ident.GitTag, Name: spec.Tag}
	case spec.Branch != "":
		return ident.GitRef{Kind: ident.GitBranch, Name: spec.Branch}
	default:
		return ident.GitRef{Kind: ident.GitDefaultBranch}
	}
}
