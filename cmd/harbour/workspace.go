// Package main implements the harbour CLI: a thin cobra wrapper around
// internal/manifest, internal/resolve, internal/builddriver, internal/surface
// and internal/verify (spec.md §6 "CLI surface").
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/builddriver"
	"github.com/harbour-pm/harbour/internal/hconfig"
	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/manifest"
	"github.com/harbour-pm/harbour/internal/resolve"
	"github.com/harbour-pm/harbour/internal/source"
)

// workspaceContext bundles the loaded workspace, source cache and resolved
// graph that every build/resolve-adjacent subcommand needs.
type workspaceContext struct {
	ws    *manifest.Workspace
	cache *source.Cache
	graph *resolve.Graph
}

func loadWorkspace(dir string) (*manifest.Workspace, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	return manifest.Load(dir, globalProfile())
}

func globalProfile() string {
	if releaseFlag {
		return "release"
	}
	return "debug"
}

// resolveWorkspace loads the workspace, resolves its full dependency graph
// against the lockfile (if any), and writes the lockfile back out unless
// --locked or --frozen is set — the path every command that needs a
// resolved graph (build, test, update, tree, the reporting commands)
// shares; add and remove only rewrite the manifest (spec.md §4.3/§4.1).
func resolveWorkspace(ctx context.Context, dir string, update []string) (*workspaceContext, error) {
	ws, err := loadWorkspace(dir)
	if err != nil {
		return nil, err
	}

	cache := source.NewCache(ws.CacheDir)

	var lock *resolve.Lockfile
	if data, err := os.ReadFile(ws.Lockfile); err == nil {
		lock, err = resolve.DecodeLockfile(data)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", ws.Lockfile, err)
		}
	}

	var rootDeps []ident.Dependency
	var rootIDs []ident.PackageId
	for _, m := range ws.Members {
		deps, err := source.DependenciesOf(m.Manifest, m.Dir)
		if err != nil {
			return nil, err
		}
		rootDeps = append(rootDeps, deps...)
		if m.Manifest.Package != nil {
			v := source.VersionOf(m.Manifest)
			if v != nil {
				rootIDs = append(rootIDs, ident.NewPackageId(m.Name.String(), v, ident.NewPathSource(m.Dir)))
			}
		}
	}

	flags := resolve.Flags{Locked: lockedFlag || frozenFlag, Frozen: frozenFlag, Offline: offlineFlag, Update: update}
	r := resolve.New(cache, lock, flags)
	graph, err := r.Resolve(ctx, rootDeps, rootIDs)
	if err != nil {
		return nil, err
	}

	if !lockedFlag && !frozenFlag {
		newLock := resolve.FromGraph(graph)
		if err := os.MkdirAll(filepath.Dir(ws.Lockfile), 0o755); err != nil {
			return nil, err
		}
		if err := resolve.WriteAtomic(ws.Lockfile, newLock.Encode()); err != nil {
			return nil, err
		}
	}

	return &workspaceContext{ws: ws, cache: cache, graph: graph}, nil
}

// cachePackageLoader adapts a source.Cache into builddriver.PackageLoader,
// resolving each graph node's backing Source by its PackageId.Source.
type cachePackageLoader struct {
	cache *source.Cache
}

func (l *cachePackageLoader) LoadPackage(id ident.PackageId) (*manifest.Manifest, string, error) {
	ctx := context.Background()
	src := l.cache.Get(id.Source)
	if src == nil {
		return nil, "", fmt.Errorf("no source provider for %s", id.Source)
	}
	pkg, err := src.LoadPackage(ctx, id)
	if err != nil {
		return nil, "", err
	}
	return pkg.Manifest, pkg.Dir, nil
}

func hostTriple() string {
	return fmt.Sprintf("%s-%s", runtime.GOARCH, runtime.GOOS)
}

func newToolchainDetector(projectDir string) backend.ToolchainDetector {
	ov, _ := hconfig.Load(projectDir)
	return &backend.EnvToolchainDetector{
		CC:        ov.CC,
		AR:        ov.AR,
		IsWindows: runtime.GOOS == "windows",
		IsMacOS:   runtime.GOOS == "darwin",
	}
}

func newDriver(wc *workspaceContext) *builddriver.Driver {
	detector := newToolchainDetector(wc.ws.RootDir)
	return &builddriver.Driver{
		Graph:      wc.graph,
		Loader:     &cachePackageLoader{cache: wc.cache},
		Backends:   backend.NewDefault(detector),
		Default:    backend.NewDefault(detector).Get("native"),
		BuildRoot:  wc.ws.DepsDir,
		OutputDir:  wc.ws.OutputDir,
		HostTriple: hostTriple(),
	}
}
