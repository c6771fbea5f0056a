package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/shimfile"
)

// runBuild drives the shim's declared backend against srcRoot, requesting
// static linkage by default and both static and shared as two separate
// invocations when opts.Linkage is "both" (spec.md §4.7 step 4).
func runBuild(ctx context.Context, shim *shimfile.Shim, srcRoot, buildRoot string, opts Options) (*buildOutput, []string, error) {
	linkages := []string{"static"}
	switch opts.Linkage {
	case "shared":
		linkages = []string{"shared"}
	case "both":
		linkages = []string{"static", "shared"}
	}

	var warnings []string
	out := &buildOutput{}
	for _, linkage := range linkages {
		buildDir := filepath.Join(buildRoot, "build-"+linkage)
		installDir := filepath.Join(buildRoot, "install-"+linkage)

		var libs []string
		var err error
		if shim.Backend != nil && shim.Backend.Backend == "cmake" {
			libs, err = buildWithCMake(ctx, shim, srcRoot, buildDir, installDir, linkage)
		} else {
			libs, err = buildNative(ctx, shim, srcRoot, buildDir, installDir, linkage, opts.Detector)
		}
		if err != nil {
			return nil, warnings, err
		}
		out.Libraries = append(out.Libraries, libs...)
		out.LibDirs = append(out.LibDirs, dirsOf(libs)...)
	}

	if shim.SurfaceOverride != nil {
		for _, d := range shim.SurfaceOverride.CompilePublic.IncludeDirs {
			out.IncludeDirs = append(out.IncludeDirs, filepath.Join(srcRoot, d.Value))
		}
		for _, l := range shim.SurfaceOverride.LinkPublic.DepLibs {
			out.LibNames = append(out.LibNames, l.Name)
		}
	}
	if len(out.LibNames) == 0 {
		out.LibNames = append(out.LibNames, shim.Name)
	}
	out.LibDirs = dedupStrings(out.LibDirs)

	return out, warnings, nil
}

func buildWithCMake(ctx context.Context, shim *shimfile.Shim, srcRoot, buildDir, installDir, linkage string) ([]string, error) {
	cm := backend.NewCMakeBackend()
	bc := backend.BuildContext{PackageRoot: srcRoot, BuildDir: buildDir, InstallPrefix: installDir, Release: true}

	cacheVars := map[string]string{}
	if shim.Backend != nil {
		for _, o := range shim.Backend.CMakeOptions {
			k, v, ok := strings.Cut(strings.TrimPrefix(o, "-D"), "=")
			if ok {
				cacheVars[k] = v
			}
		}
	}
	cacheVars["CMAKE_POSITION_INDEPENDENT_CODE"] = "ON"
	if linkage == "shared" {
		cacheVars["BUILD_SHARED_LIBS"] = "ON"
	} else {
		cacheVars["BUILD_SHARED_LIBS"] = "OFF"
	}

	recipe := backend.Options{"cache_variables": cacheVars, "build_type": "Release"}
	if _, err := cm.Configure(ctx, bc, recipe); err != nil {
		return nil, fmt.Errorf("verify: cmake configure: %w", err)
	}
	if _, err := cm.Build(ctx, bc, recipe); err != nil {
		return nil, fmt.Errorf("verify: cmake build: %w", err)
	}
	if _, err := cm.Install(ctx, bc, recipe); err != nil {
		return nil, fmt.Errorf("verify: cmake install: %w", err)
	}
	discovered, err := cm.DiscoverExports(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("verify: cmake discover_exports: %w", err)
	}
	return libraryPaths(discovered), nil
}

func buildNative(ctx context.Context, shim *shimfile.Shim, srcRoot, buildDir, installDir, linkage string, detector backend.ToolchainDetector) ([]string, error) {
	sources, err := expandNativeSources(shim.NativeSources, srcRoot)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("verify: shim declares no native sources to build (surface_override.sources)")
	}

	var includeDirs []string
	if shim.SurfaceOverride != nil {
		for _, d := range shim.SurfaceOverride.CompilePublic.IncludeDirs {
			includeDirs = append(includeDirs, filepath.Join(srcRoot, d.Value))
		}
	}

	nb := backend.NewNativeBackend(detector)
	bc := backend.BuildContext{PackageRoot: srcRoot, BuildDir: buildDir, InstallPrefix: installDir, Release: true}
	kind := "staticlib"
	if linkage == "shared" {
		kind = "sharedlib"
	}
	recipe := backend.Options{
		"sources":      sources,
		"include_dirs": includeDirs,
		"lib_name":     shim.Name,
		"kind":         kind,
	}
	if _, err := nb.Build(ctx, bc, recipe); err != nil {
		return nil, fmt.Errorf("verify: native build: %w", err)
	}
	if _, err := nb.Install(ctx, bc, recipe); err != nil {
		return nil, fmt.Errorf("verify: native install: %w", err)
	}
	discovered, err := nb.DiscoverExports(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("verify: native discover_exports: %w", err)
	}
	return libraryPaths(discovered), nil
}

func libraryPaths(ds *backend.DiscoveredSurface) []string {
	var out []string
	for _, l := range ds.Libraries {
		out = append(out, l.Path)
	}
	return out
}

func expandNativeSources(globs []string, srcRoot string) ([]string, error) {
	var out []string
	for _, g := range globs {
		matches, err := doublestar.FilepathGlob(filepath.Join(srcRoot, g))
		if err != nil {
			return nil, fmt.Errorf("verify: expanding source glob %q: %w", g, err)
		}
		out = append(out, matches...)
	}
	sort.Strings(out)
	return out, nil
}

func dirsOf(paths []string) []string {
	var out []string
	for _, p := range paths {
		out = append(out, filepath.Dir(p))
	}
	return out
}

func dedupStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	var out []string
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
