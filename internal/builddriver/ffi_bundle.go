package builddriver

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/surface"
)

// BundleOptions configures FFIBundle (supplemented from original_source/
// src/ops/ffi_bundle.rs's BundleOptions).
type BundleOptions struct {
	OutputDir          string
	IncludeTransitive  bool
	CreateManifest     bool
	DryRun             bool
}

// BundleResult reports what FFIBundle produced.
type BundleResult struct {
	PrimaryLib  string
	RuntimeDeps []string
	TotalSize   int64
}

type bundleManifest struct {
	Version     int      `json:"version"`
	PrimaryLib  string   `json:"primary_lib"`
	RuntimeDeps []string `json:"runtime_deps"`
	TotalSize   int64    `json:"total_size"`
	Platform    string   `json:"platform"`
}

// FFIBundle collects a target's primary shared library plus its runtime
// dependencies into opts.OutputDir for consumption by a foreign-language
// caller (spec.md's supplemented "ffi_bundle" operation, glossary "FFI
// bundle"). RPATH rewriting is deliberately out of scope: it requires
// shelling out to platform tools (patchelf, install_name_tool) that have
// no counterpart in the rest of the retrieved dependency stack.
func FFIBundle(surf *backend.DiscoveredSurface, opts BundleOptions) (*BundleResult, error) {
	var primary *backend.DiscoveredLibrary
	for i := range surf.Libraries {
		if surf.Libraries[i].Kind == surface.LibShared {
			primary = &surf.Libraries[i]
			break
		}
	}
	if primary == nil {
		return nil, fmt.Errorf("ffi bundle: no shared library found in surface")
	}

	if !opts.DryRun {
		if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
			return nil, fmt.Errorf("ffi bundle: creating output dir: %w", err)
		}
	}

	result := &BundleResult{}

	primaryDest := filepath.Join(opts.OutputDir, filepath.Base(primary.Path))
	size, err := copyBundled(primary.Path, primaryDest, opts.DryRun)
	if err != nil {
		return nil, err
	}
	result.PrimaryLib = primaryDest
	result.TotalSize += size

	if opts.IncludeTransitive {
		for _, dep := range surf.RuntimeDeps {
			if _, statErr := os.Stat(dep); statErr != nil {
				continue
			}
			dest := filepath.Join(opts.OutputDir, filepath.Base(dep))
			depSize, err := copyBundled(dep, dest, opts.DryRun)
			if err != nil {
				return nil, err
			}
			result.RuntimeDeps = append(result.RuntimeDeps, dest)
			result.TotalSize += depSize
		}
	}

	if opts.CreateManifest && !opts.DryRun {
		m := bundleManifest{
			Version:     1,
			PrimaryLib:  filepath.Base(primaryDest),
			RuntimeDeps: baseNames(result.RuntimeDeps),
			TotalSize:   result.TotalSize,
			Platform:    runtime.GOOS + "-" + runtime.GOARCH,
		}
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("ffi bundle: encoding manifest: %w", err)
		}
		if err := os.WriteFile(filepath.Join(opts.OutputDir, "bundle_manifest.json"), data, 0o644); err != nil {
			return nil, fmt.Errorf("ffi bundle: writing manifest: %w", err)
		}
	}

	return result, nil
}

func copyBundled(src, dst string, dryRun bool) (int64, error) {
	info, err := os.Stat(src)
	if err != nil {
		return 0, fmt.Errorf("ffi bundle: stat %s: %w", src, err)
	}
	if dryRun {
		return info.Size(), nil
	}

	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("ffi bundle: opening %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, fmt.Errorf("ffi bundle: creating %s: %w", dst, err)
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, fmt.Errorf("ffi bundle: copying %s to %s: %w", src, dst, err)
	}
	return n, out.Close()
}

func baseNames(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, filepath.Base(p))
	}
	return out
}
