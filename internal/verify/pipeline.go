package verify

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/harbour-pm/harbour/internal/shimfile"
)

// Run executes the six-step verify pipeline for one shim (spec.md §4.7):
// Resolve, Fetch, Patches, Build, Artifacts, Harness. Steps run in order
// and the pipeline stops at the first failing step; Result.Steps always
// holds every step that was attempted, never a partial step.
func Run(ctx context.Context, opts Options) (*Result, error) {
	res := &Result{Package: opts.Name, Version: opts.Version, Passed: true}
	log := opts.logger()

	var shim *shimfile.Shim
	var shimDir string
	ok := timedStep(res, "Resolve", func() (string, []string, error) {
		s, ver, err := resolveShim(opts.RegistryRoot, opts.Name, opts.Version)
		if err != nil {
			return "", nil, err
		}
		shim = s
		res.Version = ver
		shimDir = shimDirFor(opts.RegistryRoot, opts.Name, ver)
		return fmt.Sprintf("resolved %s v%s", opts.Name, ver), nil, nil
	})
	if !ok {
		return res, nil
	}
	log.Info("verify: resolved shim", "package", opts.Name, "version", res.Version)

	sourceDir := filepath.Join(opts.WorkDir, "src")
	var srcRoot string
	ok = timedStep(res, "Fetch", func() (string, []string, error) {
		root, warnings, err := fetchSource(ctx, shim, sourceDir)
		if err != nil {
			return "", warnings, err
		}
		srcRoot = root
		return "fetched source into " + root, warnings, nil
	})
	if !ok {
		return res, nil
	}
	log.Info("verify: fetched source", "package", opts.Name, "dir", srcRoot)

	ok = timedStep(res, "Patches", func() (string, []string, error) {
		if len(shim.Patches) == 0 {
			return "no patches declared", nil, nil
		}
		if err := applyPatches(ctx, shim, shimDir, srcRoot); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("applied %d patch(es)", len(shim.Patches)), nil, nil
	})
	if !ok {
		return res, nil
	}

	buildRoot := filepath.Join(opts.WorkDir, "build")
	var built *buildOutput
	ok = timedStep(res, "Build", func() (string, []string, error) {
		out, warnings, err := runBuild(ctx, shim, srcRoot, buildRoot, opts)
		if err != nil {
			return "", warnings, err
		}
		built = out
		return fmt.Sprintf("produced %d artifact(s)", len(out.Libraries)), warnings, nil
	})
	if !ok {
		return res, nil
	}
	log.Info("verify: build complete", "package", opts.Name, "artifacts", built.Libraries)

	ok = timedStep(res, "Artifacts", func() (string, []string, error) {
		if err := assertArtifacts(built.Libraries); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("verified %d artifact(s) exist and are non-empty", len(built.Libraries)), nil, nil
	})
	if !ok {
		return res, nil
	}

	ok = timedStep(res, "Harness", func() (string, []string, error) {
		if shim.Harness == nil {
			return "no harness declared", nil, nil
		}
		cross := opts.TargetTriple != "" && opts.TargetTriple != opts.HostTriple
		harnessDir := filepath.Join(buildRoot, "harness")
		if err := runHarness(ctx, shim.Harness, built.IncludeDirs, built.LibDirs, built.LibNames, harnessDir, opts.Detector, cross); err != nil {
			return "", nil, err
		}
		if cross {
			return "harness compiled for a cross target; not executed", nil, nil
		}
		return "harness compiled and ran successfully", nil, nil
	})
	if !ok {
		return res, nil
	}

	return res, nil
}

// timedStep runs fn, appends its VerifyStep to res.Steps (timed), and
// marks res failed on error. It returns false when the pipeline should
// stop (spec.md §4.7 "Any failure aborts verification").
func timedStep(res *Result, name string, fn func() (string, []string, error)) bool {
	start := time.Now()
	msg, warnings, err := fn()
	step := VerifyStep{Name: name, Duration: time.Since(start), Warnings: warnings}
	if err != nil {
		step.Message = err.Error()
		res.Steps = append(res.Steps, step)
		res.Passed = false
		return false
	}
	step.Passed = true
	step.Message = msg
	res.Steps = append(res.Steps, step)
	return true
}
