// Package verify drives the end-to-end CI-grade verification pipeline for
// one registry shim (spec.md §4.7): resolve, fetch, patch, build, assert
// artifacts, and run a harness program against the produced library.
package verify

import (
	"log/slog"
	"time"

	"github.com/harbour-pm/harbour/internal/backend"
)

// VerifyStep is one timed, reported pipeline stage.
type VerifyStep struct {
	Name     string
	Passed   bool
	Message  string
	Duration time.Duration
	Warnings []string
}

// Result is the outcome of one verify run.
type Result struct {
	Package string
	Version string
	Steps   []VerifyStep
	Passed  bool
}

// Options configures one verify run.
type Options struct {
	RegistryRoot string // local registry root containing index/
	Name         string
	Version      string // empty or "latest" selects the newest semver

	WorkDir string // scratch directory for checkout/build/harness

	// Linkage selects which invocation(s) the Build step runs: "static"
	// (default), "shared", or "both" (spec.md §4.7 step 4, resolving the
	// VerifyLinkage::Both open question in spec.md §9 by fanning out
	// rather than silently skipping).
	Linkage string

	TargetTriple string // empty means host; differs from HostTriple => cross build
	HostTriple   string

	Detector backend.ToolchainDetector
	Logger   *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// buildOutput collects what the Build step produced, feeding both the
// Artifacts assertion and the Harness compile/link step.
type buildOutput struct {
	Libraries   []string
	IncludeDirs []string
	LibDirs     []string
	LibNames    []string
}
