package backend

import (
	"time"

	"github.com/harbour-pm/harbour/internal/surface"
)

// Availability is the result of probing for an external tool's presence
// (spec.md §4.4 "availability()").
type Availability struct {
	Kind    AvailabilityKind
	Version string // set for Available/VersionTooOld
	Required string // set for VersionTooOld
	Tool    string // set for NotInstalled
	InstallHint string // set for NotInstalled
}

type AvailabilityKind int

const (
	AlwaysAvailable AvailabilityKind = iota
	Available
	NotInstalled
	VersionTooOld
)

// ConfigureResult reports the outcome of a configure phase.
type ConfigureResult struct {
	Skipped bool
	Command []string
	Output  string
}

// BuildResult reports the outcome of a build phase.
type BuildResult struct {
	Command  []string
	Output   string
	Duration time.Duration
}

// TestResult reports the outcome of a test phase.
type TestResult struct {
	Passed   int
	Failed   int
	Skipped  int
	Output   string
	Duration time.Duration
}

// InstallResult reports the outcome of an install phase.
type InstallResult struct {
	Command []string
	Output  string
}

// DiscoveredLibrary is one library file found by discover_exports.
type DiscoveredLibrary struct {
	Name   string // short name, "lib" prefix and version suffix stripped
	Path   string
	Kind   surface.LibKind
	SoName string // optional
}

// DiscoveredSurface is what discover_exports finds by introspecting a
// backend's install prefix (spec.md §4.4 "discover_exports").
type DiscoveredSurface struct {
	IncludeDirs []string
	Libraries   []DiscoveredLibrary
	Defines     []string
	ExtraCompileFlags []string
	ExtraLinkFlags    []string
	RuntimeDeps []string
}

// DoctorReport is a backend's self-diagnostic summary.
type DoctorReport struct {
	BackendID string
	Available bool
	Detail    string
	Warnings  []string
}
