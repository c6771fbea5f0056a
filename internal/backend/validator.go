package backend

import "fmt"

// ValidationError is one failure surfaced by the three-stage validator.
// All applicable errors are collected and returned together (spec.md
// §4.4 "reports all errors at once").
type ValidationError struct {
	Stage   string // "backend", "toolchain", "package", "backend-extra"
	Detail  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation: %s", e.Stage, e.Detail)
}

// PackageValidationInput is the per-target information the package
// validator needs.
type PackageValidationInput struct {
	TargetName     string
	SurfaceIsEmpty bool
	Linkable       bool
}

// Validate runs all three stages against one backend plus its toolchain,
// for one package's targets, and returns every applicable error (spec.md
// §4.4 "Three-stage validator").
func Validate(b Backend, intent BuildIntent, opts Options, tc Toolchain, hostTriple string, targets []PackageValidationInput) []error {
	var errs []error
	errs = append(errs, validateBackend(b, intent, hostTriple)...)
	errs = append(errs, validateToolchain(tc, intent)...)
	errs = append(errs, validatePackage(b, targets)...)
	errs = append(errs, b.ValidateExtra(intent, opts)...)
	return errs
}

func validateBackend(b Backend, intent BuildIntent, hostTriple string) []error {
	var errs []error
	caps := b.Capabilities()

	wantsTest := false
	for _, c := range intent.Categories {
		if c == CategoryTests {
			wantsTest = true
		}
	}
	if wantsTest && caps.Test == NotSupported {
		errs = append(errs, &ValidationError{Stage: "backend", Detail: b.ID() + " does not support the test phase"})
	}

	switch intent.Linkage {
	case LinkStatic:
		if !caps.Linkage.Static {
			errs = append(errs, &ValidationError{Stage: "backend", Detail: b.ID() + " does not support static linkage"})
		}
	case LinkShared:
		if !caps.Linkage.Shared {
			errs = append(errs, &ValidationError{Stage: "backend", Detail: b.ID() + " does not support shared linkage"})
		}
	}

	if intent.FFI && !caps.Linkage.Shared {
		errs = append(errs, &ValidationError{Stage: "backend", Detail: "FFI requires shared linkage, which " + b.ID() + " does not support"})
	}

	if intent.TargetTriple != "" && intent.TargetTriple != hostTriple {
		if !caps.Platform.CrossCompile {
			errs = append(errs, &ValidationError{Stage: "backend", Detail: b.ID() + " does not support cross-compilation"})
		}
	}

	for _, k := range intent.ArtifactKinds {
		if !caps.Artifacts[k] {
			errs = append(errs, &ValidationError{Stage: "backend", Detail: fmt.Sprintf("%s cannot produce artifact kind %d", b.ID(), k)})
		}
	}

	return errs
}

func validateToolchain(tc Toolchain, intent BuildIntent) []error {
	var errs []error
	if tc == nil {
		return errs
	}

	if intent.ToolchainPin != "" && intent.ToolchainPin != tc.Platform().String() {
		errs = append(errs, &ValidationError{Stage: "toolchain", Detail: "pinned toolchain " + intent.ToolchainPin + " does not match detected compiler " + tc.Platform().String()})
	}

	if intent.CxxStandard != "" {
		want := parseStandard(intent.CxxStandard)
		if want > tc.Platform().maxCppStandard() {
			errs = append(errs, &ValidationError{Stage: "toolchain", Detail: fmt.Sprintf("requested C++%s exceeds max C++%d supported by %s", intent.CxxStandard, tc.Platform().maxCppStandard(), tc.Platform())})
		}
	}

	return errs
}

func parseStandard(s string) int {
	switch s {
	case "98":
		return 3
	case "03":
		return 3
	case "11":
		return 11
	case "14":
		return 14
	case "17":
		return 17
	case "20":
		return 20
	case "23":
		return 23
	default:
		return 0
	}
}

func validatePackage(b Backend, targets []PackageValidationInput) []error {
	var errs []error
	caps := b.Capabilities()
	for _, t := range targets {
		if t.Linkable && t.SurfaceIsEmpty && !caps.ExportDiscovery.Supported {
			errs = append(errs, &ValidationError{Stage: "package", Detail: "target " + t.TargetName + " has an empty surface and " + b.ID() + " does not support export discovery (ExportDiscoveryRequired)"})
		}
	}
	return errs
}
