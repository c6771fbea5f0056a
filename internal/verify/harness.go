package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/shimfile"
)

// runHarness writes the shim's harness program, compiles and links it
// against the include/lib dirs the Build step produced, and (on a
// non-cross build) executes it, requiring exit 0 (spec.md §4.7 step 6).
// On a cross build the function returns after a successful link without
// running the binary.
func runHarness(ctx context.Context, h *shimfile.HarnessConfig, includeDirs, libDirs, libNames []string, buildDir string, detector backend.ToolchainDetector, cross bool) error {
	tc, err := detector.Detect()
	if err != nil {
		return fmt.Errorf("verify: detecting toolchain for harness: %w", err)
	}
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		return fmt.Errorf("verify: creating harness build dir: %w", err)
	}

	src := filepath.Join(buildDir, "harness."+harnessExt(h.Lang))
	if err := os.WriteFile(src, []byte(harnessSource(h)), 0o644); err != nil {
		return fmt.Errorf("verify: writing harness source: %w", err)
	}
	obj := filepath.Join(buildDir, "harness."+tc.ObjectExtension())

	runner := backend.OSCommandRunner{}
	bc := backend.BuildContext{BuildDir: buildDir}

	compileCmd := tc.CompileCommand(backend.CompileInput{Source: src, Output: obj, IncludeDirs: includeDirs})
	if err := runner.Run(ctx, compileCmd, bc); err != nil {
		return fmt.Errorf("verify: compiling harness: %w", err)
	}

	exeName := "harness"
	if ext := tc.ExeExtension(); ext != "" {
		exeName += "." + ext
	}
	exe := filepath.Join(buildDir, exeName)
	linkCmd := tc.LinkExeCommand(backend.LinkInput{Objects: []string{obj}, Output: exe, LibDirs: libDirs, Libs: libNames})
	if err := runner.Run(ctx, linkCmd, bc); err != nil {
		return fmt.Errorf("verify: linking harness: %w", err)
	}

	if cross {
		return nil
	}

	runCmd := backend.CommandSpec{Program: exe}
	if err := runner.Run(ctx, runCmd, bc); err != nil {
		return fmt.Errorf("verify: running harness: %w", err)
	}
	return nil
}

func harnessExt(lang string) string {
	if lang == "c++" || lang == "cxx" {
		return "cpp"
	}
	return "c"
}

func harnessSource(h *shimfile.HarnessConfig) string {
	return fmt.Sprintf("#include <%s>\n\nint main(void) {\n    %s;\n    return 0;\n}\n", h.Header, h.TestCall)
}
