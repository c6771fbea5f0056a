package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/builddriver"
	"github.com/harbour-pm/harbour/internal/manifest"
)

const templateManifest = `[package]
name = %q
version = "0.1.0"

[targets.%s]
kind = "exe"
`

var newCmd = &cobra.Command{
	Use:   "new <path>",
	Short: "Create a new package directory with a starter manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if err := os.MkdirAll(filepath.Join(dir, "src"), 0o755); err != nil {
			return err
		}
		return writeStarterManifest(dir)
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Add a starter manifest to the current directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeStarterManifest(".")
	},
}

func writeStarterManifest(dir string) error {
	name := filepath.Base(mustAbs(dir))
	path := filepath.Join(dir, manifest.CanonicalManifestName)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	content := fmt.Sprintf(templateManifest, name, name)
	return os.WriteFile(path, []byte(content), 0o644)
}

func mustAbs(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove every package's build directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		wc, err := resolveWorkspace(ctx, "", nil)
		if err != nil {
			return err
		}
		driver := newDriver(wc)
		return driver.Clean(ctx, wc.graph.Sorted(), buildIntentFromFlags())
	},
}

var (
	ffiOutputDir  string
	ffiPackage    string
	ffiTransitive bool
	ffiDryRun     bool
)

var ffiCmd = &cobra.Command{
	Use:   "ffi",
	Short: "FFI bundle operations",
}

var ffiBundleCmd = &cobra.Command{
	Use:   "bundle",
	Short: "Collect a package's primary shared library and runtime deps for foreign-language consumption",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		wc, err := resolveWorkspace(ctx, "", nil)
		if err != nil {
			return err
		}
		driver := newDriver(wc)
		intent := buildIntentFromFlags()
		intent.FFI = true
		result, err := driver.Build(ctx, intent, backend.Options{})
		if err != nil {
			return err
		}

		pkgName := ffiPackage
		if pkgName == "" && len(wc.ws.Members) > 0 {
			pkgName = wc.ws.Members[0].Name.String()
		}
		surf, ok := result.DiscoveredSurfaces[pkgName]
		if !ok {
			return fmt.Errorf("no discovered surface for package %s", pkgName)
		}

		bundled, err := builddriver.FFIBundle(surf, builddriver.BundleOptions{
			OutputDir:         ffiOutputDir,
			IncludeTransitive: ffiTransitive,
			CreateManifest:    true,
			DryRun:            ffiDryRun,
		})
		if err != nil {
			return err
		}
		fmt.Printf("bundled %s (%d bytes) with %d runtime dep(s) into %s\n",
			bundled.PrimaryLib, bundled.TotalSize, len(bundled.RuntimeDeps), ffiOutputDir)
		return nil
	},
}

func init() {
	ffiBundleCmd.Flags().StringVar(&ffiOutputDir, "output", "ffi-bundle", "bundle output directory")
	ffiBundleCmd.Flags().StringVar(&ffiPackage, "package", "", "package to bundle (default: first workspace member)")
	ffiBundleCmd.Flags().BoolVar(&ffiTransitive, "transitive", true, "include transitive runtime dependencies")
	ffiBundleCmd.Flags().BoolVar(&ffiDryRun, "dry-run", false, "report what would be bundled without copying files")
	ffiCmd.AddCommand(ffiBundleCmd)
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Build this workspace with the tests category requested; test programs are not run",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		wc, err := resolveWorkspace(ctx, "", nil)
		if err != nil {
			return err
		}
		driver := newDriver(wc)
		intent := buildIntentFromFlags()
		intent.Categories = []backend.TargetCategory{backend.CategoryTests}
		_, err = driver.Build(ctx, intent, backend.Options{})
		return err
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the default registry for matching package names",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("search requires a configured remote registry index, which this workspace does not define")
	},
}
