package backend

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/harbour-pm/harbour/internal/surface"
)

// NativeBackend is Harbour's built-in compiler driver: always available,
// no configure step, and cross-compilation only when a toolchain is
// explicitly provided (spec.md §4.4 "Native").
type NativeBackend struct {
	detector ToolchainDetector
	runner   CommandRunner
}

// NewNativeBackend constructs the native backend around a toolchain
// detector; its commands always run through OSCommandRunner.
func NewNativeBackend(detector ToolchainDetector) *NativeBackend {
	return &NativeBackend{detector: detector, runner: OSCommandRunner{}}
}

func (n *NativeBackend) ID() string { return "native" }

func (n *NativeBackend) Capabilities() Capabilities {
	return Capabilities{
		BackendID: "native",
		Configure: NotSupported,
		Build:     Required,
		Test:      NotSupported,
		Install:   Required,
		Clean:     Required,
		Platform:  PlatformFeatures{CrossCompile: false, Sysroot: false, ToolchainFile: false},
		Artifacts: map[ArtifactKind]bool{
			ArtifactStatic: true, ArtifactShared: true, ArtifactExecutable: true, ArtifactHeaderOnly: true,
		},
		BothStaticAndSharedInOneInvocation: false,
		Linkage: LinkageFeatures{Static: true, Shared: true, SymbolVisibility: true, RpathLevel: 1, ImportLibGen: false, RuntimeBundle: true},
		InjectionMethods:  []string{"cache-variable"},
		DependencyFormats: []string{"find-library"},
		Install2:          InstallContract{RequiresInstallStep: true, SupportsPrefix: true, Deterministic: true},
		ExportDiscovery:   ExportDiscoveryContract{Supported: true},
		CacheSensitiveTo:  []string{"compiler-version", "build-type"},
	}
}

func (n *NativeBackend) Defaults() Defaults {
	return Defaults{
		InjectionOrder:     []string{"cache-variable"},
		ProfileToBuildType: map[string]string{"debug": "Debug", "release": "Release"},
		DefaultParallelism: 0,
	}
}

func (n *NativeBackend) Availability(ctx context.Context) Availability {
	return Availability{Kind: AlwaysAvailable}
}

func (n *NativeBackend) Configure(ctx context.Context, bc BuildContext, opts Options) (ConfigureResult, error) {
	return ConfigureResult{Skipped: true}, nil
}

// Build compiles every source listed under opts["sources"] and then, per
// opts["kind"] ("staticlib" (default), "sharedlib", or "exe"), archives or
// links the resulting objects. Executables additionally honor
// opts["libs"]/opts["lib_dirs"], the flattened link surface the build
// driver computes for the target.
func (n *NativeBackend) Build(ctx context.Context, bc BuildContext, opts Options) (BuildResult, error) {
	tc, err := n.detector.Detect()
	if err != nil {
		return BuildResult{}, err
	}

	sources := stringSliceOpt(opts, "sources")
	includeDirs := stringSliceOpt(opts, "include_dirs")
	libName := stringOpt(opts, "lib_name", "lib")
	kind := stringOpt(opts, "kind", "staticlib")
	if boolOpt(opts, "shared", false) {
		kind = "sharedlib"
	}

	if err := os.MkdirAll(bc.BuildDir, 0o755); err != nil {
		return BuildResult{}, wrapBackendErr("native", "creating build directory", err)
	}

	var objects []string
	var commands []CommandSpec
	for _, src := range sources {
		obj := filepath.Join(bc.BuildDir, strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))+"."+tc.ObjectExtension())
		cmd := tc.CompileCommand(CompileInput{Source: src, Output: obj, IncludeDirs: includeDirs})
		if err := n.runner.Run(ctx, cmd, bc); err != nil {
			return BuildResult{}, wrapBackendErr("native", "compiling "+src, err)
		}
		commands = append(commands, cmd)
		objects = append(objects, obj)
	}

	switch kind {
	case "exe":
		exeName := libName
		if ext := tc.ExeExtension(); ext != "" {
			exeName += "." + ext
		}
		out := filepath.Join(bc.BuildDir, exeName)
		linkCmd := tc.LinkExeCommand(LinkInput{
			Objects: objects,
			Output:  out,
			LibDirs: stringSliceOpt(opts, "lib_dirs"),
			Libs:    stringSliceOpt(opts, "libs"),
		})
		if err := n.runner.Run(ctx, linkCmd, bc); err != nil {
			return BuildResult{}, wrapBackendErr("native", "linking "+out, err)
		}
		commands = append(commands, linkCmd)

	case "sharedlib":
		sharedOut := filepath.Join(bc.BuildDir, tc.SharedLibPrefix()+libName+"."+tc.SharedLibExtension())
		linkCmd := tc.LinkSharedCommand(LinkInput{
			Objects: objects,
			Output:  sharedOut,
			LibDirs: stringSliceOpt(opts, "lib_dirs"),
			Libs:    stringSliceOpt(opts, "libs"),
		})
		if err := n.runner.Run(ctx, linkCmd, bc); err != nil {
			return BuildResult{}, wrapBackendErr("native", "linking "+sharedOut, err)
		}
		commands = append(commands, linkCmd)

	default: // staticlib
		archiveOut := filepath.Join(bc.BuildDir, tc.StaticLibPrefix()+libName+"."+tc.StaticLibExtension())
		archiveCmd := tc.ArchiveCommand(ArchiveInput{Objects: objects, Output: archiveOut})
		if err := n.runner.Run(ctx, archiveCmd, bc); err != nil {
			return BuildResult{}, wrapBackendErr("native", "archiving "+archiveOut, err)
		}
		commands = append(commands, archiveCmd)
	}

	return BuildResult{Command: flattenCommands(commands)}, nil
}

func (n *NativeBackend) Test(ctx context.Context, bc BuildContext, opts Options) (TestResult, error) {
	return TestResult{}, wrapBackendErr("native", "test phase is not supported", nil)
}

func (n *NativeBackend) Install(ctx context.Context, bc BuildContext, opts Options) (InstallResult, error) {
	if err := os.MkdirAll(filepath.Join(bc.InstallPrefix, "include"), 0o755); err != nil {
		return InstallResult{}, wrapBackendErr("native", "creating install include dir", err)
	}
	if err := os.MkdirAll(filepath.Join(bc.InstallPrefix, "lib"), 0o755); err != nil {
		return InstallResult{}, wrapBackendErr("native", "creating install lib dir", err)
	}
	entries, err := os.ReadDir(bc.BuildDir)
	if err != nil {
		return InstallResult{}, wrapBackendErr("native", "reading build dir", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if isLibraryFile(e.Name()) {
			src := filepath.Join(bc.BuildDir, e.Name())
			dst := filepath.Join(bc.InstallPrefix, "lib", e.Name())
			if err := copyFile(src, dst); err != nil {
				return InstallResult{}, wrapBackendErr("native", "installing "+e.Name(), err)
			}
		}
	}
	return InstallResult{}, nil
}

func (n *NativeBackend) Clean(ctx context.Context, bc BuildContext, opts Options) error {
	return os.RemoveAll(bc.BuildDir)
}

// DiscoverExports scans include/ and lib{,64}/ for files with extensions
// {a, lib, so, dylib, dll}, stripping the "lib" prefix and version suffix
// to compute each library's short name (spec.md §4.4 "Native... Discovery
// scans the install prefix").
func (n *NativeBackend) DiscoverExports(ctx context.Context, bc BuildContext) (*DiscoveredSurface, error) {
	ds := &DiscoveredSurface{}

	includeDir := filepath.Join(bc.InstallPrefix, "include")
	if _, err := os.Stat(includeDir); err == nil {
		ds.IncludeDirs = append(ds.IncludeDirs, includeDir)
	}

	for _, libSubdir := range []string{"lib", "lib64"} {
		dir := filepath.Join(bc.InstallPrefix, libSubdir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, e := range entries {
			if e.IsDir() || !isLibraryFile(e.Name()) {
				continue
			}
			name, kind := shortLibraryName(e.Name())
			ds.Libraries = append(ds.Libraries, DiscoveredLibrary{Name: name, Path: filepath.Join(dir, e.Name()), Kind: kind})
		}
	}
	return ds, nil
}

func (n *NativeBackend) Doctor(ctx context.Context) DoctorReport {
	return DoctorReport{BackendID: "native", Available: true, Detail: "native backend is always available"}
}

func (n *NativeBackend) ValidateExtra(intent BuildIntent, opts Options) []error { return nil }

func isLibraryFile(name string) bool {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	switch ext {
	case "a", "lib", "so", "dylib", "dll":
		return true
	default:
		return false
	}
}

// shortLibraryName strips a "lib" prefix and any ".so.N.N.N"-style version
// suffix, returning the bare library name and its static/shared kind.
func shortLibraryName(filename string) (string, surface.LibKind) {
	stem := filename

	// Peel off trailing purely-numeric extensions first, so
	// "libfoo.so.1.2.3" becomes "libfoo.so".
	for {
		e := filepath.Ext(stem)
		if e == "" {
			break
		}
		if _, err := parseNumericSuffix(strings.TrimPrefix(e, ".")); err != nil {
			break
		}
		stem = strings.TrimSuffix(stem, e)
	}

	// The remaining extension is the real library kind.
	ext := filepath.Ext(stem)
	stem = strings.TrimSuffix(stem, ext)
	name := strings.TrimPrefix(stem, "lib")

	var kind surface.LibKind
	switch ext {
	case ".a", ".lib":
		kind = surface.LibStatic
	default:
		kind = surface.LibShared
	}
	return name, kind
}

func parseNumericSuffix(s string) (int, error) {
	n := 0
	if s == "" {
		return 0, errNotNumeric
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotNumeric
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

var errNotNumeric = &ValidationError{Stage: "native", Detail: "not a numeric version component"}
