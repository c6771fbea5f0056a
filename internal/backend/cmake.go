package backend

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strconv"
	"strings"
)

const cmakeMinVersion = "3.16"

// CMakeBackend drives an external `cmake` (and `ctest`) binary (spec.md
// §4.4 "CMake").
type CMakeBackend struct {
	cmakePath string
	runner    CommandRunner
}

func NewCMakeBackend() *CMakeBackend {
	return &CMakeBackend{cmakePath: "cmake", runner: OSCommandRunner{}}
}

func (c *CMakeBackend) ID() string { return "cmake" }

func (c *CMakeBackend) Capabilities() Capabilities {
	return Capabilities{
		BackendID: "cmake",
		Configure: Required,
		Build:     Required,
		Test:      Optional,
		Install:   Required,
		Clean:     Required,
		Platform:  PlatformFeatures{CrossCompile: true, Sysroot: true, ToolchainFile: true},
		Artifacts: map[ArtifactKind]bool{
			ArtifactStatic: true, ArtifactShared: true, ArtifactExecutable: true, ArtifactHeaderOnly: true,
		},
		BothStaticAndSharedInOneInvocation: true,
		Linkage: LinkageFeatures{Static: true, Shared: true, SymbolVisibility: true, RpathLevel: 2, ImportLibGen: true, RuntimeBundle: true},
		InjectionMethods:  []string{"cache-variable", "toolchain-file"},
		DependencyFormats: []string{"cmake-config", "pkg-config", "find-library"},
		Install2:          InstallContract{RequiresInstallStep: true, SupportsPrefix: true, Deterministic: true},
		ExportDiscovery:   ExportDiscoveryContract{Supported: true},
		CacheSensitiveTo:  []string{"compiler-version", "build-type", "option-hash", "generator"},
	}
}

func (c *CMakeBackend) Defaults() Defaults {
	return Defaults{
		InjectionOrder:     []string{"cache-variable", "toolchain-file"},
		PreferredGenerator: defaultGenerator(),
		ProfileToBuildType: map[string]string{"debug": "Debug", "release": "Release"},
		DefaultParallelism: 0,
	}
}

func defaultGenerator() string {
	if runtime.GOOS == "windows" {
		return "Visual Studio 17 2022"
	}
	return "Ninja"
}

var cmakeVersionRe = regexp.MustCompile(`cmake version (\d+)\.(\d+)`)

func (c *CMakeBackend) Availability(ctx context.Context) Availability {
	path, err := exec.LookPath(c.cmakePath)
	if err != nil {
		return Availability{Kind: NotInstalled, Tool: "cmake", InstallHint: "install CMake >= " + cmakeMinVersion}
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return Availability{Kind: NotInstalled, Tool: "cmake", InstallHint: "install CMake >= " + cmakeMinVersion}
	}
	m := cmakeVersionRe.FindSubmatch(out)
	if m == nil {
		return Availability{Kind: NotInstalled, Tool: "cmake", InstallHint: "install CMake >= " + cmakeMinVersion}
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	version := string(m[1]) + "." + string(m[2])
	if major < 3 || (major == 3 && minor < 16) {
		return Availability{Kind: VersionTooOld, Version: version, Required: cmakeMinVersion}
	}
	return Availability{Kind: Available, Version: version}
}

// isMultiConfigGenerator reports whether build-type selection happens at
// build time (--config) rather than configure time (-DCMAKE_BUILD_TYPE).
func isMultiConfigGenerator(generator string) bool {
	return strings.Contains(generator, "Visual Studio") || generator == "Xcode"
}

func (c *CMakeBackend) Configure(ctx context.Context, bc BuildContext, opts Options) (ConfigureResult, error) {
	generator := stringOpt(opts, "generator", defaultGenerator())
	buildType := stringOpt(opts, "build_type", "Release")

	args := []string{"-S", bc.PackageRoot, "-B", bc.BuildDir, "-G", generator}
	if !isMultiConfigGenerator(generator) {
		args = append(args, "-DCMAKE_BUILD_TYPE="+buildType)
	}
	if bc.InstallPrefix != "" {
		args = append(args, "-DCMAKE_INSTALL_PREFIX="+bc.InstallPrefix)
	}
	for k, v := range mapStringOpt(opts, "cache_variables") {
		args = append(args, "-D"+k+"="+v)
	}

	cmd := CommandSpec{Program: c.cmakePath, Args: args}
	if err := c.runner.Run(ctx, cmd, bc); err != nil {
		return ConfigureResult{}, wrapBackendErr("cmake", "configure", err)
	}
	return ConfigureResult{Command: flattenCommands([]CommandSpec{cmd})}, nil
}

func (c *CMakeBackend) Build(ctx context.Context, bc BuildContext, opts Options) (BuildResult, error) {
	generator := stringOpt(opts, "generator", defaultGenerator())
	buildType := stringOpt(opts, "build_type", "Release")

	args := []string{"--build", bc.BuildDir}
	if isMultiConfigGenerator(generator) {
		args = append(args, "--config", buildType)
	}
	if bc.Jobs > 0 {
		args = append(args, "--parallel", strconv.Itoa(bc.Jobs))
	}

	cmd := CommandSpec{Program: c.cmakePath, Args: args}
	if err := c.runner.Run(ctx, cmd, bc); err != nil {
		return BuildResult{}, wrapBackendErr("cmake", "build", err)
	}
	return BuildResult{Command: flattenCommands([]CommandSpec{cmd})}, nil
}

func (c *CMakeBackend) Test(ctx context.Context, bc BuildContext, opts Options) (TestResult, error) {
	cmd := CommandSpec{Program: "ctest", Args: []string{"--output-on-failure", "--test-dir", bc.BuildDir}}
	err := c.runner.Run(ctx, cmd, bc)
	if err != nil {
		return TestResult{Failed: 1}, wrapBackendErr("cmake", "test", err)
	}
	return TestResult{Passed: 1}, nil
}

func (c *CMakeBackend) Install(ctx context.Context, bc BuildContext, opts Options) (InstallResult, error) {
	buildType := stringOpt(opts, "build_type", "Release")
	args := []string{"--install", bc.BuildDir, "--config", buildType}
	cmd := CommandSpec{Program: c.cmakePath, Args: args}
	if err := c.runner.Run(ctx, cmd, bc); err != nil {
		return InstallResult{}, wrapBackendErr("cmake", "install", err)
	}
	return InstallResult{Command: flattenCommands([]CommandSpec{cmd})}, nil
}

func (c *CMakeBackend) Clean(ctx context.Context, bc BuildContext, opts Options) error {
	return os.RemoveAll(bc.BuildDir)
}

// DiscoverExports scans lib{,64}/cmake/ for config packages, plus
// include/ and lib{,64}/, and optionally lib/pkgconfig/ (spec.md §4.4
// "CMake... discovery looks for <Name>Config.cmake or Find modules").
func (c *CMakeBackend) DiscoverExports(ctx context.Context, bc BuildContext) (*DiscoveredSurface, error) {
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

		pkgconfigDir := filepath.Join(dir, "pkgconfig")
		if _, err := os.Stat(pkgconfigDir); err == nil {
			ds.ExtraCompileFlags = append(ds.ExtraCompileFlags, "pkg-config-dir="+pkgconfigDir)
		}

		cmakeDir := filepath.Join(dir, "cmake")
		if entries, err := os.ReadDir(cmakeDir); err == nil {
			for _, e := range entries {
				if e.IsDir() {
					ds.ExtraLinkFlags = append(ds.ExtraLinkFlags, "cmake-config-dir="+filepath.Join(cmakeDir, e.Name()))
				}
			}
		}
	}
	return ds, nil
}

func (c *CMakeBackend) Doctor(ctx context.Context) DoctorReport {
	avail := c.Availability(ctx)
	switch avail.Kind {
	case Available:
		return DoctorReport{BackendID: "cmake", Available: true, Detail: "cmake " + avail.Version}
	case VersionTooOld:
		return DoctorReport{BackendID: "cmake", Available: false, Detail: "cmake " + avail.Version + " is older than required " + avail.Required}
	default:
		return DoctorReport{BackendID: "cmake", Available: false, Detail: "cmake not found on PATH", Warnings: []string{avail.InstallHint}}
	}
}

func (c *CMakeBackend) ValidateExtra(intent BuildIntent, opts Options) []error {
	var errs []error
	if intent.ToolchainVersionPin != "" && stringOpt(opts, "toolchain_file", "") == "" && intent.TargetTriple != "" {
		errs = append(errs, &ValidationError{Stage: "backend-extra", Detail: "cmake cross-compilation with a pinned toolchain version expects an explicit toolchain_file option"})
	}
	return errs
}
