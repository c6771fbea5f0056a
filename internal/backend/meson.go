package backend

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const mesonMinVersion = "0.50"

// MesonBackend drives external `meson` and `ninja` binaries (spec.md
// §4.4 "Meson").
type MesonBackend struct {
	mesonPath string
	runner    CommandRunner
}

func NewMesonBackend() *MesonBackend {
	return &MesonBackend{mesonPath: "meson", runner: OSCommandRunner{}}
}

func (m *MesonBackend) ID() string { return "meson" }

func (m *MesonBackend) Capabilities() Capabilities {
	return Capabilities{
		BackendID: "meson",
		Configure: Required,
		Build:     Required,
		Test:      Optional,
		Install:   Required,
		Clean:     Required,
		Platform:  PlatformFeatures{CrossCompile: true, Sysroot: true, ToolchainFile: false},
		Artifacts: map[ArtifactKind]bool{
			ArtifactStatic: true, ArtifactShared: true, ArtifactExecutable: true, ArtifactHeaderOnly: true,
		},
		BothStaticAndSharedInOneInvocation: false,
		Linkage: LinkageFeatures{Static: true, Shared: true, SymbolVisibility: true, RpathLevel: 2, ImportLibGen: true, RuntimeBundle: true},
		InjectionMethods:  []string{"cache-variable"},
		DependencyFormats: []string{"pkg-config", "cmake-config"},
		Install2:          InstallContract{RequiresInstallStep: true, SupportsPrefix: true, Deterministic: true},
		ExportDiscovery:   ExportDiscoveryContract{Supported: true},
		CacheSensitiveTo:  []string{"compiler-version", "build-type", "option-hash"},
	}
}

func (m *MesonBackend) Defaults() Defaults {
	return Defaults{
		InjectionOrder:     []string{"cache-variable"},
		PreferredGenerator: "ninja",
		ProfileToBuildType: map[string]string{"debug": "debug", "release": "release"},
		DefaultParallelism: 0,
	}
}

var mesonVersionRe = regexp.MustCompile(`(\d+)\.(\d+)`)

func (m *MesonBackend) Availability(ctx context.Context) Availability {
	path, err := exec.LookPath(m.mesonPath)
	if err != nil {
		return Availability{Kind: NotInstalled, Tool: "meson", InstallHint: "install Meson >= " + mesonMinVersion + " and Ninja"}
	}
	if _, err := exec.LookPath("ninja"); err != nil {
		return Availability{Kind: NotInstalled, Tool: "ninja", InstallHint: "install Ninja"}
	}
	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return Availability{Kind: NotInstalled, Tool: "meson", InstallHint: "install Meson >= " + mesonMinVersion}
	}
	v := strings.TrimSpace(string(out))
	mm := mesonVersionRe.FindStringSubmatch(v)
	if mm == nil {
		return Availability{Kind: NotInstalled, Tool: "meson", InstallHint: "install Meson >= " + mesonMinVersion}
	}
	major, _ := strconv.Atoi(mm[1])
	minor, _ := strconv.Atoi(mm[2])
	if major == 0 && minor < 50 {
		return Availability{Kind: VersionTooOld, Version: v, Required: mesonMinVersion}
	}
	return Availability{Kind: Available, Version: v}
}

func (m *MesonBackend) Configure(ctx context.Context, bc BuildContext, opts Options) (ConfigureResult, error) {
	buildType := stringOpt(opts, "build_type", "release")
	args := []string{"setup", "--buildtype=" + buildType}
	if bc.InstallPrefix != "" {
		args = append(args, "--prefix", bc.InstallPrefix)
	}
	for k, v := range mapStringOpt(opts, "options") {
		args = append(args, "-D"+k+"="+v)
	}
	args = append(args, bc.BuildDir, bc.PackageRoot)

	cmd := CommandSpec{Program: m.mesonPath, Args: args}
	if err := m.runner.Run(ctx, cmd, bc); err != nil {
		return ConfigureResult{}, wrapBackendErr("meson", "setup", err)
	}
	return ConfigureResult{Command: flattenCommands([]CommandSpec{cmd})}, nil
}

func (m *MesonBackend) Build(ctx context.Context, bc BuildContext, opts Options) (BuildResult, error) {
	args := []string{"compile", "-C", bc.BuildDir}
	if bc.Jobs > 0 {
		args = append(args, "-j", strconv.Itoa(bc.Jobs))
	}
	cmd := CommandSpec{Program: m.mesonPath, Args: args}
	if err := m.runner.Run(ctx, cmd, bc); err != nil {
		return BuildResult{}, wrapBackendErr("meson", "compile", err)
	}
	return BuildResult{Command: flattenCommands([]CommandSpec{cmd})}, nil
}

// parseMesonTestSummary reads meson's "Ok: N / Fail: N / Skip: N"-style
// summary line from test output (spec.md §4.4 "Meson... parses the
// Ok:/Fail:/Skip: summary").
func parseMesonTestSummary(output string) (passed, failed, skipped int) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	re := regexp.MustCompile(`(Ok|Fail|Skip):\s*(\d+)`)
	for scanner.Scan() {
		line := scanner.Text()
		for _, mm := range re.FindAllStringSubmatch(line, -1) {
			n, _ := strconv.Atoi(mm[2])
			switch mm[1] {
			case "Ok":
				passed = n
			case "Fail":
				failed = n
			case "Skip":
				skipped = n
			}
		}
	}
	return passed, failed, skipped
}

func (m *MesonBackend) Test(ctx context.Context, bc BuildContext, opts Options) (TestResult, error) {
	cmd := CommandSpec{Program: m.mesonPath, Args: []string{"test", "-C", bc.BuildDir, "--print-errorlogs"}}
	var captured captureRunner
	err := captured.runOrDelegate(ctx, m.runner, cmd, bc)
	passed, failed, skipped := parseMesonTestSummary(captured.output)
	if err != nil {
		return TestResult{Passed: passed, Failed: failed, Skipped: skipped, Output: captured.output}, wrapBackendErr("meson", "test", err)
	}
	return TestResult{Passed: passed, Failed: failed, Skipped: skipped, Output: captured.output}, nil
}

func (m *MesonBackend) Install(ctx context.Context, bc BuildContext, opts Options) (InstallResult, error) {
	args := []string{"install", "-C", bc.BuildDir}
	destdir := stringOpt(opts, "destdir", "")
	if destdir != "" {
		args = append(args, "--destdir", destdir)
	}
	cmd := CommandSpec{Program: m.mesonPath, Args: args}
	if err := m.runner.Run(ctx, cmd, bc); err != nil {
		return InstallResult{}, wrapBackendErr("meson", "install", err)
	}
	return InstallResult{Command: flattenCommands([]CommandSpec{cmd})}, nil
}

func (m *MesonBackend) Clean(ctx context.Context, bc BuildContext, opts Options) error {
	return os.RemoveAll(bc.BuildDir)
}

func (m *MesonBackend) DiscoverExports(ctx context.Context, bc BuildContext) (*DiscoveredSurface, error) {
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
	}
	return ds, nil
}

func (m *MesonBackend) Doctor(ctx context.Context) DoctorReport {
	avail := m.Availability(ctx)
	switch avail.Kind {
	case Available:
		return DoctorReport{BackendID: "meson", Available: true, Detail: "meson " + avail.Version}
	case VersionTooOld:
		return DoctorReport{BackendID: "meson", Available: false, Detail: "meson " + avail.Version + " is older than required " + avail.Required}
	default:
		return DoctorReport{BackendID: "meson", Available: false, Detail: avail.Tool + " not found on PATH", Warnings: []string{avail.InstallHint}}
	}
}

func (m *MesonBackend) ValidateExtra(intent BuildIntent, opts Options) []error { return nil }

// captureRunner wraps a CommandRunner to additionally capture combined
// output text for test-summary parsing, without requiring every
// CommandRunner implementation to plumb output back through Run's error.
type captureRunner struct {
	output string
}

func (c *captureRunner) runOrDelegate(ctx context.Context, runner CommandRunner, cmd CommandSpec, bc BuildContext) error {
	if osr, ok := runner.(OSCommandRunner); ok {
		return osr.runCapturing(ctx, cmd, bc, &c.output)
	}
	return runner.Run(ctx, cmd, bc)
}

func (OSCommandRunner) runCapturing(ctx context.Context, cmd CommandSpec, bc BuildContext, capture *string) error {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	c.Dir = bc.BuildDir
	c.Env = append(os.Environ(), cmd.Env...)
	out, err := c.CombinedOutput()
	*capture = string(out)
	if err != nil {
		return err
	}
	return nil
}
