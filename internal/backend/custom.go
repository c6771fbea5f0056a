package backend

import (
	"context"
	"fmt"
	"os"
)

// CustomBackend runs user-declared shell commands per phase, exposing a
// handful of HARBOUR_* environment variables so those commands can locate
// the build directory, install prefix, and package root (spec.md §4.4
// "Custom").
type CustomBackend struct {
	runner CommandRunner
}

func NewCustomBackend() *CustomBackend {
	return &CustomBackend{runner: OSCommandRunner{}}
}

func (c *CustomBackend) ID() string { return "custom" }

func (c *CustomBackend) Capabilities() Capabilities {
	return Capabilities{
		BackendID: "custom",
		Configure: Optional,
		Build:     Required,
		Test:      Optional,
		Install:   Optional,
		Clean:     Optional,
		Platform:  PlatformFeatures{CrossCompile: false, Sysroot: false, ToolchainFile: false},
		Artifacts: map[ArtifactKind]bool{
			ArtifactStatic: true, ArtifactShared: true, ArtifactExecutable: true, ArtifactHeaderOnly: true,
		},
		BothStaticAndSharedInOneInvocation: false,
		Linkage: LinkageFeatures{Static: true, Shared: true, SymbolVisibility: false, RpathLevel: 0, ImportLibGen: false, RuntimeBundle: false},
		InjectionMethods:  []string{"env"},
		DependencyFormats: nil,
		Install2:          InstallContract{RequiresInstallStep: false, SupportsPrefix: true, Deterministic: false},
		ExportDiscovery:   ExportDiscoveryContract{Supported: false},
		CacheSensitiveTo:  []string{"command-hash"},
	}
}

func (c *CustomBackend) Defaults() Defaults {
	return Defaults{InjectionOrder: []string{"env"}, DefaultParallelism: 0}
}

func (c *CustomBackend) Availability(ctx context.Context) Availability {
	return Availability{Kind: AlwaysAvailable}
}

// phaseCommands resolves one phase's command list from either the
// "<phase>_commands" array form or the "<phase>_program"/"<phase>_args"
// shorthand (spec.md §4.4 "Custom... either a list of commands or a single
// program plus args").
func phaseCommands(opts Options, phase string) []CommandSpec {
	if raw, ok := opts[phase+"_commands"]; ok {
		if cmds, ok := raw.([]CommandSpec); ok {
			return cmds
		}
	}
	program := stringOpt(opts, phase+"_program", "")
	if program == "" {
		return nil
	}
	args := stringSliceOpt(opts, phase+"_args")
	return []CommandSpec{{Program: program, Args: args}}
}

func phaseEnv(bc BuildContext) []string {
	release := "0"
	if bc.Release {
		release = "1"
	}
	jobs := 1
	if bc.Jobs > 0 {
		jobs = bc.Jobs
	}
	return []string{
		"HARBOUR_BUILD_DIR=" + bc.BuildDir,
		"HARBOUR_INSTALL_PREFIX=" + bc.InstallPrefix,
		"HARBOUR_PACKAGE_ROOT=" + bc.PackageRoot,
		"HARBOUR_RELEASE=" + release,
		fmt.Sprintf("HARBOUR_JOBS=%d", jobs),
	}
}

func (c *CustomBackend) runPhase(ctx context.Context, bc BuildContext, opts Options, phase string) ([]string, error) {
	cmds := phaseCommands(opts, phase)
	env := phaseEnv(bc)
	var flat []string
	for i := range cmds {
		cmds[i].Env = append(cmds[i].Env, env...)
		if err := c.runner.Run(ctx, cmds[i], bc); err != nil {
			return flat, wrapBackendErr("custom", phase, err)
		}
		flat = append(flat, flattenCommands(cmds[i:i+1])...)
	}
	return flat, nil
}

func (c *CustomBackend) Configure(ctx context.Context, bc BuildContext, opts Options) (ConfigureResult, error) {
	cmds := phaseCommands(opts, "configure")
	if len(cmds) == 0 {
		return ConfigureResult{Skipped: true}, nil
	}
	cmdStrs, err := c.runPhase(ctx, bc, opts, "configure")
	return ConfigureResult{Command: cmdStrs}, err
}

// Build requires at least one command: a custom backend with no build
// commands at all cannot satisfy its Required build capability (spec.md
// §4.4 "Custom... at least one build command").
func (c *CustomBackend) Build(ctx context.Context, bc BuildContext, opts Options) (BuildResult, error) {
	cmds := phaseCommands(opts, "build")
	if len(cmds) == 0 {
		return BuildResult{}, &ValidationError{Stage: "custom", Detail: "custom backend requires at least one build command"}
	}
	cmdStrs, err := c.runPhase(ctx, bc, opts, "build")
	return BuildResult{Command: cmdStrs}, err
}

func (c *CustomBackend) Test(ctx context.Context, bc BuildContext, opts Options) (TestResult, error) {
	cmds := phaseCommands(opts, "test")
	if len(cmds) == 0 {
		return TestResult{Skipped: 1}, nil
	}
	_, err := c.runPhase(ctx, bc, opts, "test")
	if err != nil {
		return TestResult{Failed: 1}, err
	}
	return TestResult{Passed: 1}, nil
}

func (c *CustomBackend) Install(ctx context.Context, bc BuildContext, opts Options) (InstallResult, error) {
	cmds := phaseCommands(opts, "install")
	if len(cmds) == 0 {
		return InstallResult{}, nil
	}
	cmdStrs, err := c.runPhase(ctx, bc, opts, "install")
	return InstallResult{Command: cmdStrs}, err
}

func (c *CustomBackend) Clean(ctx context.Context, bc BuildContext, opts Options) error {
	cmds := phaseCommands(opts, "clean")
	if len(cmds) == 0 {
		return os.RemoveAll(bc.BuildDir)
	}
	_, err := c.runPhase(ctx, bc, opts, "clean")
	return err
}

// DiscoverExports is unsupported: a custom backend's targets must declare
// their surface explicitly in the manifest (spec.md §4.4 "Custom... no
// discovery; ExportDiscoveryRequired targets need an explicit surface").
func (c *CustomBackend) DiscoverExports(ctx context.Context, bc BuildContext) (*DiscoveredSurface, error) {
	return nil, &ValidationError{Stage: "custom", Detail: "custom backend does not support export discovery"}
}

func (c *CustomBackend) Doctor(ctx context.Context) DoctorReport {
	return DoctorReport{BackendID: "custom", Available: true, Detail: "custom backend delegates to user-declared commands"}
}

func (c *CustomBackend) ValidateExtra(intent BuildIntent, opts Options) []error {
	var errs []error
	if len(phaseCommands(opts, "build")) == 0 {
		errs = append(errs, &ValidationError{Stage: "backend-extra", Detail: "custom backend requires at least one build command or build_program"})
	}
	return errs
}
