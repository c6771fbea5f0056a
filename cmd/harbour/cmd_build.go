package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/builddriver"
)

var (
	buildTargets      []string
	buildPackages     []string
	buildJobs         int
	buildPlan         bool
	buildBackend      string
	buildLinkage      string
	buildFFI          bool
	buildTargetTriple string
	buildMessageFmt   string
	buildNoCC         bool
	buildStd          string
)

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Resolve dependencies and build this workspace's targets",
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&releaseFlag, "release", false, "build with the release profile")
	buildCmd.Flags().StringArrayVar(&buildTargets, "target", nil, "restrict the build to these target names")
	buildCmd.Flags().StringArrayVar(&buildPackages, "package", nil, "workspace member names; not consulted, every member is built")
	buildCmd.Flags().IntVar(&buildJobs, "jobs", 0, "parallel job count (0 = backend default)")
	buildCmd.Flags().BoolVar(&buildPlan, "plan", false, "print the build plan without building")
	buildCmd.Flags().StringVar(&buildBackend, "backend", "", "force a backend: native, cmake, meson, custom")
	buildCmd.Flags().StringVar(&buildLinkage, "linkage", "auto", "linkage preference: static, shared, auto")
	buildCmd.Flags().BoolVar(&buildFFI, "ffi", false, "validate for FFI use (the backend must support shared linking); runtime dependencies are not bundled")
	buildCmd.Flags().StringVar(&buildTargetTriple, "target-triple", "", "cross-compilation target triple")
	buildCmd.Flags().StringVar(&buildMessageFmt, "message-format", "human", "output format: human, json")
	buildCmd.Flags().BoolVar(&buildNoCC, "no-compile-commands", false, "skip emitting compile_commands.json")
	buildCmd.Flags().StringVar(&buildStd, "std", "", "C++ standard override, e.g. 17, 20")
}

func parseLinkage(s string) backend.Linkage {
	switch s {
	case "static":
		return backend.LinkStatic
	case "shared":
		return backend.LinkShared
	default:
		return backend.LinkAuto
	}
}

func buildIntentFromFlags() backend.BuildIntent {
	return backend.BuildIntent{
		Linkage:       parseLinkage(buildLinkage),
		Profile:       globalProfile(),
		FFI:           buildFFI,
		TargetTriple:  buildTargetTriple,
		ForcedBackend: buildBackend,
		CxxStandard:   buildStd,
		TargetFilter:  buildTargets,
		Parallelism:   buildJobs,
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	wc, err := resolveWorkspace(ctx, "", nil)
	if err != nil {
		return err
	}

	intent := buildIntentFromFlags()
	if buildPlan {
		for _, id := range wc.graph.Sorted() {
			fmt.Println(id.String())
		}
		return nil
	}

	driver := newDriver(wc)
	result, err := driver.Build(ctx, intent, backend.Options{})
	if err != nil {
		return err
	}

	if !buildNoCC && len(result.CompileCommands) > 0 {
		data, err := builddriver.MarshalCompileCommands(result.CompileCommands)
		if err != nil {
			logger.Warn("failed to marshal compile_commands.json", "error", err)
		} else if err := os.WriteFile(filepath.Join(wc.ws.RootDir, "compile_commands.json"), data, 0o644); err != nil {
			logger.Warn("failed to write compile_commands.json", "error", err)
		}
	}

	if buildMessageFmt == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result.Artifacts)
	}

	for _, a := range result.Artifacts {
		fmt.Printf("%-10s %s -> %s\n", artifactKindString(a.Kind), a.Target, a.Path)
	}
	return nil
}

func artifactKindString(k builddriver.ArtifactKind) string {
	switch k {
	case builddriver.ArtifactExecutable:
		return "exe"
	case builddriver.ArtifactStaticLib:
		return "staticlib"
	case builddriver.ArtifactSharedLib:
		return "sharedlib"
	default:
		return "unknown"
	}
}
