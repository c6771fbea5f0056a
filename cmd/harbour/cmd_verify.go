package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/verify"
)

var (
	verifyRegistry string
	verifyVersion  string
	verifyLinkage  string
	verifyFormat   string
)

var verifyCmd = &cobra.Command{
	Use:   "verify <package>",
	Short: "Run the six-step verify pipeline for one registry shim",
	Args:  cobra.ExactArgs(1),
	RunE:  runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyRegistry, "registry", "", "local registry root (required)")
	verifyCmd.Flags().StringVar(&verifyVersion, "version", "latest", "shim version, or \"latest\"")
	verifyCmd.Flags().StringVar(&verifyLinkage, "linkage", "static", "static, shared, or both")
	verifyCmd.Flags().StringVar(&verifyFormat, "message-format", "human", "human, json, or github")
	verifyCmd.MarkFlagRequired("registry")
}

func runVerify(cmd *cobra.Command, args []string) error {
	workDir, err := os.MkdirTemp("", "harbour-verify-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(workDir)

	opts := verify.Options{
		RegistryRoot: verifyRegistry,
		Name:         args[0],
		Version:      verifyVersion,
		WorkDir:      workDir,
		Linkage:      verifyLinkage,
		HostTriple:   hostTriple(),
		Detector:     newToolchainDetector(workDir),
		Logger:       logger,
	}

	res, err := verify.Run(context.Background(), opts)
	if err != nil {
		return err
	}

	switch verifyFormat {
	case "json":
		err = verify.WriteJSON(os.Stdout, res)
	case "github":
		verify.WriteGitHubActions(os.Stdout, res)
	default:
		verify.WriteHuman(os.Stdout, res)
	}
	if err != nil {
		return err
	}

	if !res.Passed {
		os.Exit(1)
	}
	return nil
}
