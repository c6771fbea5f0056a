package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/backend"
)

var backendCmd = &cobra.Command{
	Use:   "backend",
	Short: "Inspect the backends Harbour can build with",
}

var backendListCmd = &cobra.Command{
	Use:   "list",
	Short: "List every registered backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := backend.NewDefault(newToolchainDetector("."))
		for _, be := range reg.List() {
			fmt.Println(be.ID())
		}
		return nil
	},
}

var backendShowCmd = &cobra.Command{
	Use:   "show <backend>",
	Short: "Print one backend's declared capabilities",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := backend.NewDefault(newToolchainDetector("."))
		be := reg.Get(args[0])
		if be == nil {
			return fmt.Errorf("no such backend: %s", args[0])
		}
		cap := be.Capabilities()
		fmt.Printf("backend        = %s\n", be.ID())
		fmt.Printf("configure      = %v\n", cap.Configure)
		fmt.Printf("build          = %v\n", cap.Build)
		fmt.Printf("install        = %v\n", cap.Install)
		fmt.Printf("static+shared in one invocation = %v\n", cap.BothStaticAndSharedInOneInvocation)
		fmt.Printf("injection methods = %v\n", cap.InjectionMethods)
		return nil
	},
}

var backendCheckCmd = &cobra.Command{
	Use:   "check <backend>",
	Short: "Check whether one backend's toolchain is available",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := backend.NewDefault(newToolchainDetector("."))
		be := reg.Get(args[0])
		if be == nil {
			return fmt.Errorf("no such backend: %s", args[0])
		}
		av := be.Availability(context.Background())
		switch av.Kind {
		case backend.NotInstalled:
			fmt.Printf("%s: not installed (%s) — %s\n", be.ID(), av.Tool, av.InstallHint)
		case backend.VersionTooOld:
			fmt.Printf("%s: version %s too old, requires %s\n", be.ID(), av.Version, av.Required)
		default:
			fmt.Printf("%s: available (%s)\n", be.ID(), av.Version)
		}
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check every registered backend's toolchain availability",
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := backend.NewDefault(newToolchainDetector("."))
		ok := true
		for _, be := range reg.List() {
			report := be.Doctor(context.Background())
			fmt.Printf("%-10s available=%v %s\n", report.BackendID, report.Available, report.Detail)
			for _, warn := range report.Warnings {
				fmt.Printf("  - %s\n", warn)
			}
			if !report.Available {
				ok = false
			}
		}
		if !ok {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	backendCmd.AddCommand(backendListCmd, backendShowCmd, backendCheckCmd)
}
