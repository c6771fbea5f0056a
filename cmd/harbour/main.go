package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/hlog"
)

// Global flags (spec.md §6 "global flags").
var (
	verboseFlag bool
	quietFlag   bool
	colorFlag   string
	offlineFlag bool
	lockedFlag  bool
	frozenFlag  bool
	releaseFlag bool

	logger = hlog.New("info", false, false)
)

var rootCmd = &cobra.Command{
	Use:   "harbour",
	Short: "Harbour builds and resolves C/C++ packages across Native, CMake, Meson and Custom backends",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = hlog.New("info", verboseFlag, quietFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "suppress info logging")
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "accepted values: auto, always, never; output is not colorized")
	rootCmd.PersistentFlags().BoolVar(&offlineFlag, "offline", false, "never perform network I/O")
	rootCmd.PersistentFlags().BoolVar(&lockedFlag, "locked", false, "fail if the lockfile would change")
	rootCmd.PersistentFlags().BoolVar(&frozenFlag, "frozen", false, "fail on any network I/O (implies --locked)")

	rootCmd.AddCommand(
		newCmd, initCmd,
		buildCmd,
		addCmd, removeCmd, updateCmd,
		cleanCmd,
		treeCmd,
		flagsCmd, explainCmd, linkplanCmd,
		testCmd,
		toolchainCmd,
		backendCmd,
		ffiCmd,
		doctorCmd,
		verifyCmd,
		searchCmd,
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
