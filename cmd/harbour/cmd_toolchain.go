package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/hconfig"
)

var toolchainCmd = &cobra.Command{
	Use:   "toolchain",
	Short: "Inspect or override toolchain detection",
}

var toolchainShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective toolchain override for this project",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		ov, err := hconfig.Load(dir)
		if err != nil {
			return err
		}
		fmt.Printf("cc       = %q\n", ov.CC)
		fmt.Printf("cxx      = %q\n", ov.CXX)
		fmt.Printf("ar       = %q\n", ov.AR)
		fmt.Printf("target   = %q\n", ov.Target)
		fmt.Printf("cflags   = %v\n", ov.CFlags)
		fmt.Printf("cxxflags = %v\n", ov.CXXFlags)
		fmt.Printf("ldflags  = %v\n", ov.LDFlags)
		return nil
	},
}

var toolchainOverrideCmd = &cobra.Command{
	Use:   "override",
	Short: "Print the path of the per-project toolchain override file to edit",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := os.Getwd()
		if err != nil {
			return err
		}
		fmt.Println(dir + "/.harbour/toolchain.toml")
		return nil
	},
}

func init() {
	toolchainCmd.AddCommand(toolchainShowCmd, toolchainOverrideCmd)
}
