package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/manifest"
)

var addVersionReq string

var addCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a dependency to this package's manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editManifest(args[0], func(src []byte, name string) ([]byte, error) {
			req := addVersionReq
			if req == "" {
				req = "*"
			}
			return manifest.AddDependency(src, name, req)
		})
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a dependency from this package's manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editManifest(args[0], manifest.RemoveDependency)
	},
}

func init() {
	addCmd.Flags().StringVar(&addVersionReq, "version", "", `version requirement, e.g. "^1.2" (default "*")`)
}

func editManifest(name string, edit func(src []byte, name string) ([]byte, error)) error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}
	path, err := manifest.ManifestPath(dir)
	if err != nil {
		return err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out, err := edit(src, name)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return err
	}
	fmt.Printf("updated %s\n", path)
	return nil
}
