package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update [name...]",
	Short: "Re-resolve dependencies, ignoring any pinned versions named",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := resolveWorkspace(context.Background(), "", args)
		return err
	},
}

var treeCmd = &cobra.Command{
	Use:   "tree",
	Short: "Print the resolved dependency graph",
	RunE: func(cmd *cobra.Command, args []string) error {
		wc, err := resolveWorkspace(context.Background(), "", nil)
		if err != nil {
			return err
		}
		for _, id := range wc.graph.Sorted() {
			node := wc.graph.NodeFor(id.Name, id.Source)
			fmt.Println(id.String())
			for _, dep := range node.Dependencies {
				fmt.Printf("  %s\n", dep.String())
			}
		}
		return nil
	},
}
