package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/surface"
)

var reportTarget string

// buildForReport runs a full build so the root targets' flattened,
// provenance-tagged surfaces are available to report on (spec.md §4.5:
// "This enables harbour flags and harbour linkplan to attribute each flag
// to its source").
func buildForReport() (*surface.Flat, error) {
	ctx := context.Background()
	wc, err := resolveWorkspace(ctx, "", nil)
	if err != nil {
		return nil, err
	}
	driver := newDriver(wc)
	result, err := driver.Build(ctx, buildIntentFromFlags(), backend.Options{})
	if err != nil {
		return nil, err
	}
	if reportTarget != "" {
		flat, ok := result.Flats[reportTarget]
		if !ok {
			return nil, fmt.Errorf("no such target: %s", reportTarget)
		}
		return flat, nil
	}
	for _, flat := range result.Flats {
		return flat, nil
	}
	return nil, fmt.Errorf("workspace has no root targets to report on")
}

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Print a target's flattened compiler flags with provenance",
	RunE: func(cmd *cobra.Command, args []string) error {
		flat, err := buildForReport()
		if err != nil {
			return err
		}
		for _, e := range surface.Flags(flat) {
			fmt.Printf("%-24s # from %s\n", e.Flag, e.Provenance.Package.String())
		}
		return nil
	},
}

var linkplanCmd = &cobra.Command{
	Use:   "linkplan",
	Short: "Print a target's flattened link-line arguments with provenance",
	RunE: func(cmd *cobra.Command, args []string) error {
		flat, err := buildForReport()
		if err != nil {
			return err
		}
		for _, e := range surface.LinkPlan(flat) {
			fmt.Printf("%-24s # from %s\n", e.Flag, e.Provenance.Package.String())
		}
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Print every flattened requirement for a target, tagged with its origin",
	RunE: func(cmd *cobra.Command, args []string) error {
		flat, err := buildForReport()
		if err != nil {
			return err
		}
		for _, e := range surface.Explain(flat) {
			fmt.Println(e.String())
		}
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{flagsCmd, linkplanCmd, explainCmd} {
		c.Flags().StringVar(&reportTarget, "target", "", "target name (default: the workspace's sole root target)")
	}
}
