package verify

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// WriteHuman renders a Result as indented human-readable text (spec.md
// §4.7 "Output formatters: human").
func WriteHuman(w io.Writer, res *Result) {
	fmt.Fprintf(w, "verify %s v%s\n", res.Package, res.Version)
	for _, s := range res.Steps {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "  [%s] %-10s %-48s (%s)\n", status, s.Name, s.Message, s.Duration)
		for _, warn := range s.Warnings {
			fmt.Fprintf(w, "             warning: %s\n", warn)
		}
	}
	if res.Passed {
		fmt.Fprintln(w, "verify passed")
	} else {
		fmt.Fprintln(w, "verify failed")
	}
}

type jsonStep struct {
	Name       string   `json:"name"`
	Passed     bool     `json:"passed"`
	Message    string   `json:"message"`
	DurationMS int64    `json:"duration_ms"`
	Warnings   []string `json:"warnings,omitempty"`
}

type jsonResult struct {
	Package string     `json:"package"`
	Version string     `json:"version"`
	Passed  bool       `json:"passed"`
	Steps   []jsonStep `json:"steps"`
}

// WriteJSON renders a Result with a stable schema and durations in
// milliseconds (spec.md §4.7 "JSON (durations in ms, stable schema)").
func WriteJSON(w io.Writer, res *Result) error {
	out := jsonResult{Package: res.Package, Version: res.Version, Passed: res.Passed}
	for _, s := range res.Steps {
		out.Steps = append(out.Steps, jsonStep{
			Name:       s.Name,
			Passed:     s.Passed,
			Message:    s.Message,
			DurationMS: s.Duration.Milliseconds(),
			Warnings:   s.Warnings,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// WriteGitHubActions renders ::error/::warning annotations plus a markdown
// job-summary group (spec.md §4.7 "a GitHub-Actions flavour").
func WriteGitHubActions(w io.Writer, res *Result) {
	fmt.Fprintf(w, "::group::verify %s v%s\n", res.Package, res.Version)
	for _, s := range res.Steps {
		for _, warn := range s.Warnings {
			fmt.Fprintf(w, "::warning::%s: %s\n", s.Name, warn)
		}
		if !s.Passed {
			fmt.Fprintf(w, "::error::%s failed: %s\n", s.Name, s.Message)
		}
	}
	fmt.Fprintln(w, "::endgroup::")

	fmt.Fprintln(w, "## Verify summary")
	fmt.Fprintln(w, "| Step | Result | Duration | Message |")
	fmt.Fprintln(w, "|---|---|---|---|")
	for _, s := range res.Steps {
		status := "PASS"
		if !s.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %s |\n", s.Name, status, s.Duration, strings.ReplaceAll(s.Message, "|", "\\|"))
	}
}
