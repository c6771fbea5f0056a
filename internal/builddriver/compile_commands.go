package builddriver

import (
	"encoding/json"
	"path/filepath"
	"sort"

	"github.com/harbour-pm/harbour/internal/surface"
)

// compileCommandsFor synthesizes one compile_commands.json entry per
// source file of a root target, from its already-flattened surface
// (spec.md §4.6 step 4: "optionally emit compile_commands.json from the
// accumulated compile commands").
func compileCommandsFor(pb *packageBuild, targetName string, flat *surface.Flat) []CompileCommand {
	t, ok := pb.m.Targets[targetName]
	if !ok {
		return nil
	}

	var includeArgs []string
	for _, it := range flat.IncludeDirs {
		includeArgs = append(includeArgs, "-I"+it.Value)
	}
	var defineArgs []string
	for _, it := range flat.Defines {
		if it.Value.Value != "" {
			defineArgs = append(defineArgs, "-D"+it.Value.Name+"="+it.Value.Value)
		} else {
			defineArgs = append(defineArgs, "-D"+it.Value.Name)
		}
	}

	out := make([]CompileCommand, 0, len(t.Sources))
	for _, src := range t.Sources {
		abs := src
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(pb.root, src)
		}
		args := append([]string{"cc", "-c"}, includeArgs...)
		args = append(args, defineArgs...)
		args = append(args, abs)
		out = append(out, CompileCommand{Directory: pb.root, File: abs, Arguments: args})
	}
	return out
}

// MarshalCompileCommands renders a sorted compile_commands.json body
// (stable across runs as required by spec.md §8's determinism property).
func MarshalCompileCommands(cmds []CompileCommand) ([]byte, error) {
	sorted := make([]CompileCommand, len(cmds))
	copy(sorted, cmds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].File < sorted[j].File })

	type entry struct {
		Directory string   `json:"directory"`
		File      string   `json:"file"`
		Arguments []string `json:"arguments"`
	}
	entries := make([]entry, 0, len(sorted))
	for _, c := range sorted {
		entries = append(entries, entry{Directory: c.Directory, File: c.File, Arguments: c.Arguments})
	}
	return json.MarshalIndent(entries, "", "  ")
}
