package surface

import "fmt"

// FlagEntry is one provenance-tagged compiler or linker flag, the row
// `harbour flags` prints (spec.md §4.5 "This enables harbour flags and
// harbour linkplan to attribute each flag to its source").
type FlagEntry struct {
	Flag       string
	Provenance Provenance
}

// Flags renders a target's flattened compile surface as the ordered
// `-I`/`-D`/raw-flag arguments a compiler invocation would receive, each
// tagged with the package and mechanism that contributed it.
func Flags(f *Flat) []FlagEntry {
	var out []FlagEntry
	for _, it := range f.IncludeDirs {
		out = append(out, FlagEntry{Flag: "-I" + it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.Defines {
		flag := "-D" + it.Value.Name
		if it.Value.Value != "" {
			flag += "=" + it.Value.Value
		}
		out = append(out, FlagEntry{Flag: flag, Provenance: it.Provenance})
	}
	for _, it := range f.CompileFlags {
		out = append(out, FlagEntry{Flag: it.Value, Provenance: it.Provenance})
	}
	return out
}

// LinkEntry is one provenance-tagged link-line argument, the row
// `harbour linkplan` prints.
type LinkEntry struct {
	Flag       string
	Provenance Provenance
}

// LinkPlan renders a target's flattened link surface as the ordered
// link-line arguments a linker invocation would receive (library search
// paths, then libraries in dependency-depth order, then frameworks and
// raw flags), each tagged with its source.
func LinkPlan(f *Flat) []LinkEntry {
	var out []LinkEntry
	for _, it := range f.LibDirs {
		out = append(out, LinkEntry{Flag: "-L" + it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.DepLibs {
		out = append(out, LinkEntry{Flag: "-l" + it.Value.Name, Provenance: it.Provenance})
	}
	for _, it := range f.SystemLibs {
		out = append(out, LinkEntry{Flag: "-l" + it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.Frameworks {
		out = append(out, LinkEntry{Flag: "-framework " + it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.LinkFlags {
		out = append(out, LinkEntry{Flag: it.Value, Provenance: it.Provenance})
	}
	return out
}

// ExplainEntry is one line of `harbour explain` output: a single flattened
// requirement annotated with its kind, value, and provenance.
type ExplainEntry struct {
	Kind       string // "include-dir", "define", "lib-dir", "dep-lib", "system-lib", "framework", "compile-flag", "link-flag"
	Value      string
	Provenance Provenance
}

// Explain renders every flattened requirement for a target as a flat,
// human-readable report (spec.md §4.5 "attribute each flag to its
// source"), grouping compile surface before link surface.
func Explain(f *Flat) []ExplainEntry {
	var out []ExplainEntry
	for _, it := range f.IncludeDirs {
		out = append(out, ExplainEntry{Kind: "include-dir", Value: it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.Defines {
		v := it.Value.Name
		if it.Value.Value != "" {
			v += "=" + it.Value.Value
		}
		out = append(out, ExplainEntry{Kind: "define", Value: v, Provenance: it.Provenance})
	}
	for _, it := range f.CompileFlags {
		out = append(out, ExplainEntry{Kind: "compile-flag", Value: it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.LibDirs {
		out = append(out, ExplainEntry{Kind: "lib-dir", Value: it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.DepLibs {
		v := it.Value.Name
		if it.Value.Path != "" {
			v += " (" + it.Value.Path + ")"
		}
		out = append(out, ExplainEntry{Kind: "dep-lib", Value: v, Provenance: it.Provenance})
	}
	for _, it := range f.SystemLibs {
		out = append(out, ExplainEntry{Kind: "system-lib", Value: it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.Frameworks {
		out = append(out, ExplainEntry{Kind: "framework", Value: it.Value, Provenance: it.Provenance})
	}
	for _, it := range f.LinkFlags {
		out = append(out, ExplainEntry{Kind: "link-flag", Value: it.Value, Provenance: it.Provenance})
	}
	return out
}

// String renders one explain entry as `<kind> <value>  # from <package> (<visibility>/<origin>)`.
func (e ExplainEntry) String() string {
	return fmt.Sprintf("%-12s %-40s # from %s (%s/%s)", e.Kind, e.Value,
		e.Provenance.Package.String(), e.Provenance.Visibility.String(), e.Provenance.Origin.String())
}
