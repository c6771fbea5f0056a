// Package resolve implements the Minimum-Version-Selection-style dependency
// resolver (spec.md §4.3): it walks a workspace's direct dependencies
// through a source.Cache, selects exactly one version per (name, SourceId),
// and produces a Resolve graph plus a deterministic lockfile.
package resolve

import (
	"github.com/harbour-pm/harbour/internal/ident"
)

// Node is one selected package in the resolve graph.
type Node struct {
	ID           ident.PackageId
	Dependencies []ident.PackageId // forward edges, sorted by name
	Dependents   []ident.PackageId // reverse edges, populated after selection
	Features     []string
}

// Graph is the resolver's output: a DAG of PackageId with forward and
// reverse edges and one-or-several roots (spec.md §3 "Resolve graph").
type Graph struct {
	Roots []ident.PackageId
	Nodes map[ident.NameSource]*Node
}

// NodeFor returns the selected node for (name, source), or nil if none was
// selected.
func (g *Graph) NodeFor(name ident.Name, src ident.SourceId) *Node {
	return g.Nodes[ident.NameSource{Name: name, Source: src}]
}

// Sorted returns every node's PackageId sorted by (name, version,
// source-key), the order spec.md §4.3/§5 requires for lockfile output and
// `harbour tree`.
func (g *Graph) Sorted() []ident.PackageId {
	out := make([]ident.PackageId, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n.ID)
	}
	sortPackageIds(out)
	return out
}

func sortPackageIds(ids []ident.PackageId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j].Less(ids[j-1]); j-- {
			ids[j], ids[j-1] = ids[j-1], ids[j]
		}
	}
}

// Flags controls resolution behaviour (spec.md §4.3 "Lock behaviour").
type Flags struct {
	Locked  bool     // fail if the lockfile would change
	Frozen  bool     // fail on any network I/O in addition to Locked
	Update  []string // names to re-resolve ignoring their pinned version
	Offline bool
}

// shouldIgnorePin reports whether name was named in an `update <names>`
// flag.
func (f Flags) shouldIgnorePin(name ident.Name) bool {
	for _, n := range f.Update {
		if n == name.String() {
			return true
		}
	}
	return false
}
