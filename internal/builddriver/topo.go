package builddriver

import "github.com/harbour-pm/harbour/internal/ident"

// topoOrder returns every node in the graph ordered leaves-first
// (spec.md §4.6 step 2: "Topologically order the graph; for each package
// from leaves to roots"). Cycles cannot occur here since resolve.Resolve
// already rejects them.
func topoOrder(g graphLike) []ident.PackageId {
	var order []ident.PackageId
	visited := make(map[string]bool)

	var visit func(id ident.PackageId)
	visit = func(id ident.PackageId) {
		key := id.String()
		if visited[key] {
			return
		}
		visited[key] = true
		for _, dep := range g.depsOf(id) {
			visit(dep)
		}
		order = append(order, id)
	}

	for _, root := range g.roots() {
		visit(root)
	}
	return order
}

// graphLike is the minimal view topoOrder needs, implemented by an
// adapter over resolve.Graph so this file stays unit-testable without a
// real resolver run.
type graphLike interface {
	roots() []ident.PackageId
	depsOf(id ident.PackageId) []ident.PackageId
}
