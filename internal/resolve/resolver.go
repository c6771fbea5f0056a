package resolve

import (
	"context"
	"sort"

	"github.com/harbour-pm/harbour/internal/ident"
	"github.com/harbour-pm/harbour/internal/source"
)

// Resolver runs the MVS-style algorithm of spec.md §4.3 over a SourceCache.
type Resolver struct {
	cache *source.Cache
	lock  *Lockfile // optional existing lockfile, nil if none
	flags Flags
}

// New constructs a Resolver. lock may be nil.
func New(cache *source.Cache, lock *Lockfile, flags Flags) *Resolver {
	return &Resolver{cache: cache, lock: lock, flags: flags}
}

type queueItem struct {
	dep      ident.Dependency
	edge     string // human-readable requester, for error messages
}

type pendingSelection struct {
	identity ident.SourceId // dep.Source with Precise cleared
	req      ident.VersionReq
	edges    []string
	chosen   ident.PackageId
	hasChosen bool
}

// Resolve walks rootDeps (the union of every workspace member's direct
// dependencies) together with the root packages named by rootIDs, so each
// root becomes a node carrying its own forward edges, and produces a Graph.
func (r *Resolver) Resolve(ctx context.Context, rootDeps []ident.Dependency, rootIDs []ident.PackageId) (*Graph, error) {
	selections := make(map[ident.Name]*pendingSelection)
	nodes := make(map[ident.NameSource]*Node)

	queue := make([]queueItem, 0, len(rootDeps)+len(rootIDs))
	for _, d := range rootDeps {
		queue = append(queue, queueItem{dep: d, edge: "<workspace root>"})
	}
	for _, id := range rootIDs {
		queue = append(queue, queueItem{dep: ident.Dependency{Name: id.Name, Source: id.Source, Req: ident.Any()}, edge: "<workspace root>"})
	}

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]
		dep := item.dep

		identity := sourceIdentity(dep.Source)
		sel, ok := selections[dep.Name]
		if !ok {
			sel = &pendingSelection{identity: identity, req: dep.Req}
			selections[dep.Name] = sel
		} else if !sourceIdentityEqual(sel.identity, identity) {
			return nil, &ConflictError{
				Name:  dep.Name,
				EdgeA: sel.edges0(), ReqA: sel.req.String(),
				EdgeB: item.edge, ReqB: dep.Req.String(),
			}
		} else {
			merged, err := sel.req.Intersect(dep.Req)
			if err != nil {
				return nil, &ConflictError{
					Name:  dep.Name,
					EdgeA: sel.edges0(), ReqA: sel.req.String(),
					EdgeB: item.edge, ReqB: dep.Req.String(),
				}
			}
			sel.req = merged
		}
		sel.edges = append(sel.edges, item.edge)

		queryDep := dep
		queryDep.Req = sel.req

		// Git and registry providers fetch from their remote on first use.
		if r.flags.Frozen && dep.Source.Kind != ident.SourcePath {
			return nil, &FrozenNetworkError{Detail: "resolving " + dep.Name.String() + " from " + dep.Source.Key()}
		}
		candSrc := r.cache.Get(queryDep.Source)
		if candSrc == nil {
			return nil, &MissingError{Name: dep.Name, Req: sel.req.String()}
		}
		summaries, err := candSrc.Query(ctx, queryDep)
		if err != nil {
			return nil, err
		}
		if len(summaries) == 0 {
			return nil, &MissingError{Name: dep.Name, Req: sel.req.String()}
		}

		chosen, err := r.pickCandidate(dep.Name, identity, summaries, sel)
		if err != nil {
			return nil, err
		}

		ns := chosen.ID.NameSource()
		sel.chosen = chosen.ID
		sel.hasChosen = true
		if _, alreadySelected := nodes[ns]; alreadySelected {
			continue
		}

		node := &Node{ID: chosen.ID}
		for _, d := range chosen.Dependencies {
			node.Dependencies = append(node.Dependencies, nameSourceToPlaceholder(d))
			queue = append(queue, queueItem{dep: d, edge: chosen.ID.String()})
		}
		sortDependencyIds(node.Dependencies)
		nodes[ns] = node
	}

	reconcileDependencyIds(nodes, selections)
	populateReverseEdges(nodes)

	if err := detectCycles(nodes); err != nil {
		return nil, err
	}

	return &Graph{Roots: rootIDs, Nodes: nodes}, nil
}

// pickCandidate applies the "reuse previous selection if still compatible,
// else newest compatible" policy (spec.md §4.3 step 3), honouring an
// existing lockfile pin unless flags.Update names this package.
func (r *Resolver) pickCandidate(name ident.Name, identity ident.SourceId, candidates []source.Summary, sel *pendingSelection) (*source.Summary, error) {
	if sel.hasChosen {
		for i := range candidates {
			if candidates[i].ID.Equal(sel.chosen) {
				return &candidates[i], nil
			}
		}
	}

	if r.lock != nil && !r.flags.shouldIgnorePin(name) {
		if pinned, ok := r.lock.find(name); ok {
			for i := range candidates {
				if candidates[i].ID.Version.Equal(pinned.Version) && sourceIdentityEqual(sourceIdentity(candidates[i].ID.Source), identity) {
					if r.flags.Locked && pinned.Version.Original() != candidates[i].ID.Version.Original() {
						return nil, &LockDriftError{Detail: name.String() + " would move from the locked version"}
					}
					return &candidates[i], nil
				}
			}
			if r.flags.Locked {
				return nil, &LockDriftError{Detail: name.String() + "'s locked version no longer satisfies the manifest"}
			}
		}
	}

	best := &candidates[0]
	for i := range candidates[1:] {
		c := &candidates[i+1]
		if c.ID.Version.GreaterThan(best.ID.Version) {
			best = c
		}
	}
	return best, nil
}

func sourceIdentity(s ident.SourceId) ident.SourceId {
	s.Precise = ""
	return s
}

func sourceIdentityEqual(a, b ident.SourceId) bool {
	return a == b
}

func (p *pendingSelection) edges0() string {
	if len(p.edges) == 0 {
		return "<unknown>"
	}
	return p.edges[0]
}

func nameSourceToPlaceholder(dep ident.Dependency) ident.PackageId {
	// Placeholder until the dependency is actually resolved: a
	// dependency's selected version is only known once it has been
	// dequeued, so Version is left nil here and filled in by
	// reconcileDependencyIds once the whole queue has drained.
	return ident.PackageId{Name: dep.Name, Source: dep.Source}
}

// reconcileDependencyIds rewrites every node's Dependencies placeholders
// (Version == nil) to the dependency's actually-selected PackageId. Every
// name reaching this point has exactly one selections entry — Resolve
// returns a ConflictError before this point for any name pulled in with
// incompatible source identities — so the lookup is unambiguous.
func reconcileDependencyIds(nodes map[ident.NameSource]*Node, selections map[ident.Name]*pendingSelection) {
	for _, n := range nodes {
		for i, dep := range n.Dependencies {
			if sel, ok := selections[dep.Name]; ok && sel.hasChosen {
				n.Dependencies[i] = sel.chosen
			}
		}
		sortDependencyIds(n.Dependencies)
	}
}

func sortDependencyIds(ids []ident.PackageId) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].Name.String() < ids[j].Name.String() })
}

func populateReverseEdges(nodes map[ident.NameSource]*Node) {
	for ns, n := range nodes {
		for _, depPlaceholder := range n.Dependencies {
			for otherNS, other := range nodes {
				if otherNS.Name == depPlaceholder.Name {
					other.Dependents = append(other.Dependents, n.ID)
					_ = ns
				}
			}
		}
	}
}

func detectCycles(nodes map[ident.NameSource]*Node) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ident.NameSource]int, len(nodes))
	var path []ident.PackageId

	var visit func(ns ident.NameSource) error
	visit = func(ns ident.NameSource) error {
		n, ok := nodes[ns]
		if !ok {
			return nil
		}
		if color[ns] == black {
			return nil
		}
		if color[ns] == gray {
			return &CycleError{Path: append(append([]ident.PackageId{}, path...), n.ID)}
		}
		color[ns] = gray
		path = append(path, n.ID)
		for _, dep := range n.Dependencies {
			if dep.Source.Kind == ident.SourceRegistry {
				continue // registry shims carry no dependency edges in this model
			}
			for otherNS := range nodes {
				if otherNS.Name == dep.Name {
					if err := visit(otherNS); err != nil {
						return err
					}
				}
			}
		}
		path = path[:len(path)-1]
		color[ns] = black
		return nil
	}

	for ns := range nodes {
		if err := visit(ns); err != nil {
			return err
		}
	}
	return nil
}
