package surface

import "github.com/harbour-pm/harbour/internal/ident"

// Node is the minimal view of a graph package the flattener needs: its
// identity and the declared Surface of each of its targets. Callers (the
// build driver) adapt their own package representation into Node so this
// package never needs to import the resolver or the manifest model,
// avoiding an import cycle between "what a package declares" and "how
// declarations are flattened".
type Node struct {
	ID ident.PackageId
	// Targets maps target name to its declared surface. A package
	// consumed as a dependency is represented by its single linkable
	// target under LibTarget.
	Targets map[string]Surface
	// LibTarget names the target other packages link against when they
	// depend on this package (empty if the package has no linkable
	// output, e.g. it is header-only with no archive).
	LibTarget string
	// ArtifactPath is the on-disk path to the package's built library,
	// if already built; used to synthesize DepLib entries pointing at
	// deps_dir (spec.md §4.5 "synthetic entries").
	ArtifactPath string
	ArtifactKind LibKind
}

// Graph exposes the forward dependency edges the flattener walks. Edge
// order must already be dependency-depth appropriate (the resolver
// produces this order); Flatten does not re-sort dependencies relative to
// each other, only deduplicates and defers leaves to the end per package.
type Graph interface {
	Deps(id ident.PackageId) []ident.PackageId
}

// EvalContext is the (target triple, backend) pair conditional predicates
// are evaluated against.
type EvalContext struct {
	Triple  string
	OS      string
	Backend string
}

// Flatten computes the transitive compile and link surface for target in
// package root, per spec.md §4.5:
//   - compile surface = closure of compile.public of every reachable
//     dependency, plus root's own compile.private and compile.public.
//   - link surface = analogous for link, plus synthetic DepLib entries for
//     each dependency's built artifact.
//
// Dedup: include dirs and defines are deduplicated by structural equality,
// first-seen order preserved. Libraries are preserved in dependency-depth
// order (leaves last) so static archive link order is correct.
func Flatten(root ident.PackageId, target string, nodes map[ident.PackageId]Node, g Graph, ctx EvalContext) *Flat {
	f := &Flat{}

	seenInclude := make(map[string]bool)
	seenDefine := make(map[string]bool)
	seenFlag := make(map[string]bool)
	seenLibDir := make(map[string]bool)
	seenSysLib := make(map[string]bool)
	seenFramework := make(map[string]bool)
	seenLinkFlag := make(map[string]bool)
	seenDepLib := make(map[string]bool)

	addCompile := func(cs CompileSurface, prov Provenance) {
		for _, it := range cs.IncludeDirs {
			if !it.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) {
				continue
			}
			if seenInclude[it.Value] {
				continue
			}
			seenInclude[it.Value] = true
			f.IncludeDirs = append(f.IncludeDirs, FlatItem[string]{Value: it.Value, Provenance: prov})
		}
		for _, d := range cs.Defines {
			if !d.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) {
				continue
			}
			key := d.Name + "=" + d.Value
			if seenDefine[key] {
				continue
			}
			seenDefine[key] = true
			f.Defines = append(f.Defines, FlatItem[CondDefine]{Value: d, Provenance: prov})
		}
		for _, flag := range cs.ExtraFlags {
			if !flag.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) {
				continue
			}
			if seenFlag[flag.Value] {
				continue
			}
			seenFlag[flag.Value] = true
			f.CompileFlags = append(f.CompileFlags, FlatItem[string]{Value: flag.Value, Provenance: prov})
		}
		if cs.RequiresCPP != "" {
			f.RequiresCPP = maxCppStandard(f.RequiresCPP, cs.RequiresCPP)
		}
	}

	addLink := func(ls LinkSurface, prov Provenance) {
		for _, it := range ls.LibDirs {
			if !it.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) || seenLibDir[it.Value] {
				continue
			}
			seenLibDir[it.Value] = true
			f.LibDirs = append(f.LibDirs, FlatItem[string]{Value: it.Value, Provenance: prov})
		}
		for _, l := range ls.DepLibs {
			if !l.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) {
				continue
			}
			key := l.Name + "|" + l.Path
			if seenDepLib[key] {
				continue
			}
			seenDepLib[key] = true
			f.DepLibs = append(f.DepLibs, FlatItem[DepLib]{Value: l, Provenance: prov})
		}
		for _, it := range ls.SystemLibs {
			if !it.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) || seenSysLib[it.Value] {
				continue
			}
			seenSysLib[it.Value] = true
			f.SystemLibs = append(f.SystemLibs, FlatItem[string]{Value: it.Value, Provenance: prov})
		}
		for _, it := range ls.Frameworks {
			if !it.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) || seenFramework[it.Value] {
				continue
			}
			seenFramework[it.Value] = true
			f.Frameworks = append(f.Frameworks, FlatItem[string]{Value: it.Value, Provenance: prov})
		}
		for _, it := range ls.ExtraFlags {
			if !it.Predicate.Matches(ctx.Triple, ctx.OS, ctx.Backend) || seenLinkFlag[it.Value] {
				continue
			}
			seenLinkFlag[it.Value] = true
			f.LinkFlags = append(f.LinkFlags, FlatItem[string]{Value: it.Value, Provenance: prov})
		}
	}

	rootNode, ok := nodes[root]
	if !ok {
		return f
	}
	rootSurf := rootNode.Targets[target]
	addCompile(rootSurf.CompilePrivate, Provenance{Package: root, Visibility: Private, Origin: OriginManifest})
	addCompile(rootSurf.CompilePublic, Provenance{Package: root, Visibility: Public, Origin: OriginManifest})
	addLink(rootSurf.LinkPrivate, Provenance{Package: root, Visibility: Private, Origin: OriginManifest})
	addLink(rootSurf.LinkPublic, Provenance{Package: root, Visibility: Public, Origin: OriginManifest})

	// Walk the transitive dependency graph depth-first, collecting only
	// public requirements (private requirements never propagate past the
	// declaring package), and emit a synthetic DepLib for each dependency's
	// built artifact, leaves last so static link order is correct.
	var walk func(id ident.PackageId, visited map[ident.PackageId]bool)
	var order []ident.PackageId
	walk = func(id ident.PackageId, visited map[ident.PackageId]bool) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, dep := range g.Deps(id) {
			walk(dep, visited)
		}
		order = append(order, id) // post-order: leaves appended first
	}
	visited := map[ident.PackageId]bool{root: true}
	for _, dep := range g.Deps(root) {
		walk(dep, visited)
	}
	// order is leaves-first; reverse so immediate deps of root come first
	// and the deepest leaves land last on the link line.
	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}

	for _, id := range order {
		node, ok := nodes[id]
		if !ok || node.LibTarget == "" {
			continue
		}
		depSurf := node.Targets[node.LibTarget]
		prov := Provenance{Package: id, Visibility: Public, Origin: OriginManifest}
		addCompile(depSurf.CompilePublic, prov)
		addLink(depSurf.LinkPublic, prov)

		if node.ArtifactPath != "" {
			key := node.ID.Name.String() + "|" + node.ArtifactPath
			if !seenDepLib[key] {
				seenDepLib[key] = true
				f.DepLibs = append(f.DepLibs, FlatItem[DepLib]{
					Value: DepLib{
						Name: node.ID.Name.String(),
						Path: node.ArtifactPath,
						Kind: node.ArtifactKind,
					},
					Provenance: Provenance{Package: id, Visibility: Public, Origin: OriginBackendDiscovery},
				})
			}
		}
	}

	return f
}

func maxCppStandard(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if cppRank(b) > cppRank(a) {
		return b
	}
	return a
}

func cppRank(std string) int {
	switch std {
	case "98":
		return 1
	case "11":
		return 2
	case "14":
		return 3
	case "17":
		return 4
	case "20":
		return 5
	case "23":
		return 6
	default:
		return 0
	}
}
