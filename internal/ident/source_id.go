package ident

import "fmt"

// SourceKind tags the variant carried by a SourceId.
type SourceKind int

const (
	SourcePath SourceKind = iota
	SourceGit
	SourceRegistry
)

func (k SourceKind) String() string {
	switch k {
	case SourcePath:
		return "path"
	case SourceGit:
		return "git"
	case SourceRegistry:
		return "registry"
	default:
		return "unknown"
	}
}

// GitRefKind selects which part of a git remote a GitRef names.
type GitRefKind int

const (
	GitDefaultBranch GitRefKind = iota
	GitBranch
	GitTag
	GitRev
)

// GitRef is the reference half of a git SourceId: a kind plus the name it
// applies to (empty for GitDefaultBranch).
type GitRef struct {
	Kind GitRefKind
	Name string // branch/tag name, or the revision SHA for GitRev
}

func (r GitRef) String() string {
	switch r.Kind {
	case GitDefaultBranch:
		return "HEAD"
	case GitBranch:
		return "branch:" + r.Name
	case GitTag:
		return "tag:" + r.Name
	case GitRev:
		return "rev:" + r.Name
	default:
		return "?"
	}
}

// SourceId identifies where a package lives. Two SourceIds are equal iff
// their Kind and content (Path, or URL+Ref+Precise, or URL) match; this
// type is used directly as a map key throughout Harbour so equality must be
// exact structural equality, not a derived "looks the same" comparison.
type SourceId struct {
	Kind SourceKind

	// Path carries the canonicalised absolute directory for SourcePath.
	Path string

	// URL carries the remote URL for SourceGit and SourceRegistry.
	URL string
	// Ref carries the reference kind for SourceGit.
	Ref GitRef
	// Precise carries the resolved commit hash for SourceGit, once known.
	// Two git SourceIds with the same URL/Ref but different Precise values
	// are distinct nodes in the resolve graph (spec.md §4.3 step 4).
	Precise string
}

// NewPathSource builds a path SourceId. path must already be canonicalised
// by the caller (ident does no filesystem I/O).
func NewPathSource(path string) SourceId {
	return SourceId{Kind: SourcePath, Path: path}
}

// NewGitSource builds a git SourceId, optionally pinned to a precise commit.
func NewGitSource(url string, ref GitRef, precise string) SourceId {
	return SourceId{Kind: SourceGit, URL: url, Ref: ref, Precise: precise}
}

// NewRegistrySource builds a registry SourceId.
func NewRegistrySource(url string) SourceId {
	return SourceId{Kind: SourceRegistry, URL: url}
}

// WithPrecise returns a copy of a git SourceId pinned to commit.
func (s SourceId) WithPrecise(commit string) SourceId {
	s.Precise = commit
	return s
}

// Key returns a string uniquely identifying s, suitable as a map key when a
// plain string is required (e.g. cache directory naming). Equal SourceIds
// always produce equal Keys and vice versa.
func (s SourceId) Key() string {
	switch s.Kind {
	case SourcePath:
		return "path+" + s.Path
	case SourceGit:
		k := "git+" + s.URL + "#" + s.Ref.String()
		if s.Precise != "" {
			k += "@" + s.Precise
		}
		return k
	case SourceRegistry:
		return "registry+" + s.URL
	default:
		return fmt.Sprintf("unknown-source-kind(%d)", s.Kind)
	}
}

func (s SourceId) String() string { return s.Key() }

// Equal reports structural equality, matching spec.md §3's "tag and content
// match" rule precisely (Precise participates in equality: a git dep is
// re-pinned to a new node when its resolved commit changes).
func (s SourceId) Equal(o SourceId) bool {
	return s == o
}
