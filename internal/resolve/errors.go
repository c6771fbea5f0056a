package resolve

import (
	"fmt"
	"strings"

	"github.com/harbour-pm/harbour/internal/ident"
)

// CycleError reports a cycle between two in-tree (path/git) packages
// (spec.md §4.3 "Cycle"). Registry deps cannot cycle since their shims
// don't carry dependency edges in this model.
type CycleError struct {
	Path []ident.PackageId
}

func (e *CycleError) Error() string {
	names := make([]string, len(e.Path))
	for i, p := range e.Path {
		names[i] = p.String()
	}
	return "dependency cycle: " + strings.Join(names, " -> ")
}

// ConflictError reports two incompatible requirements on the same name
// (spec.md §4.3 "Conflict"): either an empty version-requirement
// intersection on the same SourceId, or the same name claimed under two
// different SourceIds.
type ConflictError struct {
	Name   ident.Name
	EdgeA  string
	ReqA   string
	EdgeB  string
	ReqB   string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflicting requirements on %s: %s requires %s, %s requires %s",
		e.Name, e.EdgeA, e.ReqA, e.EdgeB, e.ReqB)
}

// MissingError reports a dependency with no satisfying candidate (spec.md
// §4.3 "Missing").
type MissingError struct {
	Name ident.Name
	Req  string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("no version of %s satisfies %s", e.Name, e.Req)
}

// LockDriftError is returned when --locked is set and resolution would
// change the lockfile.
type LockDriftError struct {
	Detail string
}

func (e *LockDriftError) Error() string {
	return "lockfile would change under --locked: " + e.Detail
}

// FrozenNetworkError is returned when --frozen is set and resolution would
// need network I/O.
type FrozenNetworkError struct {
	Detail string
}

func (e *FrozenNetworkError) Error() string {
	return "network I/O required under --frozen: " + e.Detail
}
