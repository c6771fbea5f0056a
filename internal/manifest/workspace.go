package manifest

import (
	"path/filepath"
	"sort"

	"github.com/harbour-pm/harbour/internal/ident"
)

// WorkspaceMember is one package inside a workspace: its canonicalised
// directory, interned name, and loaded manifest.
type WorkspaceMember struct {
	Dir      string
	Name     ident.Name
	Manifest *Manifest
}

// Workspace is the in-memory aggregate produced from a root manifest
// (spec.md §3 "Workspace").
type Workspace struct {
	RootDir string
	Root    *Manifest
	Members []WorkspaceMember

	Profile string // active build profile, e.g. "debug" or "release"

	TargetDir string
	OutputDir string
	DepsDir   string
	CacheDir  string
	Lockfile  string
}

// MemberByName returns the member named n, or nil.
func (w *Workspace) MemberByName(n ident.Name) *WorkspaceMember {
	for i := range w.Members {
		if w.Members[i].Name == n {
			return &w.Members[i]
		}
	}
	return nil
}

// DepsDirFor returns the per-package deps output directory
// (target/<profile>/deps/<name>-<version>), matching spec.md §3.
func (w *Workspace) DepsDirFor(name, version string) string {
	return filepath.Join(w.DepsDir, name+"-"+version)
}

// Load loads the workspace rooted at dir with the given active profile
// (spec.md §4.1).
func Load(dir, profile string) (*Workspace, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, newErr(KindManifestNotFound, dir, err.Error())
	}

	root, err := LoadManifestFile(absDir)
	if err != nil {
		return nil, err
	}

	w := &Workspace{
		RootDir: absDir,
		Root:    root,
		Profile: profile,
	}

	if root.Workspace != nil {
		members, err := discoverMembers(absDir, root.Workspace)
		if err != nil {
			return nil, err
		}
		if len(members) == 0 && root.Package == nil {
			return nil, newErr(KindEmptyMembers, absDir, "workspace has no members and no [package] block")
		}

		byName := make(map[ident.Name]bool, len(members))
		for _, mem := range members {
			if byName[mem.Name] {
				return nil, newErr(KindDuplicatePackageName, mem.Dir, "duplicate package name "+mem.Name.String())
			}
			byName[mem.Name] = true
		}

		if root.Package != nil {
			if !byName[root.PackageName()] {
				return nil, newErr(KindRootPackageNotInMembers, absDir,
					"hybrid workspace root must also appear in workspace.members")
			}
		}

		w.Members = members
	} else if root.Package != nil {
		w.Members = []WorkspaceMember{{
			Dir:      absDir,
			Name:     root.PackageName(),
			Manifest: root,
		}}
	} else {
		return nil, newErr(KindEmptyMembers, absDir, "manifest has neither [package] nor [workspace]")
	}

	w.TargetDir = filepath.Join(absDir, ".harbour", "target")
	w.OutputDir = filepath.Join(w.TargetDir, profile)
	w.DepsDir = filepath.Join(w.OutputDir, "deps")
	w.CacheDir = filepath.Join(absDir, ".harbour", "cache")
	w.Lockfile = filepath.Join(absDir, LockfileName)

	return w, nil
}

// discoverMembers expands workspace.members globs, drops excluded and
// duplicate (by canonical path) entries, loads each member manifest, and
// returns them sorted by root-relative path (spec.md §4.1 step 3).
func discoverMembers(rootDir string, ws *WorkspaceSection) ([]WorkspaceMember, error) {
	dirs, err := expandMemberDirs(rootDir, ws.Members, ws.Excludes)
	if err != nil {
		return nil, err
	}

	members := make([]WorkspaceMember, 0, len(dirs))
	for _, dir := range dirs {
		mf, err := LoadManifestFile(dir)
		if err != nil {
			return nil, err
		}
		if mf.Workspace != nil {
			return nil, newErr(KindNestedWorkspace, dir, "workspace member may not itself declare [workspace]")
		}
		if mf.Package == nil {
			return nil, newErr(KindSchemaViolation, dir, "workspace member must declare [package]")
		}
		members = append(members, WorkspaceMember{
			Dir:      dir,
			Name:     mf.PackageName(),
			Manifest: mf,
		})
	}

	sort.Slice(members, func(i, j int) bool {
		reli, _ := filepath.Rel(rootDir, members[i].Dir)
		relj, _ := filepath.Rel(rootDir, members[j].Dir)
		return reli < relj
	})

	return members, nil
}
