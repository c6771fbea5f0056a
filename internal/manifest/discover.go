package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// expandMemberDirs expands each member glob under rootDir, keeps directory
// entries, drops anything matching an exclude pattern (matched against the
// root-relative path), and canonicalises + deduplicates the survivors
// (spec.md §4.1 step 3).
func expandMemberDirs(rootDir string, memberPatterns, excludePatterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string

	for _, pattern := range memberPatterns {
		full := filepath.Join(rootDir, pattern)
		matches, err := doublestar.FilepathGlob(full)
		if err != nil {
			return nil, newErr(KindSchemaViolation, rootDir, "workspace.members: bad glob "+pattern+": "+err.Error())
		}
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.IsDir() {
				continue
			}

			rel, err := filepath.Rel(rootDir, m)
			if err != nil {
				continue
			}
			if matchesAny(rel, excludePatterns) {
				continue
			}

			canon, err := filepath.EvalSymlinks(m)
			if err != nil {
				canon = m
			}
			canon, _ = filepath.Abs(canon)
			if seen[canon] {
				continue
			}
			seen[canon] = true
			out = append(out, canon)
		}
	}

	return out, nil
}

func matchesAny(rel string, patterns []string) bool {
	for _, p := range patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// FindWorkspaceRoot walks up from dir looking for a manifest. If the
// nearest manifest declares a workspace, it checks whether dir lies inside
// one of that workspace's members; it returns the manifest directory found
// and whether dir is a recognised member of it (spec.md §4.1 "Walking up
// from an arbitrary directory").
func FindWorkspaceRoot(dir string) (root string, insideMember bool, err error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", false, err
	}

	for current := abs; ; {
		if _, statErr := locateManifest(current); statErr == nil {
			mf, err := LoadManifestFile(current)
			if err != nil {
				return "", false, err
			}
			if mf.Workspace == nil {
				return current, true, nil
			}
			dirs, err := expandMemberDirs(current, mf.Workspace.Members, mf.Workspace.Excludes)
			if err != nil {
				return "", false, err
			}
			for _, d := range dirs {
				if d == abs || strings.HasPrefix(abs, d+string(filepath.Separator)) {
					return current, true, nil
				}
			}
			return current, false, nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return "", false, newErr(KindManifestNotFound, dir, "no manifest found in any ancestor directory")
}
