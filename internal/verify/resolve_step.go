package verify

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/harbour-pm/harbour/internal/shimfile"
)

// resolveShim loads a shim from a local registry root, resolving "latest"
// (or an empty version) to the newest semver-sorted version directory
// (spec.md §4.7 step 1).
func resolveShim(registryRoot, name, version string) (*shimfile.Shim, string, error) {
	ver := version
	if ver == "" || ver == "latest" {
		v, err := latestShimVersion(registryRoot, name)
		if err != nil {
			return nil, "", err
		}
		ver = v
	}

	path := filepath.Join(registryRoot, shimfile.ShimPath(name, ver))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("verify: reading shim %s: %w", path, err)
	}
	shim, err := shimfile.DecodeShim(data, path)
	if err != nil {
		return nil, "", err
	}
	return shim, ver, nil
}

// shimDir returns the directory a shim's own file lives in, the base for
// resolving its patch file paths.
func shimDirFor(registryRoot, name, version string) string {
	return filepath.Dir(filepath.Join(registryRoot, shimfile.ShimPath(name, version)))
}

func latestShimVersion(registryRoot, name string) (string, error) {
	letter := "_"
	if name != "" {
		letter = strings.ToLower(name[:1])
	}
	dir := filepath.Join(registryRoot, "index", letter, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("verify: listing versions for %s: %w", name, err)
	}

	var best *semver.Version
	var bestStr string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".toml") {
			continue
		}
		vs := strings.TrimSuffix(e.Name(), ".toml")
		v, err := semver.NewVersion(vs)
		if err != nil {
			continue
		}
		if best == nil || v.GreaterThan(best) {
			best = v
			bestStr = vs
		}
	}
	if best == nil {
		return "", fmt.Errorf("verify: no versions found for %s in %s", name, dir)
	}
	return bestStr, nil
}
