package shimfile

import (
	"path/filepath"
	"strings"
)

// ShimPath returns the path of a package's shim file relative to a registry
// root, following the fixed "letter/name/version" layout (spec.md §3
// "Registry layout on disk"): index/<first-letter-of-name>/<name>/<version>.toml.
// Names are lowercased for the letter bucket so that "Zlib" and "zlib" land
// in the same bucket.
func ShimPath(name, version string) string {
	letter := "_"
	if name != "" {
		letter = strings.ToLower(name[:1])
	}
	return filepath.Join("index", letter, name, version+".toml")
}

// ConfigPath returns a registry root's config.toml path.
func ConfigPath() string {
	return "config.toml"
}

// ParseShimPath recovers the (name, version) encoded in a shim path produced
// by ShimPath, validating that the embedded letter bucket matches the name.
func ParseShimPath(path string) (name, version string, ok bool) {
	clean := filepath.ToSlash(filepath.Clean(path))
	parts := strings.Split(clean, "/")
	if len(parts) != 4 || parts[0] != "index" {
		return "", "", false
	}
	letter, pkgName, file := parts[1], parts[2], parts[3]
	if !strings.HasSuffix(file, ".toml") {
		return "", "", false
	}
	if pkgName == "" || (letter != "_" && strings.ToLower(pkgName[:1]) != letter) {
		return "", "", false
	}
	return pkgName, strings.TrimSuffix(file, ".toml"), true
}
