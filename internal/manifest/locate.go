package manifest

import (
	"os"
	"path/filepath"
)

const (
	CanonicalManifestName = "Harbour.toml"
	AliasManifestName     = "Harbor.toml"
	LockfileName          = "Harbour.lock"
)

// locateManifest finds the manifest file in dir, enforcing alias
// exclusivity (spec.md §4.1 step 1, property 9 in §8): the alias is only
// accepted when the canonical name is absent; if both exist, it's an
// AmbiguousManifest error.
func locateManifest(dir string) (string, error) {
	canonical := filepath.Join(dir, CanonicalManifestName)
	alias := filepath.Join(dir, AliasManifestName)

	_, canonErr := os.Stat(canonical)
	_, aliasErr := os.Stat(alias)

	switch {
	case canonErr == nil && aliasErr == nil:
		return "", newErr(KindAmbiguousManifest, dir, "both "+CanonicalManifestName+" and "+AliasManifestName+" exist")
	case canonErr == nil:
		return canonical, nil
	case aliasErr == nil:
		return alias, nil
	default:
		return "", newErr(KindManifestNotFound, dir, "no "+CanonicalManifestName+" or "+AliasManifestName+" found")
	}
}

// ManifestPath locates the manifest file in dir without decoding it, for
// callers (the `add`/`remove` CLI commands) that edit the raw source bytes
// directly.
func ManifestPath(dir string) (string, error) {
	return locateManifest(dir)
}

// LoadManifestFile locates and decodes the manifest in dir.
func LoadManifestFile(dir string) (*Manifest, error) {
	path, err := locateManifest(dir)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapErr(KindManifestNotFound, path, "reading manifest", err)
	}
	return Decode(data, dir)
}
