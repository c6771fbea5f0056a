package resolve

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"

	"github.com/harbour-pm/harbour/internal/ident"
)

// LockfileVersion pins the lockfile format (spec.md §6 "A top-level
// version = 1 integer pins the lockfile format").
const LockfileVersion = 1

// LockedPackage is one `[[package]]` entry.
type LockedPackage struct {
	Name         string
	Version      *semver.Version
	Source       string // "path+...", "git+<url>#<sha>", "registry+<url>"
	Checksum     string // optional, sha256 hex
	Dependencies []string // sorted "name version source" strings
}

// Lockfile is the deserialised/serialisable form of Harbour.lock.
type Lockfile struct {
	Version  int
	Packages []LockedPackage
}

// find returns the locked entry for name, if any.
func (l *Lockfile) find(name ident.Name) (*LockedPackage, bool) {
	if l == nil {
		return nil, false
	}
	for i := range l.Packages {
		if l.Packages[i].Name == name.String() {
			return &l.Packages[i], true
		}
	}
	return nil, false
}

type rawLockfile struct {
	Version  int             `toml:"version"`
	Packages []rawLockedPkg  `toml:"package"`
}

type rawLockedPkg struct {
	Name         string   `toml:"name"`
	Version      string   `toml:"version"`
	Source       string   `toml:"source"`
	Checksum     string   `toml:"checksum,omitempty"`
	Dependencies []string `toml:"dependencies"`
}

// DecodeLockfile parses Harbour.lock bytes.
func DecodeLockfile(data []byte) (*Lockfile, error) {
	var raw rawLockfile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("decoding lockfile: %w", err)
	}
	lf := &Lockfile{Version: raw.Version}
	for _, p := range raw.Packages {
		v, err := semver.NewVersion(p.Version)
		if err != nil {
			return nil, fmt.Errorf("lockfile package %s has invalid version %q: %w", p.Name, p.Version, err)
		}
		lf.Packages = append(lf.Packages, LockedPackage{
			Name: p.Name, Version: v, Source: p.Source,
			Checksum: p.Checksum, Dependencies: p.Dependencies,
		})
	}
	return lf, nil
}

// Encode renders the lockfile deterministically: packages sorted by (name,
// version, source), each package's dependency list sorted by name
// (spec.md §4.3 "Outputs", §5 "Ordering guarantees").
func (l *Lockfile) Encode() []byte {
	packages := append([]LockedPackage{}, l.Packages...)
	sort.Slice(packages, func(i, j int) bool {
		if packages[i].Name != packages[j].Name {
			return packages[i].Name < packages[j].Name
		}
		if c := packages[i].Version.Compare(packages[j].Version); c != 0 {
			return c < 0
		}
		return packages[i].Source < packages[j].Source
	})

	var b strings.Builder
	fmt.Fprintf(&b, "version = %d\n", LockfileVersion)
	for _, p := range packages {
		deps := append([]string{}, p.Dependencies...)
		sort.Strings(deps)

		b.WriteString("\n[[package]]\n")
		fmt.Fprintf(&b, "name = %q\n", p.Name)
		fmt.Fprintf(&b, "version = %q\n", p.Version.Original())
		fmt.Fprintf(&b, "source = %q\n", p.Source)
		if p.Checksum != "" {
			fmt.Fprintf(&b, "checksum = %q\n", p.Checksum)
		}
		b.WriteString("dependencies = [")
		for i, d := range deps {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%q", d)
		}
		b.WriteString("]\n")
	}
	return []byte(b.String())
}

// FromGraph builds a Lockfile from a resolved Graph.
func FromGraph(g *Graph) *Lockfile {
	lf := &Lockfile{Version: LockfileVersion}
	byName := make(map[string]*Node, len(g.Nodes))
	for _, n := range g.Nodes {
		byName[n.ID.Name.String()] = n
	}

	for _, n := range g.Nodes {
		depStrs := make([]string, 0, len(n.Dependencies))
		for _, d := range n.Dependencies {
			if full, ok := byName[d.Name.String()]; ok {
				depStrs = append(depStrs, full.ID.Name.String()+" "+full.ID.Version.Original()+" "+full.ID.Source.Key())
			}
		}
		sort.Strings(depStrs)
		lf.Packages = append(lf.Packages, LockedPackage{
			Name:         n.ID.Name.String(),
			Version:      n.ID.Version,
			Source:       n.ID.Source.Key(),
			Dependencies: depStrs,
		})
	}
	return lf
}

// WriteAtomic writes the lockfile to path, writing to a temp file first and
// renaming over the destination (spec.md §5 "lockfile writes are atomic").
func WriteAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing temp lockfile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("renaming lockfile into place: %w", err)
	}
	return nil
}
