package shimfile

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

type rawRegistryConfig struct {
	Name            string         `toml:"name"`
	RegistryVersion int            `toml:"registry_version"`
	Layout          string         `toml:"layout"`
	DefaultBranch   string         `toml:"default_branch"`
	Curated         *rawCuratedPolicy `toml:"curated"`
}

type rawCuratedPolicy struct {
	MinPlatformCount int  `toml:"min_platform_count"`
	RequireCIPass    bool `toml:"require_ci_pass"`
	RequireHarness   bool `toml:"require_harness"`
	MaxTier          int  `toml:"max_tier"`
}

// DecodeRegistryConfig parses a registry root's config.toml. Only
// registry_version == 1 and layout == "letter/name/version" are accepted
// (spec.md §3, §8 boundary behaviour: "A registry whose config declares
// registry_version > 1 is rejected").
func DecodeRegistryConfig(data []byte, path string) (*RegistryConfig, error) {
	var raw rawRegistryConfig
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, newErr(path, "invalid TOML: "+err.Error())
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, newErr(path, fmt.Sprintf("unknown field(s): %v", undecoded))
	}

	if raw.RegistryVersion != 1 {
		return nil, newErr(path, fmt.Sprintf("unsupported registry_version %d (only 1 is accepted)", raw.RegistryVersion))
	}
	if raw.Layout != "letter/name/version" {
		return nil, newErr(path, fmt.Sprintf("unsupported layout %q (only \"letter/name/version\" is accepted)", raw.Layout))
	}

	cfg := &RegistryConfig{
		Name:            raw.Name,
		RegistryVersion: raw.RegistryVersion,
		Layout:          raw.Layout,
		DefaultBranch:   raw.DefaultBranch,
	}
	if raw.Curated != nil {
		cfg.Curated = &CuratedPolicy{
			MinPlatformCount: raw.Curated.MinPlatformCount,
			RequireCIPass:    raw.Curated.RequireCIPass,
			RequireHarness:   raw.Curated.RequireHarness,
			MaxTier:          raw.Curated.MaxTier,
		}
	}
	return cfg, nil
}
