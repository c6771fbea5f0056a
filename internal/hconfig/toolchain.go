// Package hconfig loads the toolchain override file described in spec.md
// §6, layering env vars, a per-project override file, and a global override
// file the way the teacher's internal/config layers Config: one field at a
// time, earliest hit wins.
package hconfig

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Override is the deserialised [toolchain] table from a toolchain override
// file, or values supplied via environment variables.
type Override struct {
	CC      string
	CXX     string
	AR      string
	Target  string
	CFlags  []string
	CXXFlags []string
	LDFlags []string
}

type rawOverrideFile struct {
	Toolchain rawOverride `toml:"toolchain"`
}

type rawOverride struct {
	CC       string   `toml:"cc"`
	CXX      string   `toml:"cxx"`
	AR       string   `toml:"ar"`
	Target   string   `toml:"target"`
	CFlags   []string `toml:"cflags"`
	CXXFlags []string `toml:"cxxflags"`
	LDFlags  []string `toml:"ldflags"`
}

// Load computes the effective toolchain override for a project rooted at
// projectDir. Per spec.md §9 ("Global state ... Layering is env-var →
// per-project override file → global override file → autodetect; the
// earliest hit wins"), each field is resolved independently in that order;
// a field left unset by all three layers stays empty, signalling the
// caller to fall back to autodetection.
func Load(projectDir string) (Override, error) {
	var result Override

	envFile := readOverrideFile(filepath.Join(projectDir, ".harbour", "toolchain.toml"))
	var globalFile *rawOverride
	if home, err := os.UserHomeDir(); err == nil {
		globalFile = readOverrideFile(filepath.Join(home, ".harbour", "toolchain.toml"))
	}

	result.CC = firstNonEmpty(os.Getenv("CC"), fieldOf(envFile, func(o *rawOverride) string { return o.CC }), fieldOf(globalFile, func(o *rawOverride) string { return o.CC }))
	result.CXX = firstNonEmpty(os.Getenv("CXX"), fieldOf(envFile, func(o *rawOverride) string { return o.CXX }), fieldOf(globalFile, func(o *rawOverride) string { return o.CXX }))
	result.AR = firstNonEmpty(os.Getenv("AR"), fieldOf(envFile, func(o *rawOverride) string { return o.AR }), fieldOf(globalFile, func(o *rawOverride) string { return o.AR }))

	result.Target = firstNonEmpty(fieldOf(envFile, func(o *rawOverride) string { return o.Target }), fieldOf(globalFile, func(o *rawOverride) string { return o.Target }))

	result.CFlags = firstNonEmptySlice(splitEnv(os.Getenv("CFLAGS")), sliceOf(envFile, func(o *rawOverride) []string { return o.CFlags }), sliceOf(globalFile, func(o *rawOverride) []string { return o.CFlags }))
	result.CXXFlags = firstNonEmptySlice(splitEnv(os.Getenv("CXXFLAGS")), sliceOf(envFile, func(o *rawOverride) []string { return o.CXXFlags }), sliceOf(globalFile, func(o *rawOverride) []string { return o.CXXFlags }))
	result.LDFlags = firstNonEmptySlice(splitEnv(os.Getenv("LDFLAGS")), sliceOf(envFile, func(o *rawOverride) []string { return o.LDFlags }), sliceOf(globalFile, func(o *rawOverride) []string { return o.LDFlags }))

	return result, nil
}

func readOverrideFile(path string) *rawOverride {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var f rawOverrideFile
	if _, err := toml.Decode(string(data), &f); err != nil {
		return nil
	}
	return &f.Toolchain
}

func fieldOf(o *rawOverride, get func(*rawOverride) string) string {
	if o == nil {
		return ""
	}
	return get(o)
}

func sliceOf(o *rawOverride, get func(*rawOverride) []string) []string {
	if o == nil {
		return nil
	}
	return get(o)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonEmptySlice(vals ...[]string) []string {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func splitEnv(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}
