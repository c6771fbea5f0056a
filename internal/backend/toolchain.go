package backend

import (
	"fmt"
	"strings"
)

// ToolchainPlatform is the compiler family a Toolchain implements.
type ToolchainPlatform int

const (
	ToolchainGCC ToolchainPlatform = iota
	ToolchainClang
	ToolchainAppleClang
	ToolchainMSVC
)

func (p ToolchainPlatform) String() string {
	switch p {
	case ToolchainGCC:
		return "gcc"
	case ToolchainClang:
		return "clang"
	case ToolchainAppleClang:
		return "apple-clang"
	case ToolchainMSVC:
		return "msvc"
	default:
		return "unknown"
	}
}

// maxCppStandard and the sanitizer set a compiler family supports are
// derived, not user-configurable (spec.md §4.4 "Toolchain validator").
func (p ToolchainPlatform) maxCppStandard() int {
	switch p {
	case ToolchainMSVC:
		return 20
	default:
		return 23
	}
}

func (p ToolchainPlatform) supportedSanitizers() []string {
	switch p {
	case ToolchainMSVC:
		return []string{"address"}
	default:
		return []string{"address", "undefined", "thread", "leak"}
	}
}

// CommandSpec is a program plus arguments plus environment, the
// backend-agnostic shape every toolchain command and custom-backend phase
// command is expressed in (spec.md §4.4 "Native").
type CommandSpec struct {
	Program string
	Args    []string
	Env     []string // "KEY=VALUE" entries
}

// CompileInput is the typed input to a compile step.
type CompileInput struct {
	Source      string
	Output      string
	IncludeDirs []string
	Defines     []Define
	CFlags      []string
	CxxStandard string // empty means unspecified
}

// Define is a preprocessor define, optionally with a value.
type Define struct {
	Name  string
	Value string // empty means no value (bare define)
}

// ArchiveInput is the typed input to a static-archive step.
type ArchiveInput struct {
	Objects []string
	Output  string
}

// LinkInput is the typed input to a link step (shared library or
// executable).
type LinkInput struct {
	Objects []string
	Output  string
	LibDirs []string
	Libs    []string
	LDFlags []string
}

// Toolchain generates concrete command lines for one compiler family
// (spec.md §4.4 "Native... through a Toolchain trait with variants
// {GCC-style, Clang, AppleClang, MSVC}").
type Toolchain interface {
	Platform() ToolchainPlatform
	CompileCommand(in CompileInput) CommandSpec
	ArchiveCommand(in ArchiveInput) CommandSpec
	LinkSharedCommand(in LinkInput) CommandSpec
	LinkExeCommand(in LinkInput) CommandSpec

	ObjectExtension() string
	StaticLibExtension() string
	SharedLibExtension() string
	ExeExtension() string
	StaticLibPrefix() string
	SharedLibPrefix() string
}

// GccToolchain drives gcc/clang/apple-clang, whose command-line shape is
// identical across the three families.
type GccToolchain struct {
	CC     string
	AR     string
	Family ToolchainPlatform
	macOS  bool
}

// NewGccToolchain constructs a GCC-style toolchain. macOS controls the
// shared-library extension (.dylib vs .so).
func NewGccToolchain(cc, ar string, family ToolchainPlatform, macOS bool) *GccToolchain {
	return &GccToolchain{CC: cc, AR: ar, Family: family, macOS: macOS}
}

func (g *GccToolchain) Platform() ToolchainPlatform { return g.Family }

func (g *GccToolchain) CompileCommand(in CompileInput) CommandSpec {
	args := []string{"-c"}
	for _, d := range in.IncludeDirs {
		args = append(args, "-I"+d)
	}
	for _, d := range in.Defines {
		if d.Value != "" {
			args = append(args, fmt.Sprintf("-D%s=%s", d.Name, d.Value))
		} else {
			args = append(args, "-D"+d.Name)
		}
	}
	if in.CxxStandard != "" {
		args = append(args, "-std=c++"+in.CxxStandard)
	}
	args = append(args, in.CFlags...)
	args = append(args, in.Source, "-o", in.Output)
	return CommandSpec{Program: g.CC, Args: args}
}

func (g *GccToolchain) ArchiveCommand(in ArchiveInput) CommandSpec {
	args := append([]string{"rcs", in.Output}, in.Objects...)
	return CommandSpec{Program: g.AR, Args: args}
}

func (g *GccToolchain) LinkSharedCommand(in LinkInput) CommandSpec {
	args := []string{"-shared", "-o", in.Output}
	args = append(args, in.Objects...)
	for _, d := range in.LibDirs {
		args = append(args, "-L"+d)
	}
	for _, l := range in.Libs {
		args = append(args, "-l"+l)
	}
	args = append(args, in.LDFlags...)
	return CommandSpec{Program: g.CC, Args: args}
}

func (g *GccToolchain) LinkExeCommand(in LinkInput) CommandSpec {
	args := []string{"-o", in.Output}
	args = append(args, in.Objects...)
	for _, d := range in.LibDirs {
		args = append(args, "-L"+d)
	}
	for _, l := range in.Libs {
		args = append(args, "-l"+l)
	}
	args = append(args, in.LDFlags...)
	return CommandSpec{Program: g.CC, Args: args}
}

func (g *GccToolchain) ObjectExtension() string { return "o" }
func (g *GccToolchain) StaticLibExtension() string { return "a" }
func (g *GccToolchain) SharedLibExtension() string {
	if g.macOS {
		return "dylib"
	}
	return "so"
}
func (g *GccToolchain) ExeExtension() string      { return "" }
func (g *GccToolchain) StaticLibPrefix() string   { return "lib" }
func (g *GccToolchain) SharedLibPrefix() string   { return "lib" }

// MsvcToolchain drives cl.exe/lib.exe/link.exe.
type MsvcToolchain struct {
	CL   string
	LIB  string
	LINK string
}

func NewMsvcToolchain(cl, lib, link string) *MsvcToolchain {
	return &MsvcToolchain{CL: cl, LIB: lib, LINK: link}
}

func (m *MsvcToolchain) Platform() ToolchainPlatform { return ToolchainMSVC }

func (m *MsvcToolchain) CompileCommand(in CompileInput) CommandSpec {
	args := []string{"/c"}
	for _, d := range in.IncludeDirs {
		args = append(args, "/I"+d)
	}
	for _, d := range in.Defines {
		if d.Value != "" {
			args = append(args, fmt.Sprintf("/D%s=%s", d.Name, d.Value))
		} else {
			args = append(args, "/D"+d.Name)
		}
	}
	if in.CxxStandard != "" {
		args = append(args, "/std:c++"+in.CxxStandard)
	}
	args = append(args, in.CFlags...)
	args = append(args, in.Source, "/Fo"+in.Output)
	return CommandSpec{Program: m.CL, Args: args}
}

func (m *MsvcToolchain) ArchiveCommand(in ArchiveInput) CommandSpec {
	args := append([]string{"/OUT:" + in.Output}, in.Objects...)
	return CommandSpec{Program: m.LIB, Args: args}
}

func (m *MsvcToolchain) LinkSharedCommand(in LinkInput) CommandSpec {
	args := []string{"/DLL", "/OUT:" + in.Output}
	args = append(args, in.Objects...)
	for _, d := range in.LibDirs {
		args = append(args, "/LIBPATH:"+d)
	}
	for _, l := range in.Libs {
		args = append(args, l+".lib")
	}
	args = append(args, in.LDFlags...)
	return CommandSpec{Program: m.LINK, Args: args}
}

func (m *MsvcToolchain) LinkExeCommand(in LinkInput) CommandSpec {
	args := []string{"/OUT:" + in.Output}
	args = append(args, in.Objects...)
	for _, d := range in.LibDirs {
		args = append(args, "/LIBPATH:"+d)
	}
	for _, l := range in.Libs {
		args = append(args, l+".lib")
	}
	args = append(args, in.LDFlags...)
	return CommandSpec{Program: m.LINK, Args: args}
}

func (m *MsvcToolchain) ObjectExtension() string    { return "obj" }
func (m *MsvcToolchain) StaticLibExtension() string { return "lib" }
func (m *MsvcToolchain) SharedLibExtension() string { return "dll" }
func (m *MsvcToolchain) ExeExtension() string       { return "exe" }
func (m *MsvcToolchain) StaticLibPrefix() string    { return "" }
func (m *MsvcToolchain) SharedLibPrefix() string    { return "" }

// ToolchainDetector locates and names the host compiler, consulting
// hconfig overrides first (spec.md §4.4 "Availability... may run an
// external command once and cache the result").
type ToolchainDetector interface {
	Detect() (Toolchain, error)
}

// EnvToolchainDetector picks a toolchain from explicit CC/AR (or
// CL/LIB/LINK on Windows) paths, falling back to PATH lookup names. It
// caches its result after the first call.
type EnvToolchainDetector struct {
	CC, AR     string
	CL, LIB, LINK string
	IsWindows  bool
	IsMacOS    bool

	cached    Toolchain
	cachedErr error
	done      bool
}

func (d *EnvToolchainDetector) Detect() (Toolchain, error) {
	if d.done {
		return d.cached, d.cachedErr
	}
	d.done = true

	if d.IsWindows && (d.CL != "" || d.LIB != "" || d.LINK != "") {
		d.cached = NewMsvcToolchain(firstNonEmpty(d.CL, "cl.exe"), firstNonEmpty(d.LIB, "lib.exe"), firstNonEmpty(d.LINK, "link.exe"))
		return d.cached, nil
	}

	cc := firstNonEmpty(d.CC, "cc")
	ar := firstNonEmpty(d.AR, "ar")
	family := ToolchainGCC
	if strings.Contains(cc, "clang") {
		if d.IsMacOS {
			family = ToolchainAppleClang
		} else {
			family = ToolchainClang
		}
	}
	d.cached = NewGccToolchain(cc, ar, family, d.IsMacOS)
	return d.cached, nil
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
