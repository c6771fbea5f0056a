package manifest

import (
	"strings"

	"github.com/harbour-pm/harbour/internal/surface"
)

func decodeSurface(raw rawSurface) surface.Surface {
	return surface.Surface{
		CompilePublic:  decodeCompileSide(raw.CompilePublic),
		CompilePrivate: decodeCompileSide(raw.CompilePrivate),
		LinkPublic:     decodeLinkSide(raw.LinkPublic),
		LinkPrivate:    decodeLinkSide(raw.LinkPrivate),
	}
}

func decodeCompileSide(raw rawSurfaceSide) surface.CompileSurface {
	cs := surface.CompileSurface{RequiresCPP: raw.RequiresCPP}
	for _, d := range raw.IncludeDirs {
		cs.IncludeDirs = append(cs.IncludeDirs, surface.CondString{Value: d})
	}
	for _, d := range raw.Defines {
		name, value, _ := strings.Cut(d, "=")
		cs.Defines = append(cs.Defines, surface.CondDefine{Name: name, Value: value})
	}
	for _, f := range raw.Flags {
		cs.ExtraFlags = append(cs.ExtraFlags, surface.CondString{Value: f})
	}
	return cs
}

func decodeLinkSide(raw rawSurfaceSide) surface.LinkSurface {
	ls := surface.LinkSurface{}
	for _, d := range raw.LibDirs {
		ls.LibDirs = append(ls.LibDirs, surface.CondString{Value: d})
	}
	for _, l := range raw.Libs {
		ls.DepLibs = append(ls.DepLibs, surface.DepLib{Name: l, Kind: surface.LibStatic})
	}
	for _, l := range raw.SystemLibs {
		ls.SystemLibs = append(ls.SystemLibs, surface.CondString{Value: l})
	}
	for _, fw := range raw.Frameworks {
		ls.Frameworks = append(ls.Frameworks, surface.CondString{Value: fw})
	}
	for _, f := range raw.Flags {
		ls.ExtraFlags = append(ls.ExtraFlags, surface.CondString{Value: f})
	}
	return ls
}
