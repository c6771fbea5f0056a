package manifest

import "fmt"

// ErrorKind enumerates the manifest/workspace error taxonomy from spec.md
// §7. Callers match on Kind rather than on error string content.
type ErrorKind int

const (
	KindAmbiguousManifest ErrorKind = iota
	KindManifestNotFound
	KindParseError
	KindSchemaViolation
	KindNestedWorkspace
	KindEmptyMembers
	KindDuplicatePackageName
	KindRootPackageNotInMembers
)

func (k ErrorKind) String() string {
	switch k {
	case KindAmbiguousManifest:
		return "AmbiguousManifest"
	case KindManifestNotFound:
		return "ManifestNotFound"
	case KindParseError:
		return "ParseError"
	case KindSchemaViolation:
		return "SchemaViolation"
	case KindNestedWorkspace:
		return "NestedWorkspace"
	case KindEmptyMembers:
		return "EmptyMembers"
	case KindDuplicatePackageName:
		return "DuplicatePackageName"
	case KindRootPackageNotInMembers:
		return "RootPackageNotInMembers"
	default:
		return "Unknown"
	}
}

// Error is the typed error manifest/workspace loading returns.
type Error struct {
	Kind    ErrorKind
	Path    string
	Detail  string
	Wrapped error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Path, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Wrapped }

func newErr(kind ErrorKind, path, detail string) *Error {
	return &Error{Kind: kind, Path: path, Detail: detail}
}

func wrapErr(kind ErrorKind, path, detail string, wrapped error) *Error {
	return &Error{Kind: kind, Path: path, Detail: detail, Wrapped: wrapped}
}
