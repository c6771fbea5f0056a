package builddriver

import (
	"context"
	"os"
	"path/filepath"

	"github.com/harbour-pm/harbour/internal/backend"
	"github.com/harbour-pm/harbour/internal/ident"
)

// Clean removes every package's build directory under BuildRoot plus the
// shared OutputDir. It is idempotent: cleaning an already-clean workspace
// succeeds and removes nothing (spec.md §8 "clean is idempotent").
func (d *Driver) Clean(ctx context.Context, ids []ident.PackageId, intent backend.BuildIntent) error {
	for _, id := range ids {
		m, root, err := d.Loader.LoadPackage(id)
		if err != nil {
			return &BuildError{Package: id, Phase: "clean", Wrapped: err}
		}
		be := d.selectBackend(m)
		bc := backend.BuildContext{
			PackageRoot:   root,
			BuildDir:      buildDirFor(d.BuildRoot, id),
			InstallPrefix: buildDirFor(d.BuildRoot, id),
		}
		if err := cleanOne(ctx, be, bc); err != nil {
			return &BuildError{Package: id, Phase: "clean", Backend: be.ID(), Wrapped: err}
		}
	}
	if d.OutputDir != "" {
		if err := os.RemoveAll(d.OutputDir); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func cleanOne(ctx context.Context, be backend.Backend, bc backend.BuildContext) error {
	if be.Capabilities().Clean == backend.NotSupported {
		return os.RemoveAll(bc.BuildDir)
	}
	if err := be.Clean(ctx, bc, backend.Options{}); err != nil {
		return err
	}
	// Belt-and-suspenders: some backends only clean generated build
	// artifacts and leave the configure cache behind, which would make a
	// second clean() observably different from the first.
	if _, err := os.Stat(bc.BuildDir); err == nil {
		return os.RemoveAll(bc.BuildDir)
	}
	return nil
}

func buildDirFor(buildRoot string, id ident.PackageId) string {
	return filepath.Join(buildRoot, packageDirName(id))
}
