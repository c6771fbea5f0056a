package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/harbour-pm/harbour/internal/shimfile"
)

// applyPatches verifies each declared patch file's sha256, then applies it
// in sourceDir via the `git apply` subprocess (spec.md §4.7 step 3; §5 names
// `git apply` as the one invocation go-git does not cover). Any failure
// aborts verification without applying the remaining patches.
func applyPatches(ctx context.Context, shim *shimfile.Shim, shimDir, sourceDir string) error {
	for _, p := range shim.Patches {
		patchPath := filepath.Join(shimDir, p.File)
		data, err := os.ReadFile(patchPath)
		if err != nil {
			return fmt.Errorf("verify: reading patch %s: %w", patchPath, err)
		}
		sum := sha256.Sum256(data)
		got := hex.EncodeToString(sum[:])
		if got != p.SHA256 {
			return fmt.Errorf("verify: patch %s sha256 mismatch: got %s, want %s", p.File, got, p.SHA256)
		}

		if err := runGitApply(ctx, sourceDir, patchPath, true); err != nil {
			return fmt.Errorf("verify: patch %s does not apply cleanly: %w", p.File, err)
		}
		if err := runGitApply(ctx, sourceDir, patchPath, false); err != nil {
			return fmt.Errorf("verify: applying patch %s: %w", p.File, err)
		}
	}
	return nil
}

func runGitApply(ctx context.Context, sourceDir, patchPath string, checkOnly bool) error {
	args := []string{"apply"}
	if checkOnly {
		args = append(args, "--check")
	}
	args = append(args, patchPath)

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = sourceDir
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w\n%s", err, out)
	}
	return nil
}
