package verify

import (
	"fmt"
	"os"
)

// assertArtifacts requires every produced library path to exist and be
// non-empty (spec.md §4.7 step 5).
func assertArtifacts(paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("verify: build produced no library artifacts")
	}
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return fmt.Errorf("verify: artifact %s: %w", p, err)
		}
		if info.Size() == 0 {
			return fmt.Errorf("verify: artifact %s is empty", p)
		}
	}
	return nil
}
