package persbench

import (
	"path/filepath"
)

// applyPatches restores the target's source tree to its committed state and
// applies the given patch files, in order, from the patches directory.
//
// The restore step fails for trees without git history (the perseus drop is a
// plain zip); that is tolerated and treated as "nothing to discard". A patch
// that does not apply is fatal for the target.
func applyPatches(execCtx *Executor, target string, patches []string) error {
	srcDir := filepath.Join(SourcesDir, target)

	checkout := execCtx.Command(srcDir, nil, "git", "checkout", "--", ".")
	if err := execCtx.Run(checkout); err != nil {
		debugf("git checkout in %s failed (%v), nothing to discard\n", srcDir, err)
	}

	for _, patch := range patches {
		patchPath, err := filepath.Abs(filepath.Join(PatchesDir, patch))
		if err != nil {
			return &PatchError{Target: target, Patch: patch, Err: err}
		}
		apply := execCtx.Command(srcDir, nil, "git", "apply", patchPath)
		if err := execCtx.Run(apply); err != nil {
			return &PatchError{Target: target, Patch: patch, Err: err}
		}
	}
	return nil
}
