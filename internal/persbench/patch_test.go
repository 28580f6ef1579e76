package persbench

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyPatchesInOrder(t *testing.T) {
	setupWorkspace(t)
	rec := &execRecorder{}

	err := applyPatches(rec.executor(), "oineus", []string{"a.patch", "b.patch"})
	require.NoError(t, err)

	srcDir := filepath.Join(SourcesDir, "oineus")
	require.Len(t, rec.calls, 3)
	assert.Equal(t, []string{"git", "checkout", "--", "."}, rec.calls[0].argv)
	assert.Equal(t, srcDir, rec.calls[0].dir)

	absA, _ := filepath.Abs(filepath.Join(PatchesDir, "a.patch"))
	absB, _ := filepath.Abs(filepath.Join(PatchesDir, "b.patch"))
	assert.Equal(t, []string{"git", "apply", absA}, rec.calls[1].argv)
	assert.Equal(t, []string{"git", "apply", absB}, rec.calls[2].argv)
}

func TestApplyPatchesToleratesFailedRestore(t *testing.T) {
	setupWorkspace(t)
	rec := &execRecorder{}
	rec.fail = func(c call) error {
		if c.is("git", "checkout") {
			// perseus has no git history to restore
			return errors.New("not a git repository")
		}
		return nil
	}

	err := applyPatches(rec.executor(), "perseus", []string{"a.patch"})

	require.NoError(t, err)
	assert.Len(t, rec.find("git", "apply"), 1)
}

func TestApplyPatchesFailureIsFatalForTarget(t *testing.T) {
	setupWorkspace(t)
	rec := &execRecorder{}
	rec.fail = func(c call) error {
		if c.is("git", "apply") {
			return errors.New("patch does not apply")
		}
		return nil
	}

	err := applyPatches(rec.executor(), "dipha", []string{"broken.patch"})

	var patchErr *PatchError
	require.ErrorAs(t, err, &patchErr)
	assert.Equal(t, "dipha", patchErr.Target)
	assert.Equal(t, "broken.patch", patchErr.Patch)
}
