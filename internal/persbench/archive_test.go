package persbench

import (
	"archive/tar"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/pgzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractZipIntoExistingDirPreservesUnrelatedFiles(t *testing.T) {
	setupWorkspace(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "src.zip")
	makeZip(t, archive, map[string]string{
		"pkg/main.cpp": "int main() {}\n",
	})

	dest := filepath.Join(tmp, "out")
	require.NoError(t, os.MkdirAll(dest, 0o755))
	unrelated := filepath.Join(dest, "keep.txt")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0o644))

	// Extracting into an already-existing destination is not an error.
	require.NoError(t, Extract(archive, dest))
	require.NoError(t, Extract(archive, dest))

	assert.FileExists(t, filepath.Join(dest, "pkg", "main.cpp"))
	content, err := os.ReadFile(unrelated)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))
}

func TestExtractSingleZipMember(t *testing.T) {
	setupWorkspace(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "lib.zip")
	makeZip(t, archive, map[string]string{
		"lib/wanted.jar":   "jar",
		"lib/ignored.txt":  "nope",
		"docs/ignored.txt": "nope",
	})

	dest := filepath.Join(tmp, "out")
	require.NoError(t, Extract(archive, dest, "lib/wanted.jar"))

	assert.FileExists(t, filepath.Join(dest, "lib", "wanted.jar"))
	assert.NoFileExists(t, filepath.Join(dest, "lib", "ignored.txt"))
	assert.NoFileExists(t, filepath.Join(dest, "docs", "ignored.txt"))
}

func TestExtractMissingMemberFails(t *testing.T) {
	setupWorkspace(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "lib.zip")
	makeZip(t, archive, map[string]string{"lib/present.jar": "jar"})

	err := Extract(archive, filepath.Join(tmp, "out"), "lib/absent.jar")

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "lib/absent.jar", exErr.Member)
}

func TestExtractCorruptArchiveFails(t *testing.T) {
	setupWorkspace(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "broken.zip")
	require.NoError(t, os.WriteFile(archive, []byte("this is not a zip"), 0o644))

	err := Extract(archive, filepath.Join(tmp, "out"))

	var exErr *ExtractionError
	require.ErrorAs(t, err, &exErr)
}

func TestExtractTarGz(t *testing.T) {
	setupWorkspace(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "src.tar.gz")

	f, err := os.Create(archive)
	require.NoError(t, err)
	gz := pgzip.NewWriter(f)
	tw := tar.NewWriter(gz)
	content := []byte("#include <vector>\n")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name: "pkg/pers.h", Mode: 0o644, Size: int64(len(content)), Typeflag: tar.TypeReg,
	}))
	_, err = tw.Write(content)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	dest := filepath.Join(tmp, "out")
	require.NoError(t, Extract(archive, dest))

	got, err := os.ReadFile(filepath.Join(dest, "pkg", "pers.h"))
	require.NoError(t, err)
	assert.Equal(t, content, got)
}

func TestExtractRejectsUnsupportedFormat(t *testing.T) {
	setupWorkspace(t)
	tmp := t.TempDir()
	archive := filepath.Join(tmp, "src.rar")
	require.NoError(t, os.WriteFile(archive, []byte("rar"), 0o644))

	err := Extract(archive, filepath.Join(tmp, "out"))
	assert.Error(t, err)
}
