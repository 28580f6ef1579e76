package persbench

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/require"
)

// call is one recorded external-process invocation.
type call struct {
	argv []string
	dir  string
	env  []string
}

func (c call) is(name string, args ...string) bool {
	if len(c.argv) == 0 || c.argv[0] != name {
		return false
	}
	for _, want := range args {
		found := false
		for _, got := range c.argv[1:] {
			if got == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// execRecorder captures every invocation instead of spawning processes.
// fail, when set, decides per call whether the tool "exits non-zero".
type execRecorder struct {
	calls []call
	fail  func(c call) error
}

func (r *execRecorder) executor() *Executor {
	e := NewExecutor(context.Background())
	e.RunFn = func(cmd *exec.Cmd) error {
		c := call{argv: cmd.Args, dir: cmd.Dir, env: cmd.Env}
		r.calls = append(r.calls, c)
		if r.fail != nil {
			return r.fail(c)
		}
		return nil
	}
	return e
}

func (r *execRecorder) find(name string, args ...string) []call {
	var out []call
	for _, c := range r.calls {
		if c.is(name, args...) {
			out = append(out, c)
		}
	}
	return out
}

// setupWorkspace points the package globals at a throwaway workspace with a
// populated patches directory.
func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	initConfig(&Config{Values: map[string]string{"PERSBENCH_ROOT": root}})

	require.NoError(t, createDir(PatchesDir))
	require.NoError(t, os.WriteFile(
		filepath.Join(PatchesDir, "Makefile.perseus"),
		[]byte("all:\n\tg++ -O3 Pers.cpp -o perseus\n"), 0o644))
	return root
}

func makeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	require.NoError(t, createDir(filepath.Dir(path)))
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

func cachePathFor(url string) string {
	name := url[strings.LastIndex(url, "/")+1:]
	return filepath.Join(CacheStore, hashString(url)+"-"+name)
}

// stageArtifactCache seeds the download cache so artifact recipes never
// touch the network during tests.
func stageArtifactCache(t *testing.T) {
	t.Helper()
	makeZip(t, cachePathFor(perseusURL), map[string]string{
		"Pers.cpp": "int main() {}\n",
	})
	makeZip(t, cachePathFor(javaplexURL), map[string]string{
		"javaplex/library/javaplex.jar": "PK jar bytes",
		"javaplex/library/extras.txt":   "not wanted",
	})
}
