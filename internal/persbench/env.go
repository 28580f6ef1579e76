package persbench

import (
	"fmt"
	"strings"
)

// Variables that leak host-installed or previously-built libraries into a
// build. A ParaView picked up from LD_LIBRARY_PATH or PV_PLUGIN_PATH would
// silently shadow the one built into the install prefix.
var scrubbedEnvKeys = []string{
	"PYTHONPATH",
	"LD_LIBRARY_PATH",
	"PV_PLUGIN_PATH",
}

// CleanEnv returns a copy of base with the host-leaking variables removed and
// CMAKE_PREFIX_PATH pinned to prefixPath (empty string clears it). The input
// slice is never modified; removal is idempotent for keys that are absent.
func CleanEnv(base []string, prefixPath string) []string {
	env := make([]string, 0, len(base)+1)
	for _, kv := range base {
		key, _, ok := strings.Cut(kv, "=")
		if !ok {
			env = append(env, kv)
			continue
		}
		if key == "CMAKE_PREFIX_PATH" || scrubbedKey(key) {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, fmt.Sprintf("CMAKE_PREFIX_PATH=%s", prefixPath))
	return env
}

func scrubbedKey(key string) bool {
	for _, k := range scrubbedEnvKeys {
		if key == k {
			return true
		}
	}
	return false
}
