package persbench

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// Config struct
type Config struct {
	Values map[string]string
}

// Load /etc/persbench.conf and apply defaults
func loadConfig(path string) (*Config, error) {
	cfg := &Config{Values: make(map[string]string)}

	// Attempt to read the file
	file, err := os.Open(path)
	if err == nil {
		defer file.Close()
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			parts := strings.SplitN(line, "=", 2)
			if len(parts) != 2 {
				continue
			}
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			val = strings.Trim(val, `"'`)
			cfg.Values[key] = val
		}
		if err := scanner.Err(); err != nil {
			return cfg, err
		}
	}

	// Merge PERSBENCH_* env overrides
	mergeEnvOverrides(cfg)

	return cfg, nil
}

// Merge PERSBENCH_* env overrides
func mergeEnvOverrides(cfg *Config) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "PERSBENCH_") {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				cfg.Values[parts[0]] = parts[1]
			}
		}
	}
}

func initConfig(cfg *Config) {
	rootDir = cfg.Values["PERSBENCH_ROOT"]
	if rootDir == "" {
		// The benchmark tree is built in place, relative to the working
		// directory, matching the layout the harness expects.
		rootDir = "."
	}

	WantDebug := cfg.Values["PERSBENCH_DEBUG"]
	Debug = WantDebug == "1"

	Verbose = cfg.Values["PERSBENCH_VERBOSE"] == "1"

	mirrorEndpoint = strings.TrimRight(cfg.Values["PERSBENCH_MIRROR_ENDPOINT"], "/")
	mirrorBucket = cfg.Values["PERSBENCH_MIRROR_BUCKET"]
	mirrorAccessKey = cfg.Values["PERSBENCH_MIRROR_ACCESS_KEY"]
	mirrorSecretKey = cfg.Values["PERSBENCH_MIRROR_SECRET_KEY"]
	if mirrorEndpoint != "" {
		debugf("=> Using artifact mirror: %s\n", mirrorEndpoint)
	}

	SourcesDir = filepath.Join(rootDir, sourcesRoot)
	BuildDir = filepath.Join(rootDir, buildRoot)
	PatchesDir = filepath.Join(rootDir, patchesRoot)
	CacheStore = filepath.Join(rootDir, buildRoot, "_cache")
	MarkerFile = filepath.Join(rootDir, subsetMark)
}
