package persbench

import (
	"github.com/gookit/color"
)

// Global variables
var (
	rootDir     string // workspace root; all other paths hang off it
	SourcesDir  string // per-target source checkouts (backends_src)
	BuildDir    string // per-target build outputs (build_dirs)
	PatchesDir  string // read-only patch files
	CacheStore  string // downloaded-archive cache
	MarkerFile  string // zero-byte sentinel for subset builds
	Debug       bool
	Verbose     bool
	ConfigFile  = "/etc/persbench.conf"
	version     = "dev"     // overridden at build time
	buildDate   = "unknown" // overridden at build time
	subsetMark  = ".not_all_apps"
	sourcesRoot = "backends_src"
	buildRoot   = "build_dirs"
	patchesRoot = "patches"

	// Global executor (assigned in Main, replaced by tests)
	Exec *Executor
)

// color helpers
var (
	colInfo    = color.Info // style provided by gookit/color
	colWarn    = color.Warn
	colError   = color.Error
	colSuccess = color.HEX("#1976D2")
	colArrow   = color.HEX("#FFEB3B")
)
