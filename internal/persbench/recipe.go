package persbench

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Upstream archives for the two targets that are not vendored as submodules.
const (
	perseusURL  = "https://people.maths.ox.ac.uk/nanda/source/perseus_4_beta.zip"
	javaplexURL = "https://github.com/appliedtopology/javaplex" +
		"/files/2196392/javaplex-processing-lib-4.3.4.zip"
)

// RecipeKind selects how a target is built. The set is closed: adding a
// target means picking one of these and filling in the parameters.
type RecipeKind int

const (
	// RecipeConfigure creates a per-target build directory, configures it
	// against the source tree and runs a parallel build. The default for any
	// target without a catalog entry.
	RecipeConfigure RecipeKind = iota
	// RecipeMake runs the target's own Makefile in its source directory.
	RecipeMake
	// RecipeShared builds the pinned ParaView prefix first, then configures
	// the target against it and installs into the same prefix.
	RecipeShared
	// RecipeArtifact fetches an upstream archive, stages its contents into
	// the source tree and runs a target-specific compile step.
	RecipeArtifact
	// RecipePackageManager delegates the whole build to an interpreted
	// language's package manager.
	RecipePackageManager
)

// SharedSpec pins the ParaView version a shared-dependent target links
// against and how its build discovers the installed prefix.
type SharedSpec struct {
	Version      string   // ParaView tag, e.g. v5.10.1
	Options      []string // extra ParaView configure options
	SourceSubdir string   // configure this subdirectory of the target source
	CMakeModule  string   // VTK_DIR points at <prefix>/lib/cmake/<CMakeModule>
}

// ArtifactSpec describes an upstream archive and how its contents are staged
// before the compile step.
type ArtifactSpec struct {
	URL      string
	Member   string   // single archive member to extract; empty extracts all
	DestDir  string   // extraction destination, relative to the workspace root
	MoveTo   string   // relocation target for Member, relative to the root
	Makefile string   // Makefile staged from the patch dir into the source tree
	RunMake  bool     // run make in the target source dir after staging
	Compile  []string // compile argv, run from the workspace root
}

// Recipe is one target's build description. Kind picks the handler; the
// remaining fields parameterize it.
type Recipe struct {
	Kind          RecipeKind
	Patches       []string // applied to the source tree before building
	ConfigureOpts []string // extra configure flags (RecipeConfigure)
	MakeTarget    string   // explicit make target (RecipeMake)
	Recoverable   bool     // a failed build is logged and skipped, not fatal
	RecoverHint   string   // diagnostic naming the likely missing prerequisite
	Shared        *SharedSpec
	Artifact      *ArtifactSpec
	PkgManager    []string // package-manager argv, run from the workspace root
}

// Target catalogs. Order is load-bearing: DiscreteMorseSandwich and
// PersistenceCycles reuse the ParaView prefixes produced when they run, and
// the core set must precede the extended one.
var (
	coreTargets = []string{
		"dipha",
		"gudhi",
		"phat",
		"DiscreteMorseSandwich",
	}

	extendedTargets = []string{
		"CubicalRipser_2dim",
		"CubicalRipser_3dim",
		"diamorse",
		"Eirene.jl",
		"oineus",
		"ripser",
		"perseus",
		"JavaPlex",
		"PersistenceCycles",
	}
)

// recipes maps each special-cased target to its build description. Targets
// absent here (phat, CubicalRipser_3dim) get the plain configure recipe.
var recipes = map[string]Recipe{
	"dipha": {
		Kind:    RecipeConfigure,
		Patches: []string{"Dipha_0001-Print-sum-of-ranks-memory-peaks.patch"},
	},
	"gudhi": {
		Kind: RecipeConfigure,
		ConfigureOpts: []string{
			"-DWITH_GUDHI_TEST=OFF",
			"-DWITH_GUDHI_UTILITIES=OFF",
		},
	},
	"oineus": {
		Kind:    RecipeConfigure,
		Patches: []string{"oineus_0001-New-example-file-for-simplicial-complexes.patch"},
	},
	"CubicalRipser_2dim": {
		Kind: RecipeMake,
	},
	"ripser": {
		Kind: RecipeMake,
	},
	"diamorse": {
		Kind: RecipeMake,
		Patches: []string{
			"diamorse_0001-Makefile-Target-Python2.patch",
			"diamorse_0002-persistence.py-Add-Gudhi-format-output.patch",
		},
		MakeTarget:  "all",
		Recoverable: true,
		RecoverHint: "Missing cython, python2-numpy to build diamorse",
	},
	"Eirene.jl": {
		Kind:       RecipePackageManager,
		PkgManager: []string{"julia", "-e", `using Pkg; Pkg.add("Eirene")`},
	},
	"perseus": {
		Kind: RecipeArtifact,
		Artifact: &ArtifactSpec{
			URL:      perseusURL,
			DestDir:  filepath.Join(sourcesRoot, "perseus"),
			Makefile: "Makefile.perseus",
			RunMake:  true,
		},
	},
	"JavaPlex": {
		Kind: RecipeArtifact,
		Artifact: &ArtifactSpec{
			URL:     javaplexURL,
			Member:  "javaplex/library/javaplex.jar",
			DestDir: ".",
			MoveTo:  filepath.Join(sourcesRoot, "javaplex.jar"),
			Compile: []string{
				"javac",
				"-classpath", filepath.Join(sourcesRoot, "javaplex.jar"),
				"jplex_persistence.java",
			},
		},
	},
	"PersistenceCycles": {
		Kind: RecipeShared,
		Patches: []string{
			"PersistenceCycles_0001-Fix-Wreturn-type.patch",
			"PersistenceCycles_0003-Output-Diagram-in-Gudhi-format.patch",
		},
		Shared: &SharedSpec{
			Version: "v5.6.1",
			Options: []string{
				"-DPARAVIEW_BUILD_QT_GUI=OFF",
				"-DVTK_Group_ParaViewRendering=OFF",
			},
			SourceSubdir: "ttk-0.9.7",
			CMakeModule:  "paraview-5.6",
		},
	},
	"DiscreteMorseSandwich": {
		Kind:    RecipeShared,
		Patches: []string{"DiscreteMorseSandwich_filters.patch"},
		Shared: &SharedSpec{
			Version: "v5.10.1",
			Options: []string{
				"-DPARAVIEW_USE_QT=OFF",
				"-DVTK_Group_ENABLE_Rendering=NO",
			},
			CMakeModule: "paraview-5.10",
		},
	},
}

// recipeFor returns the target's catalog entry, falling back to the plain
// configure recipe.
func recipeFor(target string) Recipe {
	if r, ok := recipes[target]; ok {
		return r
	}
	return Recipe{Kind: RecipeConfigure}
}

// BuildTarget dispatches one target to its recipe handler.
func BuildTarget(execCtx *Executor, target string) error {
	r := recipeFor(target)
	switch r.Kind {
	case RecipeMake:
		return runMake(execCtx, target, r)
	case RecipeConfigure:
		return runConfigure(execCtx, target, r)
	case RecipeShared:
		return runShared(execCtx, target, r)
	case RecipeArtifact:
		return runArtifact(execCtx, target, r)
	case RecipePackageManager:
		return runPackageManager(execCtx, target, r)
	default:
		return fmt.Errorf("unknown recipe kind %d for %s", r.Kind, target)
	}
}

// runMake builds a target in place with its own Makefile.
func runMake(execCtx *Executor, target string, r Recipe) error {
	srcDir := filepath.Join(SourcesDir, target)
	if len(r.Patches) > 0 {
		if err := applyPatches(execCtx, target, r.Patches); err != nil {
			return err
		}
	}
	args := []string{}
	if r.MakeTarget != "" {
		args = append(args, r.MakeTarget)
	}
	cmd := execCtx.Command(srcDir, nil, "make", args...)
	if err := execCtx.Run(cmd); err != nil {
		return &ToolError{Target: target, Tool: "make", Err: err}
	}
	return nil
}

// runConfigure is the default recipe: configure a per-target build directory
// in release mode and build it in parallel.
func runConfigure(execCtx *Executor, target string, r Recipe) error {
	srcDir := filepath.Join(SourcesDir, target)
	buildDir := filepath.Join(BuildDir, target)

	if len(r.Patches) > 0 {
		if err := applyPatches(execCtx, target, r.Patches); err != nil {
			return err
		}
	}
	if err := createDir(buildDir); err != nil {
		return err
	}

	args := []string{"-S", srcDir, "-B", buildDir, "-DCMAKE_BUILD_TYPE=Release"}
	args = append(args, r.ConfigureOpts...)
	configure := execCtx.Command("", nil, "cmake", args...)
	if err := execCtx.Run(configure); err != nil {
		return &ToolError{Target: target, Tool: "cmake configure", Err: err}
	}

	build := execCtx.Command("", nil, "cmake", "--build", buildDir, "--parallel")
	if err := execCtx.Run(build); err != nil {
		return &ToolError{Target: target, Tool: "cmake build", Err: err}
	}
	return nil
}

// runShared builds the pinned ParaView prefix, patches the target, then
// configures it against the prefix and installs into it. The sanitized
// environment carries the prefix so CMake discovery cannot wander off to a
// host install.
func runShared(execCtx *Executor, target string, r Recipe) error {
	if err := buildParaView(execCtx, r.Shared.Version, r.Shared.Options); err != nil {
		return err
	}

	if len(r.Patches) > 0 {
		if err := applyPatches(execCtx, target, r.Patches); err != nil {
			return err
		}
	}

	srcDir := filepath.Join(SourcesDir, target)
	if r.Shared.SourceSubdir != "" {
		srcDir = filepath.Join(srcDir, r.Shared.SourceSubdir)
	}
	buildDir := filepath.Join(BuildDir, target)
	if err := createDir(buildDir); err != nil {
		return err
	}

	prefix, err := filepath.Abs(paraviewPrefix(r.Shared.Version))
	if err != nil {
		return err
	}
	env := CleanEnv(os.Environ(), prefix)

	args := []string{
		"-S", srcDir,
		"-B", buildDir,
		fmt.Sprintf("-DVTK_DIR=%s", filepath.Join(prefix, "lib", "cmake", r.Shared.CMakeModule)),
		"-DCMAKE_BUILD_TYPE=Release",
		fmt.Sprintf("-DCMAKE_INSTALL_PREFIX=%s", prefix),
		"-DTTK_ENABLE_KAMIKAZE=ON",
	}
	configure := execCtx.Command("", env, "cmake", args...)
	if err := execCtx.Run(configure); err != nil {
		return &ToolError{Target: target, Tool: "cmake configure", Err: err}
	}

	install := execCtx.Command("", env, "cmake", "--build", buildDir, "--target", "install", "--parallel")
	if err := execCtx.Run(install); err != nil {
		return &ToolError{Target: target, Tool: "cmake install", Err: err}
	}
	return nil
}

// runArtifact fetches the target's upstream archive, stages its contents and
// runs the compile step. The downloaded archive is removed once the build
// succeeds; the cache copy keeps re-runs off the network.
func runArtifact(execCtx *Executor, target string, r Recipe) error {
	a := r.Artifact

	archive, err := FetchArchive(a.URL)
	if err != nil {
		return err
	}

	destDir := a.DestDir
	if destDir != "." && destDir != "" {
		destDir = filepath.Join(rootDir, destDir)
	} else {
		destDir = rootDir
	}
	var members []string
	if a.Member != "" {
		members = []string{a.Member}
	}
	if err := Extract(archive, destDir, members...); err != nil {
		return err
	}

	if a.Member != "" && a.MoveTo != "" {
		from := filepath.Join(destDir, a.Member)
		to := filepath.Join(rootDir, a.MoveTo)
		if err := createDir(filepath.Dir(to)); err != nil {
			return err
		}
		if err := os.Rename(from, to); err != nil {
			return &ExtractionError{Archive: archive, Member: a.Member, Err: err}
		}
		// Prune the directory skeleton left behind by the member extraction.
		if top, _, ok := strings.Cut(a.Member, "/"); ok {
			_ = os.RemoveAll(filepath.Join(destDir, top))
		}
	}

	srcDir := filepath.Join(SourcesDir, target)
	if a.Makefile != "" {
		if err := copyFile(filepath.Join(PatchesDir, a.Makefile), filepath.Join(srcDir, "Makefile")); err != nil {
			return fmt.Errorf("failed to stage Makefile for %s: %w", target, err)
		}
	}

	if a.RunMake {
		cmd := execCtx.Command(srcDir, nil, "make")
		if err := execCtx.Run(cmd); err != nil {
			return &ToolError{Target: target, Tool: "make", Err: err}
		}
	}
	if len(a.Compile) > 0 {
		cmd := execCtx.Command(rootDir, nil, a.Compile[0], a.Compile[1:]...)
		if err := execCtx.Run(cmd); err != nil {
			return &ToolError{Target: target, Tool: a.Compile[0], Err: err}
		}
	}

	// cleanup-on-success only; a failed build keeps the archive around for
	// inspection.
	_ = os.Remove(archive)
	return nil
}

// runPackageManager installs the target through its language's package
// manager; no local build directory is involved.
func runPackageManager(execCtx *Executor, target string, r Recipe) error {
	cmd := execCtx.Command(rootDir, nil, r.PkgManager[0], r.PkgManager[1:]...)
	if err := execCtx.Run(cmd); err != nil {
		return &ToolError{Target: target, Tool: r.PkgManager[0], Err: err}
	}
	return nil
}
