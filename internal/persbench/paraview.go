package persbench

import (
	"fmt"
	"os"
	"path/filepath"
)

// paraviewSource is the submodule holding the TTK-patched ParaView tree.
// Several targets link against a ParaView install prefix produced from it at
// different pinned tags; the prefixes are versioned so they can coexist.
const paraviewSource = "paraview-ttk"

// paraviewPrefix returns the install prefix for a pinned ParaView tag,
// relative to the workspace root.
func paraviewPrefix(versionTag string) string {
	return filepath.Join(BuildDir, fmt.Sprintf("install_paraview_%s", versionTag))
}

// buildParaView checks out versionTag in the ParaView source tree, configures
// a versioned build directory against it and installs the result into the
// matching prefix. Any failure here is fatal for the whole run: multiple
// downstream targets consume the prefix and a partial install has no meaning.
func buildParaView(execCtx *Executor, versionTag string, extraOpts []string) error {
	srcDir := filepath.Join(SourcesDir, paraviewSource)
	buildDir := filepath.Join(BuildDir, fmt.Sprintf("paraview_%s", versionTag))
	if err := createDir(buildDir); err != nil {
		return err
	}

	checkout := execCtx.Command(srcDir, nil, "git", "checkout", versionTag)
	if err := execCtx.Run(checkout); err != nil {
		return &ToolError{Target: paraviewSource, Tool: "git checkout " + versionTag, Err: err}
	}

	prefix, err := filepath.Abs(paraviewPrefix(versionTag))
	if err != nil {
		return err
	}
	env := CleanEnv(os.Environ(), "")

	args := []string{
		"-S", srcDir,
		"-B", buildDir,
		"-DCMAKE_BUILD_TYPE=Release",
		fmt.Sprintf("-DCMAKE_INSTALL_PREFIX=%s", prefix),
	}
	args = append(args, extraOpts...)
	configure := execCtx.Command("", env, "cmake", args...)
	if err := execCtx.Run(configure); err != nil {
		return &ToolError{Target: paraviewSource, Tool: "cmake configure", Err: err}
	}

	// Configure the same build directory a second time, with no option
	// changes. ParaView's module system only resolves some cross-module
	// references once the first pass has written its generated registration
	// files; without the second pass the TTK link step later fails with
	// undefined references.
	reconfigure := execCtx.Command("", env, "cmake", buildDir)
	if err := execCtx.Run(reconfigure); err != nil {
		return &ToolError{Target: paraviewSource, Tool: "cmake reconfigure", Err: err}
	}

	install := execCtx.Command("", env, "cmake", "--build", buildDir, "--target", "install", "--parallel")
	if err := execCtx.Run(install); err != nil {
		return &ToolError{Target: paraviewSource, Tool: "cmake install", Err: err}
	}
	return nil
}
