package nativelib

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ovrgo/openvr/logger"
)

// Resolver makes the native library available for a target.
type Resolver struct {
	Strategy Strategy
	// Root of the vendored OpenVR tree.
	VendorDir string
	// Wrapper header; watched for changes with the vendored sources.
	Wrapper string
	// Root for per-target native builds (source strategy only).
	BuildDir string

	Runner Runner
	Log    *logger.Logger
}

// Resolve returns the link directives for t. For StrategySource it
// builds the library first unless the stamp in the target's build
// directory shows that none of the watched inputs changed.
func (r *Resolver) Resolve(ctx context.Context, t Target) (*Directives, error) {
	p, ok := lookupPlatform(t)
	if !ok {
		return nil, &UnsupportedTargetError{GOOS: string(t.OS), GOARCH: t.Arch, Reason: "no OpenVR binaries for this operating system and pointer width"}
	}

	d := &Directives{
		Target:     t,
		System:     []string{p.system},
		IncludeDir: filepath.Join(r.VendorDir, "headers"),
		Watch:      r.watchPaths(),
	}

	switch r.Strategy {
	case StrategyPrebuilt:
		d.SearchPath = filepath.Join(r.VendorDir, filepath.FromSlash(p.prebuiltDir))
		d.Library = p.prebuilt
		if err := checkArtifact(t, d.ArtifactPath()); err != nil {
			return nil, err
		}
	case StrategySource:
		prefix, err := r.build(ctx, t, p)
		if err != nil {
			return nil, err
		}
		d.SearchPath = filepath.Join(prefix, "lib")
		d.Library = p.source
	default:
		return nil, fmt.Errorf("unknown strategy %q", r.Strategy)
	}
	return d, nil
}

func (r *Resolver) watchPaths() []string {
	paths := []string{
		filepath.Join(r.VendorDir, "CMakeLists.txt"),
		filepath.Join(r.VendorDir, "headers"),
		filepath.Join(r.VendorDir, "src"),
	}
	if r.Wrapper != "" {
		paths = append(paths, r.Wrapper)
	}
	return paths
}

// TargetBuildDir is where the source build for t lives.
func (r *Resolver) TargetBuildDir(t Target) string {
	return filepath.Join(r.BuildDir, t.Tag())
}

// build runs the CMake build and install for t and returns the install
// prefix.
func (r *Resolver) build(ctx context.Context, t Target, p platform) (string, error) {
	if r.BuildDir == "" {
		return "", errors.New("source strategy requires a build directory")
	}
	dir := r.TargetBuildDir(t)
	prefix := filepath.Join(dir, "install")
	artifact := filepath.Join(prefix, "lib", p.source.Artifact)

	if _, err := os.Stat(filepath.Join(r.VendorDir, "CMakeLists.txt")); err != nil {
		return "", fmt.Errorf("vendored OpenVR sources: %w", err)
	}

	fp, err := Fingerprint(r.watchPaths())
	if err != nil {
		return "", fmt.Errorf("fingerprint sources: %w", err)
	}
	if readStamp(dir) == fp {
		if _, err := os.Stat(artifact); err == nil {
			r.Log.Infof("%v: native library up to date", t)
			return prefix, nil
		}
		r.Log.Warnf("%v: stamp is current but %v is missing, rebuilding", t, artifact)
	}

	runner := r.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	if _, err := runner.LookPath("cmake"); err != nil {
		return "", &MissingToolError{Tool: "cmake", Err: err}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	cmakeDir := filepath.Join(dir, "cmake")
	r.Log.Infof("%v: configuring OpenVR in %v", t, cmakeDir)
	if err := runner.Run(ctx, dir, "cmake", configureArgs(t, r.VendorDir, cmakeDir, prefix)...); err != nil {
		return "", fmt.Errorf("configure OpenVR: %w", err)
	}
	r.Log.Infof("%v: building OpenVR", t)
	if err := runner.Run(ctx, dir, "cmake", buildArgs(cmakeDir)...); err != nil {
		return "", fmt.Errorf("build OpenVR: %w", err)
	}

	if err := checkArtifact(t, artifact); err != nil {
		return "", err
	}
	if err := writeStamp(dir, fp); err != nil {
		return "", fmt.Errorf("write stamp: %w", err)
	}
	return prefix, nil
}

func configureArgs(t Target, srcDir, buildDir, prefix string) []string {
	args := []string{
		"-S", srcDir,
		"-B", buildDir,
		"-DCMAKE_INSTALL_PREFIX=" + prefix,
		"-DCMAKE_BUILD_TYPE=Release",
	}
	switch t.OS {
	case Linux:
		args = append(args, "-DBUILD_SHARED=OFF")
		if t.PointerWidth == 32 {
			args = append(args, "-DCMAKE_C_FLAGS=-m32", "-DCMAKE_CXX_FLAGS=-m32")
		}
	case Darwin:
		args = append(args, "-DBUILD_SHARED=ON", "-DBUILD_FRAMEWORK=ON", "-DBUILD_UNIVERSAL=OFF")
	case Windows:
		// cgo links with a GCC toolchain on windows.
		args = append(args, "-G", "MinGW Makefiles", "-DBUILD_SHARED=OFF", "-DCMAKE_CXX_FLAGS=-DWIN32")
	}
	return args
}

func buildArgs(buildDir string) []string {
	return []string{"--build", buildDir, "--config", "Release", "--target", "install"}
}

func checkArtifact(t Target, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return &MissingArtifactError{Target: t, Path: path}
	} else if err != nil {
		return err
	}
	return nil
}
