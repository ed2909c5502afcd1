package nativelib

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ovrgo/openvr/logger"
	"github.com/stretchr/testify/require"
)

type call struct {
	dir  string
	name string
	args []string
}

// fakeRunner pretends to be cmake: the install step creates the
// artifact the platform table expects.
type fakeRunner struct {
	calls    []call
	noCMake  bool
	fail     error
	artifact string
}

func (f *fakeRunner) LookPath(tool string) (string, error) {
	if f.noCMake {
		return "", errors.New("executable file not found in $PATH")
	}
	return "/usr/bin/" + tool, nil
}

func (f *fakeRunner) Run(ctx context.Context, dir, name string, args ...string) error {
	f.calls = append(f.calls, call{dir: dir, name: name, args: args})
	if f.fail != nil {
		return f.fail
	}
	if len(args) > 0 && args[0] == "--build" && f.artifact != "" {
		if err := os.MkdirAll(filepath.Dir(f.artifact), 0o755); err != nil {
			return err
		}
		return os.WriteFile(f.artifact, []byte("!<arch>\n"), 0o644)
	}
	return nil
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func vendorTree(t *testing.T) (vendor, wrapper string) {
	t.Helper()
	root := t.TempDir()
	vendor = filepath.Join(root, "third_party", "openvr")
	writeFile(t, filepath.Join(vendor, "CMakeLists.txt"), "project(OpenVRSDK)\n")
	writeFile(t, filepath.Join(vendor, "headers", "openvr_capi.h"), "typedef int x;\n")
	writeFile(t, filepath.Join(vendor, "src", "openvr_api_public.cpp"), "int main;\n")
	wrapper = filepath.Join(root, "openvr", "wrapper.h")
	writeFile(t, wrapper, "#include \"openvr_capi.h\"\n")
	return vendor, wrapper
}

func mustTarget(t *testing.T, goos, goarch string) Target {
	t.Helper()
	tgt, err := ParseTarget(goos, goarch)
	require.NoError(t, err)
	return tgt
}

func TestResolveSourceLinux64(t *testing.T) {
	require := require.New(t)
	vendor, wrapper := vendorTree(t)
	buildDir := t.TempDir()
	tgt := mustTarget(t, "linux", "amd64")

	runner := &fakeRunner{artifact: filepath.Join(buildDir, "linux_amd64", "install", "lib", "libopenvr_api.a")}
	var logBuf bytes.Buffer
	r := &Resolver{
		Strategy:  StrategySource,
		VendorDir: vendor,
		Wrapper:   wrapper,
		BuildDir:  buildDir,
		Runner:    runner,
		Log:       logger.New(&logBuf, ""),
	}

	d, err := r.Resolve(context.Background(), tgt)
	require.NoError(err)
	require.Equal(filepath.Join(buildDir, "linux_amd64", "install", "lib"), d.SearchPath)
	require.Equal(Library{Name: "openvr_api", Kind: LinkStatic, Artifact: "libopenvr_api.a"}, d.Library)
	require.Equal([]string{"stdc++"}, d.System)
	require.Equal(filepath.Join(vendor, "headers"), d.IncludeDir)
	require.Contains(d.Watch, wrapper)

	require.Len(runner.calls, 2)
	configure := runner.calls[0]
	require.Equal("cmake", configure.name)
	require.Equal([]string{"-S", vendor, "-B", filepath.Join(buildDir, "linux_amd64", "cmake")}, configure.args[:4])
	require.Contains(configure.args, "-DBUILD_SHARED=OFF")
	require.NotContains(configure.args, "-DCMAKE_C_FLAGS=-m32")
	require.Equal([]string{"--build", filepath.Join(buildDir, "linux_amd64", "cmake"), "--config", "Release", "--target", "install"}, runner.calls[1].args)

	require.Equal([]string{
		"-L" + d.SearchPath,
		"-Wl,-Bstatic", "-lopenvr_api", "-Wl,-Bdynamic",
		"-lstdc++",
	}, d.LDFlags(d.SearchPath))
	require.Equal([]string{"-I" + d.IncludeDir}, d.CFlags())

	// Nothing changed: the stamp short-circuits the second build.
	runner.calls = nil
	_, err = r.Resolve(context.Background(), tgt)
	require.NoError(err)
	require.Empty(runner.calls)
	require.Contains(logBuf.String(), "native library up to date")

	// Touching the wrapper header invalidates the stamp.
	writeFile(t, wrapper, "#include \"openvr_capi.h\"\n// changed\n")
	_, err = r.Resolve(context.Background(), tgt)
	require.NoError(err)
	require.Len(runner.calls, 2)
}

func TestResolveSource32BitFlags(t *testing.T) {
	require := require.New(t)
	vendor, wrapper := vendorTree(t)
	buildDir := t.TempDir()

	runner := &fakeRunner{artifact: filepath.Join(buildDir, "linux_386", "install", "lib", "libopenvr_api.a")}
	r := &Resolver{Strategy: StrategySource, VendorDir: vendor, Wrapper: wrapper, BuildDir: buildDir, Runner: runner}
	_, err := r.Resolve(context.Background(), mustTarget(t, "linux", "386"))
	require.NoError(err)
	require.Contains(runner.calls[0].args, "-DCMAKE_C_FLAGS=-m32")
	require.Contains(runner.calls[0].args, "-DCMAKE_CXX_FLAGS=-m32")
}

func TestResolveSourceWindows64(t *testing.T) {
	require := require.New(t)
	vendor, wrapper := vendorTree(t)
	buildDir := t.TempDir()

	runner := &fakeRunner{artifact: filepath.Join(buildDir, "windows_amd64", "install", "lib", "libopenvr_api64.a")}
	r := &Resolver{Strategy: StrategySource, VendorDir: vendor, Wrapper: wrapper, BuildDir: buildDir, Runner: runner}
	d, err := r.Resolve(context.Background(), mustTarget(t, "windows", "amd64"))
	require.NoError(err)
	require.Equal("openvr_api64", d.Library.Name)
	require.Equal([]string{"-L/x", "-lopenvr_api64", "-lshell32"}, d.LDFlags("/x"))
}

func TestResolveSourceErrors(t *testing.T) {
	require := require.New(t)
	vendor, wrapper := vendorTree(t)
	tgt := mustTarget(t, "linux", "amd64")

	r := &Resolver{Strategy: StrategySource, VendorDir: vendor, Wrapper: wrapper, BuildDir: t.TempDir(), Runner: &fakeRunner{noCMake: true}}
	_, err := r.Resolve(context.Background(), tgt)
	var mtErr *MissingToolError
	require.True(errors.As(err, &mtErr))
	require.Equal("cmake", mtErr.Tool)

	toolErr := &ToolError{Tool: "cmake", Args: []string{"-S", vendor}, Output: "CMake Error: no CXX compiler", Err: errors.New("exit status 1")}
	r.Runner = &fakeRunner{fail: toolErr}
	_, err = r.Resolve(context.Background(), tgt)
	require.ErrorIs(err, toolErr)
	require.Contains(err.Error(), "CMake Error: no CXX compiler")

	// The build "succeeds" without producing the library.
	r.Runner = &fakeRunner{}
	_, err = r.Resolve(context.Background(), tgt)
	var maErr *MissingArtifactError
	require.True(errors.As(err, &maErr))
	require.True(strings.HasSuffix(maErr.Path, "libopenvr_api.a"))

	r.VendorDir = filepath.Join(t.TempDir(), "missing")
	_, err = r.Resolve(context.Background(), tgt)
	require.ErrorContains(err, "vendored OpenVR sources")
}

func TestResolvePrebuilt(t *testing.T) {
	vendor, wrapper := vendorTree(t)
	writeFile(t, filepath.Join(vendor, "lib", "linux64", "libopenvr_api.so"), "ELF")
	writeFile(t, filepath.Join(vendor, "lib", "win32", "openvr_api.lib"), "!<arch>")
	writeFile(t, filepath.Join(vendor, "bin", "osx32", "OpenVR.framework", "OpenVR"), "Mach-O")

	tests := []struct {
		goos, goarch string
		dir          string
		lib          Library
		system       string
		ldflags      []string
	}{
		{
			"linux", "amd64", "lib/linux64",
			Library{Name: "openvr_api", Kind: LinkShared, Artifact: "libopenvr_api.so"}, "stdc++",
			[]string{"-L/d", "-lopenvr_api", "-Wl,-rpath,/d", "-lstdc++"},
		},
		{
			"windows", "386", "lib/win32",
			Library{Name: "openvr_api", Kind: LinkShared, Artifact: "openvr_api.lib"}, "shell32",
			[]string{"-L/d", "-lopenvr_api", "-lshell32"},
		},
		{
			"darwin", "amd64", "bin/osx32",
			Library{Name: "OpenVR", Kind: LinkFramework, Artifact: "OpenVR.framework"}, "c++",
			[]string{"-F/d", "-framework", "OpenVR", "-Wl,-rpath,/d", "-lc++"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"_"+tt.goarch, func(t *testing.T) {
			require := require.New(t)
			runner := &fakeRunner{}
			r := &Resolver{Strategy: StrategyPrebuilt, VendorDir: vendor, Wrapper: wrapper, Runner: runner}
			d, err := r.Resolve(context.Background(), mustTarget(t, tt.goos, tt.goarch))
			require.NoError(err)
			require.Equal(filepath.Join(vendor, filepath.FromSlash(tt.dir)), d.SearchPath)
			require.Equal(tt.lib, d.Library)
			require.Equal([]string{tt.system}, d.System)
			require.Equal(tt.ldflags, d.LDFlags("/d"))
			require.Empty(runner.calls)
		})
	}

	// linux/386 binaries are not in this tree.
	r := &Resolver{Strategy: StrategyPrebuilt, VendorDir: vendor}
	_, err := r.Resolve(context.Background(), mustTarget(t, "linux", "386"))
	var maErr *MissingArtifactError
	require.True(t, errors.As(err, &maErr))
}

func TestResolveUnsupportedRunsNothing(t *testing.T) {
	runner := &fakeRunner{}
	r := &Resolver{Strategy: StrategySource, VendorDir: t.TempDir(), BuildDir: t.TempDir(), Runner: runner}
	_, err := r.Resolve(context.Background(), Target{OS: "plan9", Arch: "amd64", PointerWidth: 64})
	var uErr *UnsupportedTargetError
	require.True(t, errors.As(err, &uErr))
	require.Empty(t, runner.calls)
}

func TestDirectivesWriteTo(t *testing.T) {
	d := &Directives{
		Target:     Target{OS: Linux, Arch: "amd64", PointerWidth: 64},
		SearchPath: "/b/lib",
		Library:    Library{Name: "openvr_api", Kind: LinkStatic},
		System:     []string{"stdc++"},
		IncludeDir: "/v/headers",
		Watch:      []string{"/v/src", "/w.h"},
	}
	var b bytes.Buffer
	_, err := d.WriteTo(&b)
	require.NoError(t, err)
	require.Equal(t, `target=linux/amd64
link-search=/b/lib
link-lib=static=openvr_api
link-system=stdc++
include=/v/headers
watch=/v/src
watch=/w.h
`, b.String())
}

func TestFingerprint(t *testing.T) {
	require := require.New(t)
	a, b := t.TempDir(), t.TempDir()
	for _, dir := range []string{a, b} {
		writeFile(t, filepath.Join(dir, "src", "x.cpp"), "x")
		writeFile(t, filepath.Join(dir, "src", "sub", "y.cpp"), "y")
	}
	fa, err := Fingerprint([]string{filepath.Join(a, "src"), filepath.Join(a, "missing.h")})
	require.NoError(err)
	fb, err := Fingerprint([]string{filepath.Join(b, "src")})
	require.NoError(err)
	require.Equal(fa, fb, "fingerprint must not depend on absolute location")

	writeFile(t, filepath.Join(b, "src", "sub", "y.cpp"), "y2")
	fb2, err := Fingerprint([]string{filepath.Join(b, "src")})
	require.NoError(err)
	require.NotEqual(fb, fb2)
}
