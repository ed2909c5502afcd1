package nativelib

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		goos, goarch string
		want         Target
	}{
		{"linux", "amd64", Target{OS: Linux, Arch: "amd64", PointerWidth: 64}},
		{"linux", "386", Target{OS: Linux, Arch: "386", PointerWidth: 32}},
		{"linux", "arm64", Target{OS: Linux, Arch: "arm64", PointerWidth: 64}},
		{"darwin", "arm64", Target{OS: Darwin, Arch: "arm64", PointerWidth: 64}},
		{"windows", "386", Target{OS: Windows, Arch: "386", PointerWidth: 32}},
		{"windows", "amd64", Target{OS: Windows, Arch: "amd64", PointerWidth: 64}},
	}
	for _, tt := range tests {
		t.Run(tt.goos+"_"+tt.goarch, func(t *testing.T) {
			got, err := ParseTarget(tt.goos, tt.goarch)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestParseTargetUnsupported(t *testing.T) {
	for _, tt := range []struct{ goos, goarch string }{
		{"plan9", "amd64"},
		{"freebsd", "amd64"},
		{"", "amd64"},
		{"linux", "wasm"},
		{"linux", ""},
		// There is no 32-bit macOS port of Go or OpenVR.
		{"darwin", "386"},
	} {
		_, err := ParseTarget(tt.goos, tt.goarch)
		var uErr *UnsupportedTargetError
		require.True(t, errors.As(err, &uErr), "%v/%v", tt.goos, tt.goarch)
		require.Equal(t, tt.goos, uErr.GOOS)
	}
}

func TestTargetFromEnv(t *testing.T) {
	t.Setenv("GOOS", "windows")
	t.Setenv("GOARCH", "386")
	got, err := TargetFromEnv()
	require.NoError(t, err)
	require.Equal(t, "windows/386", got.String())
	require.Equal(t, "windows_386", got.Tag())
	require.Equal(t, "windows && 386", got.BuildConstraint())
	require.Equal(t, 4, got.PointerSize())

	t.Setenv("GOOS", "solaris")
	_, err = TargetFromEnv()
	require.Error(t, err)
}

// Every supported pair resolves to exactly one platform entry.
func TestPlatformTableComplete(t *testing.T) {
	for _, goos := range []OS{Linux, Darwin, Windows} {
		for _, width := range []int{32, 64} {
			n := 0
			for _, p := range platforms {
				if p.os == goos && p.width == width {
					n++
				}
			}
			if goos == Darwin && width == 32 {
				require.Zero(t, n)
			} else {
				require.Equal(t, 1, n, "%v/%v", goos, width)
			}
		}
	}
}

func TestLinkKindString(t *testing.T) {
	require.Equal(t, "static", LinkStatic.String())
	require.Equal(t, "shared", LinkShared.String())
	require.Equal(t, "framework", LinkFramework.String())
}
