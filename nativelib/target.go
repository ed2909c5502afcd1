// Package nativelib makes the vendored OpenVR library available for
// linking: it builds it from source or locates a prebuilt binary for a
// target, and describes the result as linker directives.
package nativelib

import (
	"os"
	"runtime"
)

type OS string

const (
	Linux   OS = "linux"
	Darwin  OS = "darwin"
	Windows OS = "windows"
)

// Target is an operating system and pointer width pair. Arch is kept
// for naming generated files and build directories.
type Target struct {
	OS           OS
	Arch         string
	PointerWidth int
}

// Architectures OpenVR builds for. The platform table is keyed by
// operating system and pointer width only.
var archPointerWidth = map[string]int{
	"386":   32,
	"arm":   32,
	"amd64": 64,
	"arm64": 64,
}

// ParseTarget validates a GOOS/GOARCH pair. Any combination outside
// {linux, darwin, windows} x {32, 64} bit, or without a platform entry,
// is an *UnsupportedTargetError.
func ParseTarget(goos, goarch string) (Target, error) {
	width, ok := archPointerWidth[goarch]
	if !ok {
		return Target{}, &UnsupportedTargetError{GOOS: goos, GOARCH: goarch, Reason: "unknown architecture"}
	}
	t := Target{OS: OS(goos), Arch: goarch, PointerWidth: width}
	switch t.OS {
	case Linux, Darwin, Windows:
	default:
		return Target{}, &UnsupportedTargetError{GOOS: goos, GOARCH: goarch, Reason: "unknown operating system"}
	}
	if _, ok := lookupPlatform(t); !ok {
		return Target{}, &UnsupportedTargetError{GOOS: goos, GOARCH: goarch, Reason: "no OpenVR binaries for this operating system and pointer width"}
	}
	return t, nil
}

// TargetFromEnv reads the standard GOOS and GOARCH variables, falling
// back to the host platform for unset ones.
func TargetFromEnv() (Target, error) {
	goos, goarch := os.Getenv("GOOS"), os.Getenv("GOARCH")
	if goos == "" {
		goos = runtime.GOOS
	}
	if goarch == "" {
		goarch = runtime.GOARCH
	}
	return ParseTarget(goos, goarch)
}

func (t Target) String() string {
	return string(t.OS) + "/" + t.Arch
}

// Tag returns the target as "<goos>_<goarch>", used in file and
// directory names.
func (t Target) Tag() string {
	return string(t.OS) + "_" + t.Arch
}

// BuildConstraint returns the //go:build expression selecting t.
func (t Target) BuildConstraint() string {
	return string(t.OS) + " && " + t.Arch
}

// PointerSize is the size of a native pointer in bytes.
func (t Target) PointerSize() int {
	return t.PointerWidth / 8
}
