package nativelib

import (
	"fmt"
	"strings"
)

type UnsupportedTargetError struct {
	GOOS, GOARCH string
	Reason       string
}

func (e *UnsupportedTargetError) Error() string {
	return fmt.Sprintf("unsupported target %v/%v: %v", e.GOOS, e.GOARCH, e.Reason)
}

// MissingToolError is returned when a required native build tool is
// not on PATH.
type MissingToolError struct {
	Tool string
	Err  error
}

func (e *MissingToolError) Error() string {
	return fmt.Sprintf("required tool %q not found: %v", e.Tool, e.Err)
}

func (e *MissingToolError) Unwrap() error { return e.Err }

// ToolError carries the diagnostic output of a failed tool invocation.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	s := fmt.Sprintf("%v %v: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		s += "\n" + out
	}
	return s
}

func (e *ToolError) Unwrap() error { return e.Err }

// MissingArtifactError is returned when the library that should be
// linked does not exist where the platform table says it is.
type MissingArtifactError struct {
	Target Target
	Path   string
}

func (e *MissingArtifactError) Error() string {
	return fmt.Sprintf("link library for %v not found at %v", e.Target, e.Path)
}
