package nativelib

import (
	"bytes"
	"context"
	"io"
	"os/exec"
)

// Runner runs external build tools.
type Runner interface {
	LookPath(tool string) (string, error)
	Run(ctx context.Context, dir string, name string, args ...string) error
}

// ExecRunner runs tools with os/exec. Output is captured for error
// reporting and mirrored to Log when set.
type ExecRunner struct {
	Log io.Writer
}

func (ExecRunner) LookPath(tool string) (string, error) {
	return exec.LookPath(tool)
}

func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	if r.Log != nil {
		cmd.Stdout = io.MultiWriter(&out, r.Log)
	} else {
		cmd.Stdout = &out
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Run(); err != nil {
		return &ToolError{Tool: name, Args: args, Output: out.String(), Err: err}
	}
	return nil
}
