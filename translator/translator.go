// Package translator turns cgo type definition input into Go
// declarations with the target's real C layouts.
package translator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ovrgo/openvr/nativelib"
)

// Request is one translation for one target.
type Request struct {
	Target nativelib.Target
	// Go source importing "C", see cgo -godefs.
	Source []byte
	// Extra C compiler flags, typically include paths.
	CFlags []string
	// Parent directory for scratch files; os.TempDir() if empty.
	Dir string
}

type Translator interface {
	Translate(ctx context.Context, req *Request) ([]byte, error)
}

// Error is a failed translation. Stderr holds the C compiler's
// diagnostics.
type Error struct {
	Target nativelib.Target
	Stderr string
	Err    error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("translate headers for %v: %v", e.Target, e.Err)
	if out := strings.TrimSpace(e.Stderr); out != "" {
		s += "\n" + out
	}
	return s
}

func (e *Error) Unwrap() error { return e.Err }

// Command runs a tool in dir with the given extra environment and
// returns its standard output. Standard error is returned through
// *exec.ExitError.
type Command func(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error)

// Godefs runs "go tool cgo -godefs".
type Godefs struct {
	// The go command; "go" if empty.
	GoTool string
	// Replaced in tests.
	Run Command
}

const inputFile = "types.go"

func (g *Godefs) Translate(ctx context.Context, req *Request) ([]byte, error) {
	tmp, err := os.MkdirTemp(req.Dir, "godefs-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)
	if err := os.WriteFile(filepath.Join(tmp, inputFile), req.Source, 0o644); err != nil {
		return nil, err
	}

	tool := g.GoTool
	if tool == "" {
		tool = "go"
	}
	run := g.Run
	if run == nil {
		run = execCommand
	}
	env := []string{
		"GOOS=" + string(req.Target.OS),
		"GOARCH=" + req.Target.Arch,
		"CGO_ENABLED=1",
		"CGO_CFLAGS=" + strings.Join(req.CFlags, " "),
	}
	out, err := run(ctx, tmp, env, tool, "tool", "cgo", "-godefs", "-objdir", filepath.Join(tmp, "_obj"), inputFile)
	if err != nil {
		tErr := &Error{Target: req.Target, Err: err}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			tErr.Stderr = string(exitErr.Stderr)
		}
		return nil, tErr
	}
	if len(bytes.TrimSpace(out)) == 0 {
		return nil, &Error{Target: req.Target, Err: errors.New("translator produced no output")}
	}
	return out, nil
}

func execCommand(ctx context.Context, dir string, env []string, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	return cmd.Output()
}
