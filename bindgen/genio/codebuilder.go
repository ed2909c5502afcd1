// Package genio builds and writes generated Go source files.
package genio

import (
	"bufio"
	"bytes"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// GeneratedHeader is the first line of every file written by openvr-bindgen.
// It follows the convention recognized by go vet and editors.
const GeneratedHeader = "// Code generated by openvr-bindgen. DO NOT EDIT."

var (
	generatedRe = regexp.MustCompile(`(?m)^// Code generated .* DO NOT EDIT\.$`)
	packageRe   = regexp.MustCompile(`(?m)^package `)
)

// IsGenerated reports whether the Go source src carries a
// generated-code marker before its package clause.
func IsGenerated(src []byte) bool {
	if loc := packageRe.FindIndex(src); loc != nil {
		src = src[:loc[0]]
	}
	return generatedRe.Match(src)
}

// CodeBuilder is a wrapper around [strings.Builder] that simplifies
// building Go code.
//
// The zero value is safely ready to use.
type CodeBuilder struct {
	// Indent is the indentation level (indentation is tabs).
	Indent int

	b strings.Builder
}

// Write appends a raw string.
func (w *CodeBuilder) Write(s string) {
	w.b.WriteString(s)
}

// Append writes the given string line by line with correct indentation.
func (w *CodeBuilder) Append(s string) {
	sc := bufio.NewScanner(strings.NewReader(s))
	sc.Buffer(nil, 1<<20)
	for sc.Scan() {
		w.Linef("%v", sc.Text())
	}
}

// Linef writes a single line, prepended by the current indentation.
//
// Takes format and args like [fmt.Printf].
func (w *CodeBuilder) Linef(format string, args ...any) {
	line := fmt.Sprintf(format, args...)
	if line != "" {
		w.b.WriteString(strings.Repeat("\t", w.Indent))
	}
	w.b.WriteString(line)
	w.b.WriteString("\n")
}

// Comment writes text as Go line comments at the current indentation.
func (w *CodeBuilder) Comment(text string) {
	if text == "" {
		return
	}
	for _, ln := range strings.Split(text, "\n") {
		if ln == "" {
			w.Linef("//")
		} else {
			w.Linef("// %v", ln)
		}
	}
}

// Header writes the generated-code marker, an optional build
// constraint and the package clause.
func (w *CodeBuilder) Header(buildConstraint, pkg string) {
	w.Linef("%v", GeneratedHeader)
	w.Linef("")
	if buildConstraint != "" {
		w.Linef("//go:build %v", buildConstraint)
		w.Linef("")
	}
	w.Linef("package %v", pkg)
	w.Linef("")
}

// String returns the current code without applying any formatting.
func (w *CodeBuilder) String() string {
	return w.b.String()
}

// Format formats the current code as Go source code.
func (w *CodeBuilder) Format() ([]byte, error) {
	return format.Source([]byte(w.String()))
}

func (w *CodeBuilder) Reset() {
	w.Indent = 0
	w.b.Reset()
}

// File is a rendered output file, relative to an output directory.
type File struct {
	Name string
	Data []byte
}

// WriteFiles writes all files into dir. Files whose content is
// unchanged are left untouched, so their modification times only move
// when the generated code actually changes. An existing file without a
// generated-code marker is never overwritten; that is checked for
// every file before the first one is written.
func WriteFiles(dir string, files []File) (written []string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var changed []File
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if old, err := os.ReadFile(path); err == nil {
			if bytes.Equal(old, f.Data) {
				continue
			}
			if !IsGenerated(old) {
				return nil, fmt.Errorf("refusing to overwrite %v: not a generated file", path)
			}
		}
		changed = append(changed, f)
	}
	for _, f := range changed {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Data, 0o666); err != nil {
			return written, fmt.Errorf("write %v: %w", path, err)
		}
		written = append(written, f.Name)
	}
	return written, nil
}
