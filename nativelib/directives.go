package nativelib

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

// Directives is everything the build needs to link the native library
// for one target.
type Directives struct {
	Target Target
	// Linker search path (directory containing Library.Artifact).
	SearchPath string
	Library    Library
	// Companion system libraries, linked after Library.
	System []string
	// Directory with the public OpenVR headers.
	IncludeDir string
	// Files and directories whose change invalidates the build.
	Watch []string
}

// ArtifactPath is the full path of the library artifact.
func (d *Directives) ArtifactPath() string {
	return filepath.Join(d.SearchPath, d.Library.Artifact)
}

// CFlags returns the compiler flags for cgo.
func (d *Directives) CFlags() []string {
	if d.IncludeDir == "" {
		return nil
	}
	return []string{"-I" + d.IncludeDir}
}

// LDFlags returns the linker flags for cgo, with dir substituted for
// the search path (use d.SearchPath for absolute flags, or a
// ${SRCDIR}-relative path for checked-in cgo files).
func (d *Directives) LDFlags(dir string) []string {
	var flags []string
	switch d.Library.Kind {
	case LinkStatic:
		flags = append(flags, "-L"+dir)
		if d.Target.OS == Linux {
			flags = append(flags, "-Wl,-Bstatic", "-l"+d.Library.Name, "-Wl,-Bdynamic")
		} else {
			flags = append(flags, "-l"+d.Library.Name)
		}
	case LinkShared:
		flags = append(flags, "-L"+dir, "-l"+d.Library.Name)
		if d.Target.OS != Windows {
			flags = append(flags, "-Wl,-rpath,"+dir)
		}
	case LinkFramework:
		flags = append(flags, "-F"+dir, "-framework", d.Library.Name, "-Wl,-rpath,"+dir)
	}
	for _, lib := range d.System {
		flags = append(flags, "-l"+lib)
	}
	return flags
}

// WriteTo prints the directives one per line in "key=value" form.
func (d *Directives) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "target=%v\n", d.Target)
	fmt.Fprintf(&b, "link-search=%v\n", d.SearchPath)
	fmt.Fprintf(&b, "link-lib=%v=%v\n", d.Library.Kind, d.Library.Name)
	for _, lib := range d.System {
		fmt.Fprintf(&b, "link-system=%v\n", lib)
	}
	if d.IncludeDir != "" {
		fmt.Fprintf(&b, "include=%v\n", d.IncludeDir)
	}
	for _, p := range d.Watch {
		fmt.Fprintf(&b, "watch=%v\n", p)
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
