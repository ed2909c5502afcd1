package bindgen

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/ovrgo/openvr/bindgen/genio"
	"golang.org/x/mod/modfile"
)

// module is the Go module the output package belongs to.
type module struct {
	root string
	path string
}

// findModule walks up from dir to the nearest go.mod. It returns nil
// if there is none.
func findModule(dir string) (*module, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			f, err := modfile.ParseLax(filepath.Join(dir, "go.mod"), data, nil)
			if err != nil {
				return nil, err
			}
			if f.Module == nil || f.Module.Mod.Path == "" {
				return nil, fmt.Errorf("%v: no module directive", filepath.Join(dir, "go.mod"))
			}
			return &module{root: dir, path: f.Module.Mod.Path}, nil
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// contains reports whether p lies inside the module.
func (m *module) contains(p string) bool {
	if m == nil {
		return false
	}
	rel, err := filepath.Rel(m.root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (m *module) importPath(dir string) string {
	if !m.contains(dir) {
		return ""
	}
	rel, _ := filepath.Rel(m.root, dir)
	if rel == "." {
		return m.path
	}
	return path.Join(m.path, filepath.ToSlash(rel))
}

// srcdirPath spells p for a cgo directive in a file in outDir. Paths
// inside the module are relative to ${SRCDIR}, so the checked-in files
// work from any checkout location.
func (m *module) srcdirPath(outDir, p string) string {
	if m.contains(p) && m.contains(outDir) {
		if rel, err := filepath.Rel(outDir, p); err == nil {
			return "${SRCDIR}/" + filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}

// renderLink assembles zlink_<goos>_<goarch>.go, which carries the
// native library's link directives as cgo flags.
func (g *generator) renderLink() ([]byte, error) {
	d := g.directives
	outDir := g.cfg.Output.Dir

	var includes []string
	for _, dir := range append([]string{d.IncludeDir}, g.cfg.OpenVR.IncludeDirs...) {
		if dir == "" || dir == outDir || slices.Contains(includes, dir) {
			continue
		}
		includes = append(includes, dir)
	}
	var cflags []string
	for _, dir := range includes {
		cflags = append(cflags, "-I"+g.mod.srcdirPath(outDir, dir))
	}
	ldflags := d.LDFlags(g.mod.srcdirPath(outDir, d.SearchPath))

	for _, f := range slices.Concat(cflags, ldflags) {
		if strings.ContainsAny(f, " \t\"'") {
			return nil, fmt.Errorf("cgo flag %q contains whitespace or quotes", f)
		}
	}
	if !g.mod.contains(d.SearchPath) {
		g.log.Warnf("%v: library search path %v is outside the module; %v will only work on this machine",
			g.target, d.SearchPath, linkFileName(g))
	}

	var cb genio.CodeBuilder
	cb.Header(g.target.BuildConstraint()+" && cgo", g.cfg.Output.Package)
	cb.Linef("// Links %v (%v) for %v.", d.Library.Name, d.Library.Kind, g.target)
	cb.Linef("")
	cb.Linef("// #cgo CFLAGS: %v", strings.Join(cflags, " "))
	cb.Linef("// #cgo LDFLAGS: %v", strings.Join(ldflags, " "))
	cb.Linef(`import "C"`)
	return cb.Format()
}

func linkFileName(g *generator) string {
	return "zlink_" + g.target.Tag() + ".go"
}
