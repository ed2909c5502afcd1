package bindgen

import (
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
	"github.com/ovrgo/openvr/nativelib"
)

// handwritten maps the top-level names declared by the hand-written
// Go files of dir that are built for t to the file declaring them.
// Generated files and tests are ignored; a missing dir declares
// nothing.
func handwritten(dir string, t nativelib.Target) (map[string]string, error) {
	res := map[string]string{}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return res, nil
	} else if err != nil {
		return nil, err
	}

	fset := token.NewFileSet()
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		src, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		if genio.IsGenerated(src) {
			continue
		}
		f, err := parser.ParseFile(fset, name, src, parser.ParseComments|parser.SkipObjectResolution)
		if err != nil {
			return nil, err
		}
		expr, err := fileConstraint(f, name)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", name, err)
		}
		if !matchTarget(expr, t) {
			continue
		}

		add := func(id *ast.Ident) {
			if _, ok := res[id.Name]; !ok && id.Name != "_" {
				res[id.Name] = name
			}
		}
		for _, decl := range f.Decls {
			switch decl := decl.(type) {
			case *ast.GenDecl:
				for _, spec := range decl.Specs {
					switch spec := spec.(type) {
					case *ast.TypeSpec:
						add(spec.Name)
					case *ast.ValueSpec:
						for _, id := range spec.Names {
							add(id)
						}
					}
				}
			case *ast.FuncDecl:
				if decl.Recv == nil {
					add(decl.Name)
				}
			}
		}
	}
	return res, nil
}

// checkHandwritten compares the plan with the hand-written part of the
// output package. A generated name that is also declared by hand is an
// error; a manual declaration nobody wrote is only reported, since the
// overrides may be written after a first generation.
func (g *generator) checkHandwritten(hw map[string]string) error {
	var errs *multierror.Error
	clash := func(goName string) {
		if file, ok := hw[goName]; ok {
			errs = multierror.Append(errs, fmt.Errorf("%v is generated but also declared in %v; mark it manual = true or rename it", goName, file))
		}
	}
	var missing []string
	for _, it := range g.plan.items {
		if it.manual {
			if _, ok := hw[it.goName]; !ok {
				missing = append(missing, it.goName)
			}
			continue
		}
		clash(it.goName)
		if it.decl.Kind == cheader.KindEnum {
			for _, e := range it.enumerators {
				clash(e.goName)
			}
		}
	}
	if len(missing) > 0 {
		g.log.Warnf("%v: manual declarations without a hand-written Go declaration: %v", g.target, strings.Join(missing, ", "))
	}
	return errs.ErrorOrNil()
}
