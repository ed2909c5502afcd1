package bindgen

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// translated is the translator output, indexed by Go name.
type translated struct {
	fset   *token.FileSet
	types  map[string]*ast.TypeSpec
	consts map[string]*ast.ValueSpec
	// Go names of structs that had members cgo could not represent.
	padded []string
}

const cgoPadPrefix = "Pad_cgo_"

func parseTranslated(src []byte) (*translated, error) {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "godefs.go", src, parser.SkipObjectResolution)
	if err != nil {
		return nil, fmt.Errorf("parse translator output: %w", err)
	}
	t := &translated{
		fset:   fset,
		types:  map[string]*ast.TypeSpec{},
		consts: map[string]*ast.ValueSpec{},
	}
	for _, decl := range f.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok {
			continue
		}
		for _, spec := range gd.Specs {
			switch spec := spec.(type) {
			case *ast.TypeSpec:
				padded := false
				// cgo names the filler for members it cannot
				// represent Pad_cgo_N; they are blank fields.
				astutil.Apply(spec, func(c *astutil.Cursor) bool {
					if field, ok := c.Node().(*ast.Field); ok {
						for _, name := range field.Names {
							if strings.HasPrefix(name.Name, cgoPadPrefix) {
								name.Name = "_"
								padded = true
							}
						}
					}
					return true
				}, nil)
				if padded {
					t.padded = append(t.padded, spec.Name.Name)
				}
				t.types[spec.Name.Name] = spec
			case *ast.ValueSpec:
				for _, name := range spec.Names {
					t.consts[name.Name] = spec
				}
			}
		}
	}
	return t, nil
}

// cgoLeftovers returns the C types a node still refers to. cgo leaves
// a _Ctype_ name for every C type without a Go declaration, which
// means the type was excluded or is not part of the header inventory.
func cgoLeftovers(n ast.Node) []string {
	var res []string
	ast.Inspect(n, func(n ast.Node) bool {
		if id, ok := n.(*ast.Ident); ok {
			if c, ok := strings.CutPrefix(id.Name, "_Ctype_"); ok && !slices.Contains(res, c) {
				res = append(res, c)
			}
		}
		return true
	})
	return res
}

// typeEnum sets the type of the enumerator constants of an enum, which
// cgo emits untyped.
func typeEnum(spec *ast.ValueSpec, enum string) {
	astutil.Apply(spec, func(c *astutil.Cursor) bool {
		if vs, ok := c.Node().(*ast.ValueSpec); ok {
			vs.Type = ast.NewIdent(enum)
			return false
		}
		return true
	}, nil)
}

// probeValues reads the probe constants back.
func (t *translated) probeValues(probes []*probe) error {
	for i, pr := range probes {
		name := pr.goConst(i)
		spec, ok := t.consts[name]
		if !ok || len(spec.Values) == 0 {
			return fmt.Errorf("translator output lacks layout probe %v", pr.c)
		}
		lit, ok := spec.Values[0].(*ast.BasicLit)
		if !ok || lit.Kind != token.INT {
			return fmt.Errorf("layout probe %v: unexpected value", pr.c)
		}
		v, err := strconv.ParseUint(lit.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("layout probe %v: %w", pr.c, err)
		}
		pr.value = v
	}
	return nil
}
