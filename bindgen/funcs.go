package bindgen

import (
	"fmt"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
)

// renderFuncs assembles zfuncs.go: a Go function per exported C
// function. Arguments and results cross the boundary by value
// conversion for C builtins and by reinterpreting memory for
// everything else, which relies on the Go declarations having the
// native layout.
func (g *generator) renderFuncs() ([]byte, error) {
	var body genio.CodeBuilder
	for _, it := range g.plan.items {
		if it.manual || it.decl.Kind != cheader.KindFunc {
			continue
		}
		var fn genio.CodeBuilder
		if err := g.funcDecl(&fn, it); err != nil {
			g.log.Warnf("%v: skip function %v: %v", g.target, it.decl.Name, err)
			g.counts.Skipped++
			continue
		}
		body.Write(fn.String())
		body.Linef("")
		g.counts.Functions++
	}

	var cb genio.CodeBuilder
	cb.Header("cgo", g.cfg.Output.Package)
	cb.Linef("/*")
	cb.Linef("#include <stdlib.h>")
	cb.Linef("#include %q", filepath.Base(g.cfg.OpenVR.Wrapper))
	cb.Linef("*/")
	cb.Linef(`import "C"`)
	cb.Linef("")
	if strings.Contains(body.String(), "unsafe.") {
		cb.Linef(`import "unsafe"`)
		cb.Linef("")
	}
	cb.Write(body.String())
	return cb.Format()
}

type param struct {
	name string
	typ  goType
}

func (g *generator) funcDecl(cb *genio.CodeBuilder, it *item) error {
	d := it.decl
	res, err := g.plan.goType(d.Type)
	if err != nil {
		return fmt.Errorf("result: %w", err)
	}
	var params []param
	taken := map[string]bool{}
	for i, prm := range d.Params {
		t, err := g.plan.goType(prm.Type)
		if err != nil {
			return fmt.Errorf("parameter %v: %w", i, err)
		}
		if t.kind == typeVoid {
			return fmt.Errorf("parameter %v has type void", i)
		}
		name := prm.Name
		if name == "" {
			name = fmt.Sprintf("p%d", i)
		}
		if token.IsKeyword(name) || name == "C" || name == "unsafe" {
			name += "_"
		}
		taken[name] = true
		params = append(params, param{name: name, typ: t})
	}

	var sig []string
	for _, prm := range params {
		sig = append(sig, prm.name+" "+prm.typ.goName)
	}
	cb.Comment(d.Doc)
	cb.Linef("func %v(%v) %v{", it.goName, strings.Join(sig, ", "), withSpace(res.goName))
	cb.Indent++

	var args []string
	for i, prm := range params {
		switch prm.typ.kind {
		case typeBuiltin:
			args = append(args, fmt.Sprintf("%v(%v)", prm.typ.cName, prm.name))
		case typeString:
			cs := fmt.Sprintf("cs%d", i)
			for taken[cs] {
				cs += "_"
			}
			cb.Linef("%v := C.CString(%v)", cs, prm.name)
			cb.Linef("defer C.free(unsafe.Pointer(%v))", cs)
			args = append(args, cs)
		case typeVoidPtr:
			args = append(args, prm.name)
		default:
			args = append(args, fmt.Sprintf("*(*%v)(unsafe.Pointer(&%v))", prm.typ.cName, prm.name))
		}
	}
	call := fmt.Sprintf("C.%v(%v)", d.Name, strings.Join(args, ", "))

	switch res.kind {
	case typeVoid:
		cb.Linef("%v", call)
	case typeBuiltin:
		cb.Linef("return %v(%v)", res.goName, call)
	case typeString:
		cb.Linef("return C.GoString(%v)", call)
	case typeVoidPtr:
		cb.Linef("return %v", call)
	default:
		r := "r"
		for taken[r] {
			r += "_"
		}
		cb.Linef("%v := %v", r, call)
		cb.Linef("return *(*%v)(unsafe.Pointer(&%v))", res.goName, r)
	}
	cb.Indent--
	cb.Linef("}")
	return nil
}

func withSpace(s string) string {
	if s == "" {
		return ""
	}
	return s + " "
}
