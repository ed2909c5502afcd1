package bindgen

import (
	"fmt"
	"go/ast"
	"strings"

	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
)

// Hand-written types of the output package that hold 4-byte aligned
// members Go cannot align natively.
const (
	packedUint64Type = "PackedUint64"
	packedPtrType    = "PackedPtr"
)

// repacked is the native layout of a struct cgo could not represent,
// read back from the C compiler so the struct can be rebuilt.
type repacked struct {
	size   *probe
	fields []*repackedField
}

type repackedField struct {
	cheader.Field
	goName string
	offset *probe
	size   *probe
}

// planRepack prepares the layout probes of the padded structs. It
// returns the probes to add to the next translation.
func (g *generator) planRepack() []*probe {
	var res []*probe
	g.repacked = map[string]*repacked{}
	for _, name := range g.tr.padded {
		it := g.plan.byGoName(name)
		if it == nil || it.manual {
			continue
		}
		shape := g.plan.resolve(it)
		if shape.Kind != cheader.KindStruct {
			continue
		}
		c := cSpelling(it.decl)
		zero := it.goName + "{}"
		r := &repacked{size: &probe{c: "sizeof(" + c + ")", goExpr: "unsafe.Sizeof(" + zero + ")"}}
		res = append(res, r.size, alignProbe(it.decl, zero))
		for _, f := range shape.Fields {
			rf := &repackedField{Field: *f, goName: exportedName(f.Name)}
			rf.offset = &probe{
				c:      "offsetof(" + c + ", " + f.Name + ")",
				goExpr: "unsafe.Offsetof(" + zero + "." + rf.goName + ")",
			}
			rf.size = &probe{
				c:      "sizeof(((" + c + " *)0)->" + f.Name + ")",
				goExpr: "unsafe.Sizeof(" + zero + "." + rf.goName + ")",
			}
			r.fields = append(r.fields, rf)
			res = append(res, rf.offset, rf.size)
		}
		g.repacked[name] = r
	}
	return res
}

// repackedDecl renders a padded struct with every member named at its
// native offset. Members cgo dropped, and 8-byte scalars it kept
// (whose Go alignment would exceed the packed native one), become
// PackedUint64, PackedPtr or uint32 arrays.
func (g *generator) repackedDecl(cb *genio.CodeBuilder, it *item, st *ast.StructType, r *repacked) error {
	kept := map[string]ast.Expr{}
	for _, field := range st.Fields.List {
		for _, n := range field.Names {
			if n.Name != "_" {
				kept[n.Name] = field.Type
			}
		}
	}

	cb.Linef("type %v struct {", it.goName)
	cb.Indent++
	var cur uint64
	for _, f := range r.fields {
		off, size := f.offset.value, f.size.value
		if off < cur {
			return fmt.Errorf("%v.%v: native offset %v overlaps the previous member", it.decl.Name, f.Name, off)
		}
		if off > cur {
			cb.Linef("_ [%v]byte", off-cur)
		}
		typ, ok := kept[f.goName]
		var goType string
		if ok && !(size == 8 && g.target.PointerWidth == 64 && wideScalar(typ)) {
			goType = g.printNode(typ)
		} else {
			goType = g.packedType(f.Type, size)
		}
		cb.Comment(f.Doc)
		cb.Linef("%v %v", f.goName, goType)
		cur = off + size
	}
	if size := r.size.value; size > cur {
		cb.Linef("_ [%v]byte", size-cur)
	}
	cb.Indent--
	cb.Linef("}")
	return nil
}

func (g *generator) packedType(cType string, size uint64) string {
	switch {
	case strings.Contains(cType, "*") && size == uint64(g.target.PointerWidth/8):
		return packedPtrType
	case size == 8:
		return packedUint64Type
	case size%4 == 0:
		return fmt.Sprintf("[%v]uint32", size/4)
	default:
		return fmt.Sprintf("[%v]byte", size)
	}
}

// wideScalar reports whether a cgo field type is a scalar or pointer
// Go aligns to 8 bytes on 64-bit targets.
func wideScalar(typ ast.Expr) bool {
	switch typ := typ.(type) {
	case *ast.StarExpr:
		return true
	case *ast.Ident:
		switch typ.Name {
		case "uint64", "int64", "float64", "uintptr", "uint", "int":
			return true
		}
	case *ast.SelectorExpr:
		return typ.Sel.Name == "Pointer"
	}
	return false
}
