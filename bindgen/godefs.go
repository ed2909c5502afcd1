package bindgen

import (
	"fmt"
	"path/filepath"

	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
)

// probe is a native layout value asked from the C compiler, to be
// checked against the hand-written declaration it describes.
type probe struct {
	// C expression, e.g. "offsetof(VREvent_t, data)".
	c string
	// Go expression yielding the same value for the manual declaration.
	goExpr string
	// An alignment, which Go caps at the pointer size.
	align bool
	value uint64
}

func (pr *probe) goConst(i int) string { return fmt.Sprintf("abi_%d", i) }
func (pr *probe) cEnum(i int) string   { return fmt.Sprintf("openvr_abi_%d", i) }

// cSpelling is how C code names the type declared by d.
func cSpelling(d *cheader.Decl) string {
	if d.Tagged {
		return d.Kind.String() + " " + d.Name
	}
	return d.Name
}

// cgoSpelling is how Go code importing "C" names the type declared
// by d.
func cgoSpelling(d *cheader.Decl) string {
	if d.Tagged {
		return d.Kind.String() + "_" + d.Name
	}
	return d.Name
}

// probes lists sizeof, _Alignof and offsetof checks for the manual
// declarations.
func (p *plan) probes() []*probe {
	var res []*probe
	for _, it := range p.manualItems() {
		if it.decl.Kind == cheader.KindConst || it.decl.Kind == cheader.KindFunc {
			continue
		}
		shape := p.resolve(it)
		zero := "*new(" + it.goName + ")"
		if shape.Kind == cheader.KindStruct || shape.Kind == cheader.KindUnion {
			zero = it.goName + "{}"
		}
		res = append(res, &probe{
			c:      "sizeof(" + cSpelling(it.decl) + ")",
			goExpr: "unsafe.Sizeof(" + zero + ")",
		}, alignProbe(it.decl, zero))
		if shape.Kind != cheader.KindStruct {
			continue
		}
		for _, f := range shape.Fields {
			res = append(res, &probe{
				c:      "offsetof(" + cSpelling(it.decl) + ", " + f.Name + ")",
				goExpr: "unsafe.Offsetof(" + zero + "." + exportedName(f.Name) + ")",
			})
		}
	}
	return res
}

func alignProbe(d *cheader.Decl, zero string) *probe {
	return &probe{
		c:      "_Alignof(" + cSpelling(d) + ")",
		goExpr: "unsafe.Alignof(" + zero + ")",
		align:  true,
	}
}

// godefsInput renders the cgo -godefs input: one Go declaration per
// planned type and enumerator, plus the layout probes.
func (p *plan) godefsInput(pkg, wrapper string, probes []*probe) []byte {
	var cb genio.CodeBuilder
	cb.Linef("//go:build ignore")
	cb.Linef("")
	cb.Linef("package %v", pkg)
	cb.Linef("")
	cb.Linef("/*")
	cb.Linef("#include <stddef.h>")
	cb.Linef("#include %q", filepath.Base(wrapper))
	if len(probes) > 0 {
		cb.Linef("")
		cb.Linef("enum {")
		cb.Indent++
		for i, pr := range probes {
			cb.Linef("%v = %v,", pr.cEnum(i), pr.c)
		}
		cb.Indent--
		cb.Linef("};")
	}
	cb.Linef("*/")
	cb.Linef(`import "C"`)
	cb.Linef("")

	for _, it := range p.items {
		switch it.decl.Kind {
		case cheader.KindStruct, cheader.KindUnion, cheader.KindTypedef, cheader.KindEnum:
			cb.Linef("type %v C.%v", it.goName, cgoSpelling(it.decl))
		}
	}
	for _, it := range p.items {
		if it.decl.Kind != cheader.KindEnum || it.manual || len(it.enumerators) == 0 {
			continue
		}
		cb.Linef("")
		cb.Linef("const (")
		cb.Indent++
		for _, e := range it.enumerators {
			cb.Linef("%v = C.%v", e.goName, e.Name)
		}
		cb.Indent--
		cb.Linef(")")
	}
	if len(probes) > 0 {
		cb.Linef("")
		cb.Linef("const (")
		cb.Indent++
		for i, pr := range probes {
			cb.Linef("%v = C.%v", pr.goConst(i), pr.cEnum(i))
		}
		cb.Indent--
		cb.Linef(")")
	}
	return []byte(cb.String())
}
