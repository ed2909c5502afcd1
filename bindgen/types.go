package bindgen

import (
	"bytes"
	"errors"
	"fmt"
	"go/ast"
	"go/printer"
	"strconv"
	"strings"

	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
)

func (g *generator) printNode(n any) string {
	var b bytes.Buffer
	cfg := printer.Config{Mode: printer.RawFormat}
	if err := cfg.Fprint(&b, g.tr.fset, n); err != nil {
		// Only reachable with a node type printer does not know.
		panic(err)
	}
	return b.String()
}

// renderTypes assembles ztypes_<goos>_<goarch>.go: every generated
// declaration in header order with the header's documentation.
func (g *generator) renderTypes() ([]byte, error) {
	var body genio.CodeBuilder
	inConst := false
	setConst := func(on bool) {
		if on == inConst {
			return
		}
		if on {
			body.Linef("const (")
			body.Indent++
		} else {
			body.Indent--
			body.Linef(")")
			body.Linef("")
		}
		inConst = on
	}

	for _, it := range g.plan.items {
		if it.manual || it.decl.Kind == cheader.KindFunc {
			continue
		}
		if it.decl.Kind == cheader.KindConst {
			line, err := g.constLine(it)
			if errors.Is(err, errExcluded) {
				g.log.Warnf("%v: skip constant %v: %v", g.target, it.decl.Name, err)
				g.counts.Skipped++
				continue
			} else if err != nil {
				return nil, fmt.Errorf("%v:%v: constant %v: %w", it.decl.Pos.Filename, it.decl.Pos.Line, it.decl.Name, err)
			}
			setConst(true)
			body.Comment(it.decl.Doc)
			body.Linef("%v", line)
			g.counts.Constants++
			continue
		}
		setConst(false)

		spec, ok := g.tr.types[it.goName]
		if !ok {
			return nil, fmt.Errorf("translator output lacks %v %v", it.decl.Kind, it.decl.Name)
		}
		if left := cgoLeftovers(spec.Type); len(left) > 0 {
			return nil, fmt.Errorf("%v refers to C type %v, which has no Go declaration (excluded by a rule?)",
				it.decl.Name, strings.Join(left, ", "))
		}
		body.Comment(it.decl.Doc)
		if err := g.typeDecl(&body, it, spec); err != nil {
			return nil, err
		}
		body.Linef("")

		if it.decl.Kind == cheader.KindEnum {
			g.counts.Enums++
			if err := g.enumerators(&body, it); err != nil {
				return nil, err
			}
		} else {
			g.counts.Types++
		}
	}
	setConst(false)

	var cb genio.CodeBuilder
	cb.Header(g.target.BuildConstraint(), g.cfg.Output.Package)
	if strings.Contains(body.String(), "unsafe.") {
		cb.Linef(`import "unsafe"`)
		cb.Linef("")
	}
	cb.Write(body.String())
	return cb.Format()
}

func (g *generator) typeDecl(cb *genio.CodeBuilder, it *item, spec *ast.TypeSpec) error {
	st, ok := spec.Type.(*ast.StructType)
	if !ok {
		assign := ""
		if spec.Assign.IsValid() {
			assign = "= "
		}
		cb.Linef("type %v %v%v", it.goName, assign, g.printNode(spec.Type))
		return nil
	}

	docs := map[string]string{}
	if shape := g.plan.resolve(it); shape.Kind == cheader.KindStruct {
		for _, f := range shape.Fields {
			docs[exportedName(f.Name)] = f.Doc
		}
	}
	if r := g.repacked[it.goName]; r != nil {
		if err := g.repackedDecl(cb, it, st, r); err != nil {
			return err
		}
		g.log.Infof("%v: %v rebuilt from its native layout: cgo could not place its 4-byte aligned members", g.target, it.decl.Name)
		g.counts.Repacked++
		return nil
	}
	if len(st.Fields.List) == 0 {
		cb.Linef("type %v struct{}", it.goName)
		return nil
	}
	cb.Linef("type %v struct {", it.goName)
	cb.Indent++
	for _, field := range st.Fields.List {
		var names []string
		for _, n := range field.Names {
			names = append(names, n.Name)
		}
		if len(names) == 1 {
			cb.Comment(docs[names[0]])
		}
		cb.Linef("%v %v", strings.Join(names, ", "), g.printNode(field.Type))
	}
	cb.Indent--
	cb.Linef("}")
	return nil
}

func (g *generator) enumerators(cb *genio.CodeBuilder, it *item) error {
	if len(it.enumerators) == 0 {
		return nil
	}
	cb.Linef("const (")
	cb.Indent++
	for _, e := range it.enumerators {
		spec, ok := g.tr.consts[e.goName]
		if !ok {
			return fmt.Errorf("translator output lacks enumerator %v", e.Name)
		}
		typeEnum(spec, it.goName)
		cb.Comment(e.Doc)
		cb.Linef("%v", g.printNode(spec))
		g.counts.Enumerators++
	}
	cb.Indent--
	cb.Linef(")")
	cb.Linef("")
	return nil
}

// constLine renders a static constant from its header initializer.
// cgo cannot translate these: they are variables to the C compiler.
func (g *generator) constLine(it *item) (string, error) {
	typ, err := g.plan.constType(it.decl.Type)
	if err != nil {
		return "", err
	}
	val, err := constValue(it.decl.Value)
	if err != nil {
		return "", err
	}
	if typ == "" {
		return fmt.Sprintf("%v = %v", it.goName, val), nil
	}
	return fmt.Sprintf("%v %v = %v", it.goName, typ, val), nil
}

// constValue converts a C literal to a Go literal.
func constValue(lit string) (string, error) {
	switch {
	case lit == "true" || lit == "false":
		return lit, nil
	case strings.HasPrefix(lit, `"`):
		s, err := strconv.Unquote(lit)
		if err != nil {
			return "", fmt.Errorf("string literal %v: %w", lit, err)
		}
		return strconv.Quote(s), nil
	}

	sign, s := "", lit
	if rest, ok := strings.CutPrefix(s, "-"); ok {
		sign, s = "-", rest
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		s = strings.TrimRight(s, "uUlL")
	} else {
		s = strings.TrimRight(s, "uUlLfF")
	}
	if s == "" || !(s[0] >= '0' && s[0] <= '9' || s[0] == '.') {
		return "", fmt.Errorf("initializer %q is not a literal", lit)
	}
	if _, err := strconv.ParseUint(s, 0, 64); err == nil {
		return sign + s, nil
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil && !strings.ContainsAny(s, "xXpP") {
		return sign + s, nil
	}
	return "", fmt.Errorf("initializer %q is not a literal", lit)
}
