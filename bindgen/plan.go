package bindgen

import (
	"go/token"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ovrgo/openvr/cheader"
	"github.com/ovrgo/openvr/config"
	"github.com/ovrgo/openvr/config/rules"
)

// item is a declaration that takes part in generation: either emitted
// into the generated files or, when manual, provided by hand.
type item struct {
	decl   *cheader.Decl
	goName string
	manual bool
	// KindEnum only.
	enumerators []*enumItem
}

type enumItem struct {
	*cheader.Enumerator
	goName string
}

type plan struct {
	header *cheader.Header
	// Included declarations in header order.
	items  []*item
	byName map[string]*item
	// Native names dropped by an include=false rule.
	excluded map[string]bool

	excludedCount int
}

// exportedName upper-cases the first letter of s, the way cgo -godefs
// exports struct fields.
func exportedName(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if unicode.IsLower(r) {
		return string(unicode.ToUpper(r)) + s[size:]
	}
	return s
}

// enumeratorName drops the "EnumName_" prefix OpenVR puts on every
// enumerator, unless prepend is set or the result would not be an
// identifier.
func enumeratorName(enum, name string, prepend bool) string {
	if !prepend {
		if rest, ok := strings.CutPrefix(name, enum+"_"); ok && token.IsIdentifier(rest) {
			name = rest
		}
	}
	return exportedName(name)
}

func newPlan(c *config.Config, h *cheader.Header) (*plan, error) {
	var syms []rules.Symbol
	for _, d := range h.Decls {
		syms = append(syms, rules.Symbol{Name: d.Name, Kind: d.Kind.String(), GoName: exportedName(d.Name)})
		for _, e := range d.Enumerators {
			syms = append(syms, rules.Symbol{
				Name:   e.Name,
				Kind:   "enumerator",
				GoName: enumeratorName(d.Name, e.Name, c.OpenVR.PrependEnumName),
			})
		}
	}
	decisions, err := rules.Execute(c, syms)
	if err != nil {
		return nil, err
	}

	p := &plan{
		header:   h,
		byName:   map[string]*item{},
		excluded: map[string]bool{},
	}
	for _, d := range h.Decls {
		dec := decisions[d.Name]
		if !dec.Include {
			p.excluded[d.Name] = true
			p.excludedCount += 1 + len(d.Enumerators)
			continue
		}
		it := &item{decl: d, goName: dec.GoName, manual: dec.Manual}
		for _, e := range d.Enumerators {
			edec := decisions[e.Name]
			if !edec.Include {
				p.excluded[e.Name] = true
				p.excludedCount++
				continue
			}
			it.enumerators = append(it.enumerators, &enumItem{Enumerator: e, goName: edec.GoName})
		}
		p.items = append(p.items, it)
		p.byName[d.Name] = it
	}
	return p, nil
}

// resolve follows typedefs from it to the declaration that gives the
// type its shape. The result is it itself for anything but a typedef
// of a named type.
func (p *plan) resolve(it *item) *cheader.Decl {
	d := it.decl
	for range 16 {
		if d.Kind != cheader.KindTypedef {
			return d
		}
		name := strings.TrimSpace(d.Type)
		for _, kw := range []string{"struct ", "union ", "enum "} {
			name = strings.TrimPrefix(name, kw)
		}
		next := p.header.Lookup(name)
		if next == nil || next == d {
			return d
		}
		d = next
	}
	return d
}

func (p *plan) byGoName(name string) *item {
	for _, it := range p.items {
		if it.goName == name {
			return it
		}
	}
	return nil
}

func (p *plan) manualItems() []*item {
	var res []*item
	for _, it := range p.items {
		if it.manual {
			res = append(res, it)
		}
	}
	return res
}
