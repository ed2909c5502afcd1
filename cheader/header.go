// Package cheader scans C headers for the declarations a binding
// generator needs to plan from: type definitions, enumerators,
// constants and exported functions, together with their doc comments.
//
// It is not a C compiler. Layout questions are left to the real
// compiler behind the translator; cheader only answers "what is
// declared, in which order, and what does the header say about it".
package cheader

import (
	"fmt"
	"slices"
	"strconv"
	"text/scanner"
)

type Kind int

const (
	KindStruct Kind = iota
	KindUnion
	KindEnum
	KindTypedef
	KindConst
	KindFunc
)

func (k Kind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindUnion:
		return "union"
	case KindEnum:
		return "enum"
	case KindTypedef:
		return "typedef"
	case KindConst:
		return "const"
	case KindFunc:
		return "func"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Decl is one top-level declaration.
type Decl struct {
	Name string
	Kind Kind
	Doc  string
	Pos  scanner.Position

	// Tagged reports whether a struct or union was declared as
	// "struct Name {...};" rather than through a typedef, so C code
	// must spell it "struct Name".
	Tagged bool

	// KindEnum
	Enumerators []*Enumerator
	// KindStruct, KindUnion
	Fields []*Field
	// KindTypedef: the aliased C type. KindConst: the constant's type.
	// KindFunc: the result type.
	Type string
	// KindConst: the initializer as written.
	Value string
	// KindFunc
	Params []*Param
}

type Enumerator struct {
	Name string
	// Initializer as written; empty when implicit.
	Value string
	Doc   string
}

type Field struct {
	Name string
	// C type including array dimensions, e.g. "float [3][4]".
	Type string
	Doc  string
}

type Param struct {
	// Empty for unnamed parameters.
	Name string
	Type string
}

// Header is the inventory of everything a header and its quoted
// includes declare, in source order.
type Header struct {
	Decls []*Decl
	// Every file read, the root header first.
	Files []string
	// Macros defined at the end of preprocessing.
	Macros map[string]string

	byName map[string]*Decl
}

func (h *Header) add(d *Decl) {
	if h.byName == nil {
		h.byName = map[string]*Decl{}
	}
	if _, ok := h.byName[d.Name]; !ok {
		h.byName[d.Name] = d
	}
	h.Decls = append(h.Decls, d)
}

// Lookup returns the first declaration named name, or nil.
func (h *Header) Lookup(name string) *Decl {
	return h.byName[name]
}

// Enum returns the enum declaring the enumerator name.
func (h *Header) Enum(enumerator string) (*Decl, *Enumerator) {
	for _, d := range h.Decls {
		if d.Kind != KindEnum {
			continue
		}
		if i := slices.IndexFunc(d.Enumerators, func(e *Enumerator) bool { return e.Name == enumerator }); i >= 0 {
			return d, d.Enumerators[i]
		}
	}
	return nil, nil
}

// Version returns the runtime version the header describes, as
// "vMAJOR.MINOR.BUILD", from the k_nSteamVRVersion* constants.
func (h *Header) Version() (string, bool) {
	var parts [3]uint64
	for i, name := range []string{"k_nSteamVRVersionMajor", "k_nSteamVRVersionMinor", "k_nSteamVRVersionBuild"} {
		d := h.Lookup(name)
		if d == nil || d.Kind != KindConst {
			return "", false
		}
		v, err := ParseInt(d.Value)
		if err != nil || v < 0 {
			return "", false
		}
		parts[i] = uint64(v)
	}
	return fmt.Sprintf("v%d.%d.%d", parts[0], parts[1], parts[2]), true
}

// ParseInt parses a C integer literal, including u/l suffixes and
// octal or hex prefixes.
func ParseInt(lit string) (int64, error) {
	s := lit
	for len(s) > 1 {
		switch s[len(s)-1] {
		case 'u', 'U', 'l', 'L':
			s = s[:len(s)-1]
			continue
		}
		break
	}
	if v, err := strconv.ParseInt(s, 0, 64); err == nil {
		return v, nil
	}
	// 0xFFFFFFFFFFFFFFFF and friends.
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer literal %q", lit)
	}
	return int64(v), nil
}

// Error is a problem in a header, with its position.
type Error struct {
	Pos scanner.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%v:%v: %v", e.Pos.Filename, e.Pos.Line, e.Msg)
}

func errorf(pos scanner.Position, format string, args ...any) error {
	return &Error{Pos: pos, Msg: fmt.Sprintf(format, args...)}
}
