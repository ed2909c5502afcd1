package bindgen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ovrgo/openvr/cheader"
)

// cType is a C type as spelled in a header, reduced to what function
// and constant generation needs.
type cType struct {
	// Base type without qualifiers, e.g. "unsigned int", "struct X".
	base string
	// Levels of indirection; array parameters count as pointers.
	ptr int
	// The base type is const-qualified.
	constBase bool
}

func parseCType(s string) (cType, error) {
	if strings.Contains(s, "(") {
		return cType{}, fmt.Errorf("function pointer type %q", s)
	}
	var ct cType
	var words []string
	for _, f := range strings.Fields(strings.NewReplacer("*", " * ", "[", " [ ", "]", " ] ").Replace(s)) {
		switch {
		case f == "const" || f == "volatile":
			if ct.ptr == 0 {
				ct.constBase = f == "const"
			}
		case f == "*" || f == "[":
			ct.ptr++
		case f == "]" || isDigits(f):
		default:
			if ct.ptr > 0 {
				return cType{}, fmt.Errorf("unsupported type %q", s)
			}
			words = append(words, f)
		}
	}
	if len(words) == 0 {
		return cType{}, fmt.Errorf("empty type %q", s)
	}
	ct.base = strings.Join(words, " ")
	return ct, nil
}

func isDigits(s string) bool {
	return s != "" && strings.Trim(s, "0123456789") == ""
}

// Go types for C builtins. They are target independent: values cross
// the boundary through conversions, so only the range matters.
var builtinGoTypes = map[string]string{
	"bool":               "bool",
	"_Bool":              "bool",
	"char":               "byte",
	"signed char":        "int8",
	"unsigned char":      "uint8",
	"short":              "int16",
	"unsigned short":     "uint16",
	"int":                "int32",
	"signed int":         "int32",
	"unsigned":           "uint32",
	"unsigned int":       "uint32",
	"long":               "int",
	"unsigned long":      "uint",
	"long long":          "int64",
	"unsigned long long": "uint64",
	"float":              "float32",
	"double":             "float64",
	"int8_t":             "int8",
	"uint8_t":            "uint8",
	"int16_t":            "int16",
	"uint16_t":           "uint16",
	"int32_t":            "int32",
	"uint32_t":           "uint32",
	"int64_t":            "int64",
	"uint64_t":           "uint64",
	"intptr_t":           "uintptr",
	"uintptr_t":          "uintptr",
	"size_t":             "uintptr",
}

var builtinCTypes = map[string]string{
	"bool":               "C.bool",
	"_Bool":              "C._Bool",
	"char":               "C.char",
	"signed char":        "C.schar",
	"unsigned char":      "C.uchar",
	"short":              "C.short",
	"unsigned short":     "C.ushort",
	"int":                "C.int",
	"signed int":         "C.int",
	"unsigned":           "C.uint",
	"unsigned int":       "C.uint",
	"long":               "C.long",
	"unsigned long":      "C.ulong",
	"long long":          "C.longlong",
	"unsigned long long": "C.ulonglong",
	"float":              "C.float",
	"double":             "C.double",
}

func builtinC(base string) (string, bool) {
	if c, ok := builtinCTypes[base]; ok {
		return c, true
	}
	if _, ok := builtinGoTypes[base]; ok {
		// stdint names are typedefs cgo knows by name.
		return "C." + base, true
	}
	return "", false
}

// errExcluded marks a type that exists in the header but was dropped
// by a rule.
var errExcluded = errors.New("excluded")

type typeKind int

const (
	typeVoid typeKind = iota
	typeBuiltin
	typeString  // const char *
	typeVoidPtr // void *
	typeReinterpret
)

// goType is a C type resolved against the plan.
type goType struct {
	kind typeKind
	// Go spelling.
	goName string
	// cgo spelling.
	cName string
}

func (p *plan) goType(s string) (goType, error) {
	ct, err := parseCType(s)
	if err != nil {
		return goType{}, err
	}
	stars := strings.Repeat("*", ct.ptr)

	switch {
	case ct.base == "void":
		switch ct.ptr {
		case 0:
			return goType{kind: typeVoid}, nil
		case 1:
			return goType{kind: typeVoidPtr, goName: "unsafe.Pointer", cName: "unsafe.Pointer"}, nil
		default:
			inner := strings.Repeat("*", ct.ptr-1)
			return goType{kind: typeReinterpret, goName: inner + "unsafe.Pointer", cName: inner + "unsafe.Pointer"}, nil
		}
	case ct.base == "char" && ct.ptr == 1 && ct.constBase:
		return goType{kind: typeString, goName: "string", cName: "*C.char"}, nil
	}

	if g, ok := builtinGoTypes[ct.base]; ok {
		c, _ := builtinC(ct.base)
		kind := typeBuiltin
		if ct.ptr > 0 {
			kind = typeReinterpret
		}
		return goType{kind: kind, goName: stars + g, cName: stars + c}, nil
	}

	name, prefix := ct.base, ""
	for _, kw := range []string{"struct", "union", "enum"} {
		if rest, ok := strings.CutPrefix(name, kw+" "); ok {
			name, prefix = rest, kw+"_"
		}
	}
	if prefix == "enum_" {
		// cgo spells enum types by their typedef name in the OpenVR
		// headers; tagged enums go through the enum_ prefix.
		if d := p.header.Lookup(name); d != nil && d.Kind == cheader.KindEnum {
			prefix = ""
		}
	}
	it := p.byName[name]
	if it == nil {
		if p.excluded[name] {
			return goType{}, fmt.Errorf("type %v: %w", name, errExcluded)
		}
		return goType{}, fmt.Errorf("unknown type %v", name)
	}
	if prefix == "" && it.decl.Tagged {
		prefix = it.decl.Kind.String() + "_"
	}
	return goType{kind: typeReinterpret, goName: stars + it.goName, cName: stars + "C." + prefix + name}, nil
}

// constType returns the Go type of a static constant, or "" for an
// untyped string constant.
func (p *plan) constType(s string) (string, error) {
	ct, err := parseCType(s)
	if err != nil {
		return "", err
	}
	if ct.base == "char" && ct.ptr == 1 {
		return "", nil
	}
	if ct.ptr > 0 {
		return "", fmt.Errorf("pointer constant of type %q", s)
	}
	if g, ok := builtinGoTypes[ct.base]; ok {
		return g, nil
	}
	t, err := p.goType(s)
	if err != nil {
		return "", err
	}
	return t.goName, nil
}
