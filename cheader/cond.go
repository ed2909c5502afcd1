package cheader

import (
	"errors"
	"fmt"
	"strings"
	"text/scanner"
)

// evalCond evaluates a #if expression. Identifiers that are not macros
// evaluate to 0, as in C.
func evalCond(expr string, macros map[string]string) (int64, error) {
	return evalDepth(expr, macros, 0)
}

const maxExpandDepth = 16

func evalDepth(expr string, macros map[string]string, depth int) (int64, error) {
	if depth > maxExpandDepth {
		return 0, errors.New("macro expansion too deep")
	}
	toks, err := condTokens(expr)
	if err != nil {
		return 0, err
	}
	if len(toks) == 0 {
		return 0, errors.New("empty expression")
	}
	p := &condParser{toks: toks, macros: macros, depth: depth}
	v, err := p.or()
	if err != nil {
		return 0, err
	}
	if p.i < len(p.toks) {
		return 0, fmt.Errorf("unexpected %q", p.toks[p.i])
	}
	return v, nil
}

func condTokens(expr string) ([]string, error) {
	var (
		s    scanner.Scanner
		serr error
	)
	s.Init(strings.NewReader(expr))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanComments | scanner.SkipComments
	s.Error = func(_ *scanner.Scanner, msg string) {
		if serr == nil {
			serr = errors.New(msg)
		}
	}
	var toks []string
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		text := s.TokenText()
		switch tok {
		case scanner.Int:
			text += numberSuffix(&s)
		case '&', '|':
			if s.Peek() == tok {
				text += string(s.Next())
			}
		case '=', '!', '<', '>':
			if s.Peek() == '=' {
				text += string(s.Next())
			}
		}
		toks = append(toks, text)
	}
	return toks, serr
}

// numberSuffix consumes an integer or float suffix directly following
// a numeric literal.
func numberSuffix(s *scanner.Scanner) string {
	var b strings.Builder
	for {
		switch s.Peek() {
		case 'u', 'U', 'l', 'L', 'f', 'F':
			b.WriteRune(s.Next())
		default:
			return b.String()
		}
	}
}

type condParser struct {
	toks   []string
	i      int
	macros map[string]string
	depth  int
}

func (p *condParser) peek() string {
	if p.i < len(p.toks) {
		return p.toks[p.i]
	}
	return ""
}

func (p *condParser) next() string {
	t := p.peek()
	p.i++
	return t
}

func (p *condParser) or() (int64, error) {
	x, err := p.and()
	for err == nil && p.peek() == "||" {
		p.next()
		var y int64
		y, err = p.and()
		x = b2i(x != 0 || y != 0)
	}
	return x, err
}

func (p *condParser) and() (int64, error) {
	x, err := p.equality()
	for err == nil && p.peek() == "&&" {
		p.next()
		var y int64
		y, err = p.equality()
		x = b2i(x != 0 && y != 0)
	}
	return x, err
}

func (p *condParser) equality() (int64, error) {
	x, err := p.relational()
	for err == nil && (p.peek() == "==" || p.peek() == "!=") {
		op := p.next()
		var y int64
		y, err = p.relational()
		if op == "==" {
			x = b2i(x == y)
		} else {
			x = b2i(x != y)
		}
	}
	return x, err
}

func (p *condParser) relational() (int64, error) {
	x, err := p.additive()
	for err == nil {
		op := p.peek()
		if op != "<" && op != ">" && op != "<=" && op != ">=" {
			break
		}
		p.next()
		var y int64
		y, err = p.additive()
		switch op {
		case "<":
			x = b2i(x < y)
		case ">":
			x = b2i(x > y)
		case "<=":
			x = b2i(x <= y)
		case ">=":
			x = b2i(x >= y)
		}
	}
	return x, err
}

func (p *condParser) additive() (int64, error) {
	x, err := p.unary()
	for err == nil && (p.peek() == "+" || p.peek() == "-") {
		op := p.next()
		var y int64
		y, err = p.unary()
		if op == "+" {
			x += y
		} else {
			x -= y
		}
	}
	return x, err
}

func (p *condParser) unary() (int64, error) {
	switch p.peek() {
	case "!":
		p.next()
		x, err := p.unary()
		return b2i(x == 0), err
	case "-":
		p.next()
		x, err := p.unary()
		return -x, err
	case "+":
		p.next()
		return p.unary()
	}
	return p.primary()
}

func (p *condParser) primary() (int64, error) {
	t := p.next()
	switch {
	case t == "":
		return 0, errors.New("unexpected end of expression")
	case t == "(":
		x, err := p.or()
		if err != nil {
			return 0, err
		}
		if p.next() != ")" {
			return 0, errors.New("missing )")
		}
		return x, nil
	case t == "defined":
		paren := p.peek() == "("
		if paren {
			p.next()
		}
		name := p.next()
		if !isIdent(name) {
			return 0, fmt.Errorf("defined: expected identifier, got %q", name)
		}
		if paren && p.next() != ")" {
			return 0, errors.New("defined: missing )")
		}
		_, ok := p.macros[name]
		return b2i(ok), nil
	case t[0] >= '0' && t[0] <= '9':
		return ParseInt(t)
	case isIdent(t):
		body, ok := p.macros[t]
		if !ok || strings.TrimSpace(body) == "" {
			return 0, nil
		}
		return evalDepth(body, p.macros, p.depth+1)
	}
	return 0, fmt.Errorf("unexpected %q", t)
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
