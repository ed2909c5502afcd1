package cheader

import (
	"slices"
	"strings"
	"text/scanner"

	"github.com/ovrgo/openvr/textutils"
)

// ParseFile preprocesses path for the macros in opts and collects its
// declarations, following quoted includes.
func ParseFile(path string, opts *Options) (*Header, error) {
	if opts == nil {
		opts = &Options{}
	}
	pp := newPreprocessor(opts)
	if err := pp.file(path, scanner.Position{}); err != nil {
		return nil, err
	}
	h := &Header{Files: pp.files, Macros: pp.macros}
	for _, c := range pp.chunks {
		toks, err := tokenize(c)
		if err != nil {
			return nil, err
		}
		p := &parser{toks: toks, h: h, exportMacro: opts.ExportMacro}
		if err := p.parse(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

type token struct {
	tok  rune
	text string
	pos  scanner.Position
	// Comment group ending on the line above.
	doc string
	// Comment starting on the same line, after the token.
	trailing string
}

func tokenize(c chunk) ([]token, error) {
	var (
		s    scanner.Scanner
		serr error
	)
	s.Init(strings.NewReader(c.Text()))
	s.Filename = c.File
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats | scanner.ScanChars | scanner.ScanStrings | scanner.ScanComments
	s.Error = func(s *scanner.Scanner, msg string) {
		if serr == nil {
			serr = errorf(s.Pos(), "%v", msg)
		}
	}

	var (
		toks    []token
		doc     []string
		docLine int
	)
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		pos := s.Position
		text := s.TokenText()
		if tok == scanner.Comment {
			if n := len(toks); n > 0 && toks[n-1].pos.Line == pos.Line {
				toks[n-1].trailing = joinDoc(toks[n-1].trailing, textutils.CommentText(text))
				continue
			}
			if doc != nil && pos.Line > docLine+1 {
				doc = nil
			}
			doc = append(doc, textutils.CommentText(text))
			docLine = pos.Line + strings.Count(text, "\n")
			continue
		}
		if tok == scanner.Int || tok == scanner.Float {
			text += numberSuffix(&s)
		}
		t := token{tok: tok, text: text, pos: pos}
		if doc != nil && docLine >= pos.Line-1 {
			t.doc = strings.Join(doc, "\n")
		}
		doc = nil
		toks = append(toks, t)
	}
	return toks, serr
}

func joinDoc(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "\n" + b
}

type parser struct {
	toks        []token
	i           int
	h           *Header
	exportMacro string
	externDepth int
}

var eof = token{tok: scanner.EOF}

func (p *parser) peekN(n int) token {
	if p.i+n < len(p.toks) {
		return p.toks[p.i+n]
	}
	return eof
}

func (p *parser) peek() token { return p.peekN(0) }

func (p *parser) next() token {
	t := p.peek()
	if p.i < len(p.toks) {
		p.i++
	}
	return t
}

func (p *parser) pos() scanner.Position {
	if p.i < len(p.toks) {
		return p.toks[p.i].pos
	}
	if len(p.toks) > 0 {
		return p.toks[len(p.toks)-1].pos
	}
	return scanner.Position{}
}

func (p *parser) expect(text string) (token, error) {
	t := p.next()
	if t.text != text {
		return t, errorf(t.pos, "expected %q, got %q", text, t.text)
	}
	return t, nil
}

func (p *parser) ident() (token, error) {
	t := p.next()
	if t.tok != scanner.Ident {
		return t, errorf(t.pos, "expected identifier, got %q", t.text)
	}
	return t, nil
}

func (p *parser) parse() error {
	for p.i < len(p.toks) {
		t := p.peek()
		var err error
		switch {
		case t.text == "typedef":
			err = p.typedef()
		case t.text == "struct" || t.text == "union":
			err = p.record()
		case t.text == "static":
			err = p.constant()
		case p.exportMacro != "" && t.text == p.exportMacro:
			err = p.function()
		case t.text == "extern" && p.peekN(1).tok == scanner.String:
			p.i += 2
			if p.peek().text == "{" {
				p.next()
				p.externDepth++
			}
		case t.text == "}" && p.externDepth > 0:
			p.next()
			p.externDepth--
		case t.text == ";":
			p.next()
		default:
			_, err = p.statement()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// statement returns the tokens up to the next top-level ";", which is
// consumed. Balanced braces are included.
func (p *parser) statement() ([]token, error) {
	start := p.pos()
	var toks []token
	depth := 0
	for {
		t := p.next()
		switch t.text {
		case "":
			if t.tok == scanner.EOF {
				return nil, errorf(start, "unterminated declaration")
			}
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ";":
			if depth == 0 {
				return append(toks, t), nil
			}
		}
		toks = append(toks, t)
	}
}

func (p *parser) add(d *Decl) error {
	if prev := p.h.Lookup(d.Name); prev != nil {
		// C allows repeating an identical typedef.
		if prev.Kind == d.Kind && prev.Kind == KindTypedef && prev.Type == d.Type {
			return nil
		}
		// "typedef struct X X;" ahead of the definition.
		if prev.Kind == KindTypedef && d.Tagged && prev.Type == d.Kind.String()+" "+d.Name {
			doc := prev.Doc
			*prev = *d
			prev.Tagged = false
			if prev.Doc == "" {
				prev.Doc = doc
			}
			return nil
		}
		return errorf(d.Pos, "%v redeclared, previous declaration at %v:%v", d.Name, prev.Pos.Filename, prev.Pos.Line)
	}
	p.h.add(d)
	return nil
}

func (p *parser) typedef() error {
	start := p.next()
	switch kw := p.peek().text; kw {
	case "enum", "struct", "union":
		if body := p.peekN(1).text == "{" || p.peekN(2).text == "{"; body {
			p.next()
			if p.peek().tok == scanner.Ident {
				p.next()
			}
			d := &Decl{Doc: start.doc, Pos: start.pos}
			var err error
			if kw == "enum" {
				d.Kind = KindEnum
				d.Enumerators, err = p.enumBody()
			} else {
				d.Kind = KindStruct
				if kw == "union" {
					d.Kind = KindUnion
				}
				d.Fields, err = p.fieldsBody()
			}
			if err != nil {
				return err
			}
			name, err := p.ident()
			if err != nil {
				return err
			}
			d.Name = name.text
			rest, err := p.statement()
			if err != nil {
				return err
			}
			if d.Doc == "" {
				d.Doc = rest[len(rest)-1].trailing
			}
			return p.add(d)
		}
	}

	toks, err := p.statement()
	if err != nil {
		return err
	}
	semi := toks[len(toks)-1]
	name, typ, ok := declarator(toks[:len(toks)-1], false)
	if !ok {
		return errorf(start.pos, "cannot find the name declared by typedef")
	}
	// "struct X {...}; typedef struct X X;" names the record itself.
	if prev := p.h.Lookup(name); prev != nil && prev.Tagged &&
		(typ == "struct "+name || typ == "union "+name) {
		prev.Tagged = false
		return nil
	}
	return p.add(&Decl{
		Name: name,
		Kind: KindTypedef,
		Type: typ,
		Doc:  joinDoc(start.doc, semi.trailing),
		Pos:  start.pos,
	})
}

// record parses "struct Tag { ... };". Forward declarations and
// variables of struct type are skipped.
func (p *parser) record() error {
	kw := p.peek()
	if p.peekN(1).tok != scanner.Ident || p.peekN(2).text != "{" {
		_, err := p.statement()
		return err
	}
	p.next()
	name := p.next()
	fields, err := p.fieldsBody()
	if err != nil {
		return err
	}
	if _, err := p.statement(); err != nil {
		return err
	}
	kind := KindStruct
	if kw.text == "union" {
		kind = KindUnion
	}
	return p.add(&Decl{
		Name:   name.text,
		Kind:   kind,
		Tagged: true,
		Fields: fields,
		Doc:    kw.doc,
		Pos:    kw.pos,
	})
}

func (p *parser) enumBody() ([]*Enumerator, error) {
	if _, err := p.expect("{"); err != nil {
		return nil, err
	}
	var res []*Enumerator
	for p.peek().text != "}" {
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		e := &Enumerator{Name: name.text, Doc: name.doc}
		last := name
		if p.peek().text == "=" {
			p.next()
			var val []token
			depth := 0
			for {
				t := p.peek()
				if t.tok == scanner.EOF {
					return nil, errorf(name.pos, "unterminated enum")
				}
				if depth == 0 && (t.text == "," || t.text == "}") {
					break
				}
				switch t.text {
				case "(":
					depth++
				case ")":
					depth--
				}
				val = append(val, p.next())
			}
			if len(val) == 0 {
				return nil, errorf(name.pos, "missing value for %v", name.text)
			}
			e.Value = joinTokens(val)
			last = val[len(val)-1]
		}
		trailing := last.trailing
		if p.peek().text == "," {
			trailing = joinDoc(trailing, p.next().trailing)
		}
		if e.Doc == "" {
			e.Doc = trailing
		}
		res = append(res, e)
	}
	p.next()
	return res, nil
}

func (p *parser) fieldsBody() ([]*Field, error) {
	open, err := p.expect("{")
	if err != nil {
		return nil, err
	}
	var res []*Field
	for p.peek().text != "}" {
		if p.peek().tok == scanner.EOF {
			return nil, errorf(open.pos, "unterminated struct")
		}
		toks, err := p.statement()
		if err != nil {
			return nil, err
		}
		semi := toks[len(toks)-1]
		toks = toks[:len(toks)-1]
		if len(toks) == 0 {
			continue
		}
		doc := toks[0].doc
		if doc == "" {
			doc = joinDoc(toks[len(toks)-1].trailing, semi.trailing)
		}
		parts := splitDeclarators(toks)
		for i, part := range parts {
			if i > 0 {
				part = slices.Concat(baseType(parts[0]), part)
			}
			name, typ, ok := declarator(part, false)
			if !ok {
				return nil, errorf(toks[0].pos, "cannot find field name in %q", joinTokens(toks))
			}
			res = append(res, &Field{Name: name, Type: typ, Doc: doc})
		}
	}
	p.next()
	return res, nil
}

func (p *parser) constant() error {
	start := p.peek()
	toks, err := p.statement()
	if err != nil {
		return err
	}
	semi := toks[len(toks)-1]
	toks = toks[:len(toks)-1]
	eq := slices.IndexFunc(toks, func(t token) bool { return t.text == "=" })
	if eq < 0 || slices.ContainsFunc(toks[:eq], func(t token) bool { return t.text == "(" }) {
		// Not a constant: a static function or an uninitialized
		// variable.
		return nil
	}
	var lhs []token
	for _, t := range toks[1:eq] {
		if t.text != "const" {
			lhs = append(lhs, t)
		}
	}
	name, typ, ok := declarator(lhs, false)
	if !ok || eq+1 >= len(toks) {
		return errorf(start.pos, "malformed constant")
	}
	return p.add(&Decl{
		Name:  name,
		Kind:  KindConst,
		Type:  typ,
		Value: joinTokens(toks[eq+1:]),
		Doc:   joinDoc(start.doc, semi.trailing),
		Pos:   start.pos,
	})
}

func (p *parser) function() error {
	start := p.next()
	var toks []token
	for {
		t := p.peek()
		if t.tok == scanner.EOF {
			return errorf(start.pos, "unterminated function declaration")
		}
		if t.text == ";" {
			toks = append(toks, p.next())
			break
		}
		if t.text == "{" {
			// Inline definition; the body is not needed.
			depth := 0
			for {
				t := p.next()
				if t.tok == scanner.EOF {
					return errorf(start.pos, "unterminated function body")
				}
				if t.text == "{" {
					depth++
				} else if t.text == "}" {
					depth--
					if depth == 0 {
						break
					}
				}
			}
			break
		}
		toks = append(toks, p.next())
	}

	open := -1
	for i := 1; i < len(toks); i++ {
		if toks[i].text == "(" && toks[i-1].tok == scanner.Ident {
			open = i
			break
		}
	}
	if open < 1 {
		return errorf(start.pos, "malformed function declaration")
	}
	closeIdx := matching(toks, open)
	if closeIdx < 0 {
		return errorf(start.pos, "unbalanced parentheses")
	}
	d := &Decl{
		Name: toks[open-1].text,
		Kind: KindFunc,
		Type: joinTokens(toks[:open-1]),
		Doc:  joinDoc(start.doc, toks[len(toks)-1].trailing),
		Pos:  start.pos,
	}
	if d.Type == "" {
		return errorf(start.pos, "function %v has no result type", d.Name)
	}
	params := toks[open+1 : closeIdx]
	if len(params) == 1 && params[0].text == "void" {
		params = nil
	}
	if len(params) > 0 {
		for _, part := range splitDeclarators(params) {
			name, typ, ok := declarator(part, true)
			if !ok {
				return errorf(start.pos, "malformed parameter %q of %v", joinTokens(part), d.Name)
			}
			d.Params = append(d.Params, &Param{Name: name, Type: typ})
		}
	}
	return p.add(d)
}

func matching(toks []token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// splitDeclarators splits at top-level commas.
func splitDeclarators(toks []token) [][]token {
	var parts [][]token
	depth, start := 0, 0
	for i, t := range toks {
		switch t.text {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				parts = append(parts, toks[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, toks[start:])
}

// baseType returns the type specifiers of a declaration without the
// declarator, so that "int *a, b" declares b as int.
func baseType(first []token) []token {
	k := slices.IndexFunc(first, func(t token) bool { return t.text == "[" })
	if k < 0 {
		k = len(first)
	}
	var res []token
	for _, t := range first[:max(k-1, 0)] {
		if t.text != "*" {
			res = append(res, t)
		}
	}
	return res
}

var builtinTypeWords = []string{
	"void", "char", "short", "int", "long", "float", "double",
	"signed", "unsigned", "bool", "_Bool", "const", "volatile",
	"struct", "union", "enum",
}

// declarator finds the identifier declared by toks and returns it with
// the remaining type. In a parameter (param=true) the name may be
// missing, in which case name is empty.
func declarator(toks []token, param bool) (name, typ string, ok bool) {
	if len(toks) == 0 {
		return "", "", false
	}
	// Function pointer: "ret (CALLTYPE *name)(args)".
	if i := slices.IndexFunc(toks, func(t token) bool { return t.text == "(" }); i >= 0 {
		end := matching(toks, i)
		if end > i && slices.ContainsFunc(toks[i:end], func(t token) bool { return t.text == "*" }) {
			for j := end - 1; j > i; j-- {
				if toks[j].tok == scanner.Ident {
					rest := slices.Concat(toks[:j], toks[j+1:])
					return toks[j].text, joinTokens(rest), true
				}
				if toks[j].text == "*" {
					break
				}
			}
			if param {
				return "", joinTokens(toks), true
			}
			return "", "", false
		}
	}
	k := slices.IndexFunc(toks, func(t token) bool { return t.text == "[" })
	if k < 0 {
		k = len(toks)
	}
	if k == 0 {
		return "", "", false
	}
	last := toks[k-1]
	if last.tok != scanner.Ident {
		if param {
			return "", joinTokens(toks), true
		}
		return "", "", false
	}
	if param {
		unnamed := k == 1 || slices.Contains(builtinTypeWords, last.text) ||
			slices.Contains([]string{"struct", "union", "enum"}, toks[k-2].text)
		if !unnamed {
			unnamed = !slices.ContainsFunc(toks[:k-1], func(t token) bool {
				return t.text != "const" && t.text != "volatile"
			})
		}
		if unnamed {
			return "", joinTokens(toks), true
		}
	}
	base := joinTokens(toks[:k-1])
	if base == "" {
		return "", "", false
	}
	if k < len(toks) {
		return last.text, base + " " + joinTokens(toks[k:]), true
	}
	return last.text, base, true
}

func joinTokens(toks []token) string {
	var b strings.Builder
	for i, t := range toks {
		if i > 0 {
			prev := toks[i-1].text
			noSpace := prev == "(" || prev == "[" ||
				t.text == ")" || t.text == "]" || t.text == "," ||
				t.text == "[" && prev == "]" ||
				isUnaryAt(toks, i-1)
			if !noSpace {
				b.WriteByte(' ')
			}
		}
		b.WriteString(t.text)
	}
	return b.String()
}

// isUnaryAt reports whether toks[i] is a prefix operator, as in "-1".
func isUnaryAt(toks []token, i int) bool {
	switch toks[i].text {
	case "-", "+", "~", "!":
	default:
		return false
	}
	if i == 0 {
		return true
	}
	prev := toks[i-1]
	switch prev.tok {
	case scanner.Ident, scanner.Int, scanner.Float, scanner.Char, scanner.String:
		return false
	}
	return prev.text != ")" && prev.text != "]"
}
