package cheader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/scanner"

	"github.com/ovrgo/openvr/nativelib"
)

// Options configure a scan.
type Options struct {
	// Searched for quoted includes after the including file's own
	// directory.
	IncludeDirs []string
	// Macros defined before the first line, see Predefined.
	Defines map[string]string
	// Macro marking exported functions, e.g. "S_API". Functions are
	// not collected when empty.
	ExportMacro string
}

// Predefined returns the compiler-predefined macros the OpenVR headers
// test for, as the C compiler cgo uses for t would define them.
func Predefined(t nativelib.Target) map[string]string {
	m := map[string]string{
		"__GNUC__": "4",
		"__STDC__": "1",
	}
	switch t.OS {
	case nativelib.Linux:
		m["__linux__"] = "1"
		m["__unix__"] = "1"
	case nativelib.Darwin:
		m["__APPLE__"] = "1"
		m["__MACH__"] = "1"
		m["__clang__"] = "1"
	case nativelib.Windows:
		m["_WIN32"] = "1"
		m["__MINGW32__"] = "1"
		if t.PointerWidth == 64 {
			m["_WIN64"] = "1"
			m["__MINGW64__"] = "1"
		}
	}
	if t.PointerWidth == 64 && t.OS != nativelib.Windows {
		m["__LP64__"] = "1"
		m["_LP64"] = "1"
	}
	switch t.Arch {
	case "386":
		m["__i386__"] = "1"
	case "amd64":
		m["__x86_64__"] = "1"
	case "arm":
		m["__arm__"] = "1"
	case "arm64":
		m["__aarch64__"] = "1"
	}
	return m
}

// chunk is a run of lines from one file with inactive lines and
// directives blanked. FirstLine is the 1-based line of the first line.
type chunk struct {
	File      string
	FirstLine int
	Lines     []string
}

// Text returns the chunk padded with empty lines, so that scanner
// positions match the file.
func (c chunk) Text() string {
	return strings.Repeat("\n", c.FirstLine-1) + strings.Join(c.Lines, "\n")
}

type cond struct {
	pos scanner.Position
	// The enclosing region is active.
	parent bool
	// The current branch is active.
	active bool
	// Some branch has been taken.
	taken   bool
	sawElse bool
}

type preprocessor struct {
	opts   *Options
	macros map[string]string
	files  []string
	chunks []chunk
	stack  []string
}

const maxIncludeDepth = 32

func newPreprocessor(opts *Options) *preprocessor {
	pp := &preprocessor{opts: opts, macros: map[string]string{}}
	for k, v := range opts.Defines {
		pp.macros[k] = v
	}
	return pp
}

func (pp *preprocessor) file(path string, from scanner.Position) error {
	if len(pp.stack) >= maxIncludeDepth {
		return errorf(from, "#include nested too deeply")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if from.Filename != "" {
			return errorf(from, "%v", err)
		}
		return err
	}
	pp.files = append(pp.files, path)
	pp.stack = append(pp.stack, path)
	defer func() { pp.stack = pp.stack[:len(pp.stack)-1] }()

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")
	out := make([]string, len(lines))
	start := 0
	flush := func(end int) {
		if end > start {
			pp.chunks = append(pp.chunks, chunk{File: path, FirstLine: start + 1, Lines: out[start:end]})
		}
		start = end
	}

	var conds []*cond
	active := func() bool {
		return len(conds) == 0 || conds[len(conds)-1].active
	}
	inComment := false

	for i := 0; i < len(lines); i++ {
		pos := scanner.Position{Filename: path, Line: i + 1}
		line := lines[i]
		first := i
		for strings.HasSuffix(line, "\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + " " + lines[i]
		}

		trimmed := strings.TrimSpace(line)
		if inComment || !strings.HasPrefix(trimmed, "#") {
			if active() {
				out[first] = line
			}
			inComment = endsInComment(line, inComment)
			continue
		}

		name, arg := splitDirective(trimmed)
		switch name {
		case "if", "ifdef", "ifndef":
			c := &cond{pos: pos, parent: active()}
			if c.parent {
				var v bool
				switch name {
				case "if":
					n, err := evalCond(arg, pp.macros)
					if err != nil {
						return errorf(pos, "#if %v: %v", arg, err)
					}
					v = n != 0
				case "ifdef":
					_, v = pp.macros[macroName(arg)]
				case "ifndef":
					_, v = pp.macros[macroName(arg)]
					v = !v
				}
				c.active, c.taken = v, v
			} else {
				c.taken = true
			}
			conds = append(conds, c)
		case "elif":
			if len(conds) == 0 {
				return errorf(pos, "#elif without #if")
			}
			c := conds[len(conds)-1]
			if c.sawElse {
				return errorf(pos, "#elif after #else")
			}
			c.active = false
			if c.parent && !c.taken {
				n, err := evalCond(arg, pp.macros)
				if err != nil {
					return errorf(pos, "#elif %v: %v", arg, err)
				}
				c.active = n != 0
				c.taken = c.active
			}
		case "else":
			if len(conds) == 0 {
				return errorf(pos, "#else without #if")
			}
			c := conds[len(conds)-1]
			if c.sawElse {
				return errorf(pos, "#else after #else")
			}
			c.sawElse = true
			c.active = c.parent && !c.taken
			c.taken = true
		case "endif":
			if len(conds) == 0 {
				return errorf(pos, "#endif without #if")
			}
			conds = conds[:len(conds)-1]
		default:
			if !active() {
				break
			}
			switch name {
			case "define":
				n, body := splitMacro(arg)
				if n == "" {
					return errorf(pos, "#define without a name")
				}
				pp.macros[n] = body
			case "undef":
				delete(pp.macros, macroName(arg))
			case "include":
				inc, system, err := includeTarget(arg)
				if err != nil {
					return errorf(pos, "%v", err)
				}
				if system {
					break
				}
				resolved, err := pp.resolve(path, inc)
				if err != nil {
					return errorf(pos, "%v", err)
				}
				flush(first)
				if err := pp.file(resolved, pos); err != nil {
					return err
				}
				start = i + 1
			case "error":
				return errorf(pos, "#error %v", arg)
			}
		}
	}
	if len(conds) > 0 {
		return errorf(conds[len(conds)-1].pos, "unterminated conditional")
	}
	flush(len(lines))
	return nil
}

func (pp *preprocessor) resolve(from, name string) (string, error) {
	dirs := append([]string{filepath.Dir(from)}, pp.opts.IncludeDirs...)
	for _, dir := range dirs {
		p := filepath.Join(dir, filepath.FromSlash(name))
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("include file %q not found", name)
}

func splitDirective(line string) (name, arg string) {
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
	line = stripComments(line)
	name, arg, _ = strings.Cut(line, " ")
	if i := strings.IndexAny(name, "\t(\"<"); i >= 0 {
		name, arg = name[:i], name[i:]+" "+arg
	}
	return name, strings.TrimSpace(arg)
}

func splitMacro(arg string) (name, body string) {
	end := strings.IndexFunc(arg, func(r rune) bool {
		return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9')
	})
	if end < 0 {
		return arg, ""
	}
	name, rest := arg[:end], arg[end:]
	if strings.HasPrefix(rest, "(") {
		// Function-like macros are recorded as defined; their
		// bodies are never expanded.
		if _, after, ok := strings.Cut(rest, ")"); ok {
			return name, strings.TrimSpace(after)
		}
	}
	return name, strings.TrimSpace(rest)
}

func macroName(arg string) string {
	n, _ := splitMacro(arg)
	return n
}

func includeTarget(arg string) (name string, system bool, err error) {
	switch {
	case strings.HasPrefix(arg, "\""):
		if end := strings.Index(arg[1:], "\""); end >= 0 {
			return arg[1 : end+1], false, nil
		}
	case strings.HasPrefix(arg, "<"):
		if end := strings.Index(arg, ">"); end >= 0 {
			return arg[1:end], true, nil
		}
	}
	return "", false, fmt.Errorf("malformed #include %v", arg)
}

// stripComments removes comments from a single directive line.
func stripComments(s string) string {
	var b strings.Builder
	inStr := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inStr:
			if c == '\\' && i+1 < len(s) {
				b.WriteByte(c)
				i++
				c = s[i]
			} else if c == '"' {
				inStr = false
			}
		case c == '"':
			inStr = true
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			return strings.TrimSpace(b.String())
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				return strings.TrimSpace(b.String())
			}
			i += end + 3
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(c)
	}
	return strings.TrimSpace(b.String())
}

// endsInComment reports whether a block comment is still open after
// line, given whether one was open before it.
func endsInComment(line string, in bool) bool {
	inStr := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case in:
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				in = false
				i++
			}
		case inStr:
			if c == '\\' {
				i++
			} else if c == '"' {
				inStr = false
			}
		case c == '"':
			inStr = true
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return false
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			in = true
			i++
		}
	}
	return in
}
