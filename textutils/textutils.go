package textutils

import (
	"strings"
)

// IndentString prepends indent nIndent times to each line in s.
// Lines consisting only of whitespace are emptied instead.
func IndentString(s string, indent string, nIndent int) string {
	if s == "" {
		return ""
	}
	pfx := strings.Repeat(indent, nIndent)

	var res strings.Builder
	res.Grow(len(s) + (strings.Count(s, "\n")+1)*len(pfx))
	for len(s) > 0 {
		line, rest, hitNewline := strings.Cut(s, "\n")
		s = rest
		if strings.TrimSpace(line) != "" {
			res.WriteString(pfx)
			res.WriteString(line)
		}
		if hitNewline {
			res.WriteByte('\n')
		}
	}
	return res.String()
}

// CommentText strips C comment markers ("//", "/*", "*/" and leading
// "*" decorations) from a raw comment and returns the remaining text,
// one line per source line, with surrounding blank lines removed.
func CommentText(raw string) string {
	var lines []string
	for _, ln := range strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n") {
		ln = strings.TrimSpace(ln)
		switch {
		case strings.HasPrefix(ln, "//"):
			ln = strings.TrimPrefix(ln, "//")
			ln = strings.TrimLeft(ln, "/")
		case strings.HasPrefix(ln, "/*"):
			ln = strings.TrimLeft(strings.TrimPrefix(ln, "/*"), "*")
		case strings.HasPrefix(ln, "*") && !strings.HasPrefix(ln, "*/"):
			ln = strings.TrimPrefix(ln, "*")
		}
		ln = strings.TrimSuffix(strings.TrimSpace(ln), "*/")
		lines = append(lines, strings.TrimRight(strings.TrimPrefix(ln, " "), " \t*"))
	}
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
