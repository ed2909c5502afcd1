package bindgen

import (
	"go/ast"
	"go/build/constraint"
	"slices"
	"strings"

	"github.com/ovrgo/openvr/nativelib"
)

var (
	goosSuffixes   = []string{"aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos", "ios", "js", "linux", "nacl", "netbsd", "openbsd", "plan9", "solaris", "wasip1", "windows", "zos"}
	goarchSuffixes = []string{"386", "amd64", "amd64p32", "arm", "arm64", "arm64be", "armbe", "loong64", "mips", "mips64", "mips64le", "mips64p32", "mips64p32le", "mipsle", "ppc", "ppc64", "ppc64le", "riscv", "riscv64", "s390", "s390x", "sparc", "sparc64", "wasm"}
	unixOSes       = []string{"aix", "android", "darwin", "dragonfly", "freebsd", "hurd", "illumos", "ios", "linux", "netbsd", "openbsd", "solaris"}
)

// fileConstraint returns a constraint expression for the go:/+build
// lines and the filename suffixes of a file. Returns nil if there are
// no constraints.
func fileConstraint(f *ast.File, filename string) (constraint.Expr, error) {
	var resExpr constraint.Expr
	add := func(expr constraint.Expr) {
		if resExpr == nil {
			resExpr = expr
		} else {
			resExpr = &constraint.AndExpr{
				X: resExpr,
				Y: expr,
			}
		}
	}
	goos, goarch := filenameSuffixConstraints(filename)
	if goos != "" {
		add(&constraint.TagExpr{Tag: goos})
	}
	if goarch != "" {
		add(&constraint.TagExpr{Tag: goarch})
	}
	for _, c := range f.Comments {
		// Only comments above the package clause constrain the file.
		if c.Pos() > f.Package {
			break
		}
		for _, c := range c.List {
			if !constraint.IsGoBuild(c.Text) && !constraint.IsPlusBuild(c.Text) {
				continue
			}
			expr, err := constraint.Parse(c.Text)
			if err != nil {
				return nil, err
			}
			add(expr)
		}
	}
	return resExpr, nil
}

func filenameSuffixConstraints(filename string) (goosConstraint, goarchConstraint string) {
	filename = strings.TrimSuffix(filename, "_test.go") + ".go"
	for _, goos := range goosSuffixes {
		if strings.HasSuffix(filename, "_"+goos+".go") {
			return goos, ""
		}
	}
	for _, goarch := range goarchSuffixes {
		if strings.HasSuffix(filename, "_"+goarch+".go") {
			for _, goos := range goosSuffixes {
				if strings.HasSuffix(filename, "_"+goos+"_"+goarch+".go") {
					return goos, goarch
				}
			}
			return "", goarch
		}
	}
	return "", ""
}

// matchTarget reports whether a file constrained by expr is built for
// t with cgo enabled.
func matchTarget(expr constraint.Expr, t nativelib.Target) bool {
	if expr == nil {
		return true
	}
	return expr.Eval(func(tag string) bool {
		switch {
		case tag == string(t.OS), tag == t.Arch, tag == "cgo", tag == "gc":
			return true
		case tag == "unix":
			return slices.Contains(unixOSes, string(t.OS))
		case strings.HasPrefix(tag, "go1."):
			return true
		}
		return false
	})
}
