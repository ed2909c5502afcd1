package bindgen

import (
	"fmt"
	"strconv"

	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
)

// renderABI assembles zabi_<goos>_<goarch>_test.go. It holds the
// values the C compiler reported for the hand-written and repacked
// declarations and checks the Go declarations against them, so a
// layout mistake fails "go test" on the affected target.
func (g *generator) renderABI() ([]byte, error) {
	type check struct{ name, goExpr, want string }
	var checks []check
	maxAlign := uint64(g.target.PointerWidth / 8)
	for _, pr := range g.probes {
		want := pr.value
		if pr.align {
			want = min(want, maxAlign)
		}
		checks = append(checks, check{pr.c, pr.goExpr, strconv.FormatUint(want, 10)})
	}
	for _, it := range g.plan.manualItems() {
		if it.decl.Kind != cheader.KindConst {
			continue
		}
		v, err := cheader.ParseInt(it.decl.Value)
		if err != nil || v < 0 {
			continue
		}
		checks = append(checks, check{it.decl.Name, "uintptr(" + it.goName + ")", strconv.FormatInt(v, 10)})
	}
	if len(checks) == 0 {
		return nil, nil
	}

	var cb genio.CodeBuilder
	cb.Header(g.target.BuildConstraint(), g.cfg.Output.Package)
	if len(g.probes) > 0 {
		cb.Linef("import (")
		cb.Linef(`	"testing"`)
		cb.Linef(`	"unsafe"`)
		cb.Linef(")")
	} else {
		cb.Linef(`import "testing"`)
	}
	cb.Linef("")
	cb.Comment(fmt.Sprintf("TestNativeLayout checks the hand-written and repacked declarations\nagainst the layout the C compiler reported for %v.", g.target))
	cb.Linef("func TestNativeLayout(t *testing.T) {")
	cb.Indent++
	cb.Linef("for _, c := range []struct {")
	cb.Linef("	native    string")
	cb.Linef("	got, want uintptr")
	cb.Linef("}{")
	cb.Indent++
	for _, c := range checks {
		cb.Linef("{%q, %v, %v},", c.name, c.goExpr, c.want)
	}
	cb.Indent--
	cb.Linef("} {")
	cb.Indent++
	cb.Linef("if c.got != c.want {")
	cb.Linef(`	t.Errorf("%%v: Go %%v, native %%v", c.native, c.got, c.want)`)
	cb.Linef("}")
	cb.Indent--
	cb.Linef("}")
	cb.Indent--
	cb.Linef("}")
	return cb.Format()
}
