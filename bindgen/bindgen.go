// Package bindgen generates the Go declarations of the OpenVR C API
// for one target.
//
// The header inventory comes from package cheader, layouts come from
// the C compiler through a translator (cgo -godefs), and config rules
// decide what is dropped (include = false) and what is written by hand
// (manual = true). Everything is rendered in memory and only written
// once every file rendered successfully.
package bindgen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/ovrgo/openvr/bindgen/genio"
	"github.com/ovrgo/openvr/cheader"
	"github.com/ovrgo/openvr/config"
	"github.com/ovrgo/openvr/logger"
	"github.com/ovrgo/openvr/nativelib"
	"github.com/ovrgo/openvr/translator"
	"golang.org/x/mod/semver"
)

type Options struct {
	Config *config.Config
	Target nativelib.Target
	// Link directives from the native library resolver.
	Directives *nativelib.Directives
	Translator translator.Translator
	Log        *logger.Logger
	// Render only; nothing is written.
	DryRun bool
}

// Counts summarizes a generation run.
type Counts struct {
	// Structs, unions and typedefs.
	Types       int
	Enums       int
	Enumerators int
	Constants   int
	Functions   int
	// Declarations dropped by include = false rules.
	Excluded int
	// Declarations provided by hand.
	Manual int
	// Structs with members cgo could not place, rebuilt from their
	// native layout.
	Repacked int
	// Functions and constants that could not be expressed in Go.
	Skipped int
}

type Result struct {
	Target nativelib.Target
	// Header version, empty if the header does not declare one.
	Version string
	// Import path of the output package, empty outside a module.
	ImportPath string
	Counts     Counts
	Files      []genio.File
	// Files whose content changed on disk.
	Written []string
}

type generator struct {
	cfg        *config.Config
	target     nativelib.Target
	directives *nativelib.Directives
	log        *logger.Logger
	mod        *module

	plan   *plan
	tr     *translated
	probes []*probe
	// Repacked structs by Go name.
	repacked map[string]*repacked
	counts   Counts
}

// Generate scans the wrapper header, translates the planned
// declarations and renders ztypes, zfuncs, zlink and zabi files for
// opts.Target into the configured output directory.
func Generate(ctx context.Context, opts *Options) (_ *Result, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("generate bindings for %v: %w", opts.Target, err)
		}
	}()
	c := opts.Config
	if opts.Directives == nil {
		return nil, errors.New("no link directives")
	}
	if opts.Translator == nil {
		return nil, errors.New("no translator")
	}

	// Paths are compared against the module root and end up in cgo
	// flags, so they must not depend on the working directory.
	cc := *c
	cc.OpenVR.IncludeDirs = slices.Clone(c.OpenVR.IncludeDirs)
	for _, p := range slices.Concat(
		[]*string{&cc.Output.Dir, &cc.OpenVR.Wrapper, &cc.OpenVR.VendorDir},
		pointers(cc.OpenVR.IncludeDirs),
	) {
		if *p == "" {
			continue
		}
		if *p, err = filepath.Abs(*p); err != nil {
			return nil, err
		}
	}
	c = &cc

	var includeDirs []string
	for _, dir := range append(c.HeaderDirs(), opts.Directives.IncludeDir) {
		if dir != "" && !slices.Contains(includeDirs, dir) {
			includeDirs = append(includeDirs, dir)
		}
	}
	h, err := cheader.ParseFile(c.OpenVR.Wrapper, &cheader.Options{
		IncludeDirs: includeDirs,
		Defines:     cheader.Predefined(opts.Target),
		ExportMacro: c.OpenVR.ExportMacro,
	})
	if err != nil {
		return nil, err
	}
	if len(h.Decls) == 0 {
		return nil, fmt.Errorf("%v declares nothing", c.OpenVR.Wrapper)
	}

	res := &Result{Target: opts.Target}
	res.Version, _ = h.Version()
	opts.Log.Infof("%v: %v declarations in %v files, header version %v", opts.Target, len(h.Decls), len(h.Files), orNone(res.Version))
	if want := c.OpenVR.MinVersion; want != "" {
		if res.Version == "" {
			return nil, fmt.Errorf("header declares no version, cannot check min-version %v", want)
		}
		if semver.Compare(res.Version, want) < 0 {
			return nil, fmt.Errorf("header version %v is older than min-version %v", res.Version, want)
		}
	}

	p, err := newPlan(c, h)
	if err != nil {
		return nil, err
	}
	g := &generator{
		cfg:        c,
		target:     opts.Target,
		directives: opts.Directives,
		log:        opts.Log,
		plan:       p,
		probes:     p.probes(),
	}
	g.counts.Excluded = p.excludedCount
	for _, it := range p.items {
		if it.manual {
			g.counts.Manual++
		}
	}
	if g.mod, err = findModule(c.Output.Dir); err != nil {
		return nil, err
	}
	hw, err := handwritten(c.Output.Dir, opts.Target)
	if err != nil {
		return nil, err
	}
	if err := g.checkHandwritten(hw); err != nil {
		return nil, err
	}
	res.ImportPath = g.mod.importPath(c.Output.Dir)

	var cflags []string
	for _, dir := range includeDirs {
		cflags = append(cflags, "-I"+dir)
	}
	translate := func() error {
		out, err := opts.Translator.Translate(ctx, &translator.Request{
			Target: opts.Target,
			Source: p.godefsInput(c.Output.Package, c.OpenVR.Wrapper, g.probes),
			CFlags: cflags,
		})
		if err != nil {
			return err
		}
		if g.tr, err = parseTranslated(out); err != nil {
			return err
		}
		return g.tr.probeValues(g.probes)
	}
	if err := translate(); err != nil {
		return nil, err
	}
	// Structs cgo padded are rebuilt from their native member layout,
	// which takes a second translation with the extra probes.
	if extra := g.planRepack(); len(extra) > 0 {
		g.probes = append(g.probes, extra...)
		if err := translate(); err != nil {
			return nil, err
		}
	}

	tag := opts.Target.Tag()
	for _, step := range []struct {
		name   string
		render func() ([]byte, error)
	}{
		{"ztypes_" + tag + ".go", g.renderTypes},
		{"zfuncs.go", g.renderFuncs},
		{linkFileName(g), g.renderLink},
		{"zabi_" + tag + "_test.go", g.renderABI},
	} {
		data, err := step.render()
		if err != nil {
			return nil, fmt.Errorf("%v: %w", step.name, err)
		}
		if data != nil {
			res.Files = append(res.Files, genio.File{Name: step.name, Data: data})
		}
	}
	res.Counts = g.counts

	if opts.DryRun {
		return res, nil
	}
	if res.Written, err = genio.WriteFiles(c.Output.Dir, res.Files); err != nil {
		return nil, err
	}
	return res, nil
}

func pointers(s []string) []*string {
	res := make([]*string, len(s))
	for i := range s {
		res[i] = &s[i]
	}
	return res
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
