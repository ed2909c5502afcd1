// Command openvr-bindgen makes the vendored OpenVR library available for
// a target and generates the Go bindings of its C API.
//
// It is normally run through "go generate" in the openvr package, which
// selects the target from GOOS and GOARCH:
//
//	//go:generate go run ../cmd/openvr-bindgen -config ../openvr-bindgen.toml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/ovrgo/openvr/bindgen"
	"github.com/ovrgo/openvr/config"
	"github.com/ovrgo/openvr/loader"
	"github.com/ovrgo/openvr/logger"
	"github.com/ovrgo/openvr/nativelib"
	"github.com/ovrgo/openvr/translator"
)

type options struct {
	configPath string
	goos       string
	goarch     string
	all        bool
	strategy   string
	outDir     string
	print      bool
	dryRun     bool
	verify     bool
	quiet      bool
}

func parseFlags(args []string, output io.Writer) (*options, error) {
	var o options
	fs := flag.NewFlagSet("openvr-bindgen", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&o.configPath, "config", "openvr-bindgen.toml", "configuration `file`")
	fs.StringVar(&o.goos, "goos", "", "target operating system (default $GOOS or the host)")
	fs.StringVar(&o.goarch, "goarch", "", "target architecture (default $GOARCH or the host)")
	fs.BoolVar(&o.all, "all", false, "process every [[target]] of the configuration")
	fs.StringVar(&o.strategy, "strategy", "", "override openvr.strategy (source or prebuilt)")
	fs.StringVar(&o.outDir, "out", "", "override output.dir")
	fs.BoolVar(&o.print, "print", false, "only resolve the native library and print its link directives")
	fs.BoolVar(&o.dryRun, "dry-run", false, "generate without writing files")
	fs.BoolVar(&o.verify, "verify", false, "type-check the output package for each target")
	fs.BoolVar(&o.quiet, "q", false, "only log warnings and errors")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: openvr-bindgen [options...]\n\noptions:\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fs.Usage()
		return nil, fmt.Errorf("unexpected arguments: %q", fs.Args())
	}
	if o.all && (o.goos != "" || o.goarch != "") {
		return nil, errors.New("-all cannot be combined with -goos or -goarch")
	}
	return &o, nil
}

// app is the tool with its external dependencies.
type app struct {
	stdout     io.Writer
	log        *logger.Logger
	runner     nativelib.Runner
	translator translator.Translator
	// Type-checks the output package; loader.Check outside tests.
	check func(ctx context.Context, c *loader.Config) error
}

func (a *app) run(ctx context.Context, args []string) error {
	o, err := parseFlags(args, a.stdout)
	if err != nil {
		return err
	}
	if o.quiet {
		a.log.MinLevel = logger.WARN
	}

	cfg, err := config.Load(o.configPath)
	if err != nil {
		var cErr *config.Error
		if errors.As(err, &cErr) {
			return errors.New(cErr.String())
		}
		return err
	}
	if o.strategy != "" {
		cfg.OpenVR.Strategy = o.strategy
	}
	if o.outDir != "" {
		if cfg.Output.Dir, err = filepath.Abs(o.outDir); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%v: %w", o.configPath, err)
	}
	strategy, err := nativelib.ParseStrategy(cfg.OpenVR.Strategy)
	if err != nil {
		return err
	}

	targets, err := selectTargets(cfg, o)
	if err != nil {
		return err
	}

	resolver := &nativelib.Resolver{
		Strategy:  strategy,
		VendorDir: cfg.OpenVR.VendorDir,
		Wrapper:   cfg.OpenVR.Wrapper,
		BuildDir:  cfg.OpenVR.BuildDir,
		Runner:    a.runner,
		Log:       a.log,
	}

	var results []*bindgen.Result
	for _, t := range targets {
		a.log.Infof("%v: resolving native library (%v)", t, strategy)
		d, err := resolver.Resolve(ctx, t)
		if err != nil {
			return err
		}
		if o.print {
			if _, err := d.WriteTo(a.stdout); err != nil {
				return err
			}
			continue
		}

		a.log.Infof("%v: generating bindings", t)
		res, err := bindgen.Generate(ctx, &bindgen.Options{
			Config:     cfg,
			Target:     t,
			Directives: d,
			Translator: a.translator,
			Log:        a.log,
			DryRun:     o.dryRun,
		})
		if err != nil {
			return err
		}
		results = append(results, res)

		if o.verify && !o.dryRun {
			a.log.Infof("%v: type-checking %v", t, cfg.Output.Dir)
			err := a.check(ctx, &loader.Config{
				Dir: cfg.Output.Dir,
				Env: []string{"GOOS=" + string(t.OS), "GOARCH=" + t.Arch, "CGO_ENABLED=1"},
			})
			if err != nil {
				return fmt.Errorf("verify %v: %w", t, err)
			}
		}
	}

	if len(results) > 0 {
		writeStats(a.stdout, results)
	}
	return nil
}

// selectTargets returns the configured targets for -all, otherwise the
// one given by flags and the environment.
func selectTargets(cfg *config.Config, o *options) ([]nativelib.Target, error) {
	if o.all {
		if len(cfg.Targets) == 0 {
			return nil, fmt.Errorf("%v: -all needs at least one [[target]]", o.configPath)
		}
		var res []nativelib.Target
		for _, ct := range cfg.Targets {
			t, err := nativelib.ParseTarget(ct.GOOS, ct.GOARCH)
			if err != nil {
				return nil, err
			}
			res = append(res, t)
		}
		return res, nil
	}

	if o.goos == "" && o.goarch == "" {
		t, err := nativelib.TargetFromEnv()
		if err != nil {
			return nil, err
		}
		return []nativelib.Target{t}, nil
	}
	goos, goarch := o.goos, o.goarch
	if goos == "" {
		goos = envOr("GOOS", runtime.GOOS)
	}
	if goarch == "" {
		goarch = envOr("GOARCH", runtime.GOARCH)
	}
	t, err := nativelib.ParseTarget(goos, goarch)
	if err != nil {
		return nil, err
	}
	return []nativelib.Target{t}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeStats(w io.Writer, results []*bindgen.Result) {
	tbl := tablewriter.NewWriter(w)
	tbl.SetHeader([]string{"Target", "Version", "Types", "Enums", "Constants", "Functions", "Excluded", "Manual", "Repacked", "Skipped", "Written"})
	var total bindgen.Counts
	var totalWritten int
	for _, res := range results {
		c := res.Counts
		tbl.Append([]string{
			res.Target.String(),
			res.Version,
			strconv.Itoa(c.Types),
			fmt.Sprintf("%v (%v)", c.Enums, c.Enumerators),
			strconv.Itoa(c.Constants),
			strconv.Itoa(c.Functions),
			strconv.Itoa(c.Excluded),
			strconv.Itoa(c.Manual),
			strconv.Itoa(c.Repacked),
			strconv.Itoa(c.Skipped),
			fmt.Sprintf("%v/%v", len(res.Written), len(res.Files)),
		})
		total.Types += c.Types
		total.Enums += c.Enums
		total.Enumerators += c.Enumerators
		total.Constants += c.Constants
		total.Functions += c.Functions
		total.Excluded += c.Excluded
		total.Manual += c.Manual
		total.Repacked += c.Repacked
		total.Skipped += c.Skipped
		totalWritten += len(res.Written)
	}
	if len(results) > 1 {
		tbl.Append([]string{
			"==TOTAL==",
			"",
			strconv.Itoa(total.Types),
			fmt.Sprintf("%v (%v)", total.Enums, total.Enumerators),
			strconv.Itoa(total.Constants),
			strconv.Itoa(total.Functions),
			strconv.Itoa(total.Excluded),
			strconv.Itoa(total.Manual),
			strconv.Itoa(total.Repacked),
			strconv.Itoa(total.Skipped),
			strconv.Itoa(totalWritten),
		})
	}
	tbl.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_CENTER,
	})
	tbl.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	tbl.SetCenterSeparator("|")
	tbl.Render()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log := logger.New(os.Stderr, "openvr-bindgen:")
	a := &app{
		stdout:     os.Stdout,
		log:        log,
		runner:     nativelib.ExecRunner{Log: os.Stderr},
		translator: &translator.Godefs{},
		check: func(ctx context.Context, c *loader.Config) error {
			_, err := loader.Check(ctx, c)
			return err
		},
	}
	if err := a.run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("%v", err)
	}
}
