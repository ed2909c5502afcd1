// Package config loads the openvr-bindgen configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"

	"dario.cat/mergo"
	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/semver"
)

const (
	StrategySource   = "source"
	StrategyPrebuilt = "prebuilt"
)

// OpenVR describes the vendored native library and how to link it.
type OpenVR struct {
	// Root of the vendored OpenVR tree (headers/, lib/, bin/, src/).
	VendorDir string `toml:"vendor-dir"`
	// Wrapper header that includes the public OpenVR headers.
	Wrapper string `toml:"wrapper"`
	// Extra include directories searched for quoted includes,
	// in addition to <vendor-dir>/headers.
	IncludeDirs []string `toml:"include-dirs"`
	// Where native builds and their stamps go.
	BuildDir string `toml:"build-dir"`
	// "source" or "prebuilt".
	Strategy string `toml:"strategy"`
	// Minimum accepted header version (semver, e.g. "v1.0.10").
	MinVersion string `toml:"min-version"`
	// Macro marking exported functions in the header.
	ExportMacro string `toml:"export-macro"`
	// Keep "EnumName_" prefixes on enumerators.
	PrependEnumName bool `toml:"prepend-enum-name"`
}

type Output struct {
	Dir     string `toml:"dir"`
	Package string `toml:"package"`
}

type Target struct {
	GOOS   string `toml:"goos"`
	GOARCH string `toml:"goarch"`
}

func (t Target) String() string {
	return t.GOOS + "/" + t.GOARCH
}

// Rule selects declarations by their native C name and kind and
// applies actions to them. Rules run in file order.
type Rule struct {
	// Free-form note shown in logs.
	Note   string `toml:"note"`
	Select struct {
		Name *regexp.Regexp `toml:"name"`
		Kind string         `toml:"kind"`
	} `toml:"select"`
	Actions struct {
		Include  *bool  `toml:"include"`
		Manual   *bool  `toml:"manual"`
		Rename   string `toml:"rename"`
		ToCasing string `toml:"to-casing"`
	} `toml:"action"`
}

type Config struct {
	Imports []string `toml:"imports"`
	OpenVR  OpenVR   `toml:"openvr"`
	Output  Output   `toml:"output"`
	Targets []Target `toml:"target"`
	Rules   []Rule   `toml:"rule"`
}

// Kinds accepted by rule selectors.
var Kinds = []string{"struct", "union", "enum", "typedef", "enumerator", "const", "func"}

// Casings accepted by the to-casing action.
var Casings = []string{"camel", "lower-camel", "snake", "screaming-snake"}

type Error struct {
	filePath string
	err      error  // short, single-line error
	str      string // full, multi-line error string, or err string, if none
}

// Error returns a short error message.
func (e *Error) Error() string {
	return e.filePath + ": " + e.err.Error()
}

// String returns the full multi-line error string.
func (e *Error) String() string {
	if e.str != "" {
		return "Error in file " + strconv.Quote(e.filePath) + ":\n" + e.str
	}
	return e.Error()
}

func (e *Error) Unwrap() error {
	return e.err
}

// Load reads the config at path, merging in imported files. Relative
// paths inside a file are resolved against that file's directory.
func Load(path string) (_ *Config, err error) {
	defer func() {
		if err != nil {
			var cErr *Error
			if errors.As(err, &cErr) {
				return
			}
			if tErr := (&toml.DecodeError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else if tErr := (&toml.StrictMissingError{}); errors.As(err, &tErr) {
				err = &Error{filePath: path, err: err, str: tErr.String()}
			} else {
				err = &Error{filePath: path, err: err}
			}
		}
	}()

	file, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	c := &Config{}
	err = toml.NewDecoder(bytes.NewReader(file)).
		DisallowUnknownFields().
		Decode(c)
	if err != nil {
		return nil, err
	}
	c.resolvePaths(filepath.Dir(path))

	var importedCs []*Config // collect imported files first so their imports don't leak into our file's imports
	for _, imp := range c.Imports {
		newC, err := Load(imp)
		if err != nil {
			return nil, err
		}
		importedCs = append(importedCs, newC)
	}
	for _, newC := range importedCs {
		if err := mergo.Merge(c, newC, mergo.WithAppendSlice); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p *string) {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
	for i := range c.Imports {
		abs(&c.Imports[i])
	}
	abs(&c.OpenVR.VendorDir)
	abs(&c.OpenVR.Wrapper)
	abs(&c.OpenVR.BuildDir)
	for i := range c.OpenVR.IncludeDirs {
		abs(&c.OpenVR.IncludeDirs[i])
	}
	abs(&c.Output.Dir)
}

// HeaderDirs returns the include path used for quoted includes: the
// wrapper's directory, <vendor-dir>/headers, then include-dirs.
func (c *Config) HeaderDirs() []string {
	dirs := []string{filepath.Dir(c.OpenVR.Wrapper)}
	if c.OpenVR.VendorDir != "" {
		dirs = append(dirs, filepath.Join(c.OpenVR.VendorDir, "headers"))
	}
	return append(dirs, c.OpenVR.IncludeDirs...)
}

// Validate reports every problem found in the config at once.
func (c *Config) Validate() error {
	var errs *multierror.Error
	add := func(format string, args ...any) {
		errs = multierror.Append(errs, fmt.Errorf(format, args...))
	}

	if c.OpenVR.VendorDir == "" {
		add("openvr.vendor-dir: required")
	}
	if c.OpenVR.Wrapper == "" {
		add("openvr.wrapper: required")
	}
	if c.OpenVR.BuildDir == "" && c.OpenVR.Strategy == StrategySource {
		add("openvr.build-dir: required for strategy %q", StrategySource)
	}
	switch c.OpenVR.Strategy {
	case StrategySource, StrategyPrebuilt:
	default:
		add("openvr.strategy: expected %q or %q, got %q", StrategySource, StrategyPrebuilt, c.OpenVR.Strategy)
	}
	if v := c.OpenVR.MinVersion; v != "" && !semver.IsValid(v) {
		add("openvr.min-version: invalid semantic version %q", v)
	}
	if c.Output.Dir == "" {
		add("output.dir: required")
	}
	if !token.IsIdentifier(c.Output.Package) {
		add("output.package: %q is not a valid package name", c.Output.Package)
	}
	for i, t := range c.Targets {
		if t.GOOS == "" || t.GOARCH == "" {
			add("target[%v]: goos and goarch are required", i)
		}
	}
	for i, r := range c.Rules {
		if r.Select.Kind != "" && !slices.Contains(Kinds, r.Select.Kind) {
			add("rule[%v]: select.kind: unknown kind %q", i, r.Select.Kind)
		}
		if r.Actions.ToCasing != "" && !slices.Contains(Casings, r.Actions.ToCasing) {
			add("rule[%v]: action.to-casing: unknown casing %q", i, r.Actions.ToCasing)
		}
		if r.Actions.Include == nil && r.Actions.Manual == nil &&
			r.Actions.Rename == "" && r.Actions.ToCasing == "" {
			add("rule[%v]: no action", i)
		}
	}
	return errs.ErrorOrNil()
}
