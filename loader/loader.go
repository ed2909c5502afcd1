// Package loader type-checks generated packages the way the go command
// would build them for a target.
package loader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/tools/go/packages"
)

type Config struct {
	// Directory the patterns are relative to.
	Dir string
	// Packages to check. Defaults to ".".
	Patterns []string
	// Additional env vars (e.g. "GOOS=...", "GOARCH=...", "CGO_ENABLED=..." etc.)
	Env []string
	// Additional build flags (e.g. "-tags=...")
	BuildFlags []string
}

// ErrNoPackages is returned when the patterns match nothing.
var ErrNoPackages = errors.New("no packages matched")

func loadPackagesStep(ctx context.Context, c *Config, pc *packages.Config) ([]*packages.Package, error) {
	pc.Context = ctx
	pc.Dir = c.Dir
	// NOTE: Ensure we always fully clone any slices here!
	pc.Env = append(os.Environ(), c.Env...)
	pc.BuildFlags = append(slices.Clone(c.BuildFlags), pc.BuildFlags...)

	patterns := c.Patterns
	if len(patterns) == 0 {
		patterns = []string{"."}
	}
	pkgs, err := packages.Load(pc, patterns...)
	if err != nil {
		return nil, err
	}
	if len(pkgs) == 0 {
		return nil, ErrNoPackages
	}

	var errs *multierror.Error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = multierror.Append(errs, fmt.Errorf("%v: %w", p.PkgPath, e))
		}
	})
	return pkgs, errs.ErrorOrNil()
}

// Check loads and type-checks the packages named by c, including their
// test files. Every error the type checker reports is returned.
func Check(ctx context.Context, c *Config) ([]*packages.Package, error) {
	return loadPackagesStep(ctx, c, &packages.Config{
		Mode:  packages.NeedName | packages.NeedFiles | packages.NeedTypes | packages.NeedSyntax | packages.NeedTypesInfo,
		Tests: true,
	})
}
