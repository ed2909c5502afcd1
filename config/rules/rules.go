// Package rules applies the [[rule]] entries of a config to the
// declarations found in the native headers.
package rules

import (
	"fmt"
	"go/token"
	"strconv"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/ovrgo/openvr/config"
)

// Symbol is a declaration as seen by the rules.
type Symbol struct {
	// Native C name. Selectors match against this.
	Name string
	// One of config.Kinds.
	Kind string
	// Go name before any rule ran.
	GoName string
}

// Decision is the outcome of all rules for one symbol.
type Decision struct {
	GoName string
	// False drops the declaration from the output entirely.
	Include bool
	// True means the declaration is written by hand and must not be
	// generated.
	Manual bool
}

// Execute runs the rules of c over syms, in rule order. The result is
// keyed by native name.
func Execute(c *config.Config, syms []Symbol) (_ map[string]Decision, err error) {
	defer func() {
		if err != nil {
			err = fmt.Errorf("execute rules: %w", err)
		}
	}()

	res := make(map[string]Decision, len(syms))
	taken := make(map[string]string, len(syms)) // Go name -> native name
	for _, sym := range syms {
		if _, ok := res[sym.Name]; ok {
			return nil, fmt.Errorf("duplicate %v symbol: %v", sym.Kind, sym.Name)
		}
		if other, ok := taken[sym.GoName]; ok {
			return nil, fmt.Errorf("%v and %v both map to Go name %v", other, sym.Name, sym.GoName)
		}
		res[sym.Name] = Decision{GoName: sym.GoName, Include: true}
		taken[sym.GoName] = sym.Name
	}

	for i, rule := range c.Rules {
		for _, sym := range syms {
			if rule.Select.Kind != "" && rule.Select.Kind != sym.Kind {
				continue
			}
			// Backrefs are the '\1', '\2' etc. created by capture
			// groups in the name selector.
			var backrefs []string
			if rule.Select.Name != nil {
				m := rule.Select.Name.FindStringSubmatch(sym.Name)
				if len(m) == 0 || len(m[0]) != len(sym.Name) {
					continue
				}
				backrefs = m[1:]
			}

			d := res[sym.Name]

			renameTo := func(newName string) error {
				if newName == d.GoName {
					return nil
				}
				if !token.IsIdentifier(newName) {
					return fmt.Errorf("rule %v: %v is not a valid Go identifier", i, strconv.Quote(newName))
				}
				if other, ok := taken[newName]; ok {
					return fmt.Errorf("rule %v: renaming %v to %v would conflict with %v",
						i, strconv.Quote(d.GoName), strconv.Quote(newName), other)
				}
				delete(taken, d.GoName)
				taken[newName] = sym.Name
				d.GoName = newName
				return nil
			}

			if rule.Actions.Rename != "" {
				oldnew := make([]string, 0, 2*9)
				for j := range 9 {
					var v string
					if j < len(backrefs) {
						v = backrefs[j]
					}
					oldnew = append(oldnew, `\`+strconv.Itoa(j+1), v)
				}
				newName := strings.NewReplacer(oldnew...).Replace(rule.Actions.Rename)
				if err := renameTo(newName); err != nil {
					return nil, err
				}
			}

			if rule.Actions.ToCasing != "" {
				var newName string
				switch rule.Actions.ToCasing {
				case "camel":
					newName = strcase.ToCamel(d.GoName)
				case "lower-camel":
					newName = strcase.ToLowerCamel(d.GoName)
				case "snake":
					newName = strcase.ToSnake(d.GoName)
				case "screaming-snake":
					newName = strcase.ToScreamingSnake(d.GoName)
				default:
					return nil, fmt.Errorf("rule %v: unknown casing: %v", i, rule.Actions.ToCasing)
				}
				if err := renameTo(newName); err != nil {
					return nil, err
				}
			}

			if rule.Actions.Include != nil {
				d.Include = *rule.Actions.Include
			}
			if rule.Actions.Manual != nil {
				d.Manual = *rule.Actions.Manual
			}
			res[sym.Name] = d
		}
	}

	return res, nil
}
