package mapping

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chatdeploy/configurator/engine/settings"
)

// ToNested projects a validated flat configuration onto the generator shape.
func ToNested(cfg *settings.Configuration) *NestedConfiguration {
	n := &NestedConfiguration{}
	if cfg == nil {
		return n
	}
	for _, r := range Rules() {
		if r.Forward != nil {
			r.Forward(cfg, n)
		}
	}
	return n
}

// ToFlat rebuilds a flat configuration from the nested shape. It starts from
// the defaults, applies every reverse rule in order and then resolves
// placeholders and inferred fields. Fields that never existed in flat form,
// such as per-bucket rate limits, are collapsed.
func ToFlat(n *NestedConfiguration) *settings.Configuration {
	cfg := settings.Baseline()
	if n != nil {
		for _, r := range Rules() {
			if r.Reverse != nil {
				r.Reverse(n, cfg)
			}
		}
	}
	settings.Resolve(cfg)
	return cfg
}

// CheckCoverage verifies the rule table against both shapes: every nested leaf
// is produced by a rule, every named path exists, copy rules bind compatible
// types and every flat leaf feeds at least one rule.
func CheckCoverage() error {
	var errs []error
	covered := map[string]bool{}
	consumed := map[string]bool{}
	for _, r := range Rules() {
		for _, t := range r.Targets {
			if _, ok := LookupLeaf(t); !ok {
				errs = append(errs, fmt.Errorf("rule %q targets unknown nested path %q", r.Name, t))
				continue
			}
			covered[t] = true
		}
		for _, s := range r.Sources {
			if _, ok := settings.LookupField(s); !ok {
				errs = append(errs, fmt.Errorf("rule %q reads unknown flat path %q", r.Name, s))
				continue
			}
			consumed[s] = true
		}
		if r.Forward == nil {
			errs = append(errs, fmt.Errorf("rule %q has no forward mapping", r.Name))
		}
		if r.copyOf {
			if err := checkCopy(r); err != nil {
				errs = append(errs, err)
			}
		}
	}
	for _, l := range Leaves() {
		if !covered[l.Path] {
			errs = append(errs, fmt.Errorf("nested field %q has no mapping rule", l.Path))
		}
	}
	for _, f := range settings.Fields() {
		if !consumed[f.Path] {
			errs = append(errs, fmt.Errorf("flat field %q is not read by any mapping rule", f.Path))
		}
	}
	return errors.Join(errs...)
}

func checkCopy(r Rule) error {
	if len(r.Targets) != 1 || len(r.Sources) != 1 {
		return fmt.Errorf("copy rule %q must bind exactly one target and one source", r.Name)
	}
	l, f, ok := bind(r.Targets[0], r.Sources[0])
	if !ok {
		return nil
	}
	if !assignable(f.Type, l.Type) || (r.Reverse != nil && !assignable(l.Type, f.Type)) {
		return fmt.Errorf("copy rule %q binds %s to %s", r.Name, f.Type, l.Type)
	}
	if f.Sensitive && !l.Sensitive {
		return fmt.Errorf("copy rule %q moves secret %q into non-secret %q", r.Name, f.Path, l.Path)
	}
	return nil
}

// TargetsOf lists the nested paths derived from a flat path.
func TargetsOf(source string) []string {
	var out []string
	for _, r := range Rules() {
		if slices.Contains(r.Sources, source) {
			out = append(out, r.Targets...)
		}
	}
	return out
}
