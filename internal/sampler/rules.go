package sampler

import (
	"fmt"
	"sort"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const opRules = "sampler.rules"

// Rule is a compiled cross-layer validation predicate.
type Rule struct {
	Name   string
	when   []clause
	unless []clause
}

// clause matches when the trait chosen for layer is one of traits.
type clause struct {
	layer  int
	traits map[string]bool
}

func (c clause) matches(tuple []string) bool {
	return c.traits[tuple[c.layer]]
}

func allMatch(clauses []clause, tuple []string) bool {
	for _, c := range clauses {
		if !c.matches(tuple) {
			return false
		}
	}
	return true
}

// Rejects reports whether the rule forbids the trait tuple: every when
// clause matches and the unless clauses, if any, do not all match.
func (r Rule) Rejects(tuple []string) bool {
	if !allMatch(r.when, tuple) {
		return false
	}
	if len(r.unless) > 0 && allMatch(r.unless, tuple) {
		return false
	}
	return true
}

// CompileRules resolves rule specs against cfg. Unknown layers and traits
// are config errors; the none sentinel is accepted for layers that have it.
func CompileRules(cfg types.EditionConfig, specs []types.RuleSpec) ([]Rule, error) {
	index := make(map[string]int, len(cfg.Layers))
	for i, l := range cfg.Layers {
		index[l.Name] = i
	}

	rules := make([]Rule, 0, len(specs))
	for _, spec := range specs {
		if spec.Name == "" || len(spec.When) == 0 {
			return nil, types.ConfigErrorf(opRules, "rule %q: %v", spec.Name, types.ErrRuleInvalid)
		}
		when, err := compileClauses(cfg, index, spec.Name, spec.When)
		if err != nil {
			return nil, err
		}
		unless, err := compileClauses(cfg, index, spec.Name, spec.Unless)
		if err != nil {
			return nil, err
		}
		rules = append(rules, Rule{Name: spec.Name, when: when, unless: unless})
	}
	return rules, nil
}

func compileClauses(cfg types.EditionConfig, index map[string]int, rule string, in map[string][]string) ([]clause, error) {
	// Sorted so compiled rules evaluate in a stable order.
	names := make([]string, 0, len(in))
	for name := range in {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]clause, 0, len(in))
	for _, name := range names {
		li, ok := index[name]
		if !ok {
			return nil, types.ConfigErrorf(opRules, "rule %q: unknown layer %q", rule, name)
		}
		layer := cfg.Layers[li]
		traits := make(map[string]bool, len(in[name]))
		for _, t := range in[name] {
			if layer.TraitIndex(t) < 0 {
				return nil, types.ConfigErrorf(opRules, "rule %q: layer %q has no trait %q", rule, name, t)
			}
			traits[t] = true
		}
		if len(traits) == 0 {
			return nil, types.ConfigErrorf(opRules, "rule %q: layer %q lists no traits", rule, name)
		}
		out = append(out, clause{layer: li, traits: traits})
	}
	return out, nil
}

func (r Rule) String() string {
	return fmt.Sprintf("rule %q", r.Name)
}
