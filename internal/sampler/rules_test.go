package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

func ruleConfig() types.EditionConfig {
	return types.EditionConfig{Layers: []types.Layer{
		{ID: 1, Name: "background", Traits: []string{"Blue", "Red"}},
		{ID: 2, Name: "body", Traits: []string{"Black", "Red", "White"}},
		{ID: 3, Name: "face", Traits: []string{types.NoneTrait, "Black", "Face", "Sad", "Happy"}},
		{ID: 4, Name: "mouth", Traits: []string{"Yellow", "Pink"}},
		{ID: 5, Name: "eyes", Traits: []string{"Yellow", "Blue"}},
	}}
}

func TestRuleRejects(t *testing.T) {
	cfg := ruleConfig()
	rules, err := CompileRules(cfg, []types.RuleSpec{
		{
			Name: "no-yellow-pair",
			When: map[string][]string{"eyes": {"Yellow"}, "mouth": {"Yellow"}},
		},
		{
			Name:   "dark-body-needs-face",
			When:   map[string][]string{"body": {"Black", "Red"}},
			Unless: map[string][]string{"face": {"Black", "Face", "Sad"}},
		},
	})
	require.NoError(t, err)
	s := New(cfg, WithRules(rules))

	tests := []struct {
		name  string
		tuple []string
		want  string
	}{
		{"yellow eyes with yellow mouth", []string{"Blue", "White", "none", "Yellow", "Yellow"}, "no-yellow-pair"},
		{"yellow eyes with pink mouth", []string{"Blue", "White", "none", "Pink", "Yellow"}, ""},
		{"black body without allowed face", []string{"Blue", "Black", "Happy", "Pink", "Blue"}, "dark-body-needs-face"},
		{"black body with no face", []string{"Blue", "Black", "none", "Pink", "Blue"}, "dark-body-needs-face"},
		{"red body with sad face", []string{"Red", "Red", "Sad", "Pink", "Blue"}, ""},
		{"white body is unconstrained", []string{"Red", "White", "Happy", "Pink", "Blue"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Check(tt.tuple))
		})
	}
}

func TestCompileRulesErrors(t *testing.T) {
	cfg := ruleConfig()
	tests := []struct {
		name string
		spec types.RuleSpec
		msg  string
	}{
		{"unnamed", types.RuleSpec{When: map[string][]string{"eyes": {"Yellow"}}}, "must be named"},
		{"no when", types.RuleSpec{Name: "x"}, "must be named"},
		{"unknown layer", types.RuleSpec{Name: "x", When: map[string][]string{"hat": {"Cap"}}}, `unknown layer "hat"`},
		{"unknown trait", types.RuleSpec{Name: "x", When: map[string][]string{"eyes": {"Purple"}}}, `no trait "Purple"`},
		{"empty trait list", types.RuleSpec{Name: "x", When: map[string][]string{"eyes": {}}}, "lists no traits"},
		{"unknown unless layer", types.RuleSpec{
			Name:   "x",
			When:   map[string][]string{"eyes": {"Yellow"}},
			Unless: map[string][]string{"hat": {"Cap"}},
		}, `unknown layer "hat"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileRules(cfg, []types.RuleSpec{tt.spec})
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrConfig)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestCompileRulesAcceptsNoneSentinel(t *testing.T) {
	_, err := CompileRules(ruleConfig(), []types.RuleSpec{{
		Name: "faceless-needs-blue",
		When: map[string][]string{"face": {types.NoneTrait}},
	}})
	assert.NoError(t, err)
}
