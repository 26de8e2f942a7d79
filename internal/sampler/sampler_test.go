package sampler

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitforge/internal/rarity"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const exampleTable = `-,background,Rarity Weight,-,-,hat,Rarity Weight,-
id,1,-,-,id,2,-,-
1,Red,2,-,1,Cap,1,-
2,Blue,1,-,2,None,1,-
3,None,0,-,,,,
`

// faceTable is a 3x3 space with a Yellow/Yellow pair.
const faceTable = `-,eyes,Rarity Weight,-,-,mouth,Rarity Weight,-
id,1,-,-,id,2,-,-
1,Blue,-,-,1,Smile,-,-
2,Green,-,-,2,Frown,-,-
3,Yellow,-,-,3,Yellow,-,-
4,None,0,-,4,None,0,-
`

func build(t *testing.T, table string) types.EditionConfig {
	t.Helper()
	cfg, err := rarity.Build(strings.NewReader(table))
	require.NoError(t, err)
	return cfg
}

func seeded(seed int64) Option {
	return WithRand(rand.New(rand.NewSource(seed)))
}

func assertUnique(t *testing.T, recs []types.AssetRecord) {
	t.Helper()
	seen := make(map[string]bool, len(recs))
	for _, r := range recs {
		assert.False(t, seen[r.Key()], "duplicate tuple %v", r.Traits)
		seen[r.Key()] = true
	}
}

func TestSampleExhaustsExampleSpace(t *testing.T) {
	cfg := build(t, exampleTable)
	require.Equal(t, int64(4), cfg.TotalCombinations())

	recs, err := New(cfg, seeded(7)).Sample(4, nil)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assertUnique(t, recs)

	got := make(map[string]bool)
	for _, r := range recs {
		got[strings.Join(r.Traits, "+")] = true
	}
	assert.Equal(t, map[string]bool{
		"Red+none": true, "Red+Cap": true, "Blue+none": true, "Blue+Cap": true,
	}, got)
}

func TestSampleResolvesAssetReferences(t *testing.T) {
	cfg := build(t, exampleTable)
	recs, err := New(cfg, seeded(3), WithExt("webp")).Sample(4, nil)
	require.NoError(t, err)

	for _, r := range recs {
		want := []string{"background/" + r.Traits[0] + ".webp"}
		if r.Traits[1] != types.NoneTrait {
			want = append(want, "hat/"+r.Traits[1]+".webp")
		}
		assert.Equal(t, want, r.Assets)
	}
}

func TestSampleBeyondCapacityFailsUpFront(t *testing.T) {
	cfg := build(t, exampleTable)
	existing := []types.AssetRecord{{Traits: []string{"Red", "Cap"}, Assets: []string{"background/Red.png", "hat/Cap.png"}}}

	recs, err := New(cfg, seeded(1)).Sample(5, existing)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCapacity)
	assert.Nil(t, recs)
	assert.Len(t, existing, 1)
}

func TestSampleExtensionPreservesExisting(t *testing.T) {
	cfg := build(t, faceTable)
	s := New(cfg, seeded(11))

	first, err := s.Sample(3, nil)
	require.NoError(t, err)
	snapshot := make([]types.AssetRecord, len(first))
	for i, r := range first {
		snapshot[i] = types.AssetRecord{
			Traits: append([]string(nil), r.Traits...),
			Assets: append([]string(nil), r.Assets...),
		}
	}

	extended, err := s.Sample(7, first)
	require.NoError(t, err)
	require.Len(t, extended, 7)
	assert.Equal(t, snapshot, extended[:3])
	assertUnique(t, extended)
}

func TestSampleAtOrBelowTargetIsNoop(t *testing.T) {
	cfg := build(t, exampleTable)
	existing := []types.AssetRecord{
		{Traits: []string{"Red", "Cap"}},
		{Traits: []string{"Blue", "Cap"}},
	}
	recs, err := New(cfg).Sample(1, existing)
	require.NoError(t, err)
	assert.Equal(t, existing, recs)
}

func TestSampleRejectsMalformedExisting(t *testing.T) {
	cfg := build(t, exampleTable)

	_, err := New(cfg).Sample(3, []types.AssetRecord{{Traits: []string{"Red"}}})
	assert.ErrorIs(t, err, types.ErrState)

	dup := []types.AssetRecord{{Traits: []string{"Red", "Cap"}}, {Traits: []string{"Red", "Cap"}}}
	_, err = New(cfg).Sample(3, dup)
	assert.ErrorIs(t, err, types.ErrState)
}

func TestSampleAppliesRules(t *testing.T) {
	cfg := build(t, faceTable)
	rules, err := CompileRules(cfg, []types.RuleSpec{{
		Name: "no-yellow-pair",
		When: map[string][]string{"eyes": {"Yellow"}, "mouth": {"Yellow"}},
	}})
	require.NoError(t, err)

	recs, err := New(cfg, seeded(5), WithRules(rules)).Sample(8, nil)
	require.NoError(t, err)
	require.Len(t, recs, 8)
	assertUnique(t, recs)
	for _, r := range recs {
		assert.False(t, r.Traits[0] == "Yellow" && r.Traits[1] == "Yellow", "forbidden tuple %v accepted", r.Traits)
	}
}

func TestSampleRetryCeiling(t *testing.T) {
	cfg := build(t, faceTable)
	rules, err := CompileRules(cfg, []types.RuleSpec{{
		Name: "no-yellow-pair",
		When: map[string][]string{"eyes": {"Yellow"}, "mouth": {"Yellow"}},
	}})
	require.NoError(t, err)

	recs, err := New(cfg, seeded(5), WithRules(rules), WithMaxRetries(2000)).Sample(9, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCapacity)
	assert.Len(t, recs, 8, "accepted records are returned with the error")
	assertUnique(t, recs)
}

func TestSelectIndexBoundaries(t *testing.T) {
	// Weights 0.5, 0, 0.5: the middle trait has zero width.
	cum := []float64{0.5, 0.5, 1}

	tests := []struct {
		u    float64
		want int
	}{
		{0, 0},
		{0.25, 0},
		{0.5, 0},
		{0.5000001, 2},
		{0.999999, 2},
		{1, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SelectIndex(cum, tt.u), "u=%v", tt.u)
	}
}

func TestDrawFollowsWeights(t *testing.T) {
	cfg := build(t, exampleTable)
	s := New(cfg, seeded(99))

	const draws = 6000
	red := 0
	for i := 0; i < draws; i++ {
		if s.Draw().Traits[0] == "Red" {
			red++
		}
	}
	assert.InDelta(t, 2.0/3, float64(red)/draws, 0.03)
}

func TestSampleWithoutLayers(t *testing.T) {
	_, err := New(types.EditionConfig{}).Sample(1, nil)
	assert.ErrorIs(t, err, types.ErrConfig)
}
