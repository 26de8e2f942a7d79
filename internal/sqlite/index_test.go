package sqlite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

func testEdition() *types.Edition {
	return &types.Edition{
		Name: "genesis",
		Config: types.EditionConfig{Layers: []types.Layer{
			{ID: 1, Name: "background", Traits: []string{"Red", "Blue"}},
			{ID: 2, Name: "hat", Traits: []string{types.NoneTrait, "Cap", "Top"}},
		}},
		Records: []types.AssetRecord{
			{Traits: []string{"Red", "Cap"}, Assets: []string{"background/Red.png", "hat/Cap.png"}},
			{Traits: []string{"Red", "none"}, Assets: []string{"background/Red.png"}},
			{Traits: []string{"Red", "Top"}, Assets: []string{"background/Red.png", "hat/Top.png"}},
			{Traits: []string{"Blue", "none"}, Assets: []string{"background/Blue.png"}},
		},
	}
}

func openLoaded(t *testing.T) *Index {
	t.Helper()
	x, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { x.Close() })
	require.NoError(t, x.Load(testEdition()))
	return x
}

func TestTraitCounts(t *testing.T) {
	counts, err := openLoaded(t).TraitCounts()
	require.NoError(t, err)
	assert.Equal(t, []TraitCount{
		{Layer: "background", Trait: "Red", Count: 3, Percent: 75},
		{Layer: "background", Trait: "Blue", Count: 1, Percent: 25},
		{Layer: "hat", Trait: "none", Count: 2, Percent: 50},
		{Layer: "hat", Trait: "Cap", Count: 1, Percent: 25},
		{Layer: "hat", Trait: "Top", Count: 1, Percent: 25},
	}, counts)
}

func TestRarityScores(t *testing.T) {
	x := openLoaded(t)

	scores, err := x.RarityScores(0)
	require.NoError(t, err)
	require.Len(t, scores, 4)

	var order []int
	for _, s := range scores {
		order = append(order, s.Index)
	}
	assert.Equal(t, []int{4, 1, 3, 2}, order)
	assert.InDelta(t, 6.0, scores[0].Score, 1e-9)
	assert.InDelta(t, 4.0/3+4, scores[1].Score, 1e-9)
	assert.InDelta(t, 4.0/3+2, scores[3].Score, 1e-9)

	top, err := x.RarityScores(2)
	require.NoError(t, err)
	assert.Len(t, top, 2)
}

func TestOpenReplacesStaleIndex(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	require.NoError(t, os.WriteFile(path, []byte("not a database"), 0o644))

	x, err := Open(path)
	require.NoError(t, err)
	defer x.Close()
	require.NoError(t, x.Load(testEdition()))

	counts, err := x.TraitCounts()
	require.NoError(t, err)
	assert.NotEmpty(t, counts)
}

func TestLoadIsTransactional(t *testing.T) {
	x, err := Open(filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	defer x.Close()

	ed := testEdition()
	ed.Config.Layers[1].Name = "background"
	assert.Error(t, x.Load(ed), "duplicate layer names violate the unique constraint")

	counts, err := x.TraitCounts()
	require.NoError(t, err)
	assert.Empty(t, counts)
}
