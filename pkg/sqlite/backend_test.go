package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

func TestOpenIndex(t *testing.T) {
	ed := &types.Edition{
		Name: "genesis",
		Config: types.EditionConfig{Layers: []types.Layer{
			{ID: 1, Name: "background"},
		}},
		Records: []types.AssetRecord{
			{Traits: []string{"Red"}},
			{Traits: []string{"Red"}},
			{Traits: []string{"Blue"}},
		},
	}

	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"), ed)
	require.NoError(t, err)
	defer idx.Close()

	scores, err := idx.RarityScores(1)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, Score{Index: 3, Score: 3}, scores[0])
}
