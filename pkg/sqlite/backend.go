// Package sqlite provides the public API for the edition rarity index.
// This package exposes the factory function for building an index while
// keeping implementation details internal.
package sqlite

import (
	"github.com/mesh-intelligence/traitforge/internal/sqlite"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// Index answers trait-distribution and rarity queries over one edition.
type Index interface {
	TraitCounts() ([]sqlite.TraitCount, error)
	RarityScores(limit int) ([]sqlite.Score, error)
	Close() error
}

// TraitCount and Score are the rows an Index returns.
type (
	TraitCount = sqlite.TraitCount
	Score      = sqlite.Score
)

// OpenIndex creates a fresh index database at path and loads ed into it.
//
// Example:
//
//	idx, err := sqlite.OpenIndex("output/edition genesis/index.db", ed)
//	if err != nil {
//	    return err
//	}
//	defer idx.Close()
//	scores, err := idx.RarityScores(10)
func OpenIndex(path string, ed *types.Edition) (Index, error) {
	idx, err := sqlite.Open(path)
	if err != nil {
		return nil, err
	}
	if err := idx.Load(ed); err != nil {
		idx.Close()
		return nil, err
	}
	return idx, nil
}
