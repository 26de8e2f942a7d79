// Package sqlite builds a throwaway SQLite index over an edition so that
// trait distributions and rarity scores can be answered with SQL. The
// edition's CSV and JSON exports stay the source of truth; the index is
// rebuilt from them on every Open.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// Index is an open rarity index.
type Index struct {
	db   *sql.DB
	size int
}

// TraitCount is how often one trait occurs in an edition.
type TraitCount struct {
	Layer   string  `json:"layer"`
	Trait   string  `json:"trait"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

// Score is the rarity score of one item: the sum over its layers of
// edition size divided by the number of items sharing that trait.
type Score struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

// Open creates a fresh index database at path, replacing any earlier one,
// and applies the schema.
func Open(path string) (*Index, error) {
	// A stale index from an earlier edition size must not leak into queries.
	_ = os.Remove(path)

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	for _, ddl := range append(append([]string(nil), schemaDDL...), indexDDL...) {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}
	return &Index{db: db}, nil
}

// Close releases the database.
func (x *Index) Close() error {
	if x.db == nil {
		return nil
	}
	err := x.db.Close()
	x.db = nil
	return err
}

// Load inserts every record of ed. Loading is transactional: all records
// land or the index stays empty.
func (x *Index) Load(ed *types.Edition) error {
	tx, err := x.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	for pos, name := range ed.Config.LayerNames() {
		if _, err := tx.Exec(`INSERT INTO layers (layer_pos, name) VALUES (?, ?)`, pos, name); err != nil {
			return fmt.Errorf("inserting layer %q: %w", name, err)
		}
	}

	itemStmt, err := tx.Prepare(`INSERT INTO items (item_index, asset_count) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing item insert: %w", err)
	}
	defer itemStmt.Close()
	traitStmt, err := tx.Prepare(`INSERT INTO item_traits (item_index, layer_pos, trait) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing trait insert: %w", err)
	}
	defer traitStmt.Close()

	for i, rec := range ed.Records {
		idx := i + 1
		if _, err := itemStmt.Exec(idx, len(rec.Assets)); err != nil {
			return fmt.Errorf("inserting item %d: %w", idx, err)
		}
		for pos, trait := range rec.Traits {
			if _, err := traitStmt.Exec(idx, pos, trait); err != nil {
				return fmt.Errorf("inserting item %d trait %q: %w", idx, trait, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	x.size = ed.Len()
	return nil
}

// TraitCounts returns the occurrence of every trait, grouped by layer in
// layer order and most common first within a layer.
func (x *Index) TraitCounts() ([]TraitCount, error) {
	rows, err := x.db.Query(`
SELECT l.name, t.trait, COUNT(*) AS n
FROM item_traits t
JOIN layers l ON l.layer_pos = t.layer_pos
GROUP BY t.layer_pos, t.trait
ORDER BY t.layer_pos, n DESC, t.trait`)
	if err != nil {
		return nil, fmt.Errorf("query trait counts: %w", err)
	}
	defer rows.Close()

	var out []TraitCount
	for rows.Next() {
		var c TraitCount
		if err := rows.Scan(&c.Layer, &c.Trait, &c.Count); err != nil {
			return nil, fmt.Errorf("scan trait count: %w", err)
		}
		if x.size > 0 {
			c.Percent = float64(c.Count) * 100 / float64(x.size)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RarityScores returns item scores, rarest first. A positive limit caps
// the number of rows.
func (x *Index) RarityScores(limit int) ([]Score, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := x.db.Query(`
WITH counts AS (
    SELECT layer_pos, trait, COUNT(*) AS n
    FROM item_traits
    GROUP BY layer_pos, trait
)
SELECT t.item_index, SUM(CAST(? AS REAL) / c.n) AS score
FROM item_traits t
JOIN counts c ON c.layer_pos = t.layer_pos AND c.trait = t.trait
GROUP BY t.item_index
ORDER BY score DESC, t.item_index
LIMIT ?`, x.size, limit)
	if err != nil {
		return nil, fmt.Errorf("query rarity scores: %w", err)
	}
	defer rows.Close()

	var out []Score
	for rows.Next() {
		var s Score
		if err := rows.Scan(&s.Index, &s.Score); err != nil {
			return nil, fmt.Errorf("scan rarity score: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
