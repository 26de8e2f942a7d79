// Package rarity turns a rarity table into the per-layer probability model
// the sampler draws from, and writes the blank table authors fill in.
//
// A rarity table is comma-delimited with four columns per layer:
//
//	id column | name + trait rows | weight column | filler
//
// Row 0 holds the layer name, row 1 the layer id, and rows 2.. the traits
// up to a row whose name cell is exactly "None". Everything below the None
// row (filler, totals, spreadsheet formulas) is ignored.
package rarity

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// Table markers.
const (
	NoneRow     = "None"
	Placeholder = "-"
)

// columnsPerLayer is the fixed width of one layer's column group.
const columnsPerLayer = 4

// Column offsets inside a layer's group.
const (
	colName   = 1
	colWeight = 2
)

// Row offsets inside a column.
const (
	rowName       = 0
	rowID         = 1
	rowFirstTrait = 2
)

const opBuild = "rarity.build"

// BuildFile opens path and builds the edition config from it.
func BuildFile(path string) (types.EditionConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return types.EditionConfig{}, &types.Error{Op: opBuild, Kind: types.KindConfig, Path: path, Err: err}
	}
	defer f.Close()

	cfg, err := Build(f)
	if err != nil {
		if e, ok := err.(*types.Error); ok && e.Path == "" {
			e.Path = path
		}
		return types.EditionConfig{}, err
	}
	return cfg, nil
}

// Build parses a rarity table into an EditionConfig with layers sorted by
// id and weights normalized into cumulative distributions. It performs no
// I/O beyond reading r.
//
// Placeholder cells default to weight 1 when the layer has no explicit
// weight at all, and to 0 as soon as one explicit weight is present. Tables
// that mix the two therefore silently zero the unfilled traits.
func Build(r io.Reader) (types.EditionConfig, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return types.EditionConfig{}, &types.Error{Op: opBuild, Kind: types.KindConfig, Err: err}
	}

	cols := transpose(rows)
	if len(cols) == 0 {
		return types.EditionConfig{}, types.ConfigErrorf(opBuild, "rarity table is empty")
	}

	var layers []types.Layer
	seen := make(map[string]bool)
	for start := 0; start+colName < len(cols); start += columnsPerLayer {
		if blank(cols[start+colName]) {
			continue
		}
		if start+colWeight >= len(cols) {
			return types.EditionConfig{}, types.ConfigErrorf(opBuild, "column %d: incomplete layer column group", start+colName+1)
		}
		layer, err := parseLayer(cols[start+colName], cols[start+colWeight])
		if err != nil {
			return types.EditionConfig{}, err
		}
		if seen[layer.Name] {
			return types.EditionConfig{}, types.ConfigErrorf(opBuild, "duplicate layer %q", layer.Name)
		}
		seen[layer.Name] = true
		layers = append(layers, layer)
	}

	sort.SliceStable(layers, func(i, j int) bool { return layers[i].ID < layers[j].ID })
	return types.EditionConfig{Layers: layers}, nil
}

// parseLayer reads one layer from its name column and weight column.
func parseLayer(names, weights []string) (types.Layer, error) {
	if len(names) <= rowFirstTrait {
		return types.Layer{}, types.ConfigErrorf(opBuild, "layer column has %d rows, need a name, an id and a None row", len(names))
	}

	name := strings.TrimSpace(names[rowName])
	if name == "" {
		return types.Layer{}, types.ConfigErrorf(opBuild, "layer name is empty")
	}

	id, err := strconv.Atoi(strings.TrimSpace(names[rowID]))
	if err != nil {
		return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: id %q is not an integer", name, names[rowID])
	}

	noneIdx := -1
	for i := rowFirstTrait; i < len(names); i++ {
		if strings.TrimSpace(names[i]) == NoneRow {
			noneIdx = i
			break
		}
	}
	if noneIdx < 0 {
		return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: missing %q row", name, NoneRow)
	}

	traits := make([]string, 0, noneIdx-rowFirstTrait+1)
	seen := make(map[string]bool)
	for _, cell := range names[rowFirstTrait:noneIdx] {
		trait := strings.TrimSpace(cell)
		switch {
		case trait == "":
			return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: empty trait name", name)
		case trait == types.NoneTrait:
			return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: trait name %q is reserved", name, types.NoneTrait)
		case seen[trait]:
			return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: duplicate trait %q", name, trait)
		}
		seen[trait] = true
		traits = append(traits, trait)
	}

	raw, err := parseRarities(name, weights[rowFirstTrait:noneIdx])
	if err != nil {
		return types.Layer{}, err
	}

	noneWeight, err := parseWeight(name, NoneRow, weights[noneIdx])
	if err != nil {
		return types.Layer{}, err
	}
	if noneWeight > 0 {
		traits = append([]string{types.NoneTrait}, traits...)
		raw = append([]float64{noneWeight}, raw...)
	}

	if len(traits) == 0 {
		return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: no traits and no None weight", name)
	}

	norm, cum, err := normalize(raw)
	if err != nil {
		return types.Layer{}, types.ConfigErrorf(opBuild, "layer %q: %v", name, err)
	}

	return types.Layer{
		ID:         id,
		Name:       name,
		Traits:     traits,
		Weights:    norm,
		Cumulative: cum,
	}, nil
}

// parseRarities resolves the weight cells of a layer's named traits,
// applying the placeholder default.
func parseRarities(layer string, cells []string) ([]float64, error) {
	placeholder := 1.0
	for _, c := range cells {
		if !isPlaceholder(c) {
			placeholder = 0
			break
		}
	}

	out := make([]float64, len(cells))
	for i, c := range cells {
		if isPlaceholder(c) {
			out[i] = placeholder
			continue
		}
		w, err := parseWeight(layer, fmt.Sprintf("row %d", i+rowFirstTrait+1), c)
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

// parseWeight parses one weight cell. Placeholders parse as zero.
func parseWeight(layer, where, cell string) (float64, error) {
	if isPlaceholder(cell) {
		return 0, nil
	}
	w, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, types.ConfigErrorf(opBuild, "layer %q %s: weight %q is not a number", layer, where, cell)
	}
	if w < 0 {
		return 0, types.ConfigErrorf(opBuild, "layer %q %s: weight %q is negative", layer, where, cell)
	}
	return w, nil
}

func isPlaceholder(cell string) bool {
	c := strings.TrimSpace(cell)
	return c == Placeholder || c == ""
}

// normalize scales weights to sum to 1 and returns them with their running
// sum. The final cumulative value is pinned to exactly 1 so every draw in
// [0, 1) lands on some trait.
func normalize(weights []float64) ([]float64, []float64, error) {
	var sum float64
	for _, w := range weights {
		sum += w
	}
	if sum <= 0 {
		return nil, nil, fmt.Errorf("weights sum to zero")
	}

	norm := make([]float64, len(weights))
	cum := make([]float64, len(weights))
	var running float64
	for i, w := range weights {
		norm[i] = w / sum
		running += norm[i]
		cum[i] = math.Min(running, 1)
	}
	cum[len(cum)-1] = 1
	return norm, cum, nil
}

// blank reports whether every cell of a column is empty, as happens with
// trailing columns exported by spreadsheets.
func blank(col []string) bool {
	for _, c := range col {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// transpose turns ragged rows into equal-length columns padded with "".
func transpose(rows [][]string) [][]string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	cols := make([][]string, width)
	for c := range cols {
		cols[c] = make([]string, len(rows))
		for r, row := range rows {
			if c < len(row) {
				cols[c][r] = row[c]
			}
		}
	}
	return cols
}
