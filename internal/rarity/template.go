package rarity

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const opTemplate = "rarity.template"

// TemplateOptions controls the blank table produced by Template.
type TemplateOptions struct {
	// Ext is the asset file extension, without the dot.
	Ext string
	// Percentage pads unused cells with placeholders and appends a Total
	// row with a SUM formula per layer, for authors who weight by percent
	// in a spreadsheet.
	Percentage bool
}

// LayerDir is one layer directory found under the assets directory.
type LayerDir struct {
	ID     int
	Name   string
	Traits []string
}

// ScanAssets lists the layer directories under assetsDir and the traits in
// each. A directory named "<N> <name>" takes id N; any other directory takes
// its 1-based position. The layer name is always the directory name so
// that asset references resolve without renaming.
func ScanAssets(assetsDir, ext string) ([]LayerDir, error) {
	entries, err := os.ReadDir(assetsDir)
	if err != nil {
		return nil, &types.Error{Op: opTemplate, Kind: types.KindConfig, Path: assetsDir, Err: err}
	}

	var layers []LayerDir
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		traits, err := scanTraits(filepath.Join(assetsDir, e.Name()), ext)
		if err != nil {
			return nil, err
		}
		id := len(layers) + 1
		if prefix, _, ok := strings.Cut(e.Name(), " "); ok {
			if n, err := strconv.Atoi(prefix); err == nil {
				id = n
			}
		}
		layers = append(layers, LayerDir{ID: id, Name: e.Name(), Traits: traits})
	}
	if len(layers) == 0 {
		return nil, &types.Error{Op: opTemplate, Kind: types.KindConfig, Path: assetsDir, Err: fmt.Errorf("no layer directories")}
	}
	return layers, nil
}

func scanTraits(dir, ext string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &types.Error{Op: opTemplate, Kind: types.KindConfig, Path: dir, Err: err}
	}
	suffix := "." + ext
	var traits []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, suffix) {
			continue
		}
		traits = append(traits, strings.TrimSuffix(name, suffix))
	}
	sort.Strings(traits)
	return traits, nil
}

// Template builds the rows of a blank rarity table for the given layers.
// Every trait weight is left as a placeholder and every None row carries 0.
func Template(layers []LayerDir, opts TemplateOptions) [][]string {
	longest := 0
	for _, l := range layers {
		if len(l.Traits) > longest {
			longest = len(l.Traits)
		}
	}
	numRows := longest + 2

	header := make([]string, 0, len(layers)*columnsPerLayer)
	ids := make([]string, 0, len(layers)*columnsPerLayer)
	for _, l := range layers {
		header = append(header, Placeholder, l.Name, "Rarity Weight", Placeholder)
		ids = append(ids, "id", strconv.Itoa(l.ID), Placeholder, Placeholder)
	}
	rows := [][]string{header, ids}

	filler := ""
	if opts.Percentage {
		filler = Placeholder
	}
	for i := 0; i < numRows; i++ {
		row := make([]string, 0, len(layers)*columnsPerLayer)
		for n, l := range layers {
			switch {
			case i < len(l.Traits):
				row = append(row, strconv.Itoa(i+1), l.Traits[i], Placeholder, Placeholder)
			case i == len(l.Traits):
				row = append(row, strconv.Itoa(i+1), NoneRow, "0", Placeholder)
			case i == numRows-1 && opts.Percentage:
				col := columnLetter(n*columnsPerLayer + colWeight)
				// Sheet rows are 1-based and traits start on the third.
				row = append(row, Placeholder, "Total", fmt.Sprintf("=SUM(%s3:%s%d)", col, col, i+2), Placeholder)
			default:
				row = append(row, filler, filler, filler, filler)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// WriteTable writes rows as comma-delimited text.
func WriteTable(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rarity table: %w", err)
	}
	return nil
}

// columnLetter converts a 0-based column index to spreadsheet letters.
func columnLetter(col int) string {
	var s []byte
	for col >= 0 {
		s = append([]byte{byte('A' + col%26)}, s...)
		col = col/26 - 1
	}
	return string(s)
}
