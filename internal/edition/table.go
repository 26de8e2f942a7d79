package edition

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// TitleCase renders a layer name the way the tabular export heads it.
func TitleCase(s string) string {
	return cases.Title(language.Und).String(s)
}

// TableRows projects ed into its tabular export: a header of title-cased
// layer names behind an empty index cell, then one row per record.
func TableRows(ed *types.Edition) [][]string {
	names := ed.Config.LayerNames()
	header := make([]string, 0, len(names)+1)
	header = append(header, "")
	for _, n := range names {
		header = append(header, TitleCase(n))
	}

	rows := make([][]string, 0, ed.Len()+1)
	rows = append(rows, header)
	for i, r := range ed.Records {
		row := make([]string, 0, len(r.Traits)+1)
		row = append(row, strconv.Itoa(i+1))
		row = append(row, r.Traits...)
		rows = append(rows, row)
	}
	return rows
}

// WriteTable writes the tabular export of ed to path atomically.
func WriteTable(path string, ed *types.Edition) error {
	err := writeFileAtomic(path, func(w *bufio.Writer) error {
		cw := csv.NewWriter(w)
		if err := cw.WriteAll(TableRows(ed)); err != nil {
			return fmt.Errorf("writing table: %w", err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// ReadTable reads a tabular export. It returns the layer header (without
// the index cell) and each row's trait tuple, checking that the index column
// runs 1, 2, 3, ...
func ReadTable(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse table: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("table has no header")
	}

	header := rows[0][1:]
	tuples := make([][]string, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if row[0] != strconv.Itoa(i+1) {
			return nil, nil, fmt.Errorf("row %d has index %q, want %d", i+1, row[0], i+1)
		}
		tuples = append(tuples, row[1:])
	}
	return header, tuples, nil
}
