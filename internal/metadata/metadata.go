// Package metadata projects an edition's tabular export into one JSON
// descriptor per item.
package metadata

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// Attribute is one trait of an item.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Item is the descriptor document of one rendered item.
type Item struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	Attributes  []Attribute `json:"attributes"`
}

// CleanAttribute turns a column name such as "eye_color" into "Eye Color".
// Words in mixed case are kept as written.
func CleanAttribute(name string) string {
	title := cases.Title(language.Und)
	words := strings.Fields(strings.ReplaceAll(name, "_", " "))
	for i, w := range words {
		if w == strings.ToUpper(w) || w == strings.ToLower(w) {
			words[i] = title.String(w)
		}
	}
	return strings.Join(words, " ")
}

// Project builds the descriptors of an edition from its table header and
// trait tuples. Item i (1-based) is named with the configured prefix and
// points at the rendered file of the same index. None traits are omitted.
func Project(header []string, tuples [][]string, cfg types.MetadataConfig) []Item {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = CleanAttribute(h)
	}

	base := strings.TrimRight(cfg.ImageBase, "/")
	items := make([]Item, len(tuples))
	for i, traits := range tuples {
		idx := i + 1
		item := Item{
			Name:        cfg.Name + strconv.Itoa(idx),
			Description: cfg.Description,
			Image:       base + "/" + types.ItemFileName(idx, len(tuples), types.ItemExt),
			Attributes:  []Attribute{},
		}
		for j, trait := range traits {
			if trait == types.NoneTrait || j >= len(names) {
				continue
			}
			item.Attributes = append(item.Attributes, Attribute{TraitType: names[j], Value: trait})
		}
		items[i] = item
	}
	return items
}

// Writer emits descriptors for editions in a store.
type Writer struct {
	cfg types.MetadataConfig
	log *slog.Logger
}

// NewWriter returns a Writer. A nil logger discards.
func NewWriter(cfg types.MetadataConfig, log *slog.Logger) *Writer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Writer{cfg: cfg, log: log}
}

// Write reads the edition's table export and writes metadata/<index>.json
// for every item. It returns the number of files written.
func (w *Writer) Write(p edition.Paths) (int, error) {
	header, tuples, err := edition.ReadTable(p.Table)
	if err != nil {
		return 0, &types.Error{Op: "metadata.write", Kind: types.KindState, Path: p.Table, Err: err}
	}
	if err := os.MkdirAll(p.Metadata, 0o755); err != nil {
		return 0, fmt.Errorf("create metadata dir: %w", err)
	}

	items := Project(header, tuples, w.cfg)
	for i, item := range items {
		data, err := json.MarshalIndent(item, "", "  ")
		if err != nil {
			return i, fmt.Errorf("marshal item %d: %w", i+1, err)
		}
		path := filepath.Join(p.Metadata, strconv.Itoa(i+1)+".json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return i, fmt.Errorf("write %s: %w", path, err)
		}
	}
	w.log.Info("metadata written", "path", p.Metadata, "items", len(items))
	return len(items), nil
}
