// Package edition persists editions: the tabular export, the manifest, and
// the descriptor of every run that produced or extended the edition.
//
// Layout under the output directory:
//
//	edition <name>/
//	  assets.csv     one row per record, one column per layer
//	  assets.json    1-based index -> asset references
//	  edition.yaml   descriptor and run history
//	  images/        rendered items, flat or grouped
//	  metadata/      per-item descriptor documents
//	  index.db       rarity index, rebuilt on demand
//
// The CSV and JSON exports are index-aligned: row i and key i describe the
// same record. Extending an edition rewrites both files with the earlier
// records unchanged in place, so item file names stay valid.
package edition

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// File and directory names inside an edition directory.
const (
	DirPrefix      = "edition "
	TableFile      = "assets.csv"
	ManifestFile   = "assets.json"
	DescriptorFile = "edition.yaml"
	ImagesDir      = "images"
	MetadataDir    = "metadata"
	IndexFile      = "index.db"
)

// Paths holds the locations of one edition's files.
type Paths struct {
	Edition    string
	Table      string
	Manifest   string
	Descriptor string
	Images     string
	Metadata   string
	Index      string
}

// Store reads and writes editions under an output directory.
type Store struct {
	outputDir string
	log       *slog.Logger
}

// NewStore returns a Store rooted at outputDir. A nil logger discards.
func NewStore(outputDir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{outputDir: outputDir, log: log}
}

// Paths returns the file locations for the named edition.
func (s *Store) Paths(name string) Paths {
	dir := filepath.Join(s.outputDir, DirPrefix+name)
	return Paths{
		Edition:    dir,
		Table:      filepath.Join(dir, TableFile),
		Manifest:   filepath.Join(dir, ManifestFile),
		Descriptor: filepath.Join(dir, DescriptorFile),
		Images:     filepath.Join(dir, ImagesDir),
		Metadata:   filepath.Join(dir, MetadataDir),
		Index:      filepath.Join(dir, IndexFile),
	}
}

// Exists reports whether the named edition has a manifest on disk.
func (s *Store) Exists(name string) bool {
	_, err := os.Stat(s.Paths(name).Manifest)
	return err == nil
}

// List returns the names of all editions in the output directory, sorted.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list editions: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), DirPrefix) {
			names = append(names, strings.TrimPrefix(e.Name(), DirPrefix))
		}
	}
	sort.Strings(names)
	return names, nil
}

// Erase removes the named edition and everything rendered into it.
func (s *Store) Erase(name string) error {
	dir := s.Paths(name).Edition
	s.log.Info("erasing edition", "edition", name, "path", dir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("erase edition %q: %w", name, err)
	}
	return nil
}

// Save writes the tabular export and manifest of ed, then records run in
// the descriptor. Both exports are written atomically.
func (s *Store) Save(ed *types.Edition, run Run) error {
	p := s.Paths(ed.Name)
	if err := os.MkdirAll(p.Edition, 0o755); err != nil {
		return fmt.Errorf("create edition dir: %w", err)
	}

	if err := WriteTable(p.Table, ed); err != nil {
		return err
	}
	if err := WriteManifest(p.Manifest, ed.Manifest()); err != nil {
		return err
	}

	desc, err := ReadDescriptor(p.Descriptor)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	desc.Name = ed.Name
	desc.Layers = ed.Config.LayerNames()
	desc.Size = ed.Len()
	if run.Fingerprint != "" {
		desc.Fingerprint = run.Fingerprint
	}
	if run.ID != "" {
		desc.Runs = append(desc.Runs, run)
	}
	if err := WriteDescriptor(p.Descriptor, desc); err != nil {
		return err
	}

	s.log.Info("edition saved", "edition", ed.Name, "size", ed.Len(), "run_id", run.ID)
	return nil
}

const opLoad = "edition.load"

// Load reads the named edition and checks that its exports agree with each
// other and with cfg's layers.
func (s *Store) Load(name string, cfg types.EditionConfig) (*types.Edition, error) {
	p := s.Paths(name)

	header, tuples, err := ReadTable(p.Table)
	if err != nil {
		return nil, &types.Error{Op: opLoad, Kind: types.KindState, Path: p.Table, Err: err}
	}
	manifest, err := ReadManifest(p.Manifest)
	if err != nil {
		return nil, &types.Error{Op: opLoad, Kind: types.KindState, Path: p.Manifest, Err: err}
	}

	names := cfg.LayerNames()
	if len(header) != len(names) {
		return nil, types.StateErrorf(opLoad, "edition %q has %d layers, rarity table has %d", name, len(header), len(names))
	}
	for i, h := range header {
		if !strings.EqualFold(h, TitleCase(names[i])) {
			return nil, types.StateErrorf(opLoad, "edition %q layer %d is %q, rarity table has %q", name, i+1, h, names[i])
		}
	}

	if len(manifest) != len(tuples) {
		return nil, types.StateErrorf(opLoad, "edition %q table has %d rows but manifest has %d entries", name, len(tuples), len(manifest))
	}

	ed := &types.Edition{Name: name, Config: cfg, Records: make([]types.AssetRecord, len(tuples))}
	for i, traits := range tuples {
		refs, ok := manifest[strconv.Itoa(i+1)]
		if !ok {
			return nil, types.StateErrorf(opLoad, "edition %q manifest has no entry %d", name, i+1)
		}
		ed.Records[i] = types.AssetRecord{Traits: traits, Assets: refs}
	}
	return ed, nil
}
