// Package partition splits an edition's rendered items into randomized
// groups on disk and reverses such a split.
//
// The images directory of an edition is in one of three layouts (see
// DetectLayout). Materialize moves a flat layout into group directories;
// Reverse moves any grouped or mixed layout back to flat. Each group
// directory carries its own manifest, written before any file moves, so
// membership can always be recovered from disk after an interruption.
package partition

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"math/rand"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const (
	opPlan        = "partition.plan"
	opMaterialize = "partition.materialize"
	opReverse     = "partition.reverse"
)

// Report counts what happened to individual files. Failed moves are
// logged and counted, never fatal.
type Report struct {
	Moved   int `json:"moved"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

func (r Report) String() string {
	return fmt.Sprintf("moved %d, skipped %d, failed %d", r.Moved, r.Skipped, r.Failed)
}

// GroupIndices shuffles 1..size and cuts it into groups of groupSize taken
// from the end of the shuffled sequence. The remainder forms the last
// group, so (10, 3) yields sizes [3 3 3 1]. groupSize must be positive.
func GroupIndices(r *rand.Rand, size, groupSize int) [][]int {
	if size <= 0 {
		return nil
	}
	indices := make([]int, size)
	for i := range indices {
		indices[i] = i + 1
	}
	r.Shuffle(len(indices), func(i, j int) {
		indices[i], indices[j] = indices[j], indices[i]
	})

	var groups [][]int
	for len(indices) > groupSize {
		cut := len(indices) - groupSize
		groups = append(groups, append([]int(nil), indices[cut:]...))
		indices = indices[:cut]
	}
	return append(groups, indices)
}

// Plan draws a partition of an edition of the given size and names its
// groups.
func Plan(r *rand.Rand, size, groupSize int) ([]types.Group, error) {
	if groupSize < 1 {
		return nil, types.ConfigErrorf(opPlan, "group size %d: %v", groupSize, types.ErrGroupSizeInvalid)
	}
	parts := GroupIndices(r, size, groupSize)
	groups := make([]types.Group, len(parts))
	for i, p := range parts {
		groups[i] = types.Group{Name: types.GroupName(i+1, len(parts)), Indices: p}
	}
	return groups, nil
}

// itemName matches rendered item files at any zero-pad width.
var itemName = regexp.MustCompile(`^(\d+)\.` + types.ItemExt + `$`)

// IsItemFile reports whether name is a rendered item file name.
func IsItemFile(name string) bool {
	return itemName.MatchString(name)
}

// DetectLayout inspects an images directory. A missing directory is flat.
// Only group directories and item files count; anything else is ignored.
func DetectLayout(imagesDir string) (types.Layout, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return types.LayoutFlat, nil
		}
		return types.LayoutFlat, fmt.Errorf("read images dir: %w", err)
	}

	var groups, flat bool
	for _, e := range entries {
		switch {
		case e.IsDir() && types.IsGroupDir(e.Name()):
			groups = true
		case e.Type().IsRegular() && IsItemFile(e.Name()):
			flat = true
		}
	}
	switch {
	case !groups:
		return types.LayoutFlat, nil
	case flat:
		return types.LayoutMixed, nil
	default:
		return types.LayoutGrouped, nil
	}
}

// GroupDirs returns the names of the group directories under imagesDir,
// sorted.
func GroupDirs(imagesDir string) ([]string, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read images dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() && types.IsGroupDir(e.Name()) {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Partitioner moves one edition's rendered items between the flat and the
// grouped layout.
type Partitioner struct {
	imagesDir string
	manifest  types.Manifest
	size      int
	ext       string
	log       *slog.Logger
}

// New returns a Partitioner for the items under imagesDir described by the
// edition manifest m. A nil logger discards.
func New(imagesDir string, m types.Manifest, log *slog.Logger) *Partitioner {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Partitioner{
		imagesDir: imagesDir,
		manifest:  m,
		size:      len(m),
		ext:       types.ItemExt,
		log:       log,
	}
}

func (p *Partitioner) fileName(index int) string {
	return types.ItemFileName(index, p.size, p.ext)
}

// Materialize moves a flat layout into the given groups. Each group
// directory is created and its manifest written before any member moves.
// Files missing from the flat layout are skipped.
func (p *Partitioner) Materialize(groups []types.Group) (Report, error) {
	var rep Report

	layout, err := DetectLayout(p.imagesDir)
	if err != nil {
		return rep, err
	}
	if layout != types.LayoutFlat {
		return rep, &types.Error{
			Op:   opMaterialize,
			Kind: types.KindState,
			Path: p.imagesDir,
			Err:  fmt.Errorf("images are %s; reverse the existing partition first", layout),
		}
	}

	if n, err := Repad(p.imagesDir, p.size); err != nil {
		return rep, err
	} else if n > 0 {
		p.log.Info("item files repadded", "renamed", n, "size", p.size)
	}

	for _, g := range groups {
		dir := filepath.Join(p.imagesDir, g.Name)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return rep, fmt.Errorf("create %s: %w", g.Name, err)
		}
		if err := edition.WriteManifest(filepath.Join(dir, edition.ManifestFile), p.manifest.Subset(g.Indices)); err != nil {
			return rep, err
		}

		for _, idx := range g.Indices {
			name := p.fileName(idx)
			p.move(&rep, filepath.Join(p.imagesDir, name), filepath.Join(dir, name), g.Name, idx)
		}
		p.log.Debug("group materialized", "group", g.Name, "items", len(g.Indices))
	}

	p.log.Info("partition materialized", "groups", len(groups), "moved", rep.Moved, "skipped", rep.Skipped, "failed", rep.Failed)
	return rep, nil
}

// Reverse moves every grouped item back to the flat layout and removes the
// group directories. It works from each group's manifest, so it finishes a
// partially applied partition or reversal. Running it on a flat layout is a
// no-op.
//
// A group directory without a readable manifest is taken as already
// reverted: it is removed when empty and otherwise reported in a state
// error once every other group has been processed.
func (p *Partitioner) Reverse() (Report, error) {
	var rep Report

	dirs, err := GroupDirs(p.imagesDir)
	if err != nil {
		return rep, err
	}

	var stuck []string
	for _, name := range dirs {
		dir := filepath.Join(p.imagesDir, name)
		manifestPath := filepath.Join(dir, edition.ManifestFile)

		m, err := edition.ReadManifest(manifestPath)
		if err != nil {
			p.log.Warn("group manifest unreadable", "group", name, "error", err)
			if rmErr := os.Remove(dir); rmErr != nil {
				stuck = append(stuck, name)
			}
			continue
		}

		indices := m.Indices()
		sort.Ints(indices)
		for _, idx := range indices {
			fn := p.fileName(idx)
			p.move(&rep, filepath.Join(dir, fn), filepath.Join(p.imagesDir, fn), name, idx)
		}

		if err := os.Remove(manifestPath); err != nil {
			p.log.Warn("removing group manifest", "group", name, "error", err)
		}
		if err := os.Remove(dir); err != nil {
			stuck = append(stuck, name)
			continue
		}
		p.log.Debug("group reverted", "group", name, "items", len(indices))
	}

	p.log.Info("partition reversed", "groups", len(dirs), "moved", rep.Moved, "skipped", rep.Skipped, "failed", rep.Failed)
	if len(stuck) > 0 {
		return rep, &types.Error{
			Op:   opReverse,
			Kind: types.KindState,
			Path: p.imagesDir,
			Err:  fmt.Errorf("group directories not empty after reverse: %s", strings.Join(stuck, ", ")),
		}
	}
	return rep, nil
}

// move renames src to dst unless src is gone or dst is taken.
func (p *Partitioner) move(rep *Report, src, dst, group string, index int) {
	if _, err := os.Lstat(src); errors.Is(err, fs.ErrNotExist) {
		rep.Skipped++
		return
	}
	if _, err := os.Lstat(dst); err == nil {
		p.log.Warn("move target exists", "group", group, "index", index, "path", dst)
		rep.Failed++
		return
	}
	if err := os.Rename(src, dst); err != nil {
		p.log.Warn("move failed", "group", group, "index", index, "error", err)
		rep.Failed++
		return
	}
	rep.Moved++
}

// Repad renames flat item files whose zero padding no longer matches the
// edition size, which happens when an extension crosses a power of ten.
// It returns the number of files renamed.
func Repad(imagesDir string, size int) (int, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("read images dir: %w", err)
	}
	renamed := 0
	for _, e := range entries {
		match := itemName.FindStringSubmatch(e.Name())
		if match == nil || !e.Type().IsRegular() {
			continue
		}
		idx, err := strconv.Atoi(match[1])
		if err != nil || idx < 1 || idx > size {
			continue
		}
		want := types.ItemFileName(idx, size, types.ItemExt)
		if want == e.Name() {
			continue
		}
		if _, err := os.Stat(filepath.Join(imagesDir, want)); err == nil {
			continue
		}
		if err := os.Rename(filepath.Join(imagesDir, e.Name()), filepath.Join(imagesDir, want)); err != nil {
			return renamed, fmt.Errorf("repad %s: %w", e.Name(), err)
		}
		renamed++
	}
	return renamed, nil
}
