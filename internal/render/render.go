// Package render composites asset layers into item images.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg" // asset trees may mix JPEG backgrounds with PNG overlays
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/partition"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const opRender = "render.edition"

// Compositor turns an ordered list of asset references into one image at
// dst. The first reference is the bottom layer.
type Compositor interface {
	Composite(refs []string, dst string) error
}

// PNG composites assets stored under AssetsDir and encodes the result as
// PNG. The canvas takes the size of the first layer.
type PNG struct {
	AssetsDir string
}

// Composite implements Compositor.
func (c PNG) Composite(refs []string, dst string) error {
	var canvas *image.RGBA
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		img, err := c.decode(ref)
		if err != nil {
			return err
		}
		if canvas == nil {
			canvas = image.NewRGBA(img.Bounds())
			draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)
			continue
		}
		draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Over)
	}
	if canvas == nil {
		return fmt.Errorf("no assets to composite")
	}
	return writePNG(dst, canvas)
}

func (c PNG) decode(ref string) (image.Image, error) {
	f, err := os.Open(filepath.Join(c.AssetsDir, filepath.FromSlash(ref)))
	if err != nil {
		return nil, fmt.Errorf("open asset: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode asset %s: %w", ref, err)
	}
	return img, nil
}

func writePNG(dst string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// Report counts rendered items.
type Report struct {
	Rendered int `json:"rendered"`
	Existing int `json:"existing"`
	Failed   int `json:"failed"`
}

// Renderer renders the missing items of an edition.
type Renderer struct {
	comp Compositor
	log  *slog.Logger
}

// NewRenderer returns a Renderer. A nil logger discards.
func NewRenderer(comp Compositor, log *slog.Logger) *Renderer {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Renderer{comp: comp, log: log}
}

// Render composites every item of the edition described by m that has no
// image yet. A flat layout renders into imagesDir; a grouped layout renders
// each group into its own directory from the group manifest. A non-empty
// group restricts rendering to that group. A mixed layout is a state error.
//
// Failed items are logged and counted; the context is checked between
// items.
func (r *Renderer) Render(ctx context.Context, imagesDir string, m types.Manifest, group string) (Report, error) {
	var rep Report

	layout, err := partition.DetectLayout(imagesDir)
	if err != nil {
		return rep, err
	}

	switch layout {
	case types.LayoutMixed:
		return rep, &types.Error{Op: opRender, Kind: types.KindState, Path: imagesDir,
			Err: errors.New("images are mixed flat and grouped; reverse the partition first")}

	case types.LayoutFlat:
		if group != "" {
			return rep, types.StateErrorf(opRender, "edition is not grouped; no group %q", group)
		}
		if err := os.MkdirAll(imagesDir, 0o755); err != nil {
			return rep, fmt.Errorf("create images dir: %w", err)
		}
		if _, err := partition.Repad(imagesDir, len(m)); err != nil {
			return rep, err
		}
		err = r.renderInto(ctx, &rep, imagesDir, m, len(m), "")
		return rep, err
	}

	dirs, err := partition.GroupDirs(imagesDir)
	if err != nil {
		return rep, err
	}
	found := false
	for _, name := range dirs {
		if group != "" && name != group {
			continue
		}
		found = true
		dir := filepath.Join(imagesDir, name)
		gm, err := edition.ReadManifest(filepath.Join(dir, edition.ManifestFile))
		if err != nil {
			return rep, &types.Error{Op: opRender, Kind: types.KindState, Path: dir, Err: err}
		}
		if err := r.renderInto(ctx, &rep, dir, gm, len(m), name); err != nil {
			return rep, err
		}
	}
	if !found {
		return rep, types.StateErrorf(opRender, "no group %q", group)
	}
	return rep, nil
}

func (r *Renderer) renderInto(ctx context.Context, rep *Report, dir string, m types.Manifest, size int, group string) error {
	indices := m.Indices()
	sort.Ints(indices)
	for _, idx := range indices {
		if err := ctx.Err(); err != nil {
			return err
		}
		dst := filepath.Join(dir, types.ItemFileName(idx, size, types.ItemExt))
		if _, err := os.Stat(dst); err == nil {
			rep.Existing++
			continue
		}
		if err := r.comp.Composite(m[strconv.Itoa(idx)], dst); err != nil {
			r.log.Warn("render failed", "group", group, "index", idx, "error", err)
			rep.Failed++
			continue
		}
		rep.Rendered++
		r.log.Debug("item rendered", "group", group, "index", idx)
	}
	r.log.Info("render complete", "group", group, "rendered", rep.Rendered, "existing", rep.Existing, "failed", rep.Failed)
	return nil
}

