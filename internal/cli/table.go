package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/rarity"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

func newTableCmd(a *app) *cobra.Command {
	var percentage, force bool
	cmd := &cobra.Command{
		Use:   "table",
		Short: "Write a blank rarity table for the asset tree",
		Long: "Scan the assets directory and write a rarity table template with one column\n" +
			"group per layer directory. Fill in the weights, then run generate.",
		Args: exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTable(cmd, a, percentage, force)
		},
	}
	cmd.Flags().BoolVar(&percentage, "percentage", false, "pad the table and add a Total row per layer")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing rarity table")
	return cmd
}

func runTable(cmd *cobra.Command, a *app, percentage, force bool) error {
	path := a.rarityTable()
	if _, err := os.Stat(path); err == nil && !force {
		return types.StateErrorf("cli.table", "rarity table %s exists; use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("stat rarity table: %w", err)
	}

	layers, err := rarity.ScanAssets(a.assetsDir(), a.cfg.AssetExt)
	if err != nil {
		return err
	}
	rows := rarity.Template(layers, rarity.TemplateOptions{Ext: a.cfg.AssetExt, Percentage: percentage})

	var buf bytes.Buffer
	if err := rarity.WriteTable(&buf, rows); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create rarity table dir: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write rarity table: %w", err)
	}

	traits := 0
	for _, l := range layers {
		traits += len(l.Traits)
	}
	a.log.Info("rarity table written", "path", path, "layers", len(layers), "traits", traits)

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]any{"path": path, "layers": len(layers), "traits": traits})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d layers, %s traits\n", path, len(layers), humanize.Comma(int64(traits)))
	return nil
}
