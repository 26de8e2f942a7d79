package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/metadata"
)

func newMetadataCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "metadata <edition>",
		Short: "Write one JSON descriptor per item",
		Long: "Project the edition's table into metadata/<index>.json files using the name,\n" +
			"description, and image_base from the metadata section of config.yaml.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMetadata(cmd, a, args[0])
		},
	}
}

func runMetadata(cmd *cobra.Command, a *app, name string) error {
	_, p, err := a.requireEdition(name)
	if err != nil {
		return err
	}
	n, err := metadata.NewWriter(a.cfg.Metadata, a.log.With("edition", name)).Write(p)
	if err != nil {
		return err
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]any{"edition": name, "path": p.Metadata, "items": n})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s metadata files to %s\n", humanize.Comma(int64(n)), p.Metadata)
	return nil
}
