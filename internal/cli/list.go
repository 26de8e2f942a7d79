package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/partition"
)

type editionSummary struct {
	Name   string `json:"name"`
	Size   int    `json:"size"`
	Layout string `json:"layout"`
	Runs   int    `json:"runs"`
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List editions with their size and image layout",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, a)
		},
	}
}

func runList(cmd *cobra.Command, a *app) error {
	store := a.store()
	names, err := store.List()
	if err != nil {
		return err
	}

	summaries := make([]editionSummary, 0, len(names))
	for _, name := range names {
		p := store.Paths(name)
		s := editionSummary{Name: name}

		desc, err := edition.ReadDescriptor(p.Descriptor)
		switch {
		case err == nil:
			s.Size = desc.Size
			s.Runs = len(desc.Runs)
		case errors.Is(err, fs.ErrNotExist):
			if m, err := edition.ReadManifest(p.Manifest); err == nil {
				s.Size = len(m)
			}
		default:
			a.log.Warn("unreadable descriptor", "edition", name, "error", err)
		}

		layout, err := partition.DetectLayout(p.Images)
		if err != nil {
			return err
		}
		s.Layout = layout.String()
		summaries = append(summaries, s)
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), summaries)
	}
	if len(summaries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No editions in %s\n", a.outputDir())
		return nil
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EDITION\tSIZE\tLAYOUT\tRUNS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\n", s.Name, humanize.Comma(int64(s.Size)), s.Layout, s.Runs)
	}
	return w.Flush()
}
