package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/sqlite"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

type reportResult struct {
	Edition string              `json:"edition"`
	Size    int                 `json:"size"`
	Traits  []sqlite.TraitCount `json:"traits"`
	Rarest  []sqlite.Score      `json:"rarest"`
}

func newReportCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "report <edition>",
		Short: "Show trait distribution and rarity scores",
		Long: "Index the edition in SQLite and report how often each trait occurs and which\n" +
			"items are rarest. An item's score sums, over its layers, the edition size\n" +
			"divided by the number of items sharing that trait.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, a, args[0], top)
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "number of rarest items to list (0: all)")
	return cmd
}

func runReport(cmd *cobra.Command, a *app, name string, top int) error {
	_, p, err := a.requireEdition(name)
	if err != nil {
		return err
	}
	ed, err := readExport(name, p)
	if err != nil {
		return err
	}

	idx, err := sqlite.Open(p.Index)
	if err != nil {
		return err
	}
	defer idx.Close()
	if err := idx.Load(ed); err != nil {
		return err
	}

	counts, err := idx.TraitCounts()
	if err != nil {
		return err
	}
	scores, err := idx.RarityScores(top)
	if err != nil {
		return err
	}
	a.log.Debug("report built", "edition", name, "size", ed.Len(), "index", p.Index)

	res := reportResult{Edition: name, Size: ed.Len(), Traits: counts, Rarest: scores}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Edition %q: %s items\n\n", name, humanize.Comma(int64(res.Size)))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "LAYER\tTRAIT\tCOUNT\tPERCENT")
	for _, c := range counts {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2f%%\n", c.Layer, c.Trait, humanize.Comma(int64(c.Count)), c.Percent)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	w = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tITEM\tSCORE")
	for i, s := range scores {
		fmt.Fprintf(w, "%d\t%d\t%s\n", i+1, s.Index, humanize.FormatFloat("#,###.##", s.Score))
	}
	return w.Flush()
}

// readExport rebuilds an edition from its exports without the rarity
// table, so reports work after the table has been edited. Layer names come
// from the descriptor when it agrees with the table, else from the table
// header.
func readExport(name string, p edition.Paths) (*types.Edition, error) {
	header, tuples, err := edition.ReadTable(p.Table)
	if err != nil {
		return nil, &types.Error{Op: "cli.report", Kind: types.KindState, Path: p.Table, Err: err}
	}
	m, err := edition.ReadManifest(p.Manifest)
	if err != nil {
		return nil, &types.Error{Op: "cli.report", Kind: types.KindState, Path: p.Manifest, Err: err}
	}

	names := header
	desc, err := edition.ReadDescriptor(p.Descriptor)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if len(desc.Layers) == len(header) {
		names = desc.Layers
	}

	ed := &types.Edition{Name: name, Records: make([]types.AssetRecord, len(tuples))}
	for i, n := range names {
		ed.Config.Layers = append(ed.Config.Layers, types.Layer{ID: i + 1, Name: n})
	}
	for i, traits := range tuples {
		ed.Records[i] = types.AssetRecord{Traits: traits, Assets: m[strconv.Itoa(i+1)]}
	}
	return ed, nil
}
