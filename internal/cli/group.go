package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/partition"
	"github.com/mesh-intelligence/traitforge/internal/rng"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

type groupResult struct {
	Edition string `json:"edition"`
	Groups  int    `json:"groups"`
	Seed    int64  `json:"seed,omitempty"`
	partition.Report
}

func newGroupCmd(a *app) *cobra.Command {
	var (
		size      int
		reshuffle bool
		seed      int64
	)
	cmd := &cobra.Command{
		Use:   "group <edition>",
		Short: "Split an edition's images into randomized groups",
		Long: "Shuffle the items of an edition and move their images into group directories\n" +
			"of --size items each, the remainder forming the last group. A grouped edition\n" +
			"must be ungrouped first, or pass --reshuffle to do both.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if size == 0 {
				size = a.cfg.GroupSize
			}
			return runGroup(cmd, a, args[0], size, reshuffle, seed)
		},
	}
	cmd.Flags().IntVar(&size, "size", 0, "items per group (default: config group_size)")
	cmd.Flags().BoolVar(&reshuffle, "reshuffle", false, "reverse an existing partition first")
	cmd.Flags().Int64Var(&seed, "seed", 0, "shuffle seed (default: config seed, else clock)")
	return cmd
}

func runGroup(cmd *cobra.Command, a *app, name string, size int, reshuffle bool, seed int64) error {
	if size < 1 {
		return &usageError{err: fmt.Errorf("--size must be positive, got %d", size)}
	}
	_, p, err := a.requireEdition(name)
	if err != nil {
		return err
	}
	m, err := edition.ReadManifest(p.Manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}
	log := a.log.With("edition", name)
	part := partition.New(p.Images, m, log)

	layout, err := partition.DetectLayout(p.Images)
	if err != nil {
		return err
	}
	if layout != types.LayoutFlat {
		if !reshuffle {
			return types.StateErrorf("cli.group", "edition %q is already %s; run ungroup first or pass --reshuffle", name, layout)
		}
		if _, err := part.Reverse(); err != nil {
			return err
		}
	}

	if seed == 0 {
		seed = a.cfg.Seed
	}
	r, seed := rng.New(seed)
	groups, err := partition.Plan(r, len(m), size)
	if err != nil {
		return err
	}
	rep, err := part.Materialize(groups)
	if err != nil {
		return err
	}

	res := groupResult{Edition: name, Groups: len(groups), Seed: seed, Report: rep}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Split %q into %s groups: %s (seed %d)\n",
		name, humanize.Comma(int64(len(groups))), rep, seed)
	return nil
}

func newUngroupCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ungroup <edition>",
		Short: "Move grouped images back to the flat layout",
		Long: "Reverse a partition using each group's manifest. Safe to rerun after an\n" +
			"interruption: files already moved back are skipped.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUngroup(cmd, a, args[0])
		},
	}
}

func runUngroup(cmd *cobra.Command, a *app, name string) error {
	_, p, err := a.requireEdition(name)
	if err != nil {
		return err
	}
	m, err := edition.ReadManifest(p.Manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	rep, err := partition.New(p.Images, m, a.log.With("edition", name)).Reverse()
	if err != nil {
		return err
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), groupResult{Edition: name, Report: rep})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Ungrouped %q: %s\n", name, rep)
	return nil
}
