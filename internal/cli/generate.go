package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/partition"
	"github.com/mesh-intelligence/traitforge/internal/rarity"
	"github.com/mesh-intelligence/traitforge/internal/rng"
	"github.com/mesh-intelligence/traitforge/internal/sampler"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

const opGenerate = "cli.generate"

type generateOptions struct {
	count  int
	extend bool
	force  bool
	seed   int64
}

type generateResult struct {
	Edition   string `json:"edition"`
	Size      int    `json:"size"`
	Generated int    `json:"generated"`
	Seed      int64  `json:"seed"`
	RunID     string `json:"run_id"`
}

func newGenerateCmd(a *app) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate <edition>",
		Short: "Sample unique trait combinations into an edition",
		Long: "Build the probability model from the rarity table, sample unique combinations\n" +
			"that pass the configured rules, and save them as an edition. With --extend an\n" +
			"existing edition is topped up to --count records, keeping every earlier record.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, a, args[0], opts)
		},
	}
	cmd.Flags().IntVarP(&opts.count, "count", "n", 0, "total number of records in the edition")
	cmd.Flags().BoolVar(&opts.extend, "extend", false, "top up an existing edition")
	cmd.Flags().BoolVar(&opts.force, "force", false, "erase an existing edition and start over")
	cmd.Flags().Int64Var(&opts.seed, "seed", 0, "random seed (default: config seed, else clock)")
	return cmd
}

func runGenerate(cmd *cobra.Command, a *app, name string, opts generateOptions) error {
	if opts.count < 1 {
		return &usageError{err: fmt.Errorf("--count must be positive, got %d", opts.count)}
	}
	if opts.extend && opts.force {
		return &usageError{err: errors.New("--extend and --force are mutually exclusive")}
	}

	tablePath := a.rarityTable()
	data, err := os.ReadFile(tablePath)
	if err != nil {
		return &types.Error{Op: opGenerate, Kind: types.KindConfig, Path: tablePath, Err: err}
	}
	fingerprint := edition.Fingerprint(data)

	cfg, err := rarity.Build(bytes.NewReader(data))
	if err != nil {
		var e *types.Error
		if errors.As(err, &e) && e.Path == "" {
			e.Path = tablePath
		}
		return err
	}
	if err := rarity.VerifyAssets(cfg, a.assetsDir(), a.cfg.AssetExt); err != nil {
		return err
	}
	rules, err := sampler.CompileRules(cfg, a.cfg.Rules)
	if err != nil {
		return err
	}

	store := a.store()
	existing, err := prepareEdition(a, store, name, cfg, fingerprint, opts)
	if err != nil {
		return err
	}

	seed := opts.seed
	if seed == 0 {
		seed = a.cfg.Seed
	}
	r, seed := rng.New(seed)
	log := a.log.With("edition", name, "seed", seed)

	s := sampler.New(cfg,
		sampler.WithRules(rules),
		sampler.WithRand(r),
		sampler.WithExt(a.cfg.AssetExt),
		sampler.WithMaxRetries(a.cfg.MaxRetries),
		sampler.WithLogger(log),
	)
	records, sampleErr := s.Sample(opts.count, existing)
	if records == nil {
		return sampleErr
	}
	if sampleErr != nil && len(records) == len(existing) {
		return sampleErr
	}

	if opts.force && store.Exists(name) {
		if err := store.Erase(name); err != nil {
			return err
		}
		log.Info("previous edition erased")
	}

	ed := &types.Edition{Name: name, Config: cfg, Records: records}
	run := edition.NewRun(seed, len(existing), len(records), fingerprint)
	if err := store.Save(ed, run); err != nil {
		return err
	}
	if sampleErr != nil {
		log.Warn("partial edition saved", "size", len(records), "target", opts.count)
		return sampleErr
	}

	res := generateResult{
		Edition:   name,
		Size:      len(records),
		Generated: len(records) - len(existing),
		Seed:      seed,
		RunID:     run.ID,
	}
	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), res)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Generated %s records in edition %q (%s total, seed %d)\n",
		humanize.Comma(int64(res.Generated)), name, humanize.Comma(int64(res.Size)), seed)
	return nil
}

// prepareEdition resolves what already exists under name and returns the
// records a top-up must keep. A forced replacement keeps nothing but leaves
// the old edition on disk until the new records are in hand.
func prepareEdition(a *app, store *edition.Store, name string, cfg types.EditionConfig, fingerprint string, opts generateOptions) ([]types.AssetRecord, error) {
	if !store.Exists(name) {
		return nil, nil
	}
	p := store.Paths(name)

	switch {
	case opts.force:
		return nil, nil
	case !opts.extend:
		return nil, types.StateErrorf(opGenerate, "edition %q exists; use --extend to top it up or --force to replace it", name)
	}

	layout, err := partition.DetectLayout(p.Images)
	if err != nil {
		return nil, err
	}
	if layout != types.LayoutFlat {
		return nil, types.StateErrorf(opGenerate, "edition %q images are %s; run ungroup before extending", name, layout)
	}

	ed, err := store.Load(name, cfg)
	if err != nil {
		return nil, err
	}

	desc, err := edition.ReadDescriptor(p.Descriptor)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	if desc.Fingerprint != "" && desc.Fingerprint != fingerprint {
		a.log.Warn("rarity table changed since the edition was generated; new records follow the new weights",
			"edition", name, "was", short(desc.Fingerprint), "now", short(fingerprint))
	}
	return ed.Records, nil
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
