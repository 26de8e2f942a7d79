package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/render"
)

func newRenderCmd(a *app) *cobra.Command {
	var group string
	cmd := &cobra.Command{
		Use:   "render <edition>",
		Short: "Composite the images of an edition",
		Long: "Render every item that has no image yet, in the flat layout or inside each\n" +
			"group directory when the edition is grouped.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, a, args[0], group)
		},
	}
	cmd.Flags().StringVar(&group, "group", "", "render only this group, e.g. \"group 03\"")
	return cmd
}

func runRender(cmd *cobra.Command, a *app, name, group string) error {
	_, p, err := a.requireEdition(name)
	if err != nil {
		return err
	}
	m, err := edition.ReadManifest(p.Manifest)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	r := render.NewRenderer(render.PNG{AssetsDir: a.assetsDir()}, a.log.With("edition", name))
	rep, err := r.Render(cmd.Context(), p.Images, m, group)
	if err != nil {
		return err
	}

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), rep)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s images (%s already present, %s failed)\n",
		humanize.Comma(int64(rep.Rendered)), humanize.Comma(int64(rep.Existing)), humanize.Comma(int64(rep.Failed)))
	return nil
}
