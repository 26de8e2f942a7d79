package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a traitforge project",
		Long:  "Create the configuration directory with a default config.yaml, and the assets\nand output directories.",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, a)
		},
	}
}

func runInit(cmd *cobra.Command, a *app) error {
	// config.yaml was written by setup if it was missing.
	for _, dir := range []string{a.assetsDir(), a.outputDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	a.log.Info("project initialized", "project", a.projectDir, "config", a.configFile)

	if a.flags.jsonMode {
		return printJSON(cmd.OutOrStdout(), map[string]string{
			"project_dir": a.projectDir,
			"config_file": a.configFile,
			"assets_dir":  a.assetsDir(),
			"output_dir":  a.outputDir(),
		})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized traitforge project in %s\nconfig: %s\n", a.projectDir, a.configFile)
	return nil
}
