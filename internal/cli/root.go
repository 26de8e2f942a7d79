// Package cli implements the traitforge command-line interface.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitforge/internal/edition"
	"github.com/mesh-intelligence/traitforge/internal/logger"
	"github.com/mesh-intelligence/traitforge/internal/paths"
	"github.com/mesh-intelligence/traitforge/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	projectDir string
	configDir  string
	jsonMode   bool
	logLevel   string
}

// app is the state shared by the subcommands of one invocation.
type app struct {
	flags      rootFlags
	projectDir string
	configDir  string
	configFile string
	cfg        types.Config
	log        *slog.Logger
	cleanup    func() error
}

// usageError marks bad flags or arguments.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// NewRootCmd creates the top-level "traitforge" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&app{log: logger.L()})
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "traitforge",
		Short: "Generate unique trait combinations for layered image editions",
		Long: "Traitforge turns a rarity table into weighted, rule-checked unique trait\n" +
			"combinations, persists them as editions, renders the images, and splits\n" +
			"editions into randomized groups for staged distribution.",
		// Do not print usage on errors returned by subcommands.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVar(&a.flags.projectDir, "project-dir", "", "project directory (default: $TRAITFORGE_PROJECT_DIR or CWD)")
	root.PersistentFlags().StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: <project>/.traitforge)")
	root.PersistentFlags().BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	root.PersistentFlags().StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error (default: $TRAITFORGE_LOG_LEVEL or info)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd(a))
	root.AddCommand(newTableCmd(a))
	root.AddCommand(newGenerateCmd(a))
	root.AddCommand(newRenderCmd(a))
	root.AddCommand(newGroupCmd(a))
	root.AddCommand(newUngroupCmd(a))
	root.AddCommand(newMetadataCmd(a))
	root.AddCommand(newReportCmd(a))
	root.AddCommand(newListCmd(a))

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(Run(os.Args[1:], os.Stdout, os.Stderr))
}

// Run executes the CLI with args and returns the exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	a := &app{log: logger.L()}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if a.cleanup != nil {
		_ = a.cleanup()
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
	}
	return exitCode(err)
}

// exitCode maps an error to the process exit code: user errors (bad
// input, infeasible requests, wrong on-disk state) exit 1, everything else
// exits 2.
func exitCode(err error) int {
	var ue *usageError
	switch {
	case err == nil:
		return exitSuccess
	case errors.As(err, &ue),
		errors.Is(err, types.ErrConfig),
		errors.Is(err, types.ErrCapacity),
		errors.Is(err, types.ErrState),
		strings.HasPrefix(err.Error(), "unknown command"):
		return exitUserError
	default:
		return exitSysError
	}
}

// setup installs the logger, resolves directories, and loads config.yaml.
func (a *app) setup(cmd *cobra.Command) error {
	logCfg, err := logger.FromEnv()
	if err != nil {
		return &usageError{err: err}
	}
	if a.flags.logLevel != "" {
		logCfg.Level = a.flags.logLevel
	}
	cleanup, err := logger.Setup(logCfg, cmd.ErrOrStderr())
	if err != nil {
		return &usageError{err: err}
	}
	a.log = logger.L()
	a.cleanup = cleanup

	if cmd.Name() == "version" {
		return nil
	}

	a.projectDir, err = paths.ResolveProjectDir(a.flags.projectDir)
	if err != nil {
		return fmt.Errorf("resolve project dir: %w", err)
	}
	a.configDir, err = paths.ResolveConfigDir(a.flags.configDir, a.projectDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}

	a.cfg, a.configFile, err = loadConfig(a.configDir)
	if err != nil {
		return err
	}
	a.log.Debug("config loaded", "config", a.configFile, "project", a.projectDir)
	return nil
}

func (a *app) assetsDir() string   { return paths.Resolve(a.projectDir, a.cfg.AssetsDir) }
func (a *app) outputDir() string   { return paths.Resolve(a.projectDir, a.cfg.OutputDir) }
func (a *app) rarityTable() string { return paths.Resolve(a.projectDir, a.cfg.RarityTable) }

func (a *app) store() *edition.Store {
	return edition.NewStore(a.outputDir(), a.log)
}

// requireEdition returns the paths of an existing edition.
func (a *app) requireEdition(name string) (*edition.Store, edition.Paths, error) {
	s := a.store()
	if !s.Exists(name) {
		return nil, edition.Paths{}, types.StateErrorf("cli", "edition %q not found in %s", name, a.outputDir())
	}
	return s, s.Paths(name), nil
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err: err}
		}
		return nil
	}
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
