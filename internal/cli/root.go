// Package cli implements the ft command line.
package cli

import (
	"fmt"

	"github.com/brettbedarf/filetree"
	"github.com/brettbedarf/filetree/config"
	"github.com/brettbedarf/filetree/filesystem"
	"github.com/brettbedarf/filetree/internal/util"
	"github.com/brettbedarf/filetree/manifest"
	"github.com/brettbedarf/filetree/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand of one invocation
type app struct {
	configPath   string
	verbose      int
	manifestPath string
	strict       bool

	cfg      *config.Config
	registry *prometheus.Registry
	tree     *filesystem.FileTree
}

// NewRootCmd builds the ft command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "ft",
		Short: "In-memory file tree",
		Long: `ft builds an in-memory file tree from a manifest of directories and files,
then prints, checks, queries or mounts it.

Exit Codes:
  0  - Success
  1  - General error
  2  - Usage error
  3  - Tree not initialized
  4  - Bad path
  5  - Conflicting path or already in tree
  6  - No such path
  7  - Not a directory / not a file
  8  - Tree at node capacity
  9  - Tree invariant violated
  10 - Invalid configuration or manifest`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %w", filetree.ErrUsage, err)
	})

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	flags.IntVarP(&a.verbose, "verbose", "v", config.InfoVerbose, "Log verbosity between 1 (error) and 5 (trace)")
	flags.StringVarP(&a.manifestPath, "manifest", "n", "", "Path to a YAML or JSON node manifest")
	flags.BoolVar(&a.strict, "strict", false, "Fail when any manifest entry is rejected")

	rootCmd.AddCommand(
		newTreeCmd(a),
		newCheckCmd(a),
		newStatCmd(a),
		newCatCmd(a),
		newMountCmd(a),
	)
	return rootCmd
}

// setup loads config, initializes logging and builds the tree from the manifest
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var err error
	if a.configPath != "" {
		if a.cfg, err = config.NewConfigFromFile(a.configPath); err != nil {
			return err
		}
	} else {
		a.cfg = config.NewDefaultConfig()
	}
	// an explicit flag beats the config file
	if cmd.Flags().Changed("verbose") || a.configPath == "" {
		a.cfg.Merge(&config.ConfigOverride{LogLvl: &a.verbose})
	}
	util.InitializeLoggerTo(cmd.ErrOrStderr(), a.cfg.LogLvl)
	logger := util.GetLogger("cli")

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(collectors.NewGoCollector())
	a.tree = filesystem.New(a.cfg, filesystem.WithMetrics(metrics.New(a.registry)))
	if err := a.tree.Init(); err != nil {
		return err
	}

	if a.manifestPath == "" {
		logger.Warn().Msg("No manifest provided, tree is empty")
		return nil
	}
	m, err := manifest.Load(a.manifestPath)
	if err != nil {
		return fmt.Errorf("load manifest %s: %w", a.manifestPath, err)
	}
	res := manifest.Apply(a.tree, m)
	logger.Info().
		Int("created", res.Created).
		Int("existing", res.Existing).
		Int("failed", len(res.Failures)).
		Str("manifest", a.manifestPath).
		Msg("Manifest applied")
	if a.strict {
		return res.Err()
	}
	return nil
}

// usageArgs marks argument count errors as usage errors
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := fn(cmd, args); err != nil {
			return fmt.Errorf("%w: %w", filetree.ErrUsage, err)
		}
		return nil
	}
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}
