package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/mindstats/internal/config"
	"github.com/okian/mindstats/pkg/logger"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// rootOptions holds the persistent flags and the configuration loaded from them.
type rootOptions struct {
	verbose    bool
	configPath string
	dotEnv     []string

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "mindstats",
		Short: "mindstats builds analytics snapshots over student wellbeing records",
		Long: `mindstats reads counselling reports, generated reports, check-ins and directory
records, computes a fixed set of wellbeing metrics and stores each run as a versioned
snapshot that can be served over HTTP.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (overrides MINDSTATS_CONFIG)")
	cmd.PersistentFlags().StringSliceVar(&opts.dotEnv, "env-file", []string{".env"}, ".env files read before the environment")

	cmd.AddCommand(
		newServeCmd(opts),
		newGenerateCmd(opts),
		newSeedCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

// load reads configuration and initializes logging for every subcommand.
func (o *rootOptions) load(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Context(), config.WithFile(o.configPath), config.WithDotEnv(o.dotEnv...))
	if err != nil {
		return err
	}
	o.cfg = cfg

	var logOpts []logger.Option
	if cfg.LogFile != "" {
		logOpts = append(logOpts, logger.WithFile(cfg.LogFile))
	}
	if err := logger.Init(logOpts...); err != nil {
		return err
	}

	level := cfg.LogLevel
	if o.verbose {
		level = "debug"
	}
	if err := logger.SetLevelString(level); err != nil {
		logger.Get().Warn(cmd.Context(), "invalid log_level; falling back to info",
			logger.String("log_level", level), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	logger.Get().Debug(cmd.Context(), "configuration loaded",
		logger.String("version", Version),
		logger.String("store", cfg.Store.Driver),
		logger.String("addr", cfg.Addr),
	)
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Version needs neither config nor logging.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mindstats %s (commit %s, built %s)\n", Version, Commit, BuildDate)
		},
	}
}
