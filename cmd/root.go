package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/prepcoach/internal/config"
	"github.com/abhisek/prepcoach/internal/logging"
	"github.com/abhisek/prepcoach/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "prepcoach",
	Short: "Adaptive exam preparation coach",
	Long:  "prepcoach predicts per-subject performance from practice history and recommends what to study next.",

	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
}

// cfg is loaded by setup before any command runs.
var cfg = config.Default()

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "Path to SQLite database file (overrides PREPCOACH_DB and store.path)")
	pf.String("config", "", "Path to YAML config file (overrides PREPCOACH_CONFIG)")
	pf.String("log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	pf.String("log-format", "", "Log format: json or console")

	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(rateCmd)
	rootCmd.AddCommand(recommendCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads the configuration, applies the logging flags and starts the
// global logger.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		c.Logging.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		c.Logging.Format = v
	}
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	logging.Init(c.Logging)
	cfg = c

	cmd.SetContext(logging.ContextWithNewCorrelationID(cmd.Context()))
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then PREPCOACH_DB env var, then store.path from the config, then the
// default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	p, _ := cmd.Flags().GetString("db")
	switch {
	case p != "":
	case os.Getenv("PREPCOACH_DB") == "" && cfg.Store.Path != "":
		p = cfg.Store.Path
	default:
		var err error
		if p, err = store.DefaultDBPath(); err != nil {
			return "", err
		}
	}
	return p, store.EnsureDir(p)
}

func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}
