// Package cli implements pmctl, the operator command line for the dashboard
// backend.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pmadmin-backend/internal/config"
	"pmadmin-backend/internal/di"
)

type rootOptions struct {
	configFile string
	demo       bool
	verbose    bool
	addr       string
	token      string
}

// NewRootCommand builds the pmctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "pmctl",
		Short: "Project management dashboard backend tool",
		Long: `pmctl runs and inspects the project management dashboard backend.

Common usage:
  pmctl serve --demo                       # Run the API on seeded demo data
  pmctl page projects --demo --limit 5     # Print one page of projects
  pmctl page tickets --filter status=open,closed
  pmctl stats --addr http://localhost:8080 # Show cache statistics of a running API
  pmctl invalidate tickets                 # Drop cached tickets and chart data`,
		Version:       di.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML configuration file (defaults to $"+config.ConfigFileEnv+")")
	root.PersistentFlags().BoolVar(&opts.demo, "demo", false, "Use seeded in-memory data instead of Supabase")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of errors only")
	root.PersistentFlags().StringVar(&opts.addr, "addr", "http://localhost:8080", "Address of a running API")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("PMCTL_TOKEN"), "Bearer token for a running API")

	root.AddCommand(
		newServeCommand(opts),
		newPageCommand(opts),
		newStatsCommand(opts),
		newInvalidateCommand(opts),
	)
	return root
}

// Execute runs pmctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the configuration the way the API does. --demo forces the
// in-memory source before validation runs.
func (o *rootOptions) loadConfig() (*config.Config, error) {
	if o.demo {
		if err := os.Setenv("DEMO_DATA", "true"); err != nil {
			return nil, err
		}
	}

	path := o.configFile
	if path == "" {
		path = os.Getenv(config.ConfigFileEnv)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// container builds an in-process container for one-shot commands.
func (o *rootOptions) container() (*di.Container, func(), error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !o.verbose {
		cfg.LogLevel = "error"
	}
	cfg.Features.HotReload = false
	cfg.Features.EnableTracing = false

	container, cleanup, err := di.InitializeContainer(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return container, cleanup, nil
}
