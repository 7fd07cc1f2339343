package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tgienger/tabdo/internal/auth"
	"github.com/tgienger/tabdo/internal/config"
	"github.com/tgienger/tabdo/internal/db"
	"github.com/tgienger/tabdo/internal/graphdb"
	"github.com/tgienger/tabdo/internal/todo"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:           "tabdo",
		Short:         "tabdo - tabbed task lists with subtasks",
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tuiCmd())
	rootCmd.AddCommand(userCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("tabdo %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

// openService loads the config and opens the configured store behind a service
func openService(ctx context.Context) (*config.Config, *todo.Service, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}

	var store todo.Store
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		store, err = db.New(cfg.Store.Path)
	case config.BackendNeo4j:
		n := cfg.Store.Neo4j
		store, err = graphdb.New(ctx, n.URI, n.Username, n.Password, n.Database)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Store.Backend, err)
	}
	return cfg, todo.NewService(store, auth.BcryptHasher{}), nil
}
