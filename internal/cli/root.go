// Package cli is the bookshelf command line: the API server plus one-off
// lookup, cache warming and maintenance commands.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"bookshelf/internal/app"
	"bookshelf/internal/config"
	"bookshelf/internal/platform/logger"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bookshelf",
		Short: "Personal library service with multi-source ISBN lookup",
		Long: `bookshelf tracks the books you read and resolves ISBNs against
Google Books, Open Library and an optional storefront.

Run "bookshelf serve" for the HTTP API, or use the lookup commands
directly from the shell.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config.LoadEnvFiles()
		},
	}

	cmd.AddCommand(
		newServeCmd(),
		newLookupCmd(),
		newNormalizeCmd(),
		newWarmCmd(),
		newSeedCatalogCmd(),
		newMigrateCmd(),
	)
	return cmd
}

// openApp loads config, applies overrides and connects everything a
// command needs. The caller closes the app and syncs the logger.
func openApp(ctx context.Context, overrides ...func(*config.Config)) (*app.App, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	for _, o := range overrides {
		o(cfg)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, nil, err
	}
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Sync()
		return nil, nil, err
	}
	return a, log, nil
}
