// Package cmd defines and implements the CLI commands for the musigraph
// executable.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/musigraph/crawler/internal/app"
	"github.com/musigraph/crawler/internal/cache"
	"github.com/musigraph/crawler/internal/config"
	"github.com/musigraph/crawler/internal/notify"
	"github.com/musigraph/crawler/internal/scrape"
	"github.com/musigraph/crawler/internal/store"
)

var cfgFile string

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

// App defines the application interface that commands use. This allows us to
// inject a mock app during tests.
type App interface {
	Close()
	Config() config.Config
	Logger() *zap.Logger
	Store() store.Store
	Cache() cache.Cache
	Publisher() notify.Publisher
	ScrapeDeps() scrape.Deps
}

// newApp is the application factory. It's a variable so we can replace it
// with a mock factory in tests.
var newApp = func(ctx context.Context) (App, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return app.New(ctx, cfg)
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "musigraph",
		Short: "A music-metadata crawler and feature aggregator.",
		Long: `musigraph crawls a music-metadata site, persists artist, genre, album
and track facts to a relational store, and reassembles them into flat
numeric feature vectors for downstream analysis.`,

		// Runs AFTER flags are parsed but BEFORE the subcommand's RunE:
		// the right place to build and inject the application services.
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appInstance, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			cmd.SetContext(ctx)
			return nil
		},

		// Ensures services are shut down gracefully.
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if appInstance, ok := cmd.Context().Value(appKey).(App); ok && appInstance != nil {
				appInstance.Close()
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is environment-only)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newAggregateCmd())
	cmd.AddCommand(newServeCmd())

	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, fmt.Errorf("application services not initialized")
	}
	return appInstance, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
