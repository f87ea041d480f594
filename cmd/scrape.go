package cmd

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/musigraph/crawler/internal/notify"
	"github.com/musigraph/crawler/internal/scrape"
)

// newScrapeCmd creates and configures the 'scrape' subcommand. Each argument
// is an artist page URL; genres and albums discovered on those pages are
// scraped recursively before the artist is persisted.
func newScrapeCmd() *cobra.Command {
	var genreNames []string

	cmd := &cobra.Command{
		Use:   "scrape [artist-url...]",
		Short: "Scrapes artist pages and their dependencies into the store",
		Long: `Runs the scrape lifecycle for each artist URL: store lookup first, then
fetch, extract, recursive dependency resolution and idempotent persistence.
Re-running with the same URLs never duplicates rows.`,

		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScrapeCommand(cmd, args, genreNames)
		},
	}
	cmd.Flags().StringSliceVar(&genreNames, "genre", nil, "genre names to scrape directly (repeatable)")
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, artistURLs, genreNames []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()
	deps := appInstance.ScrapeDeps()
	deps.Out = cmd.OutOrStdout()

	runID := uuid.NewString()
	logger.Info("scrape run starting",
		zap.String("run_id", runID),
		zap.Int("artists", len(artistURLs)),
		zap.Int("genres", len(genreNames)),
	)

	var scrapers []scrape.Scraper
	for _, s := range scrape.NewArtistScrapers(deps, artistURLs) {
		scrapers = append(scrapers, s)
	}
	for _, s := range scrape.NewGenreScrapers(deps, appInstance.Config().Site.BaseURL, genreNames) {
		scrapers = append(scrapers, s)
	}

	for _, scraper := range scrapers {
		entity, err := scraper.Scrape(cmd.Context())
		if err != nil {
			return err
		}
		scraper.PrintInfo()
		if !scraper.DataReadFromStore() {
			publishPersisted(cmd.Context(), appInstance, runID, entity.NaturalKey, string(entity.Kind), entity.ID)
		}
	}

	logger.Info("scrape run finished", zap.String("run_id", runID))
	return nil
}

func publishPersisted(ctx context.Context, appInstance App, runID, naturalKey, kind string, id int64) {
	event := notify.Event{
		RunID:      runID,
		Kind:       kind,
		NaturalKey: naturalKey,
		DatabaseID: id,
		OccurredAt: time.Now().UTC(),
	}
	if _, err := appInstance.Publisher().Publish(ctx, event); err != nil {
		// Event delivery is advisory; a publish failure never fails the run.
		appInstance.Logger().Warn("publish persisted event failed",
			zap.String("run_id", runID),
			zap.String("natural_key", naturalKey),
			zap.Error(err),
		)
	}
}
