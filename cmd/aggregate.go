package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/musigraph/crawler/internal/aggregate"
	"github.com/musigraph/crawler/internal/store"
)

// newAggregateCmd creates and configures the 'aggregate' subcommand. Each
// argument is a natural key of an already-scraped entity of the chosen kind.
func newAggregateCmd() *cobra.Command {
	var (
		kindName string
		raw      bool
		fileName string
	)

	cmd := &cobra.Command{
		Use:   "aggregate [natural-key...]",
		Short: "Builds feature records for stored entities and exports them as CSV",
		Long: `Looks up each entity by natural key, assembles its flat numeric feature
record (normalized to [0, 1] unless --raw is given), and writes one CSV file
with one row per entity. Records are served from the cache when present.`,

		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAggregateCommand(cmd, args, kindName, raw, fileName)
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", string(store.KindArtist), "entity kind to aggregate (artist, genre, album, track)")
	cmd.Flags().BoolVar(&raw, "raw", false, "export raw magnitudes instead of normalized values")
	cmd.Flags().StringVar(&fileName, "file", "aggregations.csv", "output file name inside the export directory")
	return cmd
}

func runAggregateCommand(cmd *cobra.Command, naturalKeys []string, kindName string, raw bool, fileName string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	logger := appInstance.Logger()
	st := appInstance.Store()
	cfg := appInstance.Config()

	kind, err := parseKind(kindName)
	if err != nil {
		return err
	}

	var (
		gen  aggregate.Generator
		aggs []aggregate.Aggregation
	)
	for _, key := range naturalKeys {
		entity, err := st.FindOne(cmd.Context(), kind, key)
		if err != nil {
			return fmt.Errorf("look up %s %q: %w", kind, key, err)
		}
		if entity == nil {
			return fmt.Errorf("no stored %s with key %q; scrape it first", kind, key)
		}

		gen, err = aggregate.ForKind(entity, st)
		if err != nil {
			return err
		}
		agg, err := aggregate.New(gen, appInstance.Cache(), cfg.CacheTTL(), logger).Aggregate(cmd.Context(), !raw)
		if err != nil {
			return err
		}
		aggs = append(aggs, agg)
	}

	if err := aggregate.WriteAggregationsToCSV(gen, aggs, fileName, cfg.Export.BaseDir); err != nil {
		return err
	}
	logger.Info("aggregations exported",
		zap.String("kind", string(kind)),
		zap.Int("rows", len(aggs)),
		zap.String("file", fileName),
		zap.Bool("normalized", !raw),
	)
	return nil
}

func parseKind(name string) (store.Kind, error) {
	switch store.Kind(name) {
	case store.KindArtist, store.KindGenre, store.KindAlbum, store.KindTrack:
		return store.Kind(name), nil
	default:
		return "", fmt.Errorf("unknown kind %q (want artist, genre, album or track)", name)
	}
}
