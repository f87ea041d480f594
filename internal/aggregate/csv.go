package aggregate

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/musigraph/crawler/internal/store"
)

// ForKind returns the generator matching an entity's kind.
func ForKind(entity *store.Entity, st store.Store) (Generator, error) {
	if entity == nil {
		return nil, fmt.Errorf("entity is required")
	}
	switch entity.Kind {
	case store.KindArtist:
		return NewArtistGenerator(entity, st), nil
	case store.KindGenre:
		return NewGenreGenerator(entity), nil
	case store.KindAlbum:
		return NewAlbumGenerator(entity, st), nil
	case store.KindTrack:
		return NewTrackGenerator(entity), nil
	default:
		return nil, fmt.Errorf("no aggregation for kind %q", entity.Kind)
	}
}

// WriteAggregationsToCSV writes one row per aggregation to
// baseDir/fileName, with the generator's field names as the header. All
// aggregations must share the generator's type; one file holds one type.
func WriteAggregationsToCSV(gen Generator, aggs []Aggregation, fileName, baseDir string) error {
	for _, agg := range aggs {
		if agg.Type != gen.Type() {
			return fmt.Errorf("aggregation type %q does not match generator type %q", agg.Type, gen.Type())
		}
	}

	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	path := filepath.Join(baseDir, fileName)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(CSVHeaders(gen)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, agg := range aggs {
		row := make([]string, 0, len(agg.Values))
		for _, v := range StripLabels(gen, agg) {
			row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
