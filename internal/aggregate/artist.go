package aggregate

import (
	"context"
	"fmt"

	"github.com/musigraph/crawler/internal/store"
)

// Scaling constants for artist normalization. Fixed per type so normalized
// records from different runs are comparable.
const (
	artistListenerScale  = 10_000_000
	artistGenreScale     = 10
	artistAlbumScale     = 25
	artistGenreRankScale = 100
)

// ArtistGenerator aggregates a persisted artist and its genre relations.
type ArtistGenerator struct {
	entity *store.Entity
	store  store.Store
}

// NewArtistGenerator constructs a generator bound to the given artist entity.
func NewArtistGenerator(entity *store.Entity, st store.Store) *ArtistGenerator {
	return &ArtistGenerator{entity: entity, store: st}
}

// Type returns the aggregation type tag.
func (g *ArtistGenerator) Type() Type { return TypeArtist }

// Entity returns the bound entity.
func (g *ArtistGenerator) Entity() *store.Entity { return g.entity }

// Template declares the artist aggregation shape.
func (g *ArtistGenerator) Template(def float64) map[string]float64 {
	return map[string]float64{
		"active":          def,
		"album_count":     def,
		"genre_count":     def,
		"listeners":       def,
		"mean_genre_rank": def,
	}
}

// Generate assembles the raw artist record, lazy-loading genre relations to
// compute the mean genre rank.
func (g *ArtistGenerator) Generate(ctx context.Context) (map[string]float64, error) {
	if g.entity == nil {
		return nil, fmt.Errorf("no artist entity bound")
	}
	values := g.Template(0)
	values["active"] = g.entity.Fields["active"]
	values["album_count"] = g.entity.Fields["album_count"]
	values["genre_count"] = g.entity.Fields["genre_count"]
	values["listeners"] = g.entity.Fields["listeners"]

	genres, err := g.store.Relations(ctx, g.entity.ID, "genres")
	if err != nil {
		return nil, fmt.Errorf("load genre relations: %w", err)
	}
	if len(genres) > 0 {
		total := 0.0
		for _, genre := range genres {
			total += genre.Fields["rank"]
		}
		values["mean_genre_rank"] = total / float64(len(genres))
	}
	return values, nil
}

// Normalize maps raw artist magnitudes onto [0, 1].
func (g *ArtistGenerator) Normalize(raw map[string]float64) map[string]float64 {
	return map[string]float64{
		"active":          clamp01(raw["active"]),
		"album_count":     clamp01(raw["album_count"] / artistAlbumScale),
		"genre_count":     clamp01(raw["genre_count"] / artistGenreScale),
		"listeners":       clamp01(raw["listeners"] / artistListenerScale),
		"mean_genre_rank": clamp01(raw["mean_genre_rank"] / artistGenreRankScale),
	}
}
