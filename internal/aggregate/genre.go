package aggregate

import (
	"context"
	"fmt"

	"github.com/musigraph/crawler/internal/store"
)

// Scaling constants for genre normalization.
const (
	genreArtistScale = 50_000
	genreRankScale   = 100
)

// GenreGenerator aggregates a persisted genre. Genres have no relations to
// load; the record comes straight from the stored fields.
type GenreGenerator struct {
	entity *store.Entity
}

// NewGenreGenerator constructs a generator bound to the given genre entity.
func NewGenreGenerator(entity *store.Entity) *GenreGenerator {
	return &GenreGenerator{entity: entity}
}

// Type returns the aggregation type tag.
func (g *GenreGenerator) Type() Type { return TypeGenre }

// Entity returns the bound entity.
func (g *GenreGenerator) Entity() *store.Entity { return g.entity }

// Template declares the genre aggregation shape.
func (g *GenreGenerator) Template(def float64) map[string]float64 {
	return map[string]float64{
		"artist_count": def,
		"rank":         def,
	}
}

// Generate assembles the raw genre record.
func (g *GenreGenerator) Generate(_ context.Context) (map[string]float64, error) {
	if g.entity == nil {
		return nil, fmt.Errorf("no genre entity bound")
	}
	values := g.Template(0)
	values["artist_count"] = g.entity.Fields["artist_count"]
	values["rank"] = g.entity.Fields["rank"]
	return values, nil
}

// Normalize maps raw genre magnitudes onto [0, 1].
func (g *GenreGenerator) Normalize(raw map[string]float64) map[string]float64 {
	return map[string]float64{
		"artist_count": clamp01(raw["artist_count"] / genreArtistScale),
		"rank":         clamp01(raw["rank"] / genreRankScale),
	}
}
