package aggregate

import (
	"context"
	"fmt"

	"github.com/musigraph/crawler/internal/store"
)

// Scaling constants for album normalization.
const (
	albumYearFloor     = 1900
	albumYearSpan      = 150
	albumTrackScale    = 30
	albumDurationScale = 600
)

// AlbumGenerator aggregates a persisted album and its track relations.
type AlbumGenerator struct {
	entity *store.Entity
	store  store.Store
}

// NewAlbumGenerator constructs a generator bound to the given album entity.
func NewAlbumGenerator(entity *store.Entity, st store.Store) *AlbumGenerator {
	return &AlbumGenerator{entity: entity, store: st}
}

// Type returns the aggregation type tag.
func (g *AlbumGenerator) Type() Type { return TypeAlbum }

// Entity returns the bound entity.
func (g *AlbumGenerator) Entity() *store.Entity { return g.entity }

// Template declares the album aggregation shape.
func (g *AlbumGenerator) Template(def float64) map[string]float64 {
	return map[string]float64{
		"mean_track_duration": def,
		"release_year":        def,
		"track_count":         def,
	}
}

// Generate assembles the raw album record, lazy-loading track relations to
// compute the mean track duration.
func (g *AlbumGenerator) Generate(ctx context.Context) (map[string]float64, error) {
	if g.entity == nil {
		return nil, fmt.Errorf("no album entity bound")
	}
	values := g.Template(0)
	values["release_year"] = g.entity.Fields["release_year"]
	values["track_count"] = g.entity.Fields["track_count"]

	tracks, err := g.store.Relations(ctx, g.entity.ID, "tracks")
	if err != nil {
		return nil, fmt.Errorf("load track relations: %w", err)
	}
	if len(tracks) > 0 {
		total := 0.0
		for _, track := range tracks {
			total += track.Fields["duration_sec"]
		}
		values["mean_track_duration"] = total / float64(len(tracks))
	}
	return values, nil
}

// Normalize maps raw album magnitudes onto [0, 1].
func (g *AlbumGenerator) Normalize(raw map[string]float64) map[string]float64 {
	return map[string]float64{
		"mean_track_duration": clamp01(raw["mean_track_duration"] / albumDurationScale),
		"release_year":        clamp01((raw["release_year"] - albumYearFloor) / albumYearSpan),
		"track_count":         clamp01(raw["track_count"] / albumTrackScale),
	}
}
