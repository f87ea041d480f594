package aggregate

import (
	"context"
	"fmt"

	"github.com/musigraph/crawler/internal/store"
)

// Scaling constants for track normalization.
const (
	trackDurationScale = 600
	trackPlayScale     = 100_000_000
	trackRankScale     = 100
)

// TrackGenerator aggregates a persisted track.
type TrackGenerator struct {
	entity *store.Entity
}

// NewTrackGenerator constructs a generator bound to the given track entity.
func NewTrackGenerator(entity *store.Entity) *TrackGenerator {
	return &TrackGenerator{entity: entity}
}

// Type returns the aggregation type tag.
func (g *TrackGenerator) Type() Type { return TypeTrack }

// Entity returns the bound entity.
func (g *TrackGenerator) Entity() *store.Entity { return g.entity }

// Template declares the track aggregation shape.
func (g *TrackGenerator) Template(def float64) map[string]float64 {
	return map[string]float64{
		"chart_rank":   def,
		"duration_sec": def,
		"play_count":   def,
	}
}

// Generate assembles the raw track record.
func (g *TrackGenerator) Generate(_ context.Context) (map[string]float64, error) {
	if g.entity == nil {
		return nil, fmt.Errorf("no track entity bound")
	}
	values := g.Template(0)
	values["chart_rank"] = g.entity.Fields["chart_rank"]
	values["duration_sec"] = g.entity.Fields["duration_sec"]
	values["play_count"] = g.entity.Fields["play_count"]
	return values, nil
}

// Normalize maps raw track magnitudes onto [0, 1].
func (g *TrackGenerator) Normalize(raw map[string]float64) map[string]float64 {
	return map[string]float64{
		"chart_rank":   clamp01(raw["chart_rank"] / trackRankScale),
		"duration_sec": clamp01(raw["duration_sec"] / trackDurationScale),
		"play_count":   clamp01(raw["play_count"] / trackPlayScale),
	}
}
