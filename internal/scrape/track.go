package scrape

import (
	"fmt"

	"github.com/musigraph/crawler/internal/fetch"
	"github.com/musigraph/crawler/internal/store"
)

// TrackScraper scrapes a track page. Tracks are leaves: they discover no
// dependencies.
type TrackScraper struct {
	core

	title       string
	durationSec float64
	playCount   float64
	chartRank   float64
}

// NewTrackScraper constructs a scraper for the track page at sourceURL.
func NewTrackScraper(deps Deps, sourceURL string) *TrackScraper {
	s := &TrackScraper{core: newCore(deps, store.KindTrack, sourceURL)}
	s.core.hooks = s
	return s
}

// NewTrackScrapers constructs one scraper per URL, preserving input order.
func NewTrackScrapers(deps Deps, urls []string) []*TrackScraper {
	out := make([]*TrackScraper, 0, len(urls))
	for _, u := range urls {
		out = append(out, NewTrackScraper(deps, u))
	}
	return out
}

func (s *TrackScraper) extract(page *fetch.Page) {
	doc := page.Doc

	s.title = selectorText(doc, "h1.track-name")
	if s.title == "" {
		s.degrade("title", "track title missing; defaulting to empty")
	}

	if n, ok := parseTrackDuration(selectorText(doc, ".duration")); ok {
		s.durationSec = n
	} else {
		s.degrade("duration", "duration missing or malformed; defaulting to 0")
	}

	if n, ok := parseCount(selectorText(doc, ".play-count")); ok {
		s.playCount = n
	} else {
		s.degrade("play_count", "play count missing or malformed; defaulting to 0")
	}

	if n, ok := parseCount(selectorText(doc, ".chart-rank")); ok {
		s.chartRank = n
	} else {
		s.degrade("chart_rank", "chart rank missing or malformed; defaulting to 0")
	}
}

func (s *TrackScraper) buildEntity() *store.Entity {
	return &store.Entity{
		Name: s.title,
		Fields: map[string]float64{
			"duration_sec": s.durationSec,
			"play_count":   s.playCount,
			"chart_rank":   s.chartRank,
		},
		Attrs: map[string]string{},
	}
}

func (s *TrackScraper) summaryLines() []string {
	return []string{
		fmt.Sprintf("Track: %s", s.title),
		fmt.Sprintf("Duration: %.0fs", s.durationSec),
		fmt.Sprintf("Plays: %.0f", s.playCount),
		fmt.Sprintf("Chart Rank: %.0f", s.chartRank),
	}
}
