package scrape

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/musigraph/crawler/internal/fetch"
	"github.com/musigraph/crawler/internal/store"
)

// AlbumScraper scrapes an album page. Tracks listed on the page become
// dependency scrapers resolved before the album is persisted.
type AlbumScraper struct {
	core

	title       string
	releaseYear float64
	tracks      []*TrackScraper
}

// NewAlbumScraper constructs a scraper for the album page at sourceURL.
func NewAlbumScraper(deps Deps, sourceURL string) *AlbumScraper {
	s := &AlbumScraper{core: newCore(deps, store.KindAlbum, sourceURL)}
	s.core.hooks = s
	return s
}

// NewAlbumScrapers constructs one scraper per URL, preserving input order.
func NewAlbumScrapers(deps Deps, urls []string) []*AlbumScraper {
	out := make([]*AlbumScraper, 0, len(urls))
	for _, u := range urls {
		out = append(out, NewAlbumScraper(deps, u))
	}
	return out
}

func (s *AlbumScraper) extract(page *fetch.Page) {
	doc := page.Doc
	s.tracks = nil

	s.title = selectorText(doc, "h1.album-title")
	if s.title == "" {
		s.degrade("title", "album title missing; defaulting to empty")
	}

	if n, ok := parseCount(selectorText(doc, ".release-year")); ok {
		s.releaseYear = n
	} else {
		s.degrade("release_year", "release year missing or malformed; defaulting to 0")
	}

	doc.Find("ol.track-list a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		child := NewTrackScraper(s.deps, resolveHref(page.URL, href))
		s.tracks = append(s.tracks, child)
		s.addChild(child)
	})
}

func (s *AlbumScraper) buildEntity() *store.Entity {
	entity := &store.Entity{
		Name: s.title,
		Fields: map[string]float64{
			"release_year": s.releaseYear,
			"track_count":  float64(len(s.tracks)),
		},
		Attrs: map[string]string{},
	}
	for _, t := range s.tracks {
		entity.Relations = append(entity.Relations, store.Relation{Name: "tracks", ChildID: t.DatabaseID()})
	}
	return entity
}

func (s *AlbumScraper) summaryLines() []string {
	return []string{
		fmt.Sprintf("Album: %s", s.title),
		fmt.Sprintf("Release Year: %.0f", s.releaseYear),
		fmt.Sprintf("Track Count: %d", len(s.tracks)),
	}
}

// Tracks exposes the dependency scrapers discovered during extraction.
func (s *AlbumScraper) Tracks() []*TrackScraper { return s.tracks }
