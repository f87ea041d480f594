package scrape

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/musigraph/crawler/internal/fetch"
	"github.com/musigraph/crawler/internal/store"
)

// ArtistScraper scrapes an artist page. Genres and albums discovered on the
// page become dependency scrapers resolved before the artist is persisted.
type ArtistScraper struct {
	core

	name      string
	active    bool
	listeners float64
	genres    []*GenreScraper
	albums    []*AlbumScraper
}

// NewArtistScraper constructs a scraper for the artist page at sourceURL.
func NewArtistScraper(deps Deps, sourceURL string) *ArtistScraper {
	s := &ArtistScraper{core: newCore(deps, store.KindArtist, sourceURL)}
	s.core.hooks = s
	s.active = true
	return s
}

// NewArtistScrapers constructs one scraper per URL, preserving input order.
func NewArtistScrapers(deps Deps, urls []string) []*ArtistScraper {
	out := make([]*ArtistScraper, 0, len(urls))
	for _, u := range urls {
		out = append(out, NewArtistScraper(deps, u))
	}
	return out
}

func (s *ArtistScraper) extract(page *fetch.Page) {
	doc := page.Doc
	s.genres, s.albums = nil, nil

	s.name = selectorText(doc, "h1.artist-name")
	if s.name == "" {
		s.degrade("name", "artist name missing; defaulting to empty")
	}

	status := selectorText(doc, ".artist-status")
	switch {
	case status == "":
		s.degrade("active", "artist status missing; assuming active")
	case strings.EqualFold(status, "Disbanded"):
		s.active = false
	}

	if n, ok := parseCount(selectorText(doc, ".listener-count")); ok {
		s.listeners = n
	} else {
		s.degrade("listeners", "listener count missing or malformed; defaulting to 0")
	}

	doc.Find("ul.genre-list a").Each(func(_ int, sel *goquery.Selection) {
		name := strings.TrimSpace(sel.Text())
		href, _ := sel.Attr("href")
		child := NewGenreScraper(s.deps, resolveHref(page.URL, href))
		child.nameHint = name
		s.genres = append(s.genres, child)
		s.addChild(child)
	})

	doc.Find("ul.album-list a").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		child := NewAlbumScraper(s.deps, resolveHref(page.URL, href))
		s.albums = append(s.albums, child)
		s.addChild(child)
	})
}

func (s *ArtistScraper) buildEntity() *store.Entity {
	entity := &store.Entity{
		Name: s.name,
		Fields: map[string]float64{
			"listeners":   s.listeners,
			"genre_count": float64(len(s.genres)),
			"album_count": float64(len(s.albums)),
			"active":      boolField(s.active),
		},
		Attrs: map[string]string{},
	}
	for _, g := range s.genres {
		entity.Relations = append(entity.Relations, store.Relation{Name: "genres", ChildID: g.DatabaseID()})
	}
	for _, a := range s.albums {
		entity.Relations = append(entity.Relations, store.Relation{Name: "albums", ChildID: a.DatabaseID()})
	}
	return entity
}

func (s *ArtistScraper) summaryLines() []string {
	return []string{
		fmt.Sprintf("Artist: %s", s.name),
		fmt.Sprintf("Active: %t", s.active),
		fmt.Sprintf("Listeners: %.0f", s.listeners),
		fmt.Sprintf("Genre Count: %d", len(s.genres)),
		fmt.Sprintf("Album Count: %d", len(s.albums)),
	}
}

// Genres exposes the dependency scrapers discovered during extraction.
func (s *ArtistScraper) Genres() []*GenreScraper { return s.genres }

// Albums exposes the dependency scrapers discovered during extraction.
func (s *ArtistScraper) Albums() []*AlbumScraper { return s.albums }

func boolField(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
