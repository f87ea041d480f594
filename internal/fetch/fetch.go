// Package fetch retrieves and parses pages from the metadata site.
package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Page is a fetched document plus retrieval metadata. The raw body is kept
// alongside the parsed document so it can be archived verbatim.
type Page struct {
	URL        string
	StatusCode int
	Body       []byte
	Doc        *goquery.Document
	FetchedAt  time.Time
	Duration   time.Duration
}

// Fetcher retrieves a parsed document for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Page, error)
}

// FetchError indicates that page retrieval failed. It is fatal for the
// scraper that encountered it: there is no fallback content to extract from.
type FetchError struct {
	URL string
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error { return e.Err }
