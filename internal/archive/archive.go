// Package archive persists raw fetched HTML before extraction, so a page can
// be re-examined later without re-crawling. Blobs are content-hash addressed.
package archive

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// BlobStore writes raw artifacts and returns a URI.
type BlobStore interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// NoOpStore discards all archived content.
type NoOpStore struct{}

// PutObject for NoOpStore does nothing and returns an empty URI.
func (NoOpStore) PutObject(_ context.Context, _ string, _ string, _ []byte) (string, error) {
	return "", nil
}

// BlobPath derives the archive path for a page body:
// <prefix>/<kind>/<sha256>.html.
func BlobPath(prefix, kind string, body []byte) string {
	sum := sha256.Sum256(body)
	hash := hex.EncodeToString(sum[:])
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return fmt.Sprintf("%s/%s.html", kind, hash)
	}
	return fmt.Sprintf("%s/%s/%s.html", prefix, kind, hash)
}
