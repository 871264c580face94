package checker

import (
	"context"
	"errors"
	"time"

	"github.com/use-agent/linkguard/models"
)

// ErrContextUnusable marks driver failures that leave the browsing context
// unusable for the rest of the run (e.g. the browser connection dropped).
// Drivers wrap such errors so the batch runner can abort remaining links
// instead of recording them as ordinary fetch failures.
var ErrContextUnusable = errors.New("browsing context unusable")

// Response is what one navigation attempt observed.
type Response struct {
	// StatusCode is the HTTP status of the final navigation response.
	// 0 means the driver could not determine one.
	StatusCode int

	// FinalURL is the URL after following all redirects.
	FinalURL string
}

// Page is one exclusive browsing context. The checker owns it for the
// duration of a run; no other component may touch it concurrently.
type Page interface {
	// Navigate performs a single navigation attempt bounded by timeout.
	// A transport-level failure (DNS, TLS, connection reset, timeout)
	// is returned as an error; any received response, whatever its
	// status, is returned as a Response.
	Navigate(ctx context.Context, uri string, timeout time.Duration) (*Response, error)

	// ResolveLinks extracts link candidates from the current page.
	// Target URIs are absolute and restricted to http, https and file.
	ResolveLinks(ctx context.Context, selector string, attributes []string) ([]models.LinkCandidate, error)

	// Reset returns the context to a neutral blank state. Best-effort;
	// failures are swallowed.
	Reset()

	// Screenshot captures the current viewport as PNG.
	Screenshot(ctx context.Context) ([]byte, error)

	// Close releases the context. Safe to call once per page.
	Close() error
}

// Driver opens browsing contexts.
type Driver interface {
	NewPage(ctx context.Context) (Page, error)
}

// ArtifactStore persists screenshot artifacts and reports their paths.
type ArtifactStore interface {
	// Save writes one artifact under the run's directory and returns
	// the storage path recorded in the report.
	Save(runID, name string, data []byte) (string, error)

	// BasePath returns the storage path for a run's artifacts.
	BasePath(runID string) string
}
