// Package scraper defines the page content extraction port.
package scraper

import "context"

// Extractor is the port for fetching a URL and reducing it to readable
// text. The shipped adapter never returns an error: timeouts, non-HTML
// content and empty pages come back as short diagnostic strings, which
// callers evaluate against their minimum-content threshold.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}
