// Package webpage implements the content extraction port: fetch a URL
// and reduce it to readable text. Extraction never fails — timeouts,
// non-HTML responses and empty pages come back as short diagnostic
// strings that fall below the caller's minimum-content threshold.
package webpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/deepscout/deepscout/internal/config"
	"github.com/deepscout/deepscout/internal/port/cache"
	"github.com/deepscout/deepscout/internal/port/scraper"
)

// documentExtensions are skipped without fetching; their content cannot
// be extracted as HTML.
var documentExtensions = []string{".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx"}

// contentSelectors are tried in order to locate the main article body
// before falling back to whole-document text.
var contentSelectors = []selector{
	{tag: "article"},
	{tag: "main"},
	{class: "content"},
	{class: "main-content"},
	{class: "post-content"},
	{class: "entry-content"},
	{id: "content"},
	{id: "main"},
}

// strippedTags never contribute readable text.
var strippedTags = map[string]bool{
	"script": true, "style": true, "nav": true,
	"header": true, "footer": true, "aside": true,
}

var whitespace = regexp.MustCompile(`\s+`)

// Extractor fetches pages and extracts readable text, with an optional
// cache keyed by URL so repeated sub-questions do not re-fetch.
type Extractor struct {
	httpClient *http.Client
	maxLength  int
	userAgent  string
	cache      cache.Cache
	cacheTTL   time.Duration
}

var _ scraper.Extractor = (*Extractor)(nil)

// New creates an extractor. pageCache may be nil to disable caching.
func New(cfg config.Scraper, pageCache cache.Cache, cacheTTL time.Duration) *Extractor {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 3000
	}
	return &Extractor{
		httpClient: &http.Client{Timeout: timeout},
		maxLength:  maxLength,
		userAgent:  cfg.UserAgent,
		cache:      pageCache,
		cacheTTL:   cacheTTL,
	}
}

// Extract fetches url and returns its readable text. It never returns a
// non-nil error; every failure mode produces a diagnostic string.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (string, error) {
	lower := strings.ToLower(rawURL)
	for _, ext := range documentExtensions {
		if strings.HasSuffix(lower, ext) {
			return fmt.Sprintf("Document file detected: %s. Content extraction not available for this file type.", rawURL), nil
		}
	}

	if e.cache != nil {
		if data, ok, err := e.cache.Get(ctx, rawURL); err == nil && ok {
			return string(data), nil
		}
	}

	text := e.fetchAndExtract(ctx, rawURL)

	if e.cache != nil && len(text) > 0 {
		if err := e.cache.Set(ctx, rawURL, []byte(text), e.cacheTTL); err != nil {
			slog.Debug("page cache set failed", "url", rawURL, "error", err)
		}
	}

	return text, nil
}

func (e *Extractor) fetchAndExtract(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Sprintf("Network error when accessing %s: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return fmt.Sprintf("Timeout error when accessing %s", rawURL)
		}
		return fmt.Sprintf("Network error when accessing %s: %v", rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Sprintf("Network error when accessing %s: status %d", rawURL, resp.StatusCode)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if !strings.Contains(contentType, "text/html") {
		return fmt.Sprintf("Non-HTML content detected: %s. Content extraction not available.", contentType)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return fmt.Sprintf("Error extracting %s: %v", rawURL, err)
	}

	text := extractText(doc, e.maxLength)
	if text == "" {
		return fmt.Sprintf("No readable content found at %s", rawURL)
	}
	return text
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// extractText reduces a parsed document to normalized readable text,
// preferring known main-content containers over the whole body.
func extractText(doc *html.Node, maxLength int) string {
	stripNodes(doc)

	var text string
	for _, sel := range contentSelectors {
		if nodes := matchNodes(doc, sel); len(nodes) > 0 {
			parts := make([]string, 0, len(nodes))
			for _, n := range nodes {
				parts = append(parts, nodeText(n))
			}
			text = strings.Join(parts, " ")
			break
		}
	}
	if strings.TrimSpace(text) == "" {
		text = nodeText(doc)
	}

	text = strings.TrimSpace(whitespace.ReplaceAllString(text, " "))
	if len(text) > maxLength {
		text = text[:maxLength] + "..."
	}
	return text
}

// stripNodes removes non-content elements in place.
func stripNodes(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && strippedTags[c.Data] {
			n.RemoveChild(c)
		} else {
			stripNodes(c)
		}
		c = next
	}
}

// selector matches an element by tag name, class, or id.
type selector struct {
	tag   string
	class string
	id    string
}

func (s selector) matches(n *html.Node) bool {
	if s.tag != "" {
		return n.Data == s.tag
	}
	for _, a := range n.Attr {
		if s.class != "" && a.Key == "class" {
			for _, c := range strings.Fields(a.Val) {
				if c == s.class {
					return true
				}
			}
		}
		if s.id != "" && a.Key == "id" && a.Val == s.id {
			return true
		}
	}
	return false
}

func matchNodes(root *html.Node, sel selector) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && sel.matches(n) {
			out = append(out, n)
			return // do not descend into a matched container
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
