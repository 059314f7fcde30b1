package webpage

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deepscout/deepscout/internal/config"
)

func testExtractor() *Extractor {
	return New(config.Scraper{
		Timeout:   2 * time.Second,
		MaxLength: 3000,
		UserAgent: "test-agent",
	}, nil, 0)
}

func TestExtractReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><style>.x{}</style></head><body>
			<nav>Navigation junk</nav>
			<article><h1>EV Markets</h1><p>Battery costs keep   falling.</p></article>
			<footer>Footer junk</footer>
			<script>var x = 1;</script>
		</body></html>`))
	}))
	defer srv.Close()

	text, err := testExtractor().Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract must not error: %v", err)
	}

	if !strings.Contains(text, "EV Markets") || !strings.Contains(text, "Battery costs keep falling.") {
		t.Fatalf("missing article text: %q", text)
	}
	for _, junk := range []string{"Navigation junk", "Footer junk", "var x"} {
		if strings.Contains(text, junk) {
			t.Fatalf("stripped content leaked: %q in %q", junk, text)
		}
	}
	if strings.Contains(text, "  ") {
		t.Fatalf("whitespace not collapsed: %q", text)
	}
}

func TestExtractCapsLength(t *testing.T) {
	long := strings.Repeat("word ", 2000)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprintf(w, "<html><body><main>%s</main></body></html>", long)
	}))
	defer srv.Close()

	text, err := testExtractor().Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(text) != 3003 { // 3000 + "..."
		t.Fatalf("expected capped length 3003, got %d", len(text))
	}
	if !strings.HasSuffix(text, "...") {
		t.Fatal("capped text must end with ellipsis")
	}
}

func TestExtractSkipsDocumentFiles(t *testing.T) {
	text, err := testExtractor().Extract(context.Background(), "https://example.com/report.PDF")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	want := "Document file detected: https://example.com/report.PDF. Content extraction not available for this file type."
	if text != want {
		t.Fatalf("unexpected diagnostic: %q", text)
	}
}

func TestExtractNonHTMLContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"a":1}`))
	}))
	defer srv.Close()

	text, err := testExtractor().Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(text, "Non-HTML content detected: application/json") {
		t.Fatalf("unexpected diagnostic: %q", text)
	}
}

func TestExtractEmptyPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><script>only scripts</script></body></html>`))
	}))
	defer srv.Close()

	text, err := testExtractor().Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !strings.HasPrefix(text, "No readable content found at ") {
		t.Fatalf("unexpected diagnostic: %q", text)
	}
}

func TestExtractNetworkError(t *testing.T) {
	text, err := testExtractor().Extract(context.Background(), "http://127.0.0.1:0/nope")
	if err != nil {
		t.Fatalf("extract must not error: %v", err)
	}
	if !strings.HasPrefix(text, "Network error when accessing ") &&
		!strings.HasPrefix(text, "Timeout error when accessing ") {
		t.Fatalf("unexpected diagnostic: %q", text)
	}
}

func TestExtractTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><p>late</p></body></html>"))
	}))
	defer srv.Close()

	e := New(config.Scraper{Timeout: 20 * time.Millisecond, MaxLength: 3000, UserAgent: "t"}, nil, 0)
	text, err := e.Extract(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("extract must not error: %v", err)
	}
	if !strings.HasPrefix(text, "Timeout error when accessing ") {
		t.Fatalf("unexpected diagnostic: %q", text)
	}
}

// inMemoryCache is a minimal cache.Cache for testing.
type inMemoryCache struct {
	data map[string][]byte
	sets int
}

func (c *inMemoryCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *inMemoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.data[key] = value
	c.sets++
	return nil
}

func (c *inMemoryCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestExtractUsesCache(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><main>cached page body</main></body></html>"))
	}))
	defer srv.Close()

	c := &inMemoryCache{data: make(map[string][]byte)}
	e := New(config.Scraper{Timeout: 2 * time.Second, MaxLength: 3000, UserAgent: "t"}, c, time.Minute)

	first, _ := e.Extract(context.Background(), srv.URL)
	second, _ := e.Extract(context.Background(), srv.URL)

	if first != second {
		t.Fatalf("cache returned different text: %q vs %q", first, second)
	}
	if hits != 1 {
		t.Fatalf("expected 1 origin fetch, got %d", hits)
	}
	if c.sets != 1 {
		t.Fatalf("expected 1 cache set, got %d", c.sets)
	}
}
