package duckduckgo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/deepscout/deepscout/internal/config"
)

const ddgHTML = `<html><body>
<div class="results">
  <div class="result results_links">
    <a class="result__a" href="https://example.com/one">First Result</a>
    <a class="result__snippet" href="https://example.com/one">First snippet text</a>
  </div>
  <div class="result results_links">
    <a class="result__a" href="https://example.com/two">Second Result</a>
    <a class="result__snippet" href="https://example.com/two">Second snippet text</a>
  </div>
  <div class="result">
    <span>malformed, no title link</span>
  </div>
</div>
</body></html>`

const bingHTML = `<html><body>
<ol id="b_results">
  <li class="b_algo">
    <h2><a href="https://example.com/bing">Bing Result</a></h2>
    <p>Bing caption text</p>
  </li>
  <li class="b_algo">
    <h2><a href="/relative">Skipped Relative</a></h2>
    <p>caption</p>
  </li>
</ol>
</body></html>`

func testConfig(ddgBase, bingBase string) config.Search {
	return config.Search{
		Timeout:        2 * time.Second,
		ResultsPerSub:  3,
		UserAgent:      "test-agent",
		DuckDuckGoBase: ddgBase,
		BingBase:       bingBase,
	}
}

func TestSearchParsesDuckDuckGo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("User-Agent"); got != "test-agent" {
			t.Errorf("expected configured user agent, got %q", got)
		}
		if q := r.URL.Query().Get("q"); q != "ev market" {
			t.Errorf("unexpected query %q", q)
		}
		_, _ = w.Write([]byte(ddgHTML))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL, "http://127.0.0.1:0"))
	results, err := s.Search(context.Background(), "ev market", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Title != "First Result" || results[0].URL != "https://example.com/one" {
		t.Fatalf("unexpected first result: %+v", results[0])
	}
	if results[0].Snippet != "First snippet text" {
		t.Fatalf("unexpected snippet: %q", results[0].Snippet)
	}
}

func TestSearchRespectsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(ddgHTML))
	}))
	defer srv.Close()

	s := New(testConfig(srv.URL, "http://127.0.0.1:0"))
	results, _ := s.Search(context.Background(), "q", 1)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
}

func TestSearchFallsBackToBing(t *testing.T) {
	ddg := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ddg.Close()
	bing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(bingHTML))
	}))
	defer bing.Close()

	s := New(testConfig(ddg.URL, bing.URL))
	results, err := s.Search(context.Background(), "q", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(results) != 1 {
		t.Fatalf("expected 1 bing result, got %d: %+v", len(results), results)
	}
	if results[0].Title != "Bing Result" || results[0].Snippet != "Bing caption text" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestSearchFallbackResultsWhenAllEnginesFail(t *testing.T) {
	s := New(testConfig("http://127.0.0.1:0", "http://127.0.0.1:0"))

	results, err := s.Search(context.Background(), "quantum sensors", 3)
	if err != nil {
		t.Fatalf("search must not error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("expected 3 fallback results, got %d", len(results))
	}
	for _, r := range results {
		if !strings.Contains(r.Title, "quantum sensors") {
			t.Fatalf("fallback title %q does not mention query", r.Title)
		}
		if !strings.HasPrefix(r.URL, "https://www.example.com/") {
			t.Fatalf("unexpected fallback url %q", r.URL)
		}
	}
}
