// Package websearch defines the web search port.
package websearch

import "context"

// Result is one search engine hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher is the port for web search. The shipped adapter never returns
// an error: unreachable engines degrade to a templated placeholder result
// set internally. Third-party implementations may error; callers treat a
// non-nil error as an unexpected failure of the whole sub-question.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]Result, error)
}
