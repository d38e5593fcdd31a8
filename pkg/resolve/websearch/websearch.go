package websearch

import (
	"context"
	"fmt"
)

// Result is one ranked snippet from the live web.
type Result struct {
	Title   string
	Snippet string
	URL     string
	Score   float64
}

// Provider is the external search capability. Implementations must return
// snippets ranked by relevance in [0,1].
type Provider interface {
	Search(ctx context.Context, query string, domains []string) ([]Result, error)
}

// SearchUnavailableError signals a recoverable search failure (timeout,
// quota, network). The orchestrator proceeds as if zero results came back;
// the raw cause never reaches the end user.
type SearchUnavailableError struct {
	Cause error
}

func (e *SearchUnavailableError) Error() string {
	return fmt.Sprintf("web search unavailable: %v", e.Cause)
}

func (e *SearchUnavailableError) Unwrap() error {
	return e.Cause
}
