package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-qa-platform-be/internal/pkg/logger"

	"github.com/avast/retry-go/v4"
)

// answerRelevance is the synthetic score assigned to Tavily's AI-composed
// answer snippet. It ranks above raw page snippets but below a curated match.
const answerRelevance = 0.90

// minSnippetRelevance drops low-signal page snippets before they reach the
// pipeline.
const minSnippetRelevance = 0.50

type TavilyClient struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
	logger     logger.ILogger
}

var _ Provider = &TavilyClient{}

type TavilyOption func(*TavilyClient)

// WithBaseURL points the client at a different endpoint. Used in tests.
func WithBaseURL(url string) TavilyOption {
	return func(c *TavilyClient) {
		c.baseURL = url
	}
}

func WithMaxResults(n int) TavilyOption {
	return func(c *TavilyClient) {
		c.maxResults = n
	}
}

func NewTavilyClient(apiKey string, log logger.ILogger, opts ...TavilyOption) *TavilyClient {
	c := &TavilyClient{
		apiKey:     apiKey,
		baseURL:    "https://api.tavily.com",
		maxResults: 5,
		client:     &http.Client{Timeout: 30 * time.Second},
		logger:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tavilySearchRequest struct {
	ApiKey         string   `json:"api_key"`
	Query          string   `json:"query"`
	SearchDepth    string   `json:"search_depth"`
	MaxResults     int      `json:"max_results"`
	IncludeAnswer  bool     `json:"include_answer"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type tavilySearchResult struct {
	Title   string  `json:"title"`
	URL     string  `json:"url"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type tavilySearchResponse struct {
	Query   string               `json:"query"`
	Answer  string               `json:"answer"`
	Results []tavilySearchResult `json:"results"`
}

// Search runs a Tavily search. Transient failures (429, 5xx, network) are
// retried briefly; persistent failure surfaces as SearchUnavailableError.
func (c *TavilyClient) Search(ctx context.Context, query string, domains []string) ([]Result, error) {
	payload := tavilySearchRequest{
		ApiKey:         c.apiKey,
		Query:          query,
		SearchDepth:    "basic",
		MaxResults:     c.maxResults,
		IncludeAnswer:  true,
		IncludeDomains: domains,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, &SearchUnavailableError{Cause: err}
	}

	var parsed tavilySearchResponse

	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewBuffer(payloadJson))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			if err != nil {
				return err
			}

			switch {
			case resp.StatusCode == http.StatusOK:
				return json.Unmarshal(body, &parsed)
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return fmt.Errorf("tavily transient error: status %d", resp.StatusCode)
			default:
				return retry.Unrecoverable(fmt.Errorf("tavily error: status %d, body: %s", resp.StatusCode, string(body)))
			}
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		c.logger.Warn("websearch", "tavily search failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return nil, &SearchUnavailableError{Cause: err}
	}

	results := make([]Result, 0, len(parsed.Results)+1)

	// Tavily's composed answer goes first with a fixed high relevance.
	if parsed.Answer != "" {
		results = append(results, Result{
			Title:   "Tavily Answer",
			Snippet: parsed.Answer,
			Score:   answerRelevance,
		})
	}

	for _, r := range parsed.Results {
		if r.Score < minSnippetRelevance {
			continue
		}
		results = append(results, Result{
			Title:   r.Title,
			Snippet: r.Content,
			URL:     r.URL,
			Score:   r.Score,
		})
	}

	c.logger.Info("websearch", "tavily search completed", map[string]interface{}{
		"query":   query,
		"results": len(results),
	})

	return results, nil
}
