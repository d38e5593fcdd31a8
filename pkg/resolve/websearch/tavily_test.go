package websearch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"ai-qa-platform-be/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tavilyResponse() map[string]interface{} {
	return map[string]interface{}{
		"query":  "what is pgvector",
		"answer": "pgvector is a Postgres extension for vector similarity search.",
		"results": []map[string]interface{}{
			{"title": "pgvector README", "url": "https://example.com/pgvector", "content": "Open-source vector similarity search for Postgres.", "score": 0.87},
			{"title": "Old forum post", "url": "https://example.com/forum", "content": "barely related", "score": 0.31},
		},
	}
}

func TestSearchRanksAnswerFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, true, req["include_answer"])

		json.NewEncoder(w).Encode(tavilyResponse())
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key", logger.NewNopLogger(), WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "what is pgvector", nil)
	require.NoError(t, err)

	// Composed answer first at its fixed relevance, low-signal snippet dropped.
	require.Len(t, results, 2)
	assert.Equal(t, 0.90, results[0].Score)
	assert.Contains(t, results[0].Snippet, "Postgres extension")
	assert.Equal(t, "https://example.com/pgvector", results[1].URL)
	assert.Equal(t, 0.87, results[1].Score)
}

func TestSearchPassesDomainFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []interface{}{"docs.example.com"}, req["include_domains"])
		json.NewEncoder(w).Encode(tavilyResponse())
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key", logger.NewNopLogger(), WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "query", []string{"docs.example.com"})
	require.NoError(t, err)
}

func TestSearchRetriesTransientErrors(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&attempts, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(tavilyResponse())
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key", logger.NewNopLogger(), WithBaseURL(srv.URL))
	results, err := c.Search(context.Background(), "query", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, results)
	assert.EqualValues(t, 3, atomic.LoadInt64(&attempts))
}

func TestSearchDoesNotRetryClientErrors(t *testing.T) {
	var attempts int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&attempts, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewTavilyClient("bad-key", logger.NewNopLogger(), WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "query", nil)

	var unavailable *SearchUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.EqualValues(t, 1, atomic.LoadInt64(&attempts))
}

func TestSearchExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewTavilyClient("test-key", logger.NewNopLogger(), WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), "query", nil)

	var unavailable *SearchUnavailableError
	assert.ErrorAs(t, err, &unavailable)
}
