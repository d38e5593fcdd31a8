package retrieval

import (
	"context"
	"fmt"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"

	"github.com/google/uuid"
)

// ScoredChunk is one nearest-neighbor hit with its similarity score.
type ScoredChunk struct {
	Chunk *entity.KnowledgeChunk
	Score float64
}

// VectorSearcher is the external vector-store capability: nearest neighbors
// for a query vector across the given knowledge bases.
type VectorSearcher interface {
	SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]ScoredChunk, error)
}

// RetrievalError signals that the vector store was unreachable. Recoverable:
// the orchestrator skips the stage and continues the pipeline.
type RetrievalError struct {
	Cause error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("vector retrieval failed: %v", e.Cause)
}

func (e *RetrievalError) Unwrap() error {
	return e.Cause
}

// Retriever wraps the vector-store capability with floor filtering.
type Retriever struct {
	searcher VectorSearcher
	logger   logger.ILogger
}

func NewRetriever(searcher VectorSearcher, log logger.ILogger) *Retriever {
	return &Retriever{
		searcher: searcher,
		logger:   log,
	}
}

// Retrieve returns up to k chunks scoring at or above floor, sorted as the
// store returned them (descending). On error nothing is returned: either a
// clean filtered list or a RetrievalError, never both.
func (r *Retriever) Retrieve(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int, floor float64) ([]ScoredChunk, error) {
	if len(kbIds) == 0 {
		return nil, nil
	}
	if k <= 0 {
		k = 5
	}

	hits, err := r.searcher.SearchSimilarWithScore(ctx, queryVec, kbIds, k)
	if err != nil {
		return nil, &RetrievalError{Cause: err}
	}

	filtered := make([]ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		if hit.Score >= floor {
			filtered = append(filtered, hit)
		} else {
			r.logger.Debug("retrieval", "chunk below floor", map[string]interface{}{
				"chunk_id": hit.Chunk.Id.String(),
				"score":    hit.Score,
				"floor":    floor,
			})
		}
	}

	return filtered, nil
}
