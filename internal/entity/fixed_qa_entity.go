package entity

import (
	"time"

	"github.com/google/uuid"
)

// FixedQA is a curated question-answer pair, treated as authoritative when
// matched. The question embedding is cached on the entry and recomputed
// asynchronously whenever the question text changes.
type FixedQA struct {
	Id            uuid.UUID
	ApplicationId uuid.UUID
	Question      string
	Answer        string
	Category      string
	Priority      int
	IsActive      bool

	// Embedding is the cached question vector. EmbeddingStale marks it for
	// recomputation; a stale or empty vector is computed lazily at query time.
	Embedding      []float32
	EmbeddingStale bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasFreshEmbedding reports whether the cached vector can be used as-is.
func (q *FixedQA) HasFreshEmbedding() bool {
	return len(q.Embedding) > 0 && !q.EmbeddingStale
}
