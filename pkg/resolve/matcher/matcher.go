package matcher

import (
	"context"
	"math"
	"sort"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/pkg/embedding"
)

// scoreEpsilon is the float tolerance for tie-breaking equal scores.
const scoreEpsilon = 1e-6

// Match pairs a fixed Q&A entry with its similarity to the query.
type Match struct {
	Entry *entity.FixedQA
	Score float64
}

// Matcher scores curated Q&A entries against a query embedding and
// classifies them into exact / similar / no-match.
type Matcher struct {
	embeddings *embedding.EntryCache
	logger     logger.ILogger
}

func NewMatcher(embeddings *embedding.EntryCache, log logger.ILogger) *Matcher {
	return &Matcher{
		embeddings: embeddings,
		logger:     log,
	}
}

// MatchExact returns the best-scoring active candidate at or above threshold,
// or nil when nothing qualifies.
func (m *Matcher) MatchExact(ctx context.Context, queryVec []float32, candidates []*entity.FixedQA, threshold float64) (*Match, error) {
	matches, err := m.scoreAll(ctx, queryVec, candidates, threshold)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, nil
	}
	best := matches[0]
	return &best, nil
}

// MatchSimilar returns active candidates scoring at or above threshold,
// sorted descending and truncated to limit.
func (m *Matcher) MatchSimilar(ctx context.Context, queryVec []float32, candidates []*entity.FixedQA, threshold float64, limit int) ([]Match, error) {
	matches, err := m.scoreAll(ctx, queryVec, candidates, threshold)
	if err != nil {
		return nil, err
	}
	if limit >= 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (m *Matcher) scoreAll(ctx context.Context, queryVec []float32, candidates []*entity.FixedQA, threshold float64) ([]Match, error) {
	var matches []Match

	for _, cand := range candidates {
		if cand == nil || !cand.IsActive {
			continue
		}

		candVec, err := m.embeddings.Vector(ctx, cand)
		if err != nil {
			// One broken candidate must not sink the whole match run.
			m.logger.Warn("matcher", "embedding lookup failed for entry", map[string]interface{}{
				"entry_id": cand.Id.String(),
				"error":    err.Error(),
			})
			continue
		}

		score := Cosine(queryVec, candVec)
		if score >= threshold {
			matches = append(matches, Match{Entry: cand, Score: score})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return lessMatch(matches[j], matches[i])
	})

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	return matches, nil
}

// lessMatch orders a below b: lower score first, ties broken by lower
// priority weight, then by older update time.
func lessMatch(a, b Match) bool {
	if math.Abs(a.Score-b.Score) > scoreEpsilon {
		return a.Score < b.Score
	}
	if a.Entry.Priority != b.Entry.Priority {
		return a.Entry.Priority < b.Entry.Priority
	}
	return a.Entry.UpdatedAt.Before(b.Entry.UpdatedAt)
}

// Cosine computes cosine similarity clamped to [0,1]: negative similarity
// reports as 0, it is never surfaced to callers.
func Cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}
