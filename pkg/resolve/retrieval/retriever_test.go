package retrieval

import (
	"context"
	"errors"
	"testing"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	hits []ScoredChunk
	err  error

	gotK     int
	gotKbIds []uuid.UUID
}

func (s *stubSearcher) SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]ScoredChunk, error) {
	s.gotK = k
	s.gotKbIds = kbIds
	return s.hits, s.err
}

func chunkWithScore(content string, score float64) ScoredChunk {
	return ScoredChunk{
		Chunk: &entity.KnowledgeChunk{Id: uuid.New(), Content: content},
		Score: score,
	}
}

func TestRetrieveFiltersBelowFloor(t *testing.T) {
	searcher := &stubSearcher{hits: []ScoredChunk{
		chunkWithScore("good", 0.80),
		chunkWithScore("borderline", 0.50),
		chunkWithScore("noise", 0.20),
	}}
	r := NewRetriever(searcher, logger.NewNopLogger())

	hits, err := r.Retrieve(context.Background(), []float32{1}, []uuid.UUID{uuid.New()}, 5, 0.50)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "good", hits[0].Chunk.Content)
	assert.Equal(t, "borderline", hits[1].Chunk.Content)
}

func TestRetrieveNoKnowledgeBases(t *testing.T) {
	searcher := &stubSearcher{hits: []ScoredChunk{chunkWithScore("anything", 0.9)}}
	r := NewRetriever(searcher, logger.NewNopLogger())

	hits, err := r.Retrieve(context.Background(), []float32{1}, nil, 5, 0)
	require.NoError(t, err)
	assert.Nil(t, hits)
	assert.Zero(t, searcher.gotK, "store must not be queried without knowledge bases")
}

func TestRetrieveDefaultsK(t *testing.T) {
	searcher := &stubSearcher{}
	r := NewRetriever(searcher, logger.NewNopLogger())

	_, err := r.Retrieve(context.Background(), []float32{1}, []uuid.UUID{uuid.New()}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 5, searcher.gotK)
}

func TestRetrieveWrapsStoreErrors(t *testing.T) {
	cause := errors.New("connection refused")
	r := NewRetriever(&stubSearcher{err: cause}, logger.NewNopLogger())

	_, err := r.Retrieve(context.Background(), []float32{1}, []uuid.UUID{uuid.New()}, 5, 0)
	var retErr *RetrievalError
	require.ErrorAs(t, err, &retErr)
	assert.ErrorIs(t, err, cause)
}
