package resolve

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/llm"
	"ai-qa-platform-be/pkg/mode"
	"ai-qa-platform-be/pkg/resolve/matcher"
	"ai-qa-platform-be/pkg/resolve/response"
	"ai-qa-platform-be/pkg/resolve/retrieval"
	"ai-qa-platform-be/pkg/resolve/websearch"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedEmbedder struct {
	vec []float32
	err error
}

func (e *fixedEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if e.err != nil {
		return nil, e.err
	}
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingValues{Values: e.vec}}, nil
}

type stubStore struct {
	hits  []retrieval.ScoredChunk
	err   error
	calls int64
	block bool
}

func (s *stubStore) SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]retrieval.ScoredChunk, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return s.hits, s.err
}

type stubSearch struct {
	results []websearch.Result
	err     error
	calls   int64
}

func (s *stubSearch) Search(ctx context.Context, query string, domains []string) ([]websearch.Result, error) {
	atomic.AddInt64(&s.calls, 1)
	return s.results, s.err
}

type llmStub struct {
	answer     string
	err        error
	calls      int64
	lastPrompt string
}

func (l *llmStub) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	var prompt string
	if len(history) > 0 {
		prompt = history[len(history)-1].Content
	}
	return l.Generate(ctx, prompt, options...)
}

func (l *llmStub) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	atomic.AddInt64(&l.calls, 1)
	l.lastPrompt = prompt
	if l.err != nil {
		return "", l.err
	}
	return l.answer, nil
}

type fixture struct {
	embedder *fixedEmbedder
	store    *stubStore
	search   *stubSearch
	llm      *llmStub
}

func newFixture() *fixture {
	return &fixture{
		embedder: &fixedEmbedder{vec: []float32{1, 0, 0}},
		store:    &stubStore{},
		search:   &stubSearch{},
		llm:      &llmStub{answer: "generated answer"},
	}
}

func (fx *fixture) resolver(stageTimeout time.Duration) *Resolver {
	log := logger.NewNopLogger()
	entryCache := embedding.NewEntryCache(fx.embedder)
	return NewResolver(
		fx.embedder,
		matcher.NewMatcher(entryCache, log),
		retrieval.NewRetriever(fx.store, log),
		fx.search,
		response.NewGenerator(fx.llm, log),
		log,
		stageTimeout,
	)
}

func qaEntry(question string, vec []float32) *entity.FixedQA {
	return &entity.FixedQA{
		Id:        uuid.New(),
		Question:  question,
		Answer:    "curated: " + question,
		IsActive:  true,
		Embedding: vec,
		UpdatedAt: time.Now(),
	}
}

func chunk(content string, score float64) retrieval.ScoredChunk {
	return retrieval.ScoredChunk{
		Chunk: &entity.KnowledgeChunk{Id: uuid.New(), Content: content},
		Score: score,
	}
}

func mustConfig(t *testing.T, m mode.Mode, o *mode.Overrides) mode.PipelineConfig {
	t.Helper()
	cfg, err := mode.Resolve(m, o)
	require.NoError(t, err)
	return cfg
}

func boolPtr(v bool) *bool { return &v }

func intPtr(v int) *int { return &v }

func TestResolveExactMatchShortCircuits(t *testing.T) {
	fx := newFixture()
	cfg := mustConfig(t, mode.ModeStandard, nil)

	req := Request{
		Query:            "how do I reset my password",
		ApplicationId:    uuid.New(),
		Config:           cfg,
		FixedQA:          []*entity.FixedQA{qaEntry("how do I reset my password", []float32{1, 0, 0})},
		KnowledgeBaseIds: []uuid.UUID{uuid.New()},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageFixedQAExact), res.Stage)
	assert.Equal(t, "curated: how do I reset my password", res.Answer)
	assert.InDelta(t, 1.0, res.Confidence, 1e-6)
	assert.False(t, res.RequiresDisclaimer)

	require.Len(t, res.Provenance, 1)
	assert.True(t, res.Provenance[0].Accepted)

	// Later stages never run.
	assert.Zero(t, atomic.LoadInt64(&fx.store.calls))
	assert.Zero(t, atomic.LoadInt64(&fx.search.calls))
	assert.Zero(t, atomic.LoadInt64(&fx.llm.calls))
}

func TestResolveStandardVectorAccepted(t *testing.T) {
	fx := newFixture()
	fx.store.hits = []retrieval.ScoredChunk{chunk("kb answer text", 0.80), chunk("secondary", 0.60)}

	cfg := mustConfig(t, mode.ModeStandard, &mode.Overrides{EnableLLMPolish: boolPtr(false)})

	req := Request{
		Query:            "billing cycle",
		Config:           cfg,
		KnowledgeBaseIds: []uuid.UUID{uuid.New()},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageVectorKB), res.Stage)
	assert.Equal(t, "kb answer text", res.Answer)
	assert.InDelta(t, 0.80, res.Confidence, 1e-9)
	assert.False(t, res.RequiresDisclaimer)
	assert.Zero(t, atomic.LoadInt64(&fx.llm.calls))
}

func TestResolveSafeFallbackWithRecommendations(t *testing.T) {
	fx := newFixture()
	cfg := mustConfig(t, mode.ModeSafe, nil)

	// cosine({1,0,0},{1,1,0}) ~ 0.707: above the recommend floor, below exact.
	related := qaEntry("related question", []float32{1, 1, 0})

	req := Request{
		Query:   "something only loosely covered",
		Config:  cfg,
		FixedQA: []*entity.FixedQA{related},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageNone), res.Stage)
	assert.Equal(t, cfg.FallbackMessage, res.Answer)
	require.Len(t, res.Recommendations, 1)
	assert.Equal(t, "related question", res.Recommendations[0].Question)
	assert.InDelta(t, 0.707, res.Recommendations[0].Score, 0.01)

	// Both curated stages were consulted and left records.
	require.Len(t, res.Provenance, 2)
	assert.Equal(t, string(mode.StageFixedQAExact), res.Provenance[0].Stage)
	assert.Equal(t, string(mode.StageFixedQASimilar), res.Provenance[1].Stage)
	assert.False(t, res.Provenance[1].Accepted)

	// Safe mode never generates or searches.
	assert.Zero(t, atomic.LoadInt64(&fx.llm.calls))
	assert.Zero(t, atomic.LoadInt64(&fx.search.calls))
}

func TestResolveRecommendCountZeroSuppressesSuggestions(t *testing.T) {
	fx := newFixture()
	cfg := mustConfig(t, mode.ModeSafe, &mode.Overrides{RecommendCount: intPtr(0)})

	// cosine({1,0,0},{1,1,0}) ~ 0.707: a suggestion candidate, never an answer.
	related := qaEntry("related question", []float32{1, 1, 0})

	req := Request{
		Query:   "something only loosely covered",
		Config:  cfg,
		FixedQA: []*entity.FixedQA{related},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageNone), res.Stage)
	assert.Equal(t, cfg.FallbackMessage, res.Answer)
	assert.Empty(t, res.Recommendations)
}

func TestResolveSimilarAnswersWhenEnabled(t *testing.T) {
	fx := newFixture()
	cfg := mustConfig(t, mode.ModeStandard, nil) // similar threshold 0.70, answering enabled

	// cosine ~0.857: below the exact bar (0.90), above similar (0.70).
	almost := qaEntry("almost the same question", []float32{1, 0.6, 0})

	req := Request{
		Query:   "almost the same question, reworded",
		Config:  cfg,
		FixedQA: []*entity.FixedQA{almost},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageFixedQASimilar), res.Stage)
	assert.Equal(t, almost.Answer, res.Answer)
	assert.False(t, res.RequiresDisclaimer)
}

func TestResolveEnhancedWebSearchFailureStillGenerates(t *testing.T) {
	fx := newFixture()
	// Below acceptance (0.70) and below the auto-trigger (0.50): search runs.
	fx.store.hits = []retrieval.ScoredChunk{chunk("weak context", 0.40)}
	fx.search.err = &websearch.SearchUnavailableError{Cause: errors.New("tavily down")}

	cfg := mustConfig(t, mode.ModeEnhanced, nil)

	req := Request{
		Query:            "breaking news question",
		Config:           cfg,
		KnowledgeBaseIds: []uuid.UUID{uuid.New()},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 1, atomic.LoadInt64(&fx.search.calls))
	assert.Equal(t, string(mode.StageGeneration), res.Stage)
	assert.Equal(t, "generated answer", res.Answer)
	assert.True(t, res.RequiresDisclaimer)
	assert.InDelta(t, 0.40, res.Confidence, 1e-9)

	// The vector context still grounded the synthesis.
	assert.Contains(t, fx.llm.lastPrompt, "weak context")

	// The search failure is on the audit trail.
	var searchRecord *ProvenanceRecord
	for i := range res.Provenance {
		if res.Provenance[i].Stage == string(mode.StageWebSearch) {
			searchRecord = &res.Provenance[i]
		}
	}
	require.NotNil(t, searchRecord)
	assert.NotEmpty(t, searchRecord.Error)
}

func TestResolveAutoTriggerSkipsWebSearch(t *testing.T) {
	fx := newFixture()
	// Below acceptance but above the auto-trigger: vector context is good
	// enough to ground generation without paying for a search.
	fx.store.hits = []retrieval.ScoredChunk{chunk("decent context", 0.55)}

	cfg := mustConfig(t, mode.ModeEnhanced, nil)

	req := Request{
		Query:            "question with decent coverage",
		Config:           cfg,
		KnowledgeBaseIds: []uuid.UUID{uuid.New()},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Zero(t, atomic.LoadInt64(&fx.search.calls))
	assert.Equal(t, string(mode.StageGeneration), res.Stage)
	assert.True(t, res.RequiresDisclaimer)
	assert.InDelta(t, 0.55, res.Confidence, 1e-9)
}

func TestResolveWebSearchAccepted(t *testing.T) {
	fx := newFixture()
	fx.search.results = []websearch.Result{
		{Title: "Answer", Snippet: "authoritative web answer", URL: "https://example.com/a", Score: 0.92},
		{Title: "Extra", Snippet: "supporting", URL: "https://example.com/b", Score: 0.60},
	}

	cfg := mustConfig(t, mode.ModeEnhanced, nil)

	req := Request{Query: "current event", Config: cfg}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageWebSearch), res.Stage)
	assert.Equal(t, "authoritative web answer", res.Answer)
	assert.InDelta(t, 0.92, res.Confidence, 1e-9)
	assert.False(t, res.RequiresDisclaimer)
	assert.Zero(t, atomic.LoadInt64(&fx.llm.calls))
}

func TestResolveGenerationFailureFallsBack(t *testing.T) {
	fx := newFixture()
	fx.llm.err = errors.New("model overloaded")

	cfg := mustConfig(t, mode.ModeStandard, nil)

	req := Request{Query: "anything", Config: cfg}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageNone), res.Stage)
	assert.Equal(t, cfg.FallbackMessage, res.Answer)

	var genRecord *ProvenanceRecord
	for i := range res.Provenance {
		if res.Provenance[i].Stage == string(mode.StageGeneration) {
			genRecord = &res.Provenance[i]
		}
	}
	require.NotNil(t, genRecord)
	assert.NotEmpty(t, genRecord.Error)
}

func TestResolveStageTimeoutEscalates(t *testing.T) {
	fx := newFixture()
	fx.store.block = true

	cfg := mustConfig(t, mode.ModeStandard, nil)

	req := Request{
		Query:            "slow store",
		Config:           cfg,
		KnowledgeBaseIds: []uuid.UUID{uuid.New()},
	}

	res, err := fx.resolver(30 * time.Millisecond).Resolve(context.Background(), req)
	require.NoError(t, err)

	// The stuck vector stage was abandoned; generation still answered.
	assert.Equal(t, string(mode.StageGeneration), res.Stage)

	var vecRecord *ProvenanceRecord
	for i := range res.Provenance {
		if res.Provenance[i].Stage == string(mode.StageVectorKB) {
			vecRecord = &res.Provenance[i]
		}
	}
	require.NotNil(t, vecRecord)
	assert.Contains(t, vecRecord.Error, "timed out")
}

func TestResolveCallerCancellationAborts(t *testing.T) {
	fx := newFixture()
	cfg := mustConfig(t, mode.ModeStandard, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := fx.resolver(0).Resolve(ctx, Request{Query: "q", Config: cfg})
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResolveEmbeddingOutageDegradesToGeneration(t *testing.T) {
	fx := newFixture()
	fx.embedder.err = errors.New("embedding provider down")

	cfg := mustConfig(t, mode.ModeStandard, nil)

	req := Request{
		Query:            "question",
		Config:           cfg,
		FixedQA:          []*entity.FixedQA{qaEntry("q", []float32{1, 0, 0})},
		KnowledgeBaseIds: []uuid.UUID{uuid.New()},
	}

	res, err := fx.resolver(0).Resolve(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, string(mode.StageGeneration), res.Stage)
	assert.True(t, res.RequiresDisclaimer)

	// Every similarity stage recorded its failure.
	stagesWithErrors := map[string]bool{}
	for _, p := range res.Provenance {
		if p.Error != "" {
			stagesWithErrors[p.Stage] = true
		}
	}
	assert.True(t, stagesWithErrors[string(mode.StageFixedQAExact)])
	assert.True(t, stagesWithErrors[string(mode.StageFixedQASimilar)])
	assert.True(t, stagesWithErrors[string(mode.StageVectorKB)])
}
