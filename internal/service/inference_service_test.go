package service

import (
	"context"
	"testing"
	"time"

	"ai-qa-platform-be/internal/dto"
	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/mode"
	"ai-qa-platform-be/pkg/resolve"
	"ai-qa-platform-be/pkg/resolve/matcher"
	"ai-qa-platform-be/pkg/resolve/response"
	"ai-qa-platform-be/pkg/resolve/retrieval"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func activeApp(m mode.Mode, overrides *mode.Overrides) *entity.Application {
	return &entity.Application{
		Id:        uuid.New(),
		Name:      "support-bot",
		Mode:      m,
		Overrides: overrides,
		IsActive:  true,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

func newInferenceFixture(app *entity.Application) (*fakeApplicationRepo, IInferenceService) {
	appRepo := &fakeApplicationRepo{app: app}
	svc := NewInferenceService(
		appRepo,
		newFakeFixedQARepo(),
		&fakeKnowledgeBaseRepo{},
		nil,
		time.Minute,
		logger.NewNopLogger(),
	)
	return appRepo, svc
}

func TestResolveModeCachesConfig(t *testing.T) {
	app := activeApp(mode.ModeStandard, nil)
	appRepo, svc := newInferenceFixture(app)

	cfg, err := svc.ResolveMode(context.Background(), app.Id)
	require.NoError(t, err)
	assert.Equal(t, mode.ModeStandard, cfg.Mode)

	_, err = svc.ResolveMode(context.Background(), app.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, appRepo.findOneCalls)
}

func TestInvalidateConfigForcesReload(t *testing.T) {
	app := activeApp(mode.ModeStandard, nil)
	appRepo, svc := newInferenceFixture(app)

	_, err := svc.ResolveMode(context.Background(), app.Id)
	require.NoError(t, err)

	svc.InvalidateConfig(app.Id)

	_, err = svc.ResolveMode(context.Background(), app.Id)
	require.NoError(t, err)
	assert.Equal(t, 2, appRepo.findOneCalls)
}

func TestResolveModeMissingApplication(t *testing.T) {
	_, svc := newInferenceFixture(nil)

	_, err := svc.ResolveMode(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrApplicationNotFound)
}

func TestResolveModeAppliesOverrides(t *testing.T) {
	threshold := 0.81
	app := activeApp(mode.ModeStandard, &mode.Overrides{VectorThreshold: &threshold})
	_, svc := newInferenceFixture(app)

	cfg, err := svc.ResolveMode(context.Background(), app.Id)
	require.NoError(t, err)
	assert.Equal(t, 0.81, cfg.VectorThreshold)
}

func TestResolveModeRejectsInvalidStoredOverrides(t *testing.T) {
	bad := 1.5
	app := activeApp(mode.ModeStandard, &mode.Overrides{VectorThreshold: &bad})
	_, svc := newInferenceFixture(app)

	_, err := svc.ResolveMode(context.Background(), app.Id)
	var cfgErr *mode.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

type emptySearcher struct{}

func (emptySearcher) SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]retrieval.ScoredChunk, error) {
	return nil, nil
}

func TestAnswerResolvesExactMatch(t *testing.T) {
	app := activeApp(mode.ModeStandard, nil)
	appRepo := &fakeApplicationRepo{app: app}

	queryVec := []float32{1, 0, 0}
	fixedQARepo := newFakeFixedQARepo()
	entry := &entity.FixedQA{
		Id:             uuid.New(),
		ApplicationId:  app.Id,
		Question:       "What are your opening hours?",
		Answer:         "We are open 9 to 5 on weekdays.",
		IsActive:       true,
		Embedding:      queryVec,
		EmbeddingStale: false,
		UpdatedAt:      time.Now(),
	}
	require.NoError(t, fixedQARepo.Create(context.Background(), entry))

	embedder := &fixedVecEmbedder{vec: queryVec}
	resolver := resolve.NewResolver(
		embedder,
		matcher.NewMatcher(embedding.NewEntryCache(embedder), logger.NewNopLogger()),
		retrieval.NewRetriever(emptySearcher{}, logger.NewNopLogger()),
		nil,
		response.NewGenerator(nil, logger.NewNopLogger()),
		logger.NewNopLogger(),
		0,
	)

	svc := NewInferenceService(appRepo, fixedQARepo, &fakeKnowledgeBaseRepo{}, resolver, time.Minute, logger.NewNopLogger())

	resp, err := svc.Answer(context.Background(), &dto.AnswerRequest{
		ApplicationId: app.Id,
		Query:         "opening hours?",
	})
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.Equal(t, string(mode.StageFixedQAExact), resp.Result.Stage)
	assert.Equal(t, entry.Answer, resp.Result.Answer)
}
