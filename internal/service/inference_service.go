package service

import (
	"context"
	"time"

	"ai-qa-platform-be/internal/dto"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/mode"
	"ai-qa-platform-be/pkg/resolve"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

type IInferenceService interface {
	Answer(ctx context.Context, req *dto.AnswerRequest) (*dto.AnswerResponse, error)
	ResolveMode(ctx context.Context, applicationId uuid.UUID) (mode.PipelineConfig, error)
	InvalidateConfig(applicationId uuid.UUID)
}

// inferenceService is the platform entry point for answering queries. The
// resolved pipeline config is cached per application; updates invalidate.
type inferenceService struct {
	applicationRepository   contract.ApplicationRepository
	fixedQARepository       contract.FixedQARepository
	knowledgeBaseRepository contract.KnowledgeBaseRepository
	resolver                *resolve.Resolver
	configCache             *gocache.Cache
	logger                  logger.ILogger
}

func NewInferenceService(
	applicationRepository contract.ApplicationRepository,
	fixedQARepository contract.FixedQARepository,
	knowledgeBaseRepository contract.KnowledgeBaseRepository,
	resolver *resolve.Resolver,
	configTTL time.Duration,
	log logger.ILogger,
) IInferenceService {
	if configTTL <= 0 {
		configTTL = 5 * time.Minute
	}
	return &inferenceService{
		applicationRepository:   applicationRepository,
		fixedQARepository:       fixedQARepository,
		knowledgeBaseRepository: knowledgeBaseRepository,
		resolver:                resolver,
		configCache:             gocache.New(configTTL, 2*configTTL),
		logger:                  log,
	}
}

func (s *inferenceService) Answer(ctx context.Context, req *dto.AnswerRequest) (*dto.AnswerResponse, error) {
	cfg, err := s.ResolveMode(ctx, req.ApplicationId)
	if err != nil {
		return nil, err
	}

	candidates, err := s.fixedQARepository.FindActiveByApplication(ctx, req.ApplicationId)
	if err != nil {
		return nil, err
	}

	kbIds, err := s.knowledgeBaseRepository.FindActiveIdsByApplication(ctx, req.ApplicationId)
	if err != nil {
		return nil, err
	}

	result, err := s.resolver.Resolve(ctx, resolve.Request{
		Query:            req.Query,
		ApplicationId:    req.ApplicationId,
		Config:           cfg,
		FixedQA:          candidates,
		KnowledgeBaseIds: kbIds,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inference", "query resolved", map[string]interface{}{
		"application_id": req.ApplicationId.String(),
		"stage":          result.Stage,
		"confidence":     result.Confidence,
	})

	return &dto.AnswerResponse{
		ApplicationId: req.ApplicationId,
		Result:        result,
	}, nil
}

// ResolveMode returns the application's fully-resolved pipeline config,
// serving from cache when fresh. Also used at setup time to validate a mode
// and override combination before it is stored.
func (s *inferenceService) ResolveMode(ctx context.Context, applicationId uuid.UUID) (mode.PipelineConfig, error) {
	key := applicationId.String()
	if cached, found := s.configCache.Get(key); found {
		return cached.(mode.PipelineConfig), nil
	}

	app, err := s.applicationRepository.FindOne(ctx,
		specification.ByID{ID: applicationId},
		specification.ActiveOnly{},
	)
	if err != nil {
		return mode.PipelineConfig{}, err
	}
	if app == nil {
		return mode.PipelineConfig{}, ErrApplicationNotFound
	}

	cfg, err := mode.Resolve(app.Mode, app.Overrides)
	if err != nil {
		return mode.PipelineConfig{}, err
	}

	s.configCache.SetDefault(key, cfg)
	return cfg, nil
}

func (s *inferenceService) InvalidateConfig(applicationId uuid.UUID) {
	s.configCache.Delete(applicationId.String())
}
