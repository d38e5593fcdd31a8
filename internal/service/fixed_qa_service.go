package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"ai-qa-platform-be/internal/dto"
	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"

	"github.com/google/uuid"
)

var ErrFixedQANotFound = errors.New("fixed qa entry not found")

type IFixedQAService interface {
	Create(ctx context.Context, req *dto.CreateFixedQARequest) (*dto.CreateFixedQAResponse, error)
	Update(ctx context.Context, req *dto.UpdateFixedQARequest) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByApplication(ctx context.Context, applicationId uuid.UUID) ([]*dto.ShowFixedQAResponse, error)
}

// fixedQAService curates the fixed Q&A catalog. Question embeddings are
// computed asynchronously: writes mark the entry stale and enqueue an embed
// message for the consumer.
type fixedQAService struct {
	fixedQARepository contract.FixedQARepository
	publisherService  IPublisherService
	logger            logger.ILogger
}

func NewFixedQAService(
	fixedQARepository contract.FixedQARepository,
	publisherService IPublisherService,
	log logger.ILogger,
) IFixedQAService {
	return &fixedQAService{
		fixedQARepository: fixedQARepository,
		publisherService:  publisherService,
		logger:            log,
	}
}

func (s *fixedQAService) Create(ctx context.Context, req *dto.CreateFixedQARequest) (*dto.CreateFixedQAResponse, error) {
	entry := entity.FixedQA{
		Id:             uuid.New(),
		ApplicationId:  req.ApplicationId,
		Question:       req.Question,
		Answer:         req.Answer,
		Category:       req.Category,
		Priority:       req.Priority,
		IsActive:       true,
		EmbeddingStale: true,
		CreatedAt:      time.Now(),
	}

	if err := s.fixedQARepository.Create(ctx, &entry); err != nil {
		return nil, err
	}

	if err := s.publishEmbed(ctx, entry.Id); err != nil {
		return nil, err
	}

	return &dto.CreateFixedQAResponse{Id: entry.Id}, nil
}

func (s *fixedQAService) Update(ctx context.Context, req *dto.UpdateFixedQARequest) error {
	entry, err := s.fixedQARepository.FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return err
	}
	if entry == nil {
		return ErrFixedQANotFound
	}

	questionChanged := entry.Question != req.Question

	entry.Question = req.Question
	entry.Answer = req.Answer
	entry.Category = req.Category
	entry.Priority = req.Priority
	if req.IsActive != nil {
		entry.IsActive = *req.IsActive
	}
	entry.UpdatedAt = time.Now()
	if questionChanged {
		entry.EmbeddingStale = true
	}

	if err := s.fixedQARepository.Update(ctx, entry); err != nil {
		return err
	}

	// Only the question participates in matching; answer-only edits keep the
	// stored embedding.
	if questionChanged {
		return s.publishEmbed(ctx, entry.Id)
	}
	return nil
}

func (s *fixedQAService) Delete(ctx context.Context, id uuid.UUID) error {
	return s.fixedQARepository.Delete(ctx, id)
}

func (s *fixedQAService) ListByApplication(ctx context.Context, applicationId uuid.UUID) ([]*dto.ShowFixedQAResponse, error) {
	entries, err := s.fixedQARepository.FindAll(ctx,
		specification.ByApplicationId{ApplicationId: applicationId},
		specification.OrderBy{Field: "priority", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	out := make([]*dto.ShowFixedQAResponse, len(entries))
	for i, e := range entries {
		out[i] = &dto.ShowFixedQAResponse{
			Id:             e.Id,
			ApplicationId:  e.ApplicationId,
			Question:       e.Question,
			Answer:         e.Answer,
			Category:       e.Category,
			Priority:       e.Priority,
			IsActive:       e.IsActive,
			EmbeddingStale: e.EmbeddingStale,
			CreatedAt:      e.CreatedAt,
			UpdatedAt:      e.UpdatedAt,
		}
	}
	return out, nil
}

func (s *fixedQAService) publishEmbed(ctx context.Context, entryId uuid.UUID) error {
	payload, err := json.Marshal(dto.PublishEmbedQAMessage{EntryId: entryId})
	if err != nil {
		return err
	}
	if err := s.publisherService.Publish(ctx, payload); err != nil {
		return err
	}
	s.logger.Debug("fixed_qa", "embed message queued", map[string]interface{}{
		"entry_id": entryId.String(),
	})
	return nil
}
