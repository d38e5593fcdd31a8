package service

import (
	"context"
	"errors"
	"time"

	"ai-qa-platform-be/internal/dto"
	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/events"
	"ai-qa-platform-be/pkg/mode"
	pktNats "ai-qa-platform-be/pkg/nats"

	"github.com/google/uuid"
)

var ErrApplicationNotFound = errors.New("application not found")

// ConfigCacheInvalidator drops a cached pipeline config after an
// application's mode or overrides change.
type ConfigCacheInvalidator interface {
	InvalidateConfig(applicationId uuid.UUID)
}

type IApplicationService interface {
	Create(ctx context.Context, req *dto.CreateApplicationRequest) (*dto.CreateApplicationResponse, error)
	Show(ctx context.Context, id uuid.UUID) (*dto.ShowApplicationResponse, error)
	UpdateModeConfig(ctx context.Context, req *dto.UpdateModeConfigRequest) error
}

type applicationService struct {
	applicationRepository contract.ApplicationRepository
	configInvalidator     ConfigCacheInvalidator
	eventPublisher        *pktNats.Publisher
	logger                logger.ILogger
}

func NewApplicationService(
	applicationRepository contract.ApplicationRepository,
	configInvalidator ConfigCacheInvalidator,
	eventPublisher *pktNats.Publisher,
	log logger.ILogger,
) IApplicationService {
	return &applicationService{
		applicationRepository: applicationRepository,
		configInvalidator:     configInvalidator,
		eventPublisher:        eventPublisher,
		logger:                log,
	}
}

func (s *applicationService) Create(ctx context.Context, req *dto.CreateApplicationRequest) (*dto.CreateApplicationResponse, error) {
	// Reject broken configurations at write time, not at query time.
	if _, err := mode.Resolve(req.Mode, req.Overrides); err != nil {
		return nil, err
	}

	app := entity.Application{
		Id:        uuid.New(),
		Name:      req.Name,
		Mode:      req.Mode,
		Overrides: req.Overrides,
		IsActive:  true,
		CreatedAt: time.Now(),
	}

	if err := s.applicationRepository.Create(ctx, &app); err != nil {
		return nil, err
	}

	s.logger.Info("application", "application created", map[string]interface{}{
		"application_id": app.Id.String(),
		"mode":           string(app.Mode),
	})

	return &dto.CreateApplicationResponse{Id: app.Id}, nil
}

func (s *applicationService) Show(ctx context.Context, id uuid.UUID) (*dto.ShowApplicationResponse, error) {
	app, err := s.applicationRepository.FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, ErrApplicationNotFound
	}

	return &dto.ShowApplicationResponse{
		Id:        app.Id,
		Name:      app.Name,
		Mode:      app.Mode,
		Overrides: app.Overrides,
		IsActive:  app.IsActive,
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}, nil
}

func (s *applicationService) UpdateModeConfig(ctx context.Context, req *dto.UpdateModeConfigRequest) error {
	if _, err := mode.Resolve(req.Mode, req.Overrides); err != nil {
		return err
	}

	app, err := s.applicationRepository.FindOne(ctx, specification.ByID{ID: req.Id})
	if err != nil {
		return err
	}
	if app == nil {
		return ErrApplicationNotFound
	}

	app.Mode = req.Mode
	app.Overrides = req.Overrides
	app.UpdatedAt = time.Now()

	if err := s.applicationRepository.Update(ctx, app); err != nil {
		return err
	}

	if s.configInvalidator != nil {
		s.configInvalidator.InvalidateConfig(app.Id)
	}

	s.logger.Info("application", "mode configuration updated", map[string]interface{}{
		"application_id": app.Id.String(),
		"mode":           string(app.Mode),
	})

	if s.eventPublisher != nil {
		evt := events.NewAppConfigChanged(app.Id.String())
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("application", "failed to publish config change event", map[string]interface{}{
				"application_id": app.Id.String(),
				"error":          err.Error(),
			})
		}
	}

	return nil
}
