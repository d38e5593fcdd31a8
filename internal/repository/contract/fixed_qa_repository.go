package contract

import (
	"context"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/repository/specification"

	"github.com/google/uuid"
)

type FixedQARepository interface {
	Create(ctx context.Context, entry *entity.FixedQA) error
	Update(ctx context.Context, entry *entity.FixedQA) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FixedQA, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FixedQA, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	// FindActiveByApplication loads the curated candidate set for resolution.
	FindActiveByApplication(ctx context.Context, applicationId uuid.UUID) ([]*entity.FixedQA, error)
	// SetEmbedding stores a freshly computed question embedding and clears
	// the stale flag in a single update.
	SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error
}
