package mapper

import (
	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/model"

	"github.com/pgvector/pgvector-go"
)

type FixedQAMapper struct{}

func NewFixedQAMapper() *FixedQAMapper {
	return &FixedQAMapper{}
}

func (m *FixedQAMapper) ToEntity(q *model.FixedQA) *entity.FixedQA {
	if q == nil {
		return nil
	}

	return &entity.FixedQA{
		Id:             q.Id,
		ApplicationId:  q.ApplicationId,
		Question:       q.Question,
		Answer:         q.Answer,
		Category:       q.Category,
		Priority:       q.Priority,
		IsActive:       q.IsActive,
		Embedding:      q.Embedding.Slice(),
		EmbeddingStale: q.EmbeddingStale,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func (m *FixedQAMapper) ToModel(q *entity.FixedQA) *model.FixedQA {
	if q == nil {
		return nil
	}

	return &model.FixedQA{
		Id:             q.Id,
		ApplicationId:  q.ApplicationId,
		Question:       q.Question,
		Answer:         q.Answer,
		Category:       q.Category,
		Priority:       q.Priority,
		IsActive:       q.IsActive,
		Embedding:      pgvector.NewVector(q.Embedding),
		EmbeddingStale: q.EmbeddingStale,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func (m *FixedQAMapper) ToEntities(entries []*model.FixedQA) []*entity.FixedQA {
	entities := make([]*entity.FixedQA, len(entries))
	for i, q := range entries {
		entities[i] = m.ToEntity(q)
	}
	return entities
}
