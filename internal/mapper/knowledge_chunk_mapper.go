package mapper

import (
	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/model"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type KnowledgeChunkMapper struct{}

func NewKnowledgeChunkMapper() *KnowledgeChunkMapper {
	return &KnowledgeChunkMapper{}
}

func (m *KnowledgeChunkMapper) ToEntity(c *model.KnowledgeChunk) *entity.KnowledgeChunk {
	if c == nil {
		return nil
	}

	return &entity.KnowledgeChunk{
		Id:              c.Id,
		KnowledgeBaseId: c.KnowledgeBaseId,
		DocumentRef:     c.DocumentRef,
		ChunkIndex:      c.ChunkIndex,
		Content:         c.Content,
		Embedding:       c.Embedding.Slice(),
		Metadata:        map[string]interface{}(c.Metadata),
		CreatedAt:       c.CreatedAt,
	}
}

func (m *KnowledgeChunkMapper) ToModel(c *entity.KnowledgeChunk) *model.KnowledgeChunk {
	if c == nil {
		return nil
	}

	return &model.KnowledgeChunk{
		Id:              c.Id,
		KnowledgeBaseId: c.KnowledgeBaseId,
		DocumentRef:     c.DocumentRef,
		ChunkIndex:      c.ChunkIndex,
		Content:         c.Content,
		Embedding:       pgvector.NewVector(c.Embedding),
		Metadata:        datatypes.JSONMap(c.Metadata),
		CreatedAt:       c.CreatedAt,
	}
}
