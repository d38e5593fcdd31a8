package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KnowledgeChunk struct {
	Id              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	KnowledgeBaseId uuid.UUID         `gorm:"type:uuid;not null;index"`
	DocumentRef     string            `gorm:"type:varchar(500);index"`
	ChunkIndex      int               `gorm:"default:0"`
	Content         string            `gorm:"type:text;not null"`
	Embedding       pgvector.Vector   `gorm:"type:vector(768)"`
	Metadata        datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt       time.Time         `gorm:"autoCreateTime"`
	DeletedAt       gorm.DeletedAt    `gorm:"index"`
}

func (KnowledgeChunk) TableName() string {
	return "knowledge_chunks"
}
