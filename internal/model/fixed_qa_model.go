package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type FixedQA struct {
	Id             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ApplicationId  uuid.UUID       `gorm:"type:uuid;not null;index"`
	Question       string          `gorm:"type:text;not null"`
	Answer         string          `gorm:"type:text;not null"`
	Category       string          `gorm:"type:varchar(100);index"`
	Priority       int             `gorm:"default:0"`
	IsActive       bool            `gorm:"default:true;index"`
	Embedding      pgvector.Vector `gorm:"type:vector(768)"` // text-embedding-004 uses 768 dimensions
	EmbeddingStale bool            `gorm:"default:true"`
	CreatedAt      time.Time       `gorm:"autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime"`
	DeletedAt      gorm.DeletedAt  `gorm:"index"`
}

func (FixedQA) TableName() string {
	return "fixed_qa_entries"
}
