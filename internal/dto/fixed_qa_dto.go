package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateFixedQARequest struct {
	ApplicationId uuid.UUID `json:"application_id" validate:"required"`
	Question      string    `json:"question" validate:"required"`
	Answer        string    `json:"answer" validate:"required"`
	Category      string    `json:"category"`
	Priority      int       `json:"priority"`
}

type CreateFixedQAResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateFixedQARequest struct {
	Id       uuid.UUID
	Question string `json:"question" validate:"required"`
	Answer   string `json:"answer" validate:"required"`
	Category string `json:"category"`
	Priority int    `json:"priority"`
	IsActive *bool  `json:"is_active"`
}

type ShowFixedQAResponse struct {
	Id             uuid.UUID `json:"id"`
	ApplicationId  uuid.UUID `json:"application_id"`
	Question       string    `json:"question"`
	Answer         string    `json:"answer"`
	Category       string    `json:"category"`
	Priority       int       `json:"priority"`
	IsActive       bool      `json:"is_active"`
	EmbeddingStale bool      `json:"embedding_stale"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// PublishEmbedQAMessage is the in-process queue payload asking the consumer
// to (re)compute one entry's question embedding.
type PublishEmbedQAMessage struct {
	EntryId uuid.UUID `json:"entry_id"`
}
