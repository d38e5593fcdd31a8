package dto

import (
	"ai-qa-platform-be/pkg/resolve"

	"github.com/google/uuid"
)

type AnswerRequest struct {
	ApplicationId uuid.UUID `json:"application_id" validate:"required"`
	Query         string    `json:"query" validate:"required"`
}

type AnswerResponse struct {
	ApplicationId uuid.UUID           `json:"application_id"`
	Result        *resolve.Resolution `json:"result"`
}
