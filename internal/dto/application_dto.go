package dto

import (
	"time"

	"ai-qa-platform-be/pkg/mode"

	"github.com/google/uuid"
)

type CreateApplicationRequest struct {
	Name      string          `json:"name" validate:"required"`
	Mode      mode.Mode       `json:"mode" validate:"required"`
	Overrides *mode.Overrides `json:"overrides"`
}

type CreateApplicationResponse struct {
	Id uuid.UUID `json:"id"`
}

type UpdateModeConfigRequest struct {
	Id        uuid.UUID
	Mode      mode.Mode       `json:"mode" validate:"required"`
	Overrides *mode.Overrides `json:"overrides"`
}

type ShowApplicationResponse struct {
	Id        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Mode      mode.Mode       `json:"mode"`
	Overrides *mode.Overrides `json:"overrides,omitempty"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
