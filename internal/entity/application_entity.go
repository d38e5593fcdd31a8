package entity

import (
	"time"

	"ai-qa-platform-be/pkg/mode"

	"github.com/google/uuid"
)

// Application is one tenant-facing QA instance: a mode plus sparse overrides
// over that mode's preset, and the knowledge bases it answers from.
type Application struct {
	Id        uuid.UUID
	Name      string
	Mode      mode.Mode
	Overrides *mode.Overrides
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// KnowledgeBase is a named collection of ingested document chunks owned by an
// application. Ingestion itself happens outside this service.
type KnowledgeBase struct {
	Id             uuid.UUID
	ApplicationId  uuid.UUID
	Name           string
	CollectionName string
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
