package entity

import (
	"time"

	"github.com/google/uuid"
)

// KnowledgeChunk is one text span of an ingested document, consumed
// read-only at query time.
type KnowledgeChunk struct {
	Id              uuid.UUID
	KnowledgeBaseId uuid.UUID
	DocumentRef     string
	ChunkIndex      int
	Content         string
	Embedding       []float32
	Metadata        map[string]interface{}
	CreatedAt       time.Time
}
