package dto

import (
	"github.com/google/uuid"
)

type CreateKnowledgeBaseRequest struct {
	ApplicationId uuid.UUID `json:"application_id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
}

type CreateKnowledgeBaseResponse struct {
	Id             uuid.UUID `json:"id"`
	CollectionName string    `json:"collection_name"`
}

type IngestDocumentRequest struct {
	KnowledgeBaseId uuid.UUID `json:"knowledge_base_id" validate:"required"`
	DocumentRef     string    `json:"document_ref" validate:"required"`
	Content         string    `json:"content" validate:"required"`
}

type IngestDocumentResponse struct {
	Chunks int `json:"chunks"`
}
