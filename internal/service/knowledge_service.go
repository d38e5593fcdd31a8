package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-qa-platform-be/internal/dto"
	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/pkg/logger"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/embedding"
	"ai-qa-platform-be/pkg/utils"

	"github.com/google/uuid"
)

var ErrKnowledgeBaseNotFound = errors.New("knowledge base not found")

// Chunking sizes, character based. 1500 chars keeps chunks comfortably
// inside the embedding model's context.
const (
	chunkSize    = 1500
	chunkOverlap = 200
)

type IKnowledgeService interface {
	CreateKnowledgeBase(ctx context.Context, req *dto.CreateKnowledgeBaseRequest) (*dto.CreateKnowledgeBaseResponse, error)
	IngestDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
}

type knowledgeService struct {
	knowledgeBaseRepository  contract.KnowledgeBaseRepository
	knowledgeChunkRepository contract.KnowledgeChunkRepository
	embeddingProvider        embedding.EmbeddingProvider
	logger                   logger.ILogger
}

func NewKnowledgeService(
	knowledgeBaseRepository contract.KnowledgeBaseRepository,
	knowledgeChunkRepository contract.KnowledgeChunkRepository,
	embeddingProvider embedding.EmbeddingProvider,
	log logger.ILogger,
) IKnowledgeService {
	return &knowledgeService{
		knowledgeBaseRepository:  knowledgeBaseRepository,
		knowledgeChunkRepository: knowledgeChunkRepository,
		embeddingProvider:        embeddingProvider,
		logger:                   log,
	}
}

func (s *knowledgeService) CreateKnowledgeBase(ctx context.Context, req *dto.CreateKnowledgeBaseRequest) (*dto.CreateKnowledgeBaseResponse, error) {
	id := uuid.New()
	kb := entity.KnowledgeBase{
		Id:             id,
		ApplicationId:  req.ApplicationId,
		Name:           req.Name,
		CollectionName: fmt.Sprintf("kb_%s", strings.ReplaceAll(id.String(), "-", "")),
		IsActive:       true,
		CreatedAt:      time.Now(),
	}

	if err := s.knowledgeBaseRepository.Create(ctx, &kb); err != nil {
		return nil, err
	}

	return &dto.CreateKnowledgeBaseResponse{
		Id:             kb.Id,
		CollectionName: kb.CollectionName,
	}, nil
}

// IngestDocument replaces a document's chunks: existing chunks under the same
// document_ref are dropped so re-ingestion never duplicates.
func (s *knowledgeService) IngestDocument(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	kb, err := s.knowledgeBaseRepository.FindOne(ctx, specification.ByID{ID: req.KnowledgeBaseId})
	if err != nil {
		return nil, err
	}
	if kb == nil {
		return nil, ErrKnowledgeBaseNotFound
	}

	if err := s.knowledgeChunkRepository.DeleteByDocumentRef(ctx, kb.Id, req.DocumentRef); err != nil {
		return nil, err
	}

	pieces := utils.SplitText(req.Content, chunkSize, chunkOverlap)

	chunks := make([]*entity.KnowledgeChunk, 0, len(pieces))
	for i, piece := range pieces {
		res, err := s.embeddingProvider.Generate(ctx, piece, embedding.TaskRetrievalDocument)
		if err != nil {
			return nil, fmt.Errorf("embedding chunk %d of %s: %w", i, req.DocumentRef, err)
		}
		chunks = append(chunks, &entity.KnowledgeChunk{
			Id:              uuid.New(),
			KnowledgeBaseId: kb.Id,
			DocumentRef:     req.DocumentRef,
			ChunkIndex:      i,
			Content:         piece,
			Embedding:       res.Embedding.Values,
			CreatedAt:       time.Now(),
		})
	}

	if err := s.knowledgeChunkRepository.CreateBulk(ctx, chunks); err != nil {
		return nil, err
	}

	s.logger.Info("knowledge", "document ingested", map[string]interface{}{
		"knowledge_base_id": kb.Id.String(),
		"document_ref":      req.DocumentRef,
		"chunks":            len(chunks),
	})

	return &dto.IngestDocumentResponse{Chunks: len(chunks)}, nil
}
