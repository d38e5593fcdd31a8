package contract

import (
	"context"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/resolve/retrieval"

	"github.com/google/uuid"
)

type KnowledgeBaseRepository interface {
	Create(ctx context.Context, kb *entity.KnowledgeBase) error
	Update(ctx context.Context, kb *entity.KnowledgeBase) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.KnowledgeBase, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeBase, error)
	// FindActiveIdsByApplication returns the id set retrieval is scoped to.
	FindActiveIdsByApplication(ctx context.Context, applicationId uuid.UUID) ([]uuid.UUID, error)
}

type KnowledgeChunkRepository interface {
	Create(ctx context.Context, chunk *entity.KnowledgeChunk) error
	CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error
	DeleteByDocumentRef(ctx context.Context, knowledgeBaseId uuid.UUID, documentRef string) error
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error)
	// SearchSimilarWithScore runs cosine similarity search across the given
	// knowledge bases. Satisfies retrieval.VectorSearcher.
	SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]retrieval.ScoredChunk, error)
}
