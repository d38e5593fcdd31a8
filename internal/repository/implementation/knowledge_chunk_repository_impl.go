package implementation

import (
	"context"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/mapper"
	"ai-qa-platform-be/internal/model"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"
	"ai-qa-platform-be/pkg/resolve/retrieval"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type KnowledgeChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.KnowledgeChunkMapper
}

func NewKnowledgeChunkRepository(db *gorm.DB) contract.KnowledgeChunkRepository {
	return &KnowledgeChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewKnowledgeChunkMapper(),
	}
}

func (r *KnowledgeChunkRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *KnowledgeChunkRepositoryImpl) Create(ctx context.Context, chunk *entity.KnowledgeChunk) error {
	m := r.mapper.ToModel(chunk)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*chunk = *r.mapper.ToEntity(m)
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.KnowledgeChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	models := make([]*model.KnowledgeChunk, len(chunks))
	for i, c := range chunks {
		models[i] = r.mapper.ToModel(c)
	}
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return err
	}
	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *KnowledgeChunkRepositoryImpl) DeleteByDocumentRef(ctx context.Context, knowledgeBaseId uuid.UUID, documentRef string) error {
	return r.db.WithContext(ctx).
		Where("knowledge_base_id = ?", knowledgeBaseId).
		Where("document_ref = ?", documentRef).
		Delete(&model.KnowledgeChunk{}).Error
}

func (r *KnowledgeChunkRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.KnowledgeChunk, error) {
	var models []*model.KnowledgeChunk
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	chunks := make([]*entity.KnowledgeChunk, len(models))
	for i, m := range models {
		chunks[i] = r.mapper.ToEntity(m)
	}
	return chunks, nil
}

// SearchSimilarWithScore runs the cosine similarity query across the given
// knowledge bases. pgvector's <=> operator is cosine distance, so similarity
// is 1 - distance.
func (r *KnowledgeChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, queryVec []float32, kbIds []uuid.UUID, k int) ([]retrieval.ScoredChunk, error) {
	if k <= 0 {
		k = 5
	}
	if len(kbIds) == 0 {
		return nil, nil
	}

	type result struct {
		model.KnowledgeChunk
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(queryVec)

	err := r.db.WithContext(ctx).
		Table("knowledge_chunks").
		Select("knowledge_chunks.*, 1 - (embedding <=> ?) as similarity", queryVector).
		Where("knowledge_base_id IN ?", kbIds).
		Where("deleted_at IS NULL").
		Order("similarity DESC").
		Limit(k).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}

	scored := make([]retrieval.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = retrieval.ScoredChunk{
			Chunk: r.mapper.ToEntity(&res.KnowledgeChunk),
			Score: res.Similarity,
		}
	}
	return scored, nil
}
