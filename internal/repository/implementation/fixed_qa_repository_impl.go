package implementation

import (
	"context"
	"errors"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/mapper"
	"ai-qa-platform-be/internal/model"
	"ai-qa-platform-be/internal/repository/contract"
	"ai-qa-platform-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type FixedQARepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.FixedQAMapper
}

func NewFixedQARepository(db *gorm.DB) contract.FixedQARepository {
	return &FixedQARepositoryImpl{
		db:     db,
		mapper: mapper.NewFixedQAMapper(),
	}
}

func (r *FixedQARepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *FixedQARepositoryImpl) Create(ctx context.Context, entry *entity.FixedQA) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *FixedQARepositoryImpl) Update(ctx context.Context, entry *entity.FixedQA) error {
	m := r.mapper.ToModel(entry)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*entry = *r.mapper.ToEntity(m)
	return nil
}

func (r *FixedQARepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.FixedQA{}, id).Error
}

func (r *FixedQARepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.FixedQA, error) {
	var m model.FixedQA
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *FixedQARepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.FixedQA, error) {
	var models []*model.FixedQA
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *FixedQARepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	err := query.Model(&model.FixedQA{}).Count(&count).Error
	return count, err
}

func (r *FixedQARepositoryImpl) FindActiveByApplication(ctx context.Context, applicationId uuid.UUID) ([]*entity.FixedQA, error) {
	var models []*model.FixedQA
	err := r.db.WithContext(ctx).
		Where("application_id = ?", applicationId).
		Where("is_active = ?", true).
		Order("priority DESC, updated_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(models), nil
}

func (r *FixedQARepositoryImpl) SetEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	return r.db.WithContext(ctx).
		Model(&model.FixedQA{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"embedding":       pgvector.NewVector(embedding),
			"embedding_stale": false,
		}).Error
}
