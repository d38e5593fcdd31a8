package specification

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ByID filters by ID
type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByApplicationId filters rows belonging to one application
type ByApplicationId struct {
	ApplicationId uuid.UUID
}

func (s ByApplicationId) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("application_id = ?", s.ApplicationId)
}

// ActiveOnly keeps rows with is_active = true
type ActiveOnly struct{}

func (s ActiveOnly) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}

// StaleEmbedding keeps rows whose embedding needs recomputation
type StaleEmbedding struct{}

func (s StaleEmbedding) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("embedding_stale = ?", true)
}

// OrderBy applies ordering
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	direction := "ASC"
	if s.Desc {
		direction = "DESC"
	}
	return db.Order(fmt.Sprintf("%s %s", s.Field, direction))
}

// Limit caps the result set
type Limit struct {
	N int
}

func (s Limit) Apply(db *gorm.DB) *gorm.DB {
	return db.Limit(s.N)
}
