package mapper

import (
	"encoding/json"

	"ai-qa-platform-be/internal/entity"
	"ai-qa-platform-be/internal/model"
	"ai-qa-platform-be/pkg/mode"

	"gorm.io/datatypes"
)

type ApplicationMapper struct{}

func NewApplicationMapper() *ApplicationMapper {
	return &ApplicationMapper{}
}

func (m *ApplicationMapper) ToEntity(a *model.Application) *entity.Application {
	if a == nil {
		return nil
	}

	// Stored overrides were validated at write time; a strict parse failure
	// here means hand-edited data, which falls back to the bare preset.
	var overrides *mode.Overrides
	if len(a.Overrides) > 0 {
		if o, err := mode.ParseOverrides(a.Overrides); err == nil {
			overrides = o
		}
	}

	return &entity.Application{
		Id:        a.Id,
		Name:      a.Name,
		Mode:      mode.Mode(a.Mode),
		Overrides: overrides,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *ApplicationMapper) ToModel(a *entity.Application) *model.Application {
	if a == nil {
		return nil
	}

	var overrides datatypes.JSON
	if a.Overrides != nil {
		if raw, err := json.Marshal(a.Overrides); err == nil {
			overrides = raw
		}
	}

	return &model.Application{
		Id:        a.Id,
		Name:      a.Name,
		Mode:      string(a.Mode),
		Overrides: overrides,
		IsActive:  a.IsActive,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func (m *ApplicationMapper) KnowledgeBaseToModel(kb *entity.KnowledgeBase) *model.KnowledgeBase {
	if kb == nil {
		return nil
	}
	return &model.KnowledgeBase{
		Id:             kb.Id,
		ApplicationId:  kb.ApplicationId,
		Name:           kb.Name,
		CollectionName: kb.CollectionName,
		IsActive:       kb.IsActive,
		CreatedAt:      kb.CreatedAt,
		UpdatedAt:      kb.UpdatedAt,
	}
}

func (m *ApplicationMapper) KnowledgeBaseToEntity(kb *model.KnowledgeBase) *entity.KnowledgeBase {
	if kb == nil {
		return nil
	}
	return &entity.KnowledgeBase{
		Id:             kb.Id,
		ApplicationId:  kb.ApplicationId,
		Name:           kb.Name,
		CollectionName: kb.CollectionName,
		IsActive:       kb.IsActive,
		CreatedAt:      kb.CreatedAt,
		UpdatedAt:      kb.UpdatedAt,
	}
}
