package mappers

import (
	"fmt"

	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
)

type BindingHistoryMapper interface {
	ToEntity(model *models.BindingHistoryModel) (*license.BindingHistoryEntry, error)
	ToModel(entity *license.BindingHistoryEntry) *models.BindingHistoryModel
	ToEntities(models []*models.BindingHistoryModel) ([]*license.BindingHistoryEntry, error)
}

type BindingHistoryMapperImpl struct{}

func NewBindingHistoryMapper() BindingHistoryMapper {
	return &BindingHistoryMapperImpl{}
}

func (m *BindingHistoryMapperImpl) ToEntity(model *models.BindingHistoryModel) (*license.BindingHistoryEntry, error) {
	if model == nil {
		return nil, nil
	}

	hw, err := vo.NewHardwareID(model.HardwareID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse hardware ID: %w", err)
	}

	entity, err := license.ReconstructBindingHistoryEntry(
		model.ID,
		model.LicenseID,
		license.BindingAction(model.Action),
		hw,
		model.DeviceName,
		model.DeviceInfo,
		license.PerformedBy(model.PerformedBy),
		model.Reason,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct binding history entry: %w", err)
	}

	return entity, nil
}

func (m *BindingHistoryMapperImpl) ToModel(entity *license.BindingHistoryEntry) *models.BindingHistoryModel {
	if entity == nil {
		return nil
	}

	return &models.BindingHistoryModel{
		ID:          entity.ID(),
		LicenseID:   entity.LicenseID(),
		Action:      string(entity.Action()),
		HardwareID:  entity.HardwareID().String(),
		DeviceName:  entity.DeviceName(),
		DeviceInfo:  entity.DeviceInfo(),
		PerformedBy: string(entity.PerformedBy()),
		Reason:      entity.Reason(),
		CreatedAt:   entity.CreatedAt(),
	}
}

func (m *BindingHistoryMapperImpl) ToEntities(historyModels []*models.BindingHistoryModel) ([]*license.BindingHistoryEntry, error) {
	entities := make([]*license.BindingHistoryEntry, 0, len(historyModels))
	for _, model := range historyModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
