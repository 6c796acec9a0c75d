package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
)

type LicenseMapper interface {
	ToEntity(model *models.LicenseModel) (*license.License, error)
	ToModel(entity *license.License) (*models.LicenseModel, error)
	ToEntities(models []*models.LicenseModel) ([]*license.License, error)
}

type LicenseMapperImpl struct{}

func NewLicenseMapper() LicenseMapper {
	return &LicenseMapperImpl{}
}

func (m *LicenseMapperImpl) ToEntity(model *models.LicenseModel) (*license.License, error) {
	if model == nil {
		return nil, nil
	}

	status := vo.LicenseStatus(model.Status)
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid license status: %s", model.Status)
	}

	var hardwareID *vo.HardwareID
	if model.HardwareID != nil {
		hw, err := vo.NewHardwareID(*model.HardwareID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse hardware ID: %w", err)
		}
		hardwareID = &hw
	}

	var features []string
	if model.Features != nil {
		if err := json.Unmarshal(model.Features, &features); err != nil {
			return nil, fmt.Errorf("failed to unmarshal features: %w", err)
		}
	}

	var metadata map[string]interface{}
	if model.Metadata != nil {
		if err := json.Unmarshal(model.Metadata, &metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}

	entity, err := license.ReconstructLicense(license.ReconstructParams{
		ID:                  model.ID,
		Key:                 model.Key,
		OrganizationID:      model.OrganizationID,
		Tier:                model.Tier,
		Features:            features,
		HardwareID:          hardwareID,
		DeviceName:          model.DeviceName,
		DeviceInfo:          model.DeviceInfo,
		BoundAt:             model.BoundAt,
		Status:              status,
		IsBlacklisted:       model.IsBlacklisted,
		SuspendedAt:         model.SuspendedAt,
		RevokedAt:           model.RevokedAt,
		GracePeriodEndsAt:   model.GracePeriodEndsAt,
		RevokeReason:        model.RevokeReason,
		SuspensionMessage:   model.SuspensionMessage,
		IssuedAt:            model.IssuedAt,
		ExpiresAt:           model.ExpiresAt,
		LastSeenAt:          model.LastSeenAt,
		BandwidthUsedBytes:  model.BandwidthUsedBytes,
		BandwidthLimitBytes: model.BandwidthLimitBytes,
		QuotaExceeded:       model.QuotaExceeded,
		Metadata:            metadata,
		Version:             model.Version,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct license entity: %w", err)
	}

	return entity, nil
}

func (m *LicenseMapperImpl) ToModel(entity *license.License) (*models.LicenseModel, error) {
	if entity == nil {
		return nil, nil
	}

	featuresJSON, err := json.Marshal(entity.Features())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal features: %w", err)
	}

	var metadataJSON datatypes.JSON
	if metadata := entity.Metadata(); len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadataJSON = data
	}

	var hardwareID *string
	if hw := entity.HardwareID(); hw != nil {
		s := hw.String()
		hardwareID = &s
	}

	return &models.LicenseModel{
		ID:                  entity.ID(),
		Key:                 entity.Key(),
		OrganizationID:      entity.OrganizationID(),
		Tier:                entity.Tier(),
		Features:            featuresJSON,
		HardwareID:          hardwareID,
		DeviceName:          entity.DeviceName(),
		DeviceInfo:          entity.DeviceInfo(),
		BoundAt:             entity.BoundAt(),
		Status:              entity.Status().String(),
		IsBlacklisted:       entity.IsBlacklisted(),
		SuspendedAt:         entity.SuspendedAt(),
		RevokedAt:           entity.RevokedAt(),
		GracePeriodEndsAt:   entity.GracePeriodEndsAt(),
		RevokeReason:        entity.RevokeReason(),
		SuspensionMessage:   entity.SuspensionMessage(),
		IssuedAt:            entity.IssuedAt(),
		ExpiresAt:           entity.ExpiresAt(),
		LastSeenAt:          entity.LastSeenAt(),
		BandwidthUsedBytes:  entity.BandwidthUsedBytes(),
		BandwidthLimitBytes: entity.BandwidthLimitBytes(),
		QuotaExceeded:       entity.QuotaExceeded(),
		Metadata:            metadataJSON,
		Version:             entity.Version(),
		CreatedAt:           entity.CreatedAt(),
		UpdatedAt:           entity.UpdatedAt(),
	}, nil
}

func (m *LicenseMapperImpl) ToEntities(licenseModels []*models.LicenseModel) ([]*license.License, error) {
	entities := make([]*license.License, 0, len(licenseModels))
	for _, model := range licenseModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}
