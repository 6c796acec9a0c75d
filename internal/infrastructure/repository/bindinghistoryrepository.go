package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/mappers"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type BindingHistoryRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.BindingHistoryMapper
	logger logger.Interface
}

func NewBindingHistoryRepository(
	db *gorm.DB,
	logger logger.Interface,
) license.BindingHistoryRepository {
	return &BindingHistoryRepositoryImpl{
		db:     db,
		mapper: mappers.NewBindingHistoryMapper(),
		logger: logger,
	}
}

func (r *BindingHistoryRepositoryImpl) Create(ctx context.Context, entry *license.BindingHistoryEntry) error {
	model := r.mapper.ToModel(entry)

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create binding history entry", "license_id", entry.LicenseID(), "error", err)
		return fmt.Errorf("failed to create binding history entry: %w", err)
	}

	if err := entry.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set history ID: %w", err)
	}

	return nil
}

func (r *BindingHistoryRepositoryImpl) GetByLicenseID(ctx context.Context, licenseID uint, limit int) ([]*license.BindingHistoryEntry, error) {
	var historyModels []*models.BindingHistoryModel

	query := r.db.WithContext(ctx).
		Where("license_id = ?", licenseID).
		Order("created_at DESC, id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	if err := query.Find(&historyModels).Error; err != nil {
		return nil, fmt.Errorf("failed to get binding history: %w", err)
	}

	return r.mapper.ToEntities(historyModels)
}
