package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/mappers"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// allowedLicenseSortByFields defines the whitelist of allowed ORDER BY fields
// to prevent SQL injection attacks.
var allowedLicenseSortByFields = map[string]bool{
	"id":           true,
	"key":          true,
	"status":       true,
	"tier":         true,
	"issued_at":    true,
	"expires_at":   true,
	"last_seen_at": true,
	"created_at":   true,
	"updated_at":   true,
}

type LicenseRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.LicenseMapper
	logger logger.Interface
}

func NewLicenseRepository(
	db *gorm.DB,
	logger logger.Interface,
) license.LicenseRepository {
	return &LicenseRepositoryImpl{
		db:     db,
		mapper: mappers.NewLicenseMapper(),
		logger: logger,
	}
}

func (r *LicenseRepositoryImpl) Create(ctx context.Context, entity *license.License) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		r.logger.Errorw("failed to map license entity to model", "error", err)
		return fmt.Errorf("failed to map license entity: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		r.logger.Errorw("failed to create license in database", "error", err)
		return fmt.Errorf("failed to create license: %w", err)
	}

	if err := entity.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set license ID: %w", err)
	}

	return nil
}

func (r *LicenseRepositoryImpl) GetByID(ctx context.Context, id uint) (*license.License, error) {
	var model models.LicenseModel

	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get license by ID", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *LicenseRepositoryImpl) GetByKey(ctx context.Context, key string) (*license.License, error) {
	var model models.LicenseModel

	if err := r.db.WithContext(ctx).Where("`key` = ?", key).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get license by key", "error", err)
		return nil, fmt.Errorf("failed to get license: %w", err)
	}

	return r.mapper.ToEntity(&model)
}

func (r *LicenseRepositoryImpl) GetByOrganizationID(ctx context.Context, organizationID string) ([]*license.License, error) {
	var licenseModels []*models.LicenseModel

	if err := r.db.WithContext(ctx).
		Where("organization_id = ?", organizationID).
		Order("created_at DESC").
		Find(&licenseModels).Error; err != nil {
		r.logger.Errorw("failed to get licenses by organization", "organization_id", organizationID, "error", err)
		return nil, fmt.Errorf("failed to get licenses: %w", err)
	}

	return r.mapper.ToEntities(licenseModels)
}

func (r *LicenseRepositoryImpl) Update(ctx context.Context, entity *license.License) error {
	model, err := r.mapper.ToModel(entity)
	if err != nil {
		return fmt.Errorf("failed to map license entity: %w", err)
	}

	// Save writes all fields including NULLed binding and grace columns.
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		r.logger.Errorw("failed to update license", "id", entity.ID(), "error", err)
		return fmt.Errorf("failed to update license: %w", err)
	}

	return nil
}

func (r *LicenseRepositoryImpl) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.LicenseModel{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete license: %w", err)
	}
	return nil
}

func (r *LicenseRepositoryImpl) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LicenseModel{}).
		Where("`key` = ?", key).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check license key existence: %w", err)
	}
	return count > 0, nil
}

func (r *LicenseRepositoryImpl) List(ctx context.Context, filter license.LicenseFilter) ([]*license.License, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.LicenseModel{})

	if filter.OrganizationID != nil {
		query = query.Where("organization_id = ?", *filter.OrganizationID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Tier != nil {
		query = query.Where("tier = ?", *filter.Tier)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count licenses: %w", err)
	}

	sortBy := "created_at"
	if filter.SortBy != "" && allowedLicenseSortByFields[filter.SortBy] {
		sortBy = filter.SortBy
	}
	order := sortBy
	if filter.SortDesc {
		order += " DESC"
	}
	query = query.Order(order)

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var licenseModels []*models.LicenseModel
	if err := query.Find(&licenseModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list licenses: %w", err)
	}

	entities, err := r.mapper.ToEntities(licenseModels)
	if err != nil {
		return nil, 0, err
	}
	return entities, total, nil
}

// ClaimBinding performs the conditional single-row UPDATE that enforces the
// at-most-one-binding invariant without any in-process locking: the
// hardware_id IS NULL guard makes concurrent claims resolve to one winner at
// the database's row-level atomicity.
func (r *LicenseRepositoryImpl) ClaimBinding(ctx context.Context, licenseID uint, hw vo.HardwareID, deviceName, deviceInfo *string, boundAt time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LicenseModel{}).
		Where("id = ? AND hardware_id IS NULL", licenseID).
		Updates(map[string]interface{}{
			"hardware_id": hw.String(),
			"device_name": deviceName,
			"device_info": deviceInfo,
			"bound_at":    boundAt,
			"updated_at":  boundAt,
			"version":     gorm.Expr("version + 1"),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to claim binding", "license_id", licenseID, "error", result.Error)
		return false, fmt.Errorf("failed to claim binding: %w", result.Error)
	}

	return result.RowsAffected == 1, nil
}

func (r *LicenseRepositoryImpl) FindSuspendedWithGraceExpired(ctx context.Context, now time.Time) ([]*license.License, error) {
	var licenseModels []*models.LicenseModel

	if err := r.db.WithContext(ctx).
		Where("status = ? AND grace_period_ends_at < ?", vo.StatusSuspended.String(), now).
		Find(&licenseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find grace-expired licenses: %w", err)
	}

	return r.mapper.ToEntities(licenseModels)
}

func (r *LicenseRepositoryImpl) FindActiveExpired(ctx context.Context, now time.Time) ([]*license.License, error) {
	var licenseModels []*models.LicenseModel

	if err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at < ?", vo.StatusActive.String(), now).
		Find(&licenseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find expired licenses: %w", err)
	}

	return r.mapper.ToEntities(licenseModels)
}

func (r *LicenseRepositoryImpl) FindBoundNotSeenSince(ctx context.Context, cutoff time.Time) ([]*license.License, error) {
	var licenseModels []*models.LicenseModel

	if err := r.db.WithContext(ctx).
		Where("hardware_id IS NOT NULL AND last_seen_at < ?", cutoff).
		Find(&licenseModels).Error; err != nil {
		return nil, fmt.Errorf("failed to find stale devices: %w", err)
	}

	return r.mapper.ToEntities(licenseModels)
}
