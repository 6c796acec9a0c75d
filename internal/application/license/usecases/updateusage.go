package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type UpdateUsageCommand struct {
	LicenseID uint
	UsedBytes uint64

	// LimitBytes replaces the stored limit when set; nil keeps it unchanged.
	LimitBytes *uint64
}

type UpdateUsageUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewUpdateUsageUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *UpdateUsageUseCase {
	return &UpdateUsageUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

func (uc *UpdateUsageUseCase) Execute(ctx context.Context, cmd UpdateUsageCommand) (*dto.LicenseDTO, error) {
	lic, err := uc.licenseRepo.GetByID(ctx, cmd.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	limit := lic.BandwidthLimitBytes()
	if cmd.LimitBytes != nil {
		limit = cmd.LimitBytes
	}
	wasExceeded := lic.QuotaExceeded()
	lic.UpdateUsage(cmd.UsedBytes, limit)

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to update license: %w", err)
	}

	if lic.QuotaExceeded() != wasExceeded {
		uc.logger.Infow("license quota flag changed",
			"license_id", cmd.LicenseID,
			"quota_exceeded", lic.QuotaExceeded(),
			"usage_percentage", lic.UsagePercentage(),
		)
	}

	return dto.ToLicenseDTO(lic), nil
}
