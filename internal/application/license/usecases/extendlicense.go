package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type ExtendLicenseCommand struct {
	LicenseID    uint
	NewExpiresAt time.Time
}

type ExtendLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewExtendLicenseUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *ExtendLicenseUseCase {
	return &ExtendLicenseUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

func (uc *ExtendLicenseUseCase) Execute(ctx context.Context, cmd ExtendLicenseCommand) (*dto.LicenseDTO, error) {
	lic, err := uc.licenseRepo.GetByID(ctx, cmd.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	if err := lic.Extend(cmd.NewExpiresAt); err != nil {
		return nil, errors.NewValidationError("cannot extend license", err.Error())
	}

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to update license: %w", err)
	}

	uc.logger.Infow("license extended",
		"license_id", cmd.LicenseID,
		"expires_at", cmd.NewExpiresAt,
	)

	return dto.ToLicenseDTO(lic), nil
}
