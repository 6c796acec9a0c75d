package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type RevokeLicenseCommand struct {
	LicenseID       uint
	GracePeriodDays int
	Reason          string
	Message         *string
}

type RevokeLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewRevokeLicenseUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *RevokeLicenseUseCase {
	return &RevokeLicenseUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

func (uc *RevokeLicenseUseCase) Execute(ctx context.Context, cmd RevokeLicenseCommand) (*dto.LicenseDTO, error) {
	lic, err := uc.licenseRepo.GetByID(ctx, cmd.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	if err := lic.Revoke(cmd.GracePeriodDays, cmd.Reason, cmd.Message); err != nil {
		uc.logger.Errorw("failed to revoke license", "error", err, "license_id", cmd.LicenseID)
		return nil, fmt.Errorf("failed to revoke license: %w", err)
	}

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to update license: %w", err)
	}

	uc.logger.Infow("license revoked",
		"license_id", cmd.LicenseID,
		"grace_period_days", cmd.GracePeriodDays,
		"reason", cmd.Reason,
		"status", lic.Status().String(),
	)

	return dto.ToLicenseDTO(lic), nil
}
