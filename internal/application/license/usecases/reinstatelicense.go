package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type ReinstateLicenseCommand struct {
	LicenseID uint
}

type ReinstateLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewReinstateLicenseUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *ReinstateLicenseUseCase {
	return &ReinstateLicenseUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

func (uc *ReinstateLicenseUseCase) Execute(ctx context.Context, cmd ReinstateLicenseCommand) (*dto.LicenseDTO, error) {
	lic, err := uc.licenseRepo.GetByID(ctx, cmd.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	if err := lic.Reinstate(); err != nil {
		if stderrors.Is(err, license.ErrLicenseBlacklisted) {
			return nil, errors.NewRejectionError(errors.CodeLicenseBlacklisted,
				"blacklisted licenses cannot be reinstated")
		}
		return nil, fmt.Errorf("failed to reinstate license: %w", err)
	}

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to update license: %w", err)
	}

	uc.logger.Infow("license reinstated", "license_id", cmd.LicenseID)
	return dto.ToLicenseDTO(lic), nil
}
