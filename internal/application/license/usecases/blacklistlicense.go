package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type BlacklistLicenseCommand struct {
	LicenseID uint
	Reason    string
}

// BlacklistLicenseUseCase permanently bans a license. The ban forces revoked
// status, clears any binding, and survives every reinstate attempt.
type BlacklistLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	historyRepo license.BindingHistoryRepository
	logger      logger.Interface
}

func NewBlacklistLicenseUseCase(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	logger logger.Interface,
) *BlacklistLicenseUseCase {
	return &BlacklistLicenseUseCase{
		licenseRepo: licenseRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func (uc *BlacklistLicenseUseCase) Execute(ctx context.Context, cmd BlacklistLicenseCommand) (*dto.LicenseDTO, error) {
	if cmd.Reason == "" {
		return nil, errors.NewValidationError("blacklist reason is required")
	}

	lic, err := uc.licenseRepo.GetByID(ctx, cmd.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	previous, err := lic.Blacklist(cmd.Reason)
	if err != nil {
		return nil, fmt.Errorf("failed to blacklist license: %w", err)
	}

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to update license: %w", err)
	}

	if previous != nil {
		reason := cmd.Reason
		entry, err := license.NewBindingHistoryEntry(lic.ID(), license.ActionAdminRelease,
			previous.HardwareID, previous.DeviceName, previous.DeviceInfo, license.ActorAdmin, &reason)
		if err == nil {
			if err := uc.historyRepo.Create(ctx, entry); err != nil {
				uc.logger.Warnw("failed to record binding history", "error", err, "license_id", lic.ID())
			}
		}
	}

	uc.logger.Warnw("license blacklisted",
		"license_id", cmd.LicenseID,
		"reason", cmd.Reason,
		"had_binding", previous != nil,
	)

	return dto.ToLicenseDTO(lic), nil
}
