package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type AdminReleaseCommand struct {
	LicenseID uint
	Reason    string
}

// AdminReleaseUseCase clears a binding without a hardware check. The reason
// is mandatory and the previous binding is returned for audit display.
type AdminReleaseUseCase struct {
	licenseRepo license.LicenseRepository
	historyRepo license.BindingHistoryRepository
	logger      logger.Interface
}

func NewAdminReleaseUseCase(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	logger logger.Interface,
) *AdminReleaseUseCase {
	return &AdminReleaseUseCase{
		licenseRepo: licenseRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func (uc *AdminReleaseUseCase) Execute(ctx context.Context, cmd AdminReleaseCommand) (*dto.BindingDTO, error) {
	if cmd.Reason == "" {
		return nil, errors.NewValidationError("release reason is required")
	}

	lic, err := uc.licenseRepo.GetByID(ctx, cmd.LicenseID)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	previous := lic.ClearBinding()
	if previous == nil {
		return nil, errors.NewConflictError(errors.CodeNotBound, "license is not bound to any device")
	}

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, fmt.Errorf("failed to update license: %w", err)
	}

	reason := cmd.Reason
	entry, err := license.NewBindingHistoryEntry(lic.ID(), license.ActionAdminRelease,
		previous.HardwareID, previous.DeviceName, previous.DeviceInfo, license.ActorAdmin, &reason)
	if err == nil {
		if err := uc.historyRepo.Create(ctx, entry); err != nil {
			uc.logger.Warnw("failed to record binding history", "error", err, "license_id", lic.ID())
		}
	}

	uc.logger.Infow("license binding released by admin",
		"license_id", cmd.LicenseID,
		"reason", cmd.Reason,
	)

	return dto.ToBindingDTO(previous), nil
}
