package usecases

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/licensekey"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type ReleaseLicenseCommand struct {
	LicenseKey string
	HardwareID string
}

type ReleaseLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	historyRepo license.BindingHistoryRepository
	config      Config
	logger      logger.Interface
}

func NewReleaseLicenseUseCase(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	config Config,
	logger logger.Interface,
) *ReleaseLicenseUseCase {
	return &ReleaseLicenseUseCase{
		licenseRepo: licenseRepo,
		historyRepo: historyRepo,
		config:      config,
		logger:      logger,
	}
}

func (uc *ReleaseLicenseUseCase) Execute(ctx context.Context, cmd ReleaseLicenseCommand) error {
	if !licensekey.ValidateFormat(cmd.LicenseKey, uc.config.KeyFormat) {
		return errors.NewValidationError("invalid license key format")
	}
	hw, err := vo.NewHardwareID(cmd.HardwareID)
	if err != nil {
		return errors.NewValidationError("invalid hardware ID", err.Error())
	}

	lic, err := uc.licenseRepo.GetByKey(ctx, cmd.LicenseKey)
	if err != nil {
		return fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return errors.NewNotFoundError("license not found")
	}

	deviceName := lic.DeviceName()
	deviceInfo := lic.DeviceInfo()

	if err := lic.Release(hw); err != nil {
		switch {
		case stderrors.Is(err, license.ErrNotBound):
			return errors.NewConflictError(errors.CodeNotBound, "license is not bound to any device")
		case stderrors.Is(err, license.ErrHardwareMismatch):
			return errors.NewConflictError(errors.CodeHardwareMismatch, "license is bound to a different device")
		default:
			return fmt.Errorf("failed to release license: %w", err)
		}
	}

	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}

	entry, err := license.NewBindingHistoryEntry(lic.ID(), license.ActionRelease, hw, deviceName, deviceInfo, license.ActorClient, nil)
	if err == nil {
		if err := uc.historyRepo.Create(ctx, entry); err != nil {
			uc.logger.Warnw("failed to record binding history", "error", err, "license_id", lic.ID())
		}
	}

	uc.logger.Infow("license released", "license_id", lic.ID())
	return nil
}
