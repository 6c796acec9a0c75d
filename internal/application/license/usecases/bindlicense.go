package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/licensekey"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type BindLicenseCommand struct {
	LicenseKey string
	HardwareID string
	DeviceName *string
	DeviceInfo *string
}

type BindLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	historyRepo license.BindingHistoryRepository
	config      Config
	logger      logger.Interface
}

func NewBindLicenseUseCase(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	config Config,
	logger logger.Interface,
) *BindLicenseUseCase {
	return &BindLicenseUseCase{
		licenseRepo: licenseRepo,
		historyRepo: historyRepo,
		config:      config,
		logger:      logger,
	}
}

func (uc *BindLicenseUseCase) Execute(ctx context.Context, cmd BindLicenseCommand) (*dto.BindResultDTO, error) {
	if !licensekey.ValidateFormat(cmd.LicenseKey, uc.config.KeyFormat) {
		return nil, errors.NewValidationError("invalid license key format")
	}
	hw, err := vo.NewHardwareID(cmd.HardwareID)
	if err != nil {
		return nil, errors.NewValidationError("invalid hardware ID", err.Error())
	}

	lic, err := uc.licenseRepo.GetByKey(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	if err := uc.checkBindable(lic); err != nil {
		return nil, err
	}

	if lic.IsBoundTo(hw) {
		// Idempotent re-bind: state is unchanged but the audit trail still
		// records the attempt.
		uc.recordHistory(ctx, lic.ID(), license.ActionBind, hw, cmd.DeviceName, cmd.DeviceInfo)
		return &dto.BindResultDTO{Bound: true, AlreadyWas: true, BoundAt: *lic.BoundAt()}, nil
	}
	if lic.IsBound() {
		return nil, uc.alreadyBoundError(lic)
	}

	boundAt := time.Now()
	claimed, err := uc.licenseRepo.ClaimBinding(ctx, lic.ID(), hw, cmd.DeviceName, cmd.DeviceInfo, boundAt)
	if err != nil {
		return nil, fmt.Errorf("failed to claim binding: %w", err)
	}
	if !claimed {
		// Lost the race: re-read and report the winner's state.
		current, err := uc.licenseRepo.GetByID(ctx, lic.ID())
		if err != nil {
			return nil, fmt.Errorf("failed to get license: %w", err)
		}
		if current != nil && current.IsBoundTo(hw) {
			uc.recordHistory(ctx, current.ID(), license.ActionBind, hw, cmd.DeviceName, cmd.DeviceInfo)
			return &dto.BindResultDTO{Bound: true, AlreadyWas: true, BoundAt: *current.BoundAt()}, nil
		}
		return nil, uc.alreadyBoundError(current)
	}

	uc.recordHistory(ctx, lic.ID(), license.ActionBind, hw, cmd.DeviceName, cmd.DeviceInfo)

	uc.logger.Infow("license bound",
		"license_id", lic.ID(),
		"device_name", cmd.DeviceName,
	)

	return &dto.BindResultDTO{Bound: true, BoundAt: boundAt}, nil
}

func (uc *BindLicenseUseCase) checkBindable(lic *license.License) error {
	if lic.IsBlacklisted() {
		return errors.NewRejectionError(errors.CodeLicenseBlacklisted, "license is blacklisted")
	}
	if lic.Status() == vo.StatusRevoked {
		return errors.NewRejectionError(errors.CodeLicenseRevoked, "license has been revoked")
	}
	if lic.IsExpired() {
		return errors.NewRejectionError(errors.CodeLicenseExpired, "license has expired")
	}
	if lic.Status() == vo.StatusSuspended && !lic.InGracePeriod() {
		return errors.NewRejectionError(errors.CodeLicenseSuspended, "license is suspended")
	}
	return nil
}

func (uc *BindLicenseUseCase) alreadyBoundError(lic *license.License) error {
	detail := ""
	if lic != nil {
		if name := lic.DeviceName(); name != nil {
			detail = fmt.Sprintf("bound to %s", *name)
		}
	}
	return errors.NewConflictError(errors.CodeAlreadyBound, "license is already bound to another device", detail)
}

func (uc *BindLicenseUseCase) recordHistory(ctx context.Context, licenseID uint, action license.BindingAction, hw vo.HardwareID, deviceName, deviceInfo *string) {
	entry, err := license.NewBindingHistoryEntry(licenseID, action, hw, deviceName, deviceInfo, license.ActorClient, nil)
	if err != nil {
		uc.logger.Warnw("failed to build binding history entry", "error", err, "license_id", licenseID)
		return
	}
	if err := uc.historyRepo.Create(ctx, entry); err != nil {
		uc.logger.Warnw("failed to record binding history", "error", err, "license_id", licenseID)
	}
}
