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

type ValidateLicenseCommand struct {
	LicenseKey string
	HardwareID string
}

type ValidateLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	config      Config
	logger      logger.Interface
}

func NewValidateLicenseUseCase(
	licenseRepo license.LicenseRepository,
	config Config,
	logger logger.Interface,
) *ValidateLicenseUseCase {
	return &ValidateLicenseUseCase{
		licenseRepo: licenseRepo,
		config:      config,
		logger:      logger,
	}
}

func (uc *ValidateLicenseUseCase) Execute(ctx context.Context, cmd ValidateLicenseCommand) (*dto.ValidationResultDTO, error) {
	_, result, err := uc.Decide(ctx, cmd)
	return result, err
}

// Decide runs the validation decision and also returns the license record for
// composing use cases (feature checks, heartbeat). Preconditions are checked
// in a fixed order, short-circuiting on the first failure, because each
// failure maps to a distinct user-actionable error.
func (uc *ValidateLicenseUseCase) Decide(ctx context.Context, cmd ValidateLicenseCommand) (*license.License, *dto.ValidationResultDTO, error) {
	if !licensekey.ValidateFormat(cmd.LicenseKey, uc.config.KeyFormat) {
		return nil, nil, errors.NewValidationError("invalid license key format")
	}
	hw, err := vo.NewHardwareID(cmd.HardwareID)
	if err != nil {
		return nil, nil, errors.NewValidationError("invalid hardware ID", err.Error())
	}

	lic, err := uc.licenseRepo.GetByKey(ctx, cmd.LicenseKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, nil, errors.NewNotFoundError("license not found")
	}

	if lic.IsBlacklisted() {
		return nil, nil, errors.NewRejectionError(errors.CodeLicenseBlacklisted, "license is blacklisted")
	}
	if lic.Status() == vo.StatusRevoked {
		detail := ""
		if reason := lic.RevokeReason(); reason != nil {
			detail = *reason
		}
		return nil, nil, errors.NewRejectionError(errors.CodeLicenseRevoked, "license has been revoked", detail)
	}
	if lic.IsExpired() {
		return nil, nil, errors.NewRejectionError(errors.CodeLicenseExpired, "license has expired")
	}

	var warning *string
	if lic.Status() == vo.StatusSuspended {
		if !lic.InGracePeriod() {
			// The grace sweep may lag; an expired grace period must not
			// widen access in the meantime.
			detail := ""
			if msg := lic.SuspensionMessage(); msg != nil {
				detail = *msg
			}
			return nil, nil, errors.NewRejectionError(errors.CodeLicenseSuspended, "license is suspended", detail)
		}
		w := fmt.Sprintf("license is suspended; access ends at %s", lic.GracePeriodEndsAt().Format(time.RFC3339))
		if msg := lic.SuspensionMessage(); msg != nil {
			w = fmt.Sprintf("%s: %s", w, *msg)
		}
		warning = &w
	}

	if !lic.IsBound() {
		return nil, nil, errors.NewConflictError(errors.CodeNotBound, "license is not bound to any device")
	}
	if !lic.IsBoundTo(hw) {
		detail := ""
		if name := lic.DeviceName(); name != nil {
			detail = fmt.Sprintf("bound to %s", *name)
		}
		return nil, nil, errors.NewConflictError(errors.CodeHardwareMismatch, "license is bound to a different device", detail)
	}

	lic.TouchLastSeen()
	if err := uc.licenseRepo.Update(ctx, lic); err != nil {
		return nil, nil, fmt.Errorf("failed to update license: %w", err)
	}

	now := time.Now()
	result := &dto.ValidationResultDTO{
		Valid:             true,
		Features:          uc.config.EffectiveFeatures(lic),
		Tier:              lic.Tier(),
		ExpiresAt:         lic.ExpiresAt(),
		GracePeriodEndsAt: uc.offlineDeadline(lic, now),
		Warning:           warning,
		ValidatedAt:       now,
	}

	uc.logger.Debugw("license validated",
		"license_id", lic.ID(),
		"status", lic.Status().String(),
		"in_grace", warning != nil,
	)

	return lic, result, nil
}

// offlineDeadline computes the server-issued deadline embedded in the client
// cache. A suspended license carries its suspension grace deadline; an active
// license gets a fresh offline window, capped at its expiry.
func (uc *ValidateLicenseUseCase) offlineDeadline(lic *license.License, now time.Time) *time.Time {
	if lic.Status() == vo.StatusSuspended {
		return lic.GracePeriodEndsAt()
	}

	hours := uc.config.OfflineGraceHours
	if hours <= 0 {
		return nil
	}
	deadline := now.Add(time.Duration(hours) * time.Hour)
	if exp := lic.ExpiresAt(); exp != nil && exp.Before(deadline) {
		deadline = *exp
	}
	return &deadline
}
