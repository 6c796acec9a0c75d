package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// ReleaseStaleDevicesUseCase is the background sweep that frees bindings on
// licenses whose device has not checked in for the configured threshold.
// Every release is recorded in the audit trail as a system action.
type ReleaseStaleDevicesUseCase struct {
	licenseRepo license.LicenseRepository
	historyRepo license.BindingHistoryRepository
	config      Config
	logger      logger.Interface
}

func NewReleaseStaleDevicesUseCase(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	config Config,
	logger logger.Interface,
) *ReleaseStaleDevicesUseCase {
	return &ReleaseStaleDevicesUseCase{
		licenseRepo: licenseRepo,
		historyRepo: historyRepo,
		config:      config,
		logger:      logger,
	}
}

// Execute returns the number of bindings released.
func (uc *ReleaseStaleDevicesUseCase) Execute(ctx context.Context) (int, error) {
	days := uc.config.StaleDeviceDays
	if days <= 0 {
		days = 90
	}
	cutoff := time.Now().Add(-time.Duration(days) * 24 * time.Hour)

	stale, err := uc.licenseRepo.FindBoundNotSeenSince(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to find stale devices: %w", err)
	}

	if len(stale) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found stale device bindings to release",
		"count", len(stale),
		"threshold_days", days,
	)

	releasedCount := 0
	for _, lic := range stale {
		previous := lic.ClearBinding()
		if previous == nil {
			continue
		}

		if err := uc.licenseRepo.Update(ctx, lic); err != nil {
			uc.logger.Errorw("failed to update license after stale release",
				"license_id", lic.ID(),
				"error", err,
			)
			continue
		}

		reason := fmt.Sprintf("device inactive for more than %d days", days)
		entry, err := license.NewBindingHistoryEntry(lic.ID(), license.ActionSystemRelease,
			previous.HardwareID, previous.DeviceName, previous.DeviceInfo, license.ActorSystem, &reason)
		if err == nil {
			if err := uc.historyRepo.Create(ctx, entry); err != nil {
				uc.logger.Warnw("failed to record binding history", "error", err, "license_id", lic.ID())
			}
		}

		releasedCount++
		uc.logger.Debugw("stale device binding released",
			"license_id", lic.ID(),
			"device_name", previous.DeviceName,
		)
	}

	return releasedCount, nil
}
