package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// ExpireLicensesUseCase is the background sweep that flips active licenses
// past their expiry to expired. Validation checks expiry on its own, so this
// job exists for data consistency in listings and reports.
type ExpireLicensesUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewExpireLicensesUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *ExpireLicensesUseCase {
	return &ExpireLicensesUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

// Execute returns the number of licenses marked as expired.
func (uc *ExpireLicensesUseCase) Execute(ctx context.Context) (int, error) {
	expired, err := uc.licenseRepo.FindActiveExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to find expired licenses: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found expired licenses to process", "count", len(expired))

	markedCount := 0
	for _, lic := range expired {
		changed, err := lic.MarkExpired()
		if err != nil {
			uc.logger.Warnw("failed to mark license as expired",
				"license_id", lic.ID(),
				"current_status", lic.Status().String(),
				"error", err,
			)
			continue
		}
		if !changed {
			continue
		}

		if err := uc.licenseRepo.Update(ctx, lic); err != nil {
			uc.logger.Errorw("failed to update expired license",
				"license_id", lic.ID(),
				"error", err,
			)
			continue
		}

		markedCount++
		uc.logger.Debugw("license marked as expired", "license_id", lic.ID())
	}

	return markedCount, nil
}
