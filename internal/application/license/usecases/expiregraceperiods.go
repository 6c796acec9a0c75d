package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// ExpireGracePeriodsUseCase is the background sweep that revokes suspended
// licenses whose grace deadline passed. Idempotent: a second concurrent run
// simply finds no matching rows.
type ExpireGracePeriodsUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewExpireGracePeriodsUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *ExpireGracePeriodsUseCase {
	return &ExpireGracePeriodsUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

// Execute returns the number of licenses revoked.
func (uc *ExpireGracePeriodsUseCase) Execute(ctx context.Context) (int, error) {
	expired, err := uc.licenseRepo.FindSuspendedWithGraceExpired(ctx, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to find grace-expired licenses: %w", err)
	}

	if len(expired) == 0 {
		return 0, nil
	}

	uc.logger.Infow("found grace-expired licenses to process", "count", len(expired))

	revokedCount := 0
	for _, lic := range expired {
		changed, err := lic.ExpireGracePeriod()
		if err != nil {
			uc.logger.Warnw("failed to expire grace period",
				"license_id", lic.ID(),
				"error", err,
			)
			continue
		}
		if !changed {
			continue
		}

		if err := uc.licenseRepo.Update(ctx, lic); err != nil {
			uc.logger.Errorw("failed to update revoked license",
				"license_id", lic.ID(),
				"error", err,
			)
			continue
		}

		revokedCount++
		uc.logger.Debugw("license revoked after grace period", "license_id", lic.ID())
	}

	return revokedCount, nil
}
