package usecases

import (
	"context"
	"fmt"
	"time"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/licensekey"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type CreateLicenseCommand struct {
	OrganizationID *string
	Tier           *string
	Features       []string
	ExpiresAt      *time.Time
	Metadata       map[string]interface{}

	// Count issues a batch of identical licenses; zero means one.
	Count int
}

type CreateLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	config      Config
	logger      logger.Interface
}

func NewCreateLicenseUseCase(
	licenseRepo license.LicenseRepository,
	config Config,
	logger logger.Interface,
) *CreateLicenseUseCase {
	return &CreateLicenseUseCase{
		licenseRepo: licenseRepo,
		config:      config,
		logger:      logger,
	}
}

func (uc *CreateLicenseUseCase) Execute(ctx context.Context, cmd CreateLicenseCommand) ([]*dto.LicenseDTO, error) {
	count := cmd.Count
	if count <= 0 {
		count = 1
	}

	features := cmd.Features
	var limitBytes *uint64
	if cmd.Tier != nil {
		tier, ok := uc.config.Tiers[*cmd.Tier]
		if !ok {
			return nil, fmt.Errorf("unknown tier: %s", *cmd.Tier)
		}
		if len(features) == 0 {
			features = tier.Features
		}
		if limit := tier.BandwidthLimitBytes(); limit > 0 {
			limitBytes = &limit
		}
	}

	created := make([]*dto.LicenseDTO, 0, count)
	for i := 0; i < count; i++ {
		key, err := licensekey.GenerateUnique(ctx, uc.config.KeyFormat, uc.licenseRepo.ExistsByKey)
		if err != nil {
			uc.logger.Errorw("failed to generate license key", "error", err)
			return nil, fmt.Errorf("failed to generate license key: %w", err)
		}

		lic, err := license.NewLicense(key, cmd.OrganizationID, cmd.Tier, features, cmd.ExpiresAt, limitBytes, cmd.Metadata)
		if err != nil {
			return nil, fmt.Errorf("failed to create license: %w", err)
		}

		if err := uc.licenseRepo.Create(ctx, lic); err != nil {
			uc.logger.Errorw("failed to persist license", "error", err, "license_key", key)
			return nil, fmt.Errorf("failed to persist license: %w", err)
		}

		created = append(created, dto.ToLicenseDTO(lic))
	}

	uc.logger.Infow("licenses issued",
		"count", len(created),
		"tier", cmd.Tier,
		"organization_id", cmd.OrganizationID,
	)

	return created, nil
}
