package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type ValidateFeatureCommand struct {
	LicenseKey string
	HardwareID string
	Feature    string
}

// ValidateFeatureUseCase gates a single capability: it runs the full
// validation decision first, then checks feature-set membership and quota.
type ValidateFeatureUseCase struct {
	validateUC   *ValidateLicenseUseCase
	config       Config
	quotaChecker QuotaChecker
	logger       logger.Interface
}

func NewValidateFeatureUseCase(
	validateUC *ValidateLicenseUseCase,
	config Config,
	logger logger.Interface,
) *ValidateFeatureUseCase {
	return &ValidateFeatureUseCase{
		validateUC: validateUC,
		config:     config,
		logger:     logger,
	}
}

// SetQuotaChecker wires the optional quota capability. Without one, quota
// checks always pass.
func (uc *ValidateFeatureUseCase) SetQuotaChecker(checker QuotaChecker) {
	uc.quotaChecker = checker
}

func (uc *ValidateFeatureUseCase) Execute(ctx context.Context, cmd ValidateFeatureCommand) (*dto.ValidationResultDTO, error) {
	if cmd.Feature == "" {
		return nil, errors.NewValidationError("feature name is required")
	}

	lic, result, err := uc.validateUC.Decide(ctx, ValidateLicenseCommand{
		LicenseKey: cmd.LicenseKey,
		HardwareID: cmd.HardwareID,
	})
	if err != nil {
		return nil, err
	}

	included := false
	for _, f := range result.Features {
		if f == cmd.Feature {
			included = true
			break
		}
	}
	if !included {
		return nil, errors.NewForbiddenError(errors.CodeFeatureNotIncluded,
			fmt.Sprintf("feature %q is not included in this license", cmd.Feature),
			"upgrade to a tier that includes this feature")
	}

	if uc.quotaChecker != nil && uc.config.IsQuotaRestricted(cmd.Feature) {
		exceeded, err := uc.quotaChecker.Exceeded(ctx, lic)
		if err != nil {
			return nil, fmt.Errorf("failed to check quota: %w", err)
		}
		if exceeded {
			return nil, errors.NewForbiddenError(errors.CodeQuotaExceeded,
				fmt.Sprintf("feature %q is unavailable while over quota", cmd.Feature),
				"reduce usage or raise the bandwidth limit to restore access")
		}
	}

	return result, nil
}
