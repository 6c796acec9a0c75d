package usecases

import (
	"context"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type ValidateOrBindCommand struct {
	LicenseKey string
	HardwareID string
	DeviceName *string
	DeviceInfo *string
}

// ValidateOrBindUseCase validates, and when the license is simply unbound,
// binds first and validates again. A license bound elsewhere surfaces
// AlreadyBound; a binding is never silently stolen.
type ValidateOrBindUseCase struct {
	validateUC *ValidateLicenseUseCase
	bindUC     *BindLicenseUseCase
	logger     logger.Interface
}

func NewValidateOrBindUseCase(
	validateUC *ValidateLicenseUseCase,
	bindUC *BindLicenseUseCase,
	logger logger.Interface,
) *ValidateOrBindUseCase {
	return &ValidateOrBindUseCase{
		validateUC: validateUC,
		bindUC:     bindUC,
		logger:     logger,
	}
}

func (uc *ValidateOrBindUseCase) Execute(ctx context.Context, cmd ValidateOrBindCommand) (*dto.ValidationResultDTO, error) {
	validateCmd := ValidateLicenseCommand{LicenseKey: cmd.LicenseKey, HardwareID: cmd.HardwareID}

	result, err := uc.validateUC.Execute(ctx, validateCmd)
	if err == nil {
		return result, nil
	}
	switch errors.ErrorCode(err) {
	case errors.CodeNotBound, errors.CodeHardwareMismatch:
		// Bind resolves both outcomes. It claims an unbound license and
		// reports a foreign binding as AlreadyBound naming the holder.
	default:
		return nil, err
	}

	if _, err := uc.bindUC.Execute(ctx, BindLicenseCommand{
		LicenseKey: cmd.LicenseKey,
		HardwareID: cmd.HardwareID,
		DeviceName: cmd.DeviceName,
		DeviceInfo: cmd.DeviceInfo,
	}); err != nil {
		return nil, err
	}

	return uc.validateUC.Execute(ctx, validateCmd)
}
