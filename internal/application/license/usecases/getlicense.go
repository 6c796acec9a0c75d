package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/errors"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type GetLicenseQuery struct {
	LicenseID uint
	Key       string
}

type GetLicenseUseCase struct {
	licenseRepo license.LicenseRepository
	historyRepo license.BindingHistoryRepository
	logger      logger.Interface
}

func NewGetLicenseUseCase(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	logger logger.Interface,
) *GetLicenseUseCase {
	return &GetLicenseUseCase{
		licenseRepo: licenseRepo,
		historyRepo: historyRepo,
		logger:      logger,
	}
}

func (uc *GetLicenseUseCase) Execute(ctx context.Context, query GetLicenseQuery) (*dto.LicenseDTO, error) {
	var (
		lic *license.License
		err error
	)
	switch {
	case query.LicenseID != 0:
		lic, err = uc.licenseRepo.GetByID(ctx, query.LicenseID)
	case query.Key != "":
		lic, err = uc.licenseRepo.GetByKey(ctx, query.Key)
	default:
		return nil, errors.NewValidationError("license ID or key is required")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	if lic == nil {
		return nil, errors.NewNotFoundError("license not found")
	}

	return dto.ToLicenseDTO(lic), nil
}

// History returns the binding audit trail for a license, newest first.
func (uc *GetLicenseUseCase) History(ctx context.Context, licenseID uint, limit int) ([]*dto.BindingHistoryEntryDTO, error) {
	entries, err := uc.historyRepo.GetByLicenseID(ctx, licenseID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get binding history: %w", err)
	}

	result := make([]*dto.BindingHistoryEntryDTO, 0, len(entries))
	for _, e := range entries {
		result = append(result, dto.ToBindingHistoryEntryDTO(e))
	}
	return result, nil
}
