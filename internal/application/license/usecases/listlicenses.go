package usecases

import (
	"context"
	"fmt"

	"github.com/warden-sh/warden/internal/application/license/dto"
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/logger"
)

type ListLicensesQuery struct {
	OrganizationID *string
	Status         *string
	Tier           *string
	Page           int
	PageSize       int
}

type ListLicensesUseCase struct {
	licenseRepo license.LicenseRepository
	logger      logger.Interface
}

func NewListLicensesUseCase(
	licenseRepo license.LicenseRepository,
	logger logger.Interface,
) *ListLicensesUseCase {
	return &ListLicensesUseCase{
		licenseRepo: licenseRepo,
		logger:      logger,
	}
}

func (uc *ListLicensesUseCase) Execute(ctx context.Context, query ListLicensesQuery) ([]*dto.LicenseDTO, int64, error) {
	filter := license.LicenseFilter{
		OrganizationID: query.OrganizationID,
		Status:         query.Status,
		Tier:           query.Tier,
		Page:           query.Page,
		PageSize:       query.PageSize,
	}

	licenses, total, err := uc.licenseRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list licenses: %w", err)
	}

	result := make([]*dto.LicenseDTO, 0, len(licenses))
	for _, lic := range licenses {
		result = append(result, dto.ToLicenseDTO(lic))
	}
	return result, total, nil
}
