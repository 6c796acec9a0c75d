package usecases

import (
	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// Engine bundles the fully wired license use cases. It is the unit the
// request boundary and the scheduler consume.
type Engine struct {
	Create          *CreateLicenseUseCase
	Get             *GetLicenseUseCase
	List            *ListLicensesUseCase
	Validate        *ValidateLicenseUseCase
	Bind            *BindLicenseUseCase
	Release         *ReleaseLicenseUseCase
	ValidateOrBind  *ValidateOrBindUseCase
	Heartbeat       *HeartbeatUseCase
	ValidateFeature *ValidateFeatureUseCase

	Revoke       *RevokeLicenseUseCase
	Reinstate    *ReinstateLicenseUseCase
	Extend       *ExtendLicenseUseCase
	Blacklist    *BlacklistLicenseUseCase
	UpdateUsage  *UpdateUsageUseCase
	AdminRelease *AdminReleaseUseCase

	ExpireGracePeriods  *ExpireGracePeriodsUseCase
	ExpireLicenses      *ExpireLicensesUseCase
	ReleaseStaleDevices *ReleaseStaleDevicesUseCase
}

// NewEngine wires every use case against the given repositories. The quota
// checker reads the flag recorded by usage reporting.
func NewEngine(
	licenseRepo license.LicenseRepository,
	historyRepo license.BindingHistoryRepository,
	config Config,
	log logger.Interface,
) *Engine {
	validateUC := NewValidateLicenseUseCase(licenseRepo, config, log)
	bindUC := NewBindLicenseUseCase(licenseRepo, historyRepo, config, log)
	validateFeatureUC := NewValidateFeatureUseCase(validateUC, config, log)
	validateFeatureUC.SetQuotaChecker(RecordedQuotaChecker{})

	return &Engine{
		Create:          NewCreateLicenseUseCase(licenseRepo, config, log),
		Get:             NewGetLicenseUseCase(licenseRepo, historyRepo, log),
		List:            NewListLicensesUseCase(licenseRepo, log),
		Validate:        validateUC,
		Bind:            bindUC,
		Release:         NewReleaseLicenseUseCase(licenseRepo, historyRepo, config, log),
		ValidateOrBind:  NewValidateOrBindUseCase(validateUC, bindUC, log),
		Heartbeat:       NewHeartbeatUseCase(validateUC, log),
		ValidateFeature: validateFeatureUC,

		Revoke:       NewRevokeLicenseUseCase(licenseRepo, log),
		Reinstate:    NewReinstateLicenseUseCase(licenseRepo, log),
		Extend:       NewExtendLicenseUseCase(licenseRepo, log),
		Blacklist:    NewBlacklistLicenseUseCase(licenseRepo, historyRepo, log),
		UpdateUsage:  NewUpdateUsageUseCase(licenseRepo, log),
		AdminRelease: NewAdminReleaseUseCase(licenseRepo, historyRepo, log),

		ExpireGracePeriods:  NewExpireGracePeriodsUseCase(licenseRepo, log),
		ExpireLicenses:      NewExpireLicensesUseCase(licenseRepo, log),
		ReleaseStaleDevices: NewReleaseStaleDevicesUseCase(licenseRepo, historyRepo, config, log),
	}
}
