package dto

import (
	"github.com/warden-sh/warden/internal/domain/license"
)

// ToLicenseDTO converts a domain license to its DTO representation.
func ToLicenseDTO(lic *license.License) *LicenseDTO {
	if lic == nil {
		return nil
	}

	d := &LicenseDTO{
		ID:                  lic.ID(),
		Key:                 lic.Key(),
		OrganizationID:      lic.OrganizationID(),
		Tier:                lic.Tier(),
		Features:            lic.Features(),
		DeviceName:          lic.DeviceName(),
		BoundAt:             lic.BoundAt(),
		Status:              lic.Status().String(),
		IsBlacklisted:       lic.IsBlacklisted(),
		SuspendedAt:         lic.SuspendedAt(),
		RevokedAt:           lic.RevokedAt(),
		GracePeriodEndsAt:   lic.GracePeriodEndsAt(),
		RevokeReason:        lic.RevokeReason(),
		SuspensionMessage:   lic.SuspensionMessage(),
		IssuedAt:            lic.IssuedAt(),
		ExpiresAt:           lic.ExpiresAt(),
		LastSeenAt:          lic.LastSeenAt(),
		BandwidthUsedBytes:  lic.BandwidthUsedBytes(),
		BandwidthLimitBytes: lic.BandwidthLimitBytes(),
		QuotaExceeded:       lic.QuotaExceeded(),
		UsagePercentage:     lic.UsagePercentage(),
		Metadata:            lic.Metadata(),
		CreatedAt:           lic.CreatedAt(),
		UpdatedAt:           lic.UpdatedAt(),
	}
	if hw := lic.HardwareID(); hw != nil {
		s := hw.String()
		d.HardwareID = &s
	}
	return d
}

// ToBindingDTO converts a binding snapshot.
func ToBindingDTO(b *license.Binding) *BindingDTO {
	if b == nil {
		return nil
	}
	boundAt := b.BoundAt
	return &BindingDTO{
		HardwareID: b.HardwareID.String(),
		DeviceName: b.DeviceName,
		DeviceInfo: b.DeviceInfo,
		BoundAt:    &boundAt,
	}
}

// ToBindingHistoryEntryDTO converts an audit row.
func ToBindingHistoryEntryDTO(e *license.BindingHistoryEntry) *BindingHistoryEntryDTO {
	if e == nil {
		return nil
	}
	return &BindingHistoryEntryDTO{
		ID:          e.ID(),
		LicenseID:   e.LicenseID(),
		Action:      string(e.Action()),
		HardwareID:  e.HardwareID().String(),
		DeviceName:  e.DeviceName(),
		DeviceInfo:  e.DeviceInfo(),
		PerformedBy: string(e.PerformedBy()),
		Reason:      e.Reason(),
		CreatedAt:   e.CreatedAt(),
	}
}
