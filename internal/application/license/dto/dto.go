package dto

import (
	"time"
)

type LicenseDTO struct {
	ID                  uint                   `json:"id"`
	Key                 string                 `json:"key"`
	OrganizationID      *string                `json:"organization_id,omitempty"`
	Tier                *string                `json:"tier,omitempty"`
	Features            []string               `json:"features"`
	HardwareID          *string                `json:"hardware_id,omitempty"`
	DeviceName          *string                `json:"device_name,omitempty"`
	BoundAt             *time.Time             `json:"bound_at,omitempty"`
	Status              string                 `json:"status"`
	IsBlacklisted       bool                   `json:"is_blacklisted"`
	SuspendedAt         *time.Time             `json:"suspended_at,omitempty"`
	RevokedAt           *time.Time             `json:"revoked_at,omitempty"`
	GracePeriodEndsAt   *time.Time             `json:"grace_period_ends_at,omitempty"`
	RevokeReason        *string                `json:"revoke_reason,omitempty"`
	SuspensionMessage   *string                `json:"suspension_message,omitempty"`
	IssuedAt            time.Time              `json:"issued_at"`
	ExpiresAt           *time.Time             `json:"expires_at,omitempty"`
	LastSeenAt          *time.Time             `json:"last_seen_at,omitempty"`
	BandwidthUsedBytes  uint64                 `json:"bandwidth_used_bytes"`
	BandwidthLimitBytes *uint64                `json:"bandwidth_limit_bytes,omitempty"`
	QuotaExceeded       bool                   `json:"quota_exceeded"`
	UsagePercentage     float64                `json:"usage_percentage"`
	Metadata            map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
}

// ValidationResultDTO is the successful outcome of a validate call. Warning is
// set when the license is suspended but still inside its grace window.
type ValidationResultDTO struct {
	Valid             bool       `json:"valid"`
	Features          []string   `json:"features"`
	Tier              *string    `json:"tier,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	GracePeriodEndsAt *time.Time `json:"grace_period_ends_at,omitempty"`
	Warning           *string    `json:"warning,omitempty"`
	ValidatedAt       time.Time  `json:"validated_at"`
}

type BindResultDTO struct {
	Bound      bool      `json:"bound"`
	AlreadyWas bool      `json:"already_was"`
	BoundAt    time.Time `json:"bound_at"`
}

type HeartbeatResultDTO struct {
	ServerTime        time.Time  `json:"server_time"`
	GracePeriodEndsAt *time.Time `json:"grace_period_ends_at,omitempty"`
}

type BindingDTO struct {
	HardwareID string     `json:"hardware_id"`
	DeviceName *string    `json:"device_name,omitempty"`
	DeviceInfo *string    `json:"device_info,omitempty"`
	BoundAt    *time.Time `json:"bound_at,omitempty"`
}

type BindingHistoryEntryDTO struct {
	ID          uint      `json:"id"`
	LicenseID   uint      `json:"license_id"`
	Action      string    `json:"action"`
	HardwareID  string    `json:"hardware_id"`
	DeviceName  *string   `json:"device_name,omitempty"`
	DeviceInfo  *string   `json:"device_info,omitempty"`
	PerformedBy string    `json:"performed_by"`
	Reason      *string   `json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
