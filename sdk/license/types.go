package license

import (
	"context"
	"time"
)

// BindRequest identifies the license and device for bind-class operations.
type BindRequest struct {
	LicenseKey string  `json:"license_key"`
	HardwareID string  `json:"hardware_id"`
	DeviceName *string `json:"device_name,omitempty"`
	DeviceInfo *string `json:"device_info,omitempty"`
}

// ValidateRequest identifies the license and device for validate-class
// operations.
type ValidateRequest struct {
	LicenseKey string `json:"license_key"`
	HardwareID string `json:"hardware_id"`
}

// FeatureRequest asks whether a feature is usable under the license.
type FeatureRequest struct {
	LicenseKey string `json:"license_key"`
	HardwareID string `json:"hardware_id"`
	Feature    string `json:"feature"`
}

// ValidationResult is the successful outcome of a validate call.
// GracePeriodEndsAt is the server-issued deadline until which offline
// operation remains permitted. Warning is set when access is degraded
// (suspension grace window, offline validation).
type ValidationResult struct {
	Valid             bool       `json:"valid"`
	Features          []string   `json:"features"`
	Tier              *string    `json:"tier,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	GracePeriodEndsAt *time.Time `json:"grace_period_ends_at,omitempty"`
	Warning           *string    `json:"warning,omitempty"`
	ValidatedAt       time.Time  `json:"validated_at"`
}

// BindResult is the outcome of a successful bind. AlreadyWas is true when
// the license was already bound to this same hardware.
type BindResult struct {
	Bound      bool      `json:"bound"`
	AlreadyWas bool      `json:"already_was"`
	BoundAt    time.Time `json:"bound_at"`
}

// HeartbeatResult carries the server clock and the refreshed offline
// deadline.
type HeartbeatResult struct {
	ServerTime        time.Time  `json:"server_time"`
	GracePeriodEndsAt *time.Time `json:"grace_period_ends_at,omitempty"`
}

// Transport abstracts the wire protocol to the license server. The SDK ships
// an HTTP implementation; tests and embedded deployments supply their own.
type Transport interface {
	Bind(ctx context.Context, req BindRequest) (*BindResult, error)
	Release(ctx context.Context, req ValidateRequest) error
	Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error)
	ValidateOrBind(ctx context.Context, req BindRequest) (*ValidationResult, error)
	Heartbeat(ctx context.Context, req ValidateRequest) (*HeartbeatResult, error)
	ValidateFeature(ctx context.Context, req FeatureRequest) (*ValidationResult, error)
}
