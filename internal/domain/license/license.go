package license

import (
	"fmt"
	"time"

	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
)

// License represents the license aggregate root
type License struct {
	id                  uint
	key                 string
	organizationID      *string
	tier                *string
	features            []string
	hardwareID          *vo.HardwareID
	deviceName          *string
	deviceInfo          *string
	boundAt             *time.Time
	status              vo.LicenseStatus
	isBlacklisted       bool
	suspendedAt         *time.Time
	revokedAt           *time.Time
	gracePeriodEndsAt   *time.Time
	revokeReason        *string
	suspensionMessage   *string
	issuedAt            time.Time
	expiresAt           *time.Time
	lastSeenAt          *time.Time
	bandwidthUsedBytes  uint64
	bandwidthLimitBytes *uint64
	quotaExceeded       bool
	metadata            map[string]interface{}
	version             int
	createdAt           time.Time
	updatedAt           time.Time
}

// Binding is a snapshot of a license's hardware binding, used for audit
// display when a binding is cleared administratively.
type Binding struct {
	HardwareID vo.HardwareID
	DeviceName *string
	DeviceInfo *string
	BoundAt    time.Time
}

// NewLicense creates a newly issued, unbound, active license.
func NewLicense(
	key string,
	organizationID, tier *string,
	features []string,
	expiresAt *time.Time,
	bandwidthLimitBytes *uint64,
	metadata map[string]interface{},
) (*License, error) {
	if key == "" {
		return nil, fmt.Errorf("license key is required")
	}
	if expiresAt != nil && expiresAt.Before(time.Now()) {
		return nil, fmt.Errorf("expiry must be in the future")
	}

	if features == nil {
		features = []string{}
	}
	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	now := time.Now()
	return &License{
		key:                 key,
		organizationID:      organizationID,
		tier:                tier,
		features:            features,
		status:              vo.StatusActive,
		issuedAt:            now,
		expiresAt:           expiresAt,
		bandwidthLimitBytes: bandwidthLimitBytes,
		metadata:            metadata,
		version:             1,
		createdAt:           now,
		updatedAt:           now,
	}, nil
}

// ReconstructParams carries every persisted field of a license.
type ReconstructParams struct {
	ID                  uint
	Key                 string
	OrganizationID      *string
	Tier                *string
	Features            []string
	HardwareID          *vo.HardwareID
	DeviceName          *string
	DeviceInfo          *string
	BoundAt             *time.Time
	Status              vo.LicenseStatus
	IsBlacklisted       bool
	SuspendedAt         *time.Time
	RevokedAt           *time.Time
	GracePeriodEndsAt   *time.Time
	RevokeReason        *string
	SuspensionMessage   *string
	IssuedAt            time.Time
	ExpiresAt           *time.Time
	LastSeenAt          *time.Time
	BandwidthUsedBytes  uint64
	BandwidthLimitBytes *uint64
	QuotaExceeded       bool
	Metadata            map[string]interface{}
	Version             int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ReconstructLicense rebuilds a license from persistence.
func ReconstructLicense(p ReconstructParams) (*License, error) {
	if p.ID == 0 {
		return nil, fmt.Errorf("license ID cannot be zero")
	}
	if p.Key == "" {
		return nil, fmt.Errorf("license key is required")
	}
	if !vo.ValidStatuses[p.Status] {
		return nil, fmt.Errorf("invalid license status: %s", p.Status)
	}
	if p.IsBlacklisted && p.Status != vo.StatusRevoked {
		return nil, fmt.Errorf("blacklisted license must be revoked, got status %s", p.Status)
	}

	if p.Features == nil {
		p.Features = []string{}
	}
	if p.Metadata == nil {
		p.Metadata = make(map[string]interface{})
	}

	return &License{
		id:                  p.ID,
		key:                 p.Key,
		organizationID:      p.OrganizationID,
		tier:                p.Tier,
		features:            p.Features,
		hardwareID:          p.HardwareID,
		deviceName:          p.DeviceName,
		deviceInfo:          p.DeviceInfo,
		boundAt:             p.BoundAt,
		status:              p.Status,
		isBlacklisted:       p.IsBlacklisted,
		suspendedAt:         p.SuspendedAt,
		revokedAt:           p.RevokedAt,
		gracePeriodEndsAt:   p.GracePeriodEndsAt,
		revokeReason:        p.RevokeReason,
		suspensionMessage:   p.SuspensionMessage,
		issuedAt:            p.IssuedAt,
		expiresAt:           p.ExpiresAt,
		lastSeenAt:          p.LastSeenAt,
		bandwidthUsedBytes:  p.BandwidthUsedBytes,
		bandwidthLimitBytes: p.BandwidthLimitBytes,
		quotaExceeded:       p.QuotaExceeded,
		metadata:            p.Metadata,
		version:             p.Version,
		createdAt:           p.CreatedAt,
		updatedAt:           p.UpdatedAt,
	}, nil
}

// ID returns the license ID
func (l *License) ID() uint {
	return l.id
}

// Key returns the human-facing license key
func (l *License) Key() string {
	return l.key
}

// OrganizationID returns the owning organization reference
func (l *License) OrganizationID() *string {
	return l.organizationID
}

// Tier returns the tier name
func (l *License) Tier() *string {
	return l.tier
}

// Features returns the license feature set
func (l *License) Features() []string {
	return l.features
}

// HardwareID returns the bound hardware fingerprint, nil when unbound
func (l *License) HardwareID() *vo.HardwareID {
	return l.hardwareID
}

// DeviceName returns the bound device name
func (l *License) DeviceName() *string {
	return l.deviceName
}

// DeviceInfo returns the bound device info payload
func (l *License) DeviceInfo() *string {
	return l.deviceInfo
}

// BoundAt returns when the current binding was created
func (l *License) BoundAt() *time.Time {
	return l.boundAt
}

// Status returns the lifecycle status
func (l *License) Status() vo.LicenseStatus {
	return l.status
}

// IsBlacklisted returns the blacklist flag
func (l *License) IsBlacklisted() bool {
	return l.isBlacklisted
}

// SuspendedAt returns when the license was suspended
func (l *License) SuspendedAt() *time.Time {
	return l.suspendedAt
}

// RevokedAt returns when the license was revoked
func (l *License) RevokedAt() *time.Time {
	return l.revokedAt
}

// GracePeriodEndsAt returns the suspension grace deadline
func (l *License) GracePeriodEndsAt() *time.Time {
	return l.gracePeriodEndsAt
}

// RevokeReason returns the revocation reason
func (l *License) RevokeReason() *string {
	return l.revokeReason
}

// SuspensionMessage returns the user-facing suspension message
func (l *License) SuspensionMessage() *string {
	return l.suspensionMessage
}

// IssuedAt returns when the license was issued
func (l *License) IssuedAt() time.Time {
	return l.issuedAt
}

// ExpiresAt returns the expiry, nil means unbounded
func (l *License) ExpiresAt() *time.Time {
	return l.expiresAt
}

// LastSeenAt returns the last successful validate/heartbeat time
func (l *License) LastSeenAt() *time.Time {
	return l.lastSeenAt
}

// BandwidthUsedBytes returns the usage counter
func (l *License) BandwidthUsedBytes() uint64 {
	return l.bandwidthUsedBytes
}

// BandwidthLimitBytes returns the usage limit, nil means unlimited
func (l *License) BandwidthLimitBytes() *uint64 {
	return l.bandwidthLimitBytes
}

// QuotaExceeded returns the derived over-quota flag
func (l *License) QuotaExceeded() bool {
	return l.quotaExceeded
}

// Metadata returns the opaque caller-owned metadata
func (l *License) Metadata() map[string]interface{} {
	return l.metadata
}

// Version returns the aggregate version for optimistic locking
func (l *License) Version() int {
	return l.version
}

// CreatedAt returns when the record was created
func (l *License) CreatedAt() time.Time {
	return l.createdAt
}

// UpdatedAt returns when the record was last updated
func (l *License) UpdatedAt() time.Time {
	return l.updatedAt
}

// SetID sets the license ID (only for persistence layer use)
func (l *License) SetID(id uint) error {
	if l.id != 0 {
		return fmt.Errorf("license ID is already set")
	}
	if id == 0 {
		return fmt.Errorf("license ID cannot be zero")
	}
	l.id = id
	return nil
}

// IsBound checks if the license currently has a hardware binding
func (l *License) IsBound() bool {
	return l.hardwareID != nil
}

// IsBoundTo checks if the license is bound to the given hardware
func (l *License) IsBoundTo(hw vo.HardwareID) bool {
	return l.hardwareID != nil && *l.hardwareID == hw
}

// IsExpired checks the temporal bound, independent of status
func (l *License) IsExpired() bool {
	return l.expiresAt != nil && time.Now().After(*l.expiresAt)
}

// InGracePeriod checks if a suspended license is still inside its grace window
func (l *License) InGracePeriod() bool {
	return l.status == vo.StatusSuspended &&
		l.gracePeriodEndsAt != nil &&
		time.Now().Before(*l.gracePeriodEndsAt)
}

// CurrentBinding returns a snapshot of the active binding, nil when unbound
func (l *License) CurrentBinding() *Binding {
	if l.hardwareID == nil {
		return nil
	}
	b := &Binding{
		HardwareID: *l.hardwareID,
		DeviceName: l.deviceName,
		DeviceInfo: l.deviceInfo,
	}
	if l.boundAt != nil {
		b.BoundAt = *l.boundAt
	}
	return b
}

// Bind associates the license with a hardware identity. Re-binding the same
// hardware is an idempotent success that leaves state untouched; a different
// hardware fails with ErrAlreadyBound.
func (l *License) Bind(hw vo.HardwareID, deviceName, deviceInfo *string) error {
	if l.hardwareID != nil {
		if *l.hardwareID == hw {
			return nil
		}
		return ErrAlreadyBound
	}

	now := time.Now()
	l.hardwareID = &hw
	l.deviceName = deviceName
	l.deviceInfo = deviceInfo
	l.boundAt = &now
	l.updatedAt = now
	l.version++

	return nil
}

// Release clears the binding after verifying the caller holds it.
func (l *License) Release(hw vo.HardwareID) error {
	if l.hardwareID == nil {
		return ErrNotBound
	}
	if *l.hardwareID != hw {
		return ErrHardwareMismatch
	}

	l.clearBinding()
	return nil
}

// ClearBinding removes the binding without a hardware check and returns the
// previous binding snapshot. Used by admin release and the stale-device sweep.
func (l *License) ClearBinding() *Binding {
	previous := l.CurrentBinding()
	if previous == nil {
		return nil
	}
	l.clearBinding()
	return previous
}

func (l *License) clearBinding() {
	l.hardwareID = nil
	l.deviceName = nil
	l.deviceInfo = nil
	l.boundAt = nil
	l.updatedAt = time.Now()
	l.version++
}

// Revoke revokes the license. gracePeriodDays > 0 suspends the license with a
// grace deadline instead; gracePeriodDays = 0 revokes immediately.
func (l *License) Revoke(gracePeriodDays int, reason string, message *string) error {
	if gracePeriodDays < 0 {
		return fmt.Errorf("grace period days cannot be negative")
	}
	if reason == "" {
		return fmt.Errorf("revoke reason is required")
	}

	now := time.Now()
	if gracePeriodDays > 0 {
		if l.status == vo.StatusSuspended {
			return fmt.Errorf("license is already suspended")
		}
		if !l.status.CanTransitionTo(vo.StatusSuspended) {
			return ErrInvalidTransition(l.status.String(), vo.StatusSuspended.String())
		}
		deadline := now.Add(time.Duration(gracePeriodDays) * 24 * time.Hour)
		l.status = vo.StatusSuspended
		l.suspendedAt = &now
		l.gracePeriodEndsAt = &deadline
		l.revokeReason = &reason
		l.suspensionMessage = message
	} else {
		if l.status == vo.StatusRevoked {
			return nil
		}
		if !l.status.CanTransitionTo(vo.StatusRevoked) {
			return ErrInvalidTransition(l.status.String(), vo.StatusRevoked.String())
		}
		l.status = vo.StatusRevoked
		l.revokedAt = &now
		l.gracePeriodEndsAt = nil
		l.revokeReason = &reason
		l.suspensionMessage = message
	}

	l.updatedAt = now
	l.version++
	return nil
}

// ExpireGracePeriod revokes a suspended license whose grace deadline passed.
// Idempotent for the sweep: returns false when nothing to do.
func (l *License) ExpireGracePeriod() (bool, error) {
	if l.status != vo.StatusSuspended {
		return false, nil
	}
	if l.gracePeriodEndsAt == nil || time.Now().Before(*l.gracePeriodEndsAt) {
		return false, nil
	}

	now := time.Now()
	l.status = vo.StatusRevoked
	l.revokedAt = &now
	l.gracePeriodEndsAt = nil
	l.updatedAt = now
	l.version++
	return true, nil
}

// Reinstate returns a suspended or revoked license to active. Blacklisted
// licenses can never be reinstated.
func (l *License) Reinstate() error {
	if l.isBlacklisted {
		return ErrLicenseBlacklisted
	}
	if l.status == vo.StatusActive {
		return nil
	}
	if !l.status.CanTransitionTo(vo.StatusActive) {
		return ErrInvalidTransition(l.status.String(), vo.StatusActive.String())
	}

	l.status = vo.StatusActive
	l.suspendedAt = nil
	l.revokedAt = nil
	l.gracePeriodEndsAt = nil
	l.revokeReason = nil
	l.suspensionMessage = nil
	l.updatedAt = time.Now()
	l.version++
	return nil
}

// Blacklist permanently bans the license: forces revoked from any state,
// sets the blacklist flag, and clears the binding. Returns the previous
// binding snapshot for audit.
func (l *License) Blacklist(reason string) (*Binding, error) {
	if reason == "" {
		return nil, fmt.Errorf("blacklist reason is required")
	}

	previous := l.CurrentBinding()
	now := time.Now()

	l.isBlacklisted = true
	l.status = vo.StatusRevoked
	l.revokedAt = &now
	l.gracePeriodEndsAt = nil
	l.revokeReason = &reason
	l.hardwareID = nil
	l.deviceName = nil
	l.deviceInfo = nil
	l.boundAt = nil
	l.updatedAt = now
	l.version++

	return previous, nil
}

// Extend moves the expiry forward. An expired license with a future expiry
// returns to active.
func (l *License) Extend(newExpiry time.Time) error {
	if l.expiresAt != nil && newExpiry.Before(*l.expiresAt) {
		return fmt.Errorf("new expiry must be after current expiry")
	}

	l.expiresAt = &newExpiry
	if l.status == vo.StatusExpired && newExpiry.After(time.Now()) {
		l.status = vo.StatusActive
	}
	l.updatedAt = time.Now()
	l.version++
	return nil
}

// MarkExpired flips an active license whose expiry passed to expired.
// Idempotent for the sweep: returns false when nothing to do.
func (l *License) MarkExpired() (bool, error) {
	if l.status != vo.StatusActive {
		return false, nil
	}
	if l.expiresAt == nil || time.Now().Before(*l.expiresAt) {
		return false, nil
	}
	if !l.status.CanTransitionTo(vo.StatusExpired) {
		return false, ErrInvalidTransition(l.status.String(), vo.StatusExpired.String())
	}

	l.status = vo.StatusExpired
	l.updatedAt = time.Now()
	l.version++
	return true, nil
}

// UpdateUsage sets the bandwidth counters and recomputes the quota flag.
// A nil limit means unlimited.
func (l *License) UpdateUsage(usedBytes uint64, limitBytes *uint64) {
	l.bandwidthUsedBytes = usedBytes
	l.bandwidthLimitBytes = limitBytes
	l.quotaExceeded = limitBytes != nil && *limitBytes > 0 && usedBytes >= *limitBytes
	l.updatedAt = time.Now()
	l.version++
}

// UsagePercentage returns bandwidth usage as a percentage of the limit, or 0
// when unlimited.
func (l *License) UsagePercentage() float64 {
	if l.bandwidthLimitBytes == nil || *l.bandwidthLimitBytes == 0 {
		return 0
	}
	return float64(l.bandwidthUsedBytes) / float64(*l.bandwidthLimitBytes) * 100
}

// TouchLastSeen stamps the last successful validate/heartbeat time.
func (l *License) TouchLastSeen() {
	now := time.Now()
	l.lastSeenAt = &now
	l.updatedAt = now
}

// HasFeature checks set membership in the license's own feature set.
func (l *License) HasFeature(feature string) bool {
	for _, f := range l.features {
		if f == feature {
			return true
		}
	}
	return false
}

// Validate performs domain-level validation
func (l *License) Validate() error {
	if l.key == "" {
		return fmt.Errorf("license key is required")
	}
	if !vo.ValidStatuses[l.status] {
		return fmt.Errorf("invalid status: %s", l.status)
	}
	if l.isBlacklisted && l.status != vo.StatusRevoked {
		return fmt.Errorf("blacklisted license must be revoked")
	}
	if l.gracePeriodEndsAt != nil && l.status != vo.StatusSuspended {
		return fmt.Errorf("grace period set outside suspension")
	}
	return nil
}
