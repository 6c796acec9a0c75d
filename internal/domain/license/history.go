package license

import (
	"errors"
	"time"

	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
)

// BindingAction identifies what happened to a license binding.
type BindingAction string

const (
	ActionBind          BindingAction = "bind"
	ActionRelease       BindingAction = "release"
	ActionAdminRelease  BindingAction = "admin_release"
	ActionSystemRelease BindingAction = "system_release"
)

var ValidBindingActions = map[BindingAction]bool{
	ActionBind:          true,
	ActionRelease:       true,
	ActionAdminRelease:  true,
	ActionSystemRelease: true,
}

// PerformedBy identifies the actor behind a binding change.
type PerformedBy string

const (
	ActorClient PerformedBy = "client"
	ActorAdmin  PerformedBy = "admin"
	ActorSystem PerformedBy = "system"
)

var ValidActors = map[PerformedBy]bool{
	ActorClient: true,
	ActorAdmin:  true,
	ActorSystem: true,
}

var ErrInvalidBindingAction = errors.New("invalid binding action")

// BindingHistoryEntry is an immutable, append-only audit row recorded on
// every binding-state change.
type BindingHistoryEntry struct {
	id          uint
	licenseID   uint
	action      BindingAction
	hardwareID  vo.HardwareID
	deviceName  *string
	deviceInfo  *string
	performedBy PerformedBy
	reason      *string
	createdAt   time.Time
}

// NewBindingHistoryEntry records a binding change.
func NewBindingHistoryEntry(
	licenseID uint,
	action BindingAction,
	hardwareID vo.HardwareID,
	deviceName, deviceInfo *string,
	performedBy PerformedBy,
	reason *string,
) (*BindingHistoryEntry, error) {
	if licenseID == 0 {
		return nil, errors.New("license ID cannot be zero")
	}
	if !ValidBindingActions[action] {
		return nil, ErrInvalidBindingAction
	}
	if !ValidActors[performedBy] {
		return nil, errors.New("invalid actor")
	}

	return &BindingHistoryEntry{
		licenseID:   licenseID,
		action:      action,
		hardwareID:  hardwareID,
		deviceName:  deviceName,
		deviceInfo:  deviceInfo,
		performedBy: performedBy,
		reason:      reason,
		createdAt:   time.Now(),
	}, nil
}

// ReconstructBindingHistoryEntry rebuilds an audit row from persistence.
func ReconstructBindingHistoryEntry(
	id, licenseID uint,
	action BindingAction,
	hardwareID vo.HardwareID,
	deviceName, deviceInfo *string,
	performedBy PerformedBy,
	reason *string,
	createdAt time.Time,
) (*BindingHistoryEntry, error) {
	if id == 0 {
		return nil, errors.New("history ID cannot be zero")
	}
	if licenseID == 0 {
		return nil, errors.New("license ID cannot be zero")
	}
	if !ValidBindingActions[action] {
		return nil, ErrInvalidBindingAction
	}

	return &BindingHistoryEntry{
		id:          id,
		licenseID:   licenseID,
		action:      action,
		hardwareID:  hardwareID,
		deviceName:  deviceName,
		deviceInfo:  deviceInfo,
		performedBy: performedBy,
		reason:      reason,
		createdAt:   createdAt,
	}, nil
}

func (e *BindingHistoryEntry) ID() uint                  { return e.id }
func (e *BindingHistoryEntry) LicenseID() uint           { return e.licenseID }
func (e *BindingHistoryEntry) Action() BindingAction     { return e.action }
func (e *BindingHistoryEntry) HardwareID() vo.HardwareID { return e.hardwareID }
func (e *BindingHistoryEntry) DeviceName() *string       { return e.deviceName }
func (e *BindingHistoryEntry) DeviceInfo() *string       { return e.deviceInfo }
func (e *BindingHistoryEntry) PerformedBy() PerformedBy  { return e.performedBy }
func (e *BindingHistoryEntry) Reason() *string           { return e.reason }
func (e *BindingHistoryEntry) CreatedAt() time.Time      { return e.createdAt }

// SetID sets the entry ID (only for persistence layer use)
func (e *BindingHistoryEntry) SetID(id uint) error {
	if e.id != 0 {
		return errors.New("history ID is already set")
	}
	if id == 0 {
		return errors.New("history ID cannot be zero")
	}
	e.id = id
	return nil
}
