package license

import (
	"context"
	"time"

	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
)

type LicenseRepository interface {
	Create(ctx context.Context, license *License) error
	GetByID(ctx context.Context, id uint) (*License, error)
	GetByKey(ctx context.Context, key string) (*License, error)
	GetByOrganizationID(ctx context.Context, organizationID string) ([]*License, error)
	Update(ctx context.Context, license *License) error
	Delete(ctx context.Context, id uint) error

	ExistsByKey(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, filter LicenseFilter) ([]*License, int64, error)

	// ClaimBinding atomically binds a license to hardware using a conditional
	// update guarded on the license being unbound. Returns false when another
	// binding won the race; the caller re-reads to surface the winner.
	ClaimBinding(ctx context.Context, licenseID uint, hw vo.HardwareID, deviceName, deviceInfo *string, boundAt time.Time) (bool, error)

	FindSuspendedWithGraceExpired(ctx context.Context, now time.Time) ([]*License, error)
	FindActiveExpired(ctx context.Context, now time.Time) ([]*License, error)
	FindBoundNotSeenSince(ctx context.Context, cutoff time.Time) ([]*License, error)
}

type LicenseFilter struct {
	OrganizationID *string
	Status         *string
	Tier           *string
	Page           int
	PageSize       int
	SortBy         string
	SortDesc       bool
}

type BindingHistoryRepository interface {
	Create(ctx context.Context, entry *BindingHistoryEntry) error
	GetByLicenseID(ctx context.Context, licenseID uint, limit int) ([]*BindingHistoryEntry, error)
}
