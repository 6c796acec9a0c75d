package usecases

import (
	"context"
	"sync"
	"time"

	"github.com/warden-sh/warden/internal/domain/license"
	vo "github.com/warden-sh/warden/internal/domain/license/valueobjects"
	"github.com/warden-sh/warden/internal/shared/logger"
)

// memLicenseRepository is an in-memory LicenseRepository for use case tests.
// ClaimBinding is serialized by the mutex, mirroring the row-level atomicity
// the relational store provides.
type memLicenseRepository struct {
	mu       sync.Mutex
	nextID   uint
	licenses map[uint]*license.License
}

func newMemLicenseRepository() *memLicenseRepository {
	return &memLicenseRepository{
		nextID:   1,
		licenses: make(map[uint]*license.License),
	}
}

func (r *memLicenseRepository) Create(_ context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := lic.SetID(r.nextID); err != nil {
		return err
	}
	r.licenses[r.nextID] = lic
	r.nextID++
	return nil
}

// cloneLicense rebuilds an independent copy so callers never share mutable
// aggregate state across goroutines.
func cloneLicense(lic *license.License) *license.License {
	if lic == nil {
		return nil
	}
	copied, err := license.ReconstructLicense(license.ReconstructParams{
		ID:                  lic.ID(),
		Key:                 lic.Key(),
		OrganizationID:      lic.OrganizationID(),
		Tier:                lic.Tier(),
		Features:            lic.Features(),
		HardwareID:          lic.HardwareID(),
		DeviceName:          lic.DeviceName(),
		DeviceInfo:          lic.DeviceInfo(),
		BoundAt:             lic.BoundAt(),
		Status:              lic.Status(),
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
		Metadata:            lic.Metadata(),
		Version:             lic.Version(),
		CreatedAt:           lic.CreatedAt(),
		UpdatedAt:           lic.UpdatedAt(),
	})
	if err != nil {
		panic(err)
	}
	return copied
}

func (r *memLicenseRepository) GetByID(_ context.Context, id uint) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lic, ok := r.licenses[id]
	if !ok {
		return nil, nil
	}
	return cloneLicense(lic), nil
}

func (r *memLicenseRepository) GetByKey(_ context.Context, key string) (*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lic := range r.licenses {
		if lic.Key() == key {
			return cloneLicense(lic), nil
		}
	}
	return nil, nil
}

func (r *memLicenseRepository) GetByOrganizationID(_ context.Context, orgID string) ([]*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*license.License
	for _, lic := range r.licenses {
		if lic.OrganizationID() != nil && *lic.OrganizationID() == orgID {
			result = append(result, lic)
		}
	}
	return result, nil
}

func (r *memLicenseRepository) Update(_ context.Context, lic *license.License) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.licenses[lic.ID()] = cloneLicense(lic)
	return nil
}

func (r *memLicenseRepository) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.licenses, id)
	return nil
}

func (r *memLicenseRepository) ExistsByKey(_ context.Context, key string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, lic := range r.licenses {
		if lic.Key() == key {
			return true, nil
		}
	}
	return false, nil
}

func (r *memLicenseRepository) List(_ context.Context, filter license.LicenseFilter) ([]*license.License, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*license.License
	for _, lic := range r.licenses {
		if filter.Status != nil && lic.Status().String() != *filter.Status {
			continue
		}
		if filter.OrganizationID != nil &&
			(lic.OrganizationID() == nil || *lic.OrganizationID() != *filter.OrganizationID) {
			continue
		}
		result = append(result, lic)
	}
	return result, int64(len(result)), nil
}

func (r *memLicenseRepository) ClaimBinding(_ context.Context, licenseID uint, hw vo.HardwareID, deviceName, deviceInfo *string, _ time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lic, ok := r.licenses[licenseID]
	if !ok || lic.IsBound() {
		return false, nil
	}
	if err := lic.Bind(hw, deviceName, deviceInfo); err != nil {
		return false, nil
	}
	return true, nil
}

func (r *memLicenseRepository) FindSuspendedWithGraceExpired(_ context.Context, now time.Time) ([]*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*license.License
	for _, lic := range r.licenses {
		if lic.Status() == vo.StatusSuspended &&
			lic.GracePeriodEndsAt() != nil && lic.GracePeriodEndsAt().Before(now) {
			result = append(result, cloneLicense(lic))
		}
	}
	return result, nil
}

func (r *memLicenseRepository) FindActiveExpired(_ context.Context, now time.Time) ([]*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*license.License
	for _, lic := range r.licenses {
		if lic.Status() == vo.StatusActive &&
			lic.ExpiresAt() != nil && lic.ExpiresAt().Before(now) {
			result = append(result, cloneLicense(lic))
		}
	}
	return result, nil
}

func (r *memLicenseRepository) FindBoundNotSeenSince(_ context.Context, cutoff time.Time) ([]*license.License, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*license.License
	for _, lic := range r.licenses {
		if lic.IsBound() && lic.LastSeenAt() != nil && lic.LastSeenAt().Before(cutoff) {
			result = append(result, cloneLicense(lic))
		}
	}
	return result, nil
}

type memHistoryRepository struct {
	mu      sync.Mutex
	nextID  uint
	entries []*license.BindingHistoryEntry
}

func newMemHistoryRepository() *memHistoryRepository {
	return &memHistoryRepository{nextID: 1}
}

func (r *memHistoryRepository) Create(_ context.Context, entry *license.BindingHistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := entry.SetID(r.nextID); err != nil {
		return err
	}
	r.nextID++
	r.entries = append(r.entries, entry)
	return nil
}

func (r *memHistoryRepository) GetByLicenseID(_ context.Context, licenseID uint, limit int) ([]*license.BindingHistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*license.BindingHistoryEntry
	for i := len(r.entries) - 1; i >= 0; i-- {
		if r.entries[i].LicenseID() == licenseID {
			result = append(result, r.entries[i])
			if limit > 0 && len(result) >= limit {
				break
			}
		}
	}
	return result, nil
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any)          {}
func (noopLogger) Info(string, ...any)           {}
func (noopLogger) Warn(string, ...any)           {}
func (noopLogger) Error(string, ...any)          {}
func (n noopLogger) With(...any) logger.Interface  { return n }
func (n noopLogger) Named(string) logger.Interface { return n }
func (noopLogger) Debugw(string, ...interface{}) {}
func (noopLogger) Infow(string, ...interface{})  {}
func (noopLogger) Warnw(string, ...interface{})  {}
func (noopLogger) Errorw(string, ...interface{}) {}
