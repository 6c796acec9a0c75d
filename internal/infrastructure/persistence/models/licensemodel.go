package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LicenseModel represents the database persistence model for licenses
// This is the anti-corruption layer between domain and database
type LicenseModel struct {
	ID                  uint    `gorm:"primarykey"`
	Key                 string  `gorm:"uniqueIndex;not null;size:64"`
	OrganizationID      *string `gorm:"size:64;index:idx_organization"`
	Tier                *string `gorm:"size:50"`
	Features            datatypes.JSON
	HardwareID          *string `gorm:"size:64;index:idx_hardware"`
	DeviceName          *string `gorm:"size:255"`
	DeviceInfo          *string `gorm:"size:1000"`
	BoundAt             *time.Time
	Status              string `gorm:"not null;size:20;index:idx_status_grace,priority:1;index:idx_status_expiry,priority:1"`
	IsBlacklisted       bool   `gorm:"not null;default:false"`
	SuspendedAt         *time.Time
	RevokedAt           *time.Time
	GracePeriodEndsAt   *time.Time `gorm:"index:idx_status_grace,priority:2"`
	RevokeReason        *string    `gorm:"size:500"`
	SuspensionMessage   *string    `gorm:"size:500"`
	IssuedAt            time.Time  `gorm:"not null"`
	ExpiresAt           *time.Time `gorm:"index:idx_status_expiry,priority:2"`
	LastSeenAt          *time.Time `gorm:"index:idx_last_seen"`
	BandwidthUsedBytes  uint64     `gorm:"not null;default:0"`
	BandwidthLimitBytes *uint64
	QuotaExceeded       bool `gorm:"not null;default:false"`
	Metadata            datatypes.JSON
	Version             int `gorm:"not null;default:1"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName specifies the table name for GORM
func (LicenseModel) TableName() string {
	return "licenses"
}

// BeforeCreate hook for GORM
func (m *LicenseModel) BeforeCreate(tx *gorm.DB) error {
	if m.Version == 0 {
		m.Version = 1
	}
	return nil
}
