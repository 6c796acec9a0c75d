package models

import (
	"time"
)

// BindingHistoryModel is the append-only audit table for binding changes.
// Rows are never updated or deleted.
type BindingHistoryModel struct {
	ID          uint    `gorm:"primarykey"`
	LicenseID   uint    `gorm:"not null;index:idx_license_history"`
	Action      string  `gorm:"not null;size:20"`
	HardwareID  string  `gorm:"not null;size:64"`
	DeviceName  *string `gorm:"size:255"`
	DeviceInfo  *string `gorm:"size:1000"`
	PerformedBy string  `gorm:"not null;size:20"`
	Reason      *string `gorm:"size:500"`
	CreatedAt   time.Time
}

// TableName specifies the table name for GORM
func (BindingHistoryModel) TableName() string {
	return "binding_history"
}
