// Package config defines shared configuration types used across layers.
package config

// DatabaseConfig holds relational store connection settings.
// Driver selects between "mysql" and "sqlite"; Path is only used by sqlite.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	Path            string `mapstructure:"path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

// LicenseConfig holds license issuance and validation policy.
type LicenseConfig struct {
	// Key format: PREFIX-XXXX-XXXX-... with KeySegments segments of
	// KeySegmentLength characters each.
	KeyPrefix        string `mapstructure:"key_prefix"`
	KeySegments      int    `mapstructure:"key_segments"`
	KeySegmentLength int    `mapstructure:"key_segment_length"`

	// OfflineGraceHours is the offline-validation window granted to clients
	// on each successful online validate/heartbeat.
	OfflineGraceHours int `mapstructure:"offline_grace_hours"`

	// QuotaRestrictedFeatures are treated as unavailable while a license has
	// exceeded its bandwidth quota, regardless of nominal inclusion.
	QuotaRestrictedFeatures []string `mapstructure:"quota_restricted_features"`
}

// TierConfig describes a named bundle of features and limits a license may
// reference. BandwidthGB of 0 means unlimited.
type TierConfig struct {
	Features    []string `mapstructure:"features"`
	BandwidthGB uint64   `mapstructure:"bandwidth_gb"`
}

// BandwidthLimitBytes returns the tier bandwidth limit in bytes, or 0 when
// the tier is unlimited.
func (t TierConfig) BandwidthLimitBytes() uint64 {
	return t.BandwidthGB * 1024 * 1024 * 1024
}

// HasFeature reports whether the tier includes the named feature.
func (t TierConfig) HasFeature(feature string) bool {
	for _, f := range t.Features {
		if f == feature {
			return true
		}
	}
	return false
}

// JobsConfig holds maintenance sweep scheduling settings.
type JobsConfig struct {
	GracePeriodIntervalMinutes int  `mapstructure:"grace_period_interval_minutes"`
	ExpirationIntervalMinutes  int  `mapstructure:"expiration_interval_minutes"`
	StaleDeviceCleanupEnabled  bool `mapstructure:"stale_device_cleanup_enabled"`
	StaleDeviceIntervalHours   int  `mapstructure:"stale_device_interval_hours"`
	StaleDeviceDays            int  `mapstructure:"stale_device_days"`
}
