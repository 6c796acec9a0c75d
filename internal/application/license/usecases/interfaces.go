package usecases

import (
	"context"

	"github.com/warden-sh/warden/internal/domain/license"
	"github.com/warden-sh/warden/internal/shared/config"
	"github.com/warden-sh/warden/internal/shared/licensekey"
)

// QuotaChecker is an optional capability for feature checks. When no checker
// is wired, quota checks always pass.
type QuotaChecker interface {
	// Exceeded reports whether the license is over its usage quota.
	Exceeded(ctx context.Context, lic *license.License) (bool, error)
}

// RecordedQuotaChecker reads the quota flag the usage counters derived.
type RecordedQuotaChecker struct{}

func (RecordedQuotaChecker) Exceeded(_ context.Context, lic *license.License) (bool, error) {
	return lic.QuotaExceeded(), nil
}

// Config is the immutable engine configuration, passed explicitly into use
// case constructors so tests can supply distinct configurations per case.
type Config struct {
	KeyFormat licensekey.Format

	// Tiers maps tier names to their default feature bundles and limits.
	Tiers map[string]config.TierConfig

	// QuotaRestrictedFeatures are unavailable while a license is over quota.
	QuotaRestrictedFeatures []string

	// OfflineGraceHours bounds how long a client may validate offline after
	// its last successful online validate or heartbeat.
	OfflineGraceHours int

	// StaleDeviceDays is the inactivity threshold for the stale-device sweep.
	StaleDeviceDays int
}

// EffectiveFeatures resolves the feature set for a license: its own feature
// set when present, otherwise the tier's default bundle.
func (c Config) EffectiveFeatures(lic *license.License) []string {
	if len(lic.Features()) > 0 {
		return lic.Features()
	}
	if tier := lic.Tier(); tier != nil {
		if t, ok := c.Tiers[*tier]; ok {
			return t.Features
		}
	}
	return []string{}
}

// IsQuotaRestricted reports whether the feature is gated while over quota.
func (c Config) IsQuotaRestricted(feature string) bool {
	for _, f := range c.QuotaRestrictedFeatures {
		if f == feature {
			return true
		}
	}
	return false
}
