package local

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/warden-sh/warden/internal/application/license/usecases"
	"github.com/warden-sh/warden/internal/infrastructure/persistence/models"
	"github.com/warden-sh/warden/internal/infrastructure/repository"
	sharedConfig "github.com/warden-sh/warden/internal/shared/config"
	"github.com/warden-sh/warden/internal/shared/licensekey"
	"github.com/warden-sh/warden/internal/shared/logger"
	sdk "github.com/warden-sh/warden/sdk/license"
)

const (
	localHW1 = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	localHW2 = "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
)

// newTestEngine builds a fully wired engine over an in-memory database, the
// same composition serve performs at startup.
func newTestEngine(t *testing.T) *usecases.Engine {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.LicenseModel{}, &models.BindingHistoryModel{}))

	log := logger.NewLogger()
	licenseRepo := repository.NewLicenseRepository(db, log)
	historyRepo := repository.NewBindingHistoryRepository(db, log)

	return usecases.NewEngine(licenseRepo, historyRepo, usecases.Config{
		KeyFormat: licensekey.Format{Prefix: "LIC", Segments: 4, SegmentLength: 4},
		Tiers: map[string]sharedConfig.TierConfig{
			"pro": {Features: []string{"export", "api_access"}, BandwidthGB: 100},
		},
		QuotaRestrictedFeatures: []string{"api_access"},
		OfflineGraceHours:       72,
		StaleDeviceDays:         90,
	}, log)
}

func issueLicense(t *testing.T, engine *usecases.Engine) string {
	t.Helper()

	tier := "pro"
	issued, err := engine.Create.Execute(context.Background(), usecases.CreateLicenseCommand{Tier: &tier})
	require.NoError(t, err)
	require.Len(t, issued, 1)
	return issued[0].Key
}

func newLocalClient(t *testing.T, engine *usecases.Engine, key, hw string) *sdk.Client {
	t.Helper()

	return sdk.NewClient(key, NewTransport(engine),
		sdk.WithFingerprintProvider(sdk.StaticFingerprint(hw)),
		sdk.WithOfflineCache(filepath.Join(t.TempDir(), "warden.cache")),
		sdk.WithDeviceName("test-device"),
	)
}

func TestLocalTransport_BindValidateRelease(t *testing.T) {
	engine := newTestEngine(t)
	key := issueLicense(t, engine)
	client := newLocalClient(t, engine, key, localHW1)
	ctx := context.Background()

	bound, err := client.Bind(ctx)
	require.NoError(t, err)
	assert.True(t, bound.Bound)
	assert.False(t, bound.AlreadyWas)

	result, err := client.Validate(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.ElementsMatch(t, []string{"export", "api_access"}, result.Features)
	require.NotNil(t, result.Tier)
	assert.Equal(t, "pro", *result.Tier)

	require.NoError(t, client.Release(ctx))

	_, err = client.Validate(ctx)
	apiErr, ok := sdk.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, sdk.CodeNotBound, apiErr.Code)
}

func TestLocalTransport_BindRejectsSecondDevice(t *testing.T) {
	engine := newTestEngine(t)
	key := issueLicense(t, engine)
	ctx := context.Background()

	first := newLocalClient(t, engine, key, localHW1)
	_, err := first.Bind(ctx)
	require.NoError(t, err)

	second := newLocalClient(t, engine, key, localHW2)
	_, err = second.Bind(ctx)
	apiErr, ok := sdk.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, sdk.CodeAlreadyBound, apiErr.Code)

	// Rebinding from the device that holds the license is a no-op.
	again, err := first.Bind(ctx)
	require.NoError(t, err)
	assert.True(t, again.AlreadyWas)
}

func TestLocalTransport_ValidateOrBind(t *testing.T) {
	engine := newTestEngine(t)
	key := issueLicense(t, engine)
	client := newLocalClient(t, engine, key, localHW1)
	ctx := context.Background()

	result, err := client.ValidateOrBind(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	// Second call validates the existing binding instead of rebinding.
	result, err = client.ValidateOrBind(ctx)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	other := newLocalClient(t, engine, key, localHW2)
	_, err = other.ValidateOrBind(ctx)
	apiErr, ok := sdk.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, sdk.CodeAlreadyBound, apiErr.Code)
}

func TestLocalTransport_Heartbeat(t *testing.T) {
	engine := newTestEngine(t)
	key := issueLicense(t, engine)
	client := newLocalClient(t, engine, key, localHW1)
	ctx := context.Background()

	_, err := client.Bind(ctx)
	require.NoError(t, err)

	hb, err := client.Heartbeat(ctx)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().UTC(), hb.ServerTime, 5*time.Second)
	require.NotNil(t, hb.GracePeriodEndsAt)
	assert.True(t, hb.GracePeriodEndsAt.After(time.Now().Add(71*time.Hour)))
}

func TestLocalTransport_ValidateFeature(t *testing.T) {
	engine := newTestEngine(t)
	key := issueLicense(t, engine)
	client := newLocalClient(t, engine, key, localHW1)
	ctx := context.Background()

	_, err := client.Bind(ctx)
	require.NoError(t, err)

	result, err := client.ValidateFeature(ctx, "export")
	require.NoError(t, err)
	assert.True(t, result.Valid)

	_, err = client.ValidateFeature(ctx, "whitelabel")
	apiErr, ok := sdk.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, sdk.CodeFeatureNotIncluded, apiErr.Code)
}

func TestLocalTransport_OfflineFallbackPolicy(t *testing.T) {
	engine := newTestEngine(t)
	key := issueLicense(t, engine)
	client := newLocalClient(t, engine, key, localHW1)
	ctx := context.Background()

	_, err := client.Bind(ctx)
	require.NoError(t, err)
	_, err = client.Validate(ctx)
	require.NoError(t, err)

	// The successful validate populated the offline cache.
	offline, err := client.ValidateOffline()
	require.NoError(t, err)
	assert.True(t, offline.Valid)
	require.NotNil(t, offline.Warning)
	assert.True(t, strings.Contains(*offline.Warning, "offline"))

	// Revoke server side. The rejection is authoritative, so the fallback
	// path must surface it instead of the still-valid cache.
	_, err = engine.Revoke.Execute(ctx, usecases.RevokeLicenseCommand{
		LicenseID: 1,
		Reason:    "chargeback",
	})
	require.NoError(t, err)

	_, err = client.ValidateWithFallback(ctx)
	apiErr, ok := sdk.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, sdk.CodeLicenseRevoked, apiErr.Code)
}
