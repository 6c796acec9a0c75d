package license

import (
	"context"
	"fmt"
	"time"
)

// Client validates a single license against the server and maintains the
// local offline cache. It is safe for concurrent use.
type Client struct {
	transport   Transport
	fingerprint FingerprintProvider
	cache       *OfflineCache
	licenseKey  string
	deviceName  *string
	deviceInfo  *string
}

// ClientOption is a function that configures the Client.
type ClientOption func(*Client)

// WithFingerprintProvider overrides the default machine fingerprint source.
func WithFingerprintProvider(p FingerprintProvider) ClientOption {
	return func(c *Client) {
		c.fingerprint = p
	}
}

// WithOfflineCache enables the encrypted offline validation cache at path.
func WithOfflineCache(path string) ClientOption {
	return func(c *Client) {
		c.cache = NewOfflineCache(path, c.fingerprint)
	}
}

// WithDeviceName sets the human-readable device name sent on bind.
func WithDeviceName(name string) ClientOption {
	return func(c *Client) {
		c.deviceName = &name
	}
}

// WithDeviceInfo sets the device description sent on bind.
func WithDeviceInfo(info string) ClientOption {
	return func(c *Client) {
		c.deviceInfo = &info
	}
}

// NewClient creates a license client for the given key.
//
// Options are applied in order; WithOfflineCache captures the fingerprint
// provider configured at that point, so pass WithFingerprintProvider first.
func NewClient(licenseKey string, transport Transport, opts ...ClientOption) *Client {
	c := &Client{
		transport:   transport,
		fingerprint: NewMachineFingerprint(),
		licenseKey:  licenseKey,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind claims the license for this machine.
func (c *Client) Bind(ctx context.Context) (*BindResult, error) {
	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint: %w", err)
	}

	result, err := c.transport.Bind(ctx, BindRequest{
		LicenseKey: c.licenseKey,
		HardwareID: hw,
		DeviceName: c.deviceName,
		DeviceInfo: c.deviceInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("bind: %w", err)
	}
	return result, nil
}

// Release frees the license binding and drops the offline cache, since the
// cached grant no longer reflects a bound license.
func (c *Client) Release(ctx context.Context) error {
	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return fmt.Errorf("resolve fingerprint: %w", err)
	}

	if err := c.transport.Release(ctx, ValidateRequest{LicenseKey: c.licenseKey, HardwareID: hw}); err != nil {
		return fmt.Errorf("release: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Clear(); err != nil {
			return fmt.Errorf("clear offline cache: %w", err)
		}
	}
	return nil
}

// Validate performs an online validation and refreshes the offline cache on
// success.
func (c *Client) Validate(ctx context.Context) (*ValidationResult, error) {
	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint: %w", err)
	}

	result, err := c.transport.Validate(ctx, ValidateRequest{LicenseKey: c.licenseKey, HardwareID: hw})
	if err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	c.storeCache(result)
	return result, nil
}

// ValidateOrBind validates the license, binding it to this machine first if
// it is not bound anywhere. A license bound to different hardware is not
// stolen; the bound-elsewhere error propagates.
func (c *Client) ValidateOrBind(ctx context.Context) (*ValidationResult, error) {
	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint: %w", err)
	}

	result, err := c.transport.ValidateOrBind(ctx, BindRequest{
		LicenseKey: c.licenseKey,
		HardwareID: hw,
		DeviceName: c.deviceName,
		DeviceInfo: c.deviceInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("validate or bind: %w", err)
	}

	c.storeCache(result)
	return result, nil
}

// Heartbeat reports liveness and extends the offline window. The cached
// deadline is refreshed but never shortened.
func (c *Client) Heartbeat(ctx context.Context) (*HeartbeatResult, error) {
	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint: %w", err)
	}

	result, err := c.transport.Heartbeat(ctx, ValidateRequest{LicenseKey: c.licenseKey, HardwareID: hw})
	if err != nil {
		return nil, fmt.Errorf("heartbeat: %w", err)
	}

	if c.cache != nil {
		// Best effort; a cache write failure must not fail the heartbeat.
		_ = c.cache.Refresh(c.licenseKey, result.GracePeriodEndsAt, result.ServerTime)
	}
	return result, nil
}

// ValidateFeature checks that the license is valid and includes the feature.
func (c *Client) ValidateFeature(ctx context.Context, feature string) (*ValidationResult, error) {
	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint: %w", err)
	}

	result, err := c.transport.ValidateFeature(ctx, FeatureRequest{
		LicenseKey: c.licenseKey,
		HardwareID: hw,
		Feature:    feature,
	})
	if err != nil {
		return nil, fmt.Errorf("validate feature: %w", err)
	}

	c.storeCache(result)
	return result, nil
}

// ValidateOffline validates against the encrypted local cache without any
// network access. It fails when no cache exists, the cache was written on
// different hardware, the cache is tampered, or the server-issued offline
// deadline has passed.
func (c *Client) ValidateOffline() (*ValidationResult, error) {
	if c.cache == nil {
		return nil, ErrCacheMissing
	}

	record, err := c.cache.Load()
	if err != nil {
		return nil, err
	}

	if record.LicenseKey != c.licenseKey {
		return nil, ErrCacheMissing
	}

	now := time.Now()
	if record.GracePeriodEndsAt == nil || !record.GracePeriodEndsAt.After(now) {
		return nil, ErrGracePeriodExpired
	}

	warning := fmt.Sprintf("validated offline; reconnect before %s",
		record.GracePeriodEndsAt.UTC().Format(time.RFC3339))

	return &ValidationResult{
		Valid:             true,
		Features:          record.Features,
		Tier:              record.Tier,
		ExpiresAt:         record.ExpiresAt,
		GracePeriodEndsAt: record.GracePeriodEndsAt,
		Warning:           &warning,
		ValidatedAt:       record.ValidatedAt,
	}, nil
}

// ValidateWithFallback validates online and falls back to the offline cache
// only when the failure is network-class. An authoritative server rejection
// propagates immediately even if a still-valid cache exists: freshness wins
// over availability, a revoked license must not validate offline.
func (c *Client) ValidateWithFallback(ctx context.Context) (*ValidationResult, error) {
	result, err := c.Validate(ctx)
	if err == nil {
		return result, nil
	}

	if _, authoritative := IsAPIError(err); authoritative {
		return nil, err
	}

	offline, offlineErr := c.ValidateOffline()
	if offlineErr != nil {
		return nil, fmt.Errorf("online validation failed (%v); offline fallback failed: %w", err, offlineErr)
	}
	return offline, nil
}

func (c *Client) storeCache(result *ValidationResult) {
	if c.cache == nil || result == nil || !result.Valid {
		return
	}
	// Best effort; the online result stands even if the cache write fails.
	_ = c.cache.Store(CachedValidation{
		LicenseKey:        c.licenseKey,
		Features:          result.Features,
		Tier:              result.Tier,
		ExpiresAt:         result.ExpiresAt,
		GracePeriodEndsAt: result.GracePeriodEndsAt,
		ValidatedAt:       result.ValidatedAt,
	})
}
