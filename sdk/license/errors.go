package license

import (
	"errors"
	"fmt"
)

// Error codes returned by the license server. The SDK surfaces them verbatim
// so callers can branch on the exact rejection reason.
const (
	CodeLicenseNotFound    = "LICENSE_NOT_FOUND"
	CodeLicenseExpired     = "LICENSE_EXPIRED"
	CodeLicenseRevoked     = "LICENSE_REVOKED"
	CodeLicenseSuspended   = "LICENSE_SUSPENDED"
	CodeLicenseBlacklisted = "LICENSE_BLACKLISTED"
	CodeAlreadyBound       = "ALREADY_BOUND"
	CodeNotBound           = "NOT_BOUND"
	CodeHardwareMismatch   = "HARDWARE_MISMATCH"
	CodeFeatureNotIncluded = "FEATURE_NOT_INCLUDED"
	CodeQuotaExceeded      = "QUOTA_EXCEEDED"
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeInternalError      = "INTERNAL_ERROR"
)

// APIError is an authoritative rejection from the license server. It means
// the server received the request and decided against it, as opposed to a
// network-class failure where the server's decision is unknown.
type APIError struct {
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsAPIError reports whether err is an authoritative server rejection and
// returns it if so.
func IsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err is a network-class failure: the request
// never produced an authoritative server decision. These are the only errors
// ValidateWithFallback will mask with the offline cache.
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := IsAPIError(err); ok {
		return false
	}
	return true
}

// Offline cache errors. All decrypt and verification failures collapse into
// ErrCacheInvalid so a tampered cache is indistinguishable from no cache.
var (
	ErrCacheMissing       = errors.New("no offline validation cache")
	ErrCacheInvalid       = errors.New("offline validation cache is invalid")
	ErrCacheWrongHardware = errors.New("offline validation cache was created on different hardware")
	ErrGracePeriodExpired = errors.New("offline grace period has expired")
)
