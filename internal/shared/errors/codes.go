package errors

// Stable machine-readable error codes shared between the service and the SDK.
const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeInternalError  = "INTERNAL_ERROR"

	CodeLicenseNotFound    = "LICENSE_NOT_FOUND"
	CodeLicenseExpired     = "LICENSE_EXPIRED"
	CodeLicenseRevoked     = "LICENSE_REVOKED"
	CodeLicenseSuspended   = "LICENSE_SUSPENDED"
	CodeLicenseBlacklisted = "LICENSE_BLACKLISTED"

	CodeAlreadyBound     = "ALREADY_BOUND"
	CodeNotBound         = "NOT_BOUND"
	CodeHardwareMismatch = "HARDWARE_MISMATCH"

	CodeFeatureNotIncluded = "FEATURE_NOT_INCLUDED"
	CodeQuotaExceeded      = "QUOTA_EXCEEDED"
)
