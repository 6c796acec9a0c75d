package license

import (
	"errors"
	"fmt"
)

var (
	ErrLicenseNotFound         = errors.New("license not found")
	ErrLicenseExpired          = errors.New("license expired")
	ErrLicenseRevoked          = errors.New("license revoked")
	ErrLicenseSuspended        = errors.New("license suspended")
	ErrLicenseBlacklisted      = errors.New("license blacklisted")
	ErrAlreadyBound            = errors.New("license already bound to another device")
	ErrNotBound                = errors.New("license not bound to any device")
	ErrHardwareMismatch        = errors.New("hardware ID does not match bound device")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
