package valueobjects

type LicenseStatus string

const (
	StatusActive    LicenseStatus = "active"
	StatusSuspended LicenseStatus = "suspended"
	StatusRevoked   LicenseStatus = "revoked"
	StatusExpired   LicenseStatus = "expired"
)

func (s LicenseStatus) String() string {
	return string(s)
}

func (s LicenseStatus) CanValidate() bool {
	return s == StatusActive || s == StatusSuspended
}

func (s LicenseStatus) CanTransitionTo(target LicenseStatus) bool {
	transitions := map[LicenseStatus][]LicenseStatus{
		StatusActive:    {StatusSuspended, StatusRevoked, StatusExpired},
		StatusSuspended: {StatusActive, StatusRevoked},
		StatusRevoked:   {StatusActive},
		StatusExpired:   {StatusActive, StatusRevoked},
	}

	allowed, exists := transitions[s]
	if !exists {
		return false
	}

	for _, allowedStatus := range allowed {
		if allowedStatus == target {
			return true
		}
	}
	return false
}

var ValidStatuses = map[LicenseStatus]bool{
	StatusActive:    true,
	StatusSuspended: true,
	StatusRevoked:   true,
	StatusExpired:   true,
}
