package valueobjects

import (
	"fmt"
	"strings"
)

// HardwareID is an opaque machine fingerprint: a 64-character lowercase hex
// digest produced by the client's fingerprint provider.
type HardwareID string

const hardwareIDLength = 64

// NewHardwareID validates and normalizes a hardware fingerprint string.
func NewHardwareID(value string) (HardwareID, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if len(normalized) != hardwareIDLength {
		return "", fmt.Errorf("hardware ID must be %d characters, got %d", hardwareIDLength, len(normalized))
	}
	for _, c := range normalized {
		if !isHexDigit(c) {
			return "", fmt.Errorf("hardware ID must be hexadecimal")
		}
	}
	return HardwareID(normalized), nil
}

func isHexDigit(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func (h HardwareID) String() string {
	return string(h)
}
