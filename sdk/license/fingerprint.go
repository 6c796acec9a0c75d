package license

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
)

// FingerprintProvider supplies the 64-hex hardware fingerprint used as the
// binding identity and the offline cache key material.
type FingerprintProvider interface {
	Fingerprint() (string, error)
}

// MachineFingerprint derives a stable fingerprint from machine identity
// sources, preferring the OS machine ID and falling back to hostname plus
// MAC address. The result is cached for the process lifetime since the
// underlying attributes do not change while running.
type MachineFingerprint struct {
	mu     sync.Mutex
	cached string
}

// NewMachineFingerprint creates the default fingerprint provider.
func NewMachineFingerprint() *MachineFingerprint {
	return &MachineFingerprint{}
}

// machineIDPaths are tried in order. The DMI product UUID requires root on
// most systems, so /etc/machine-id usually wins.
var machineIDPaths = []string{
	"/etc/machine-id",
	"/var/lib/dbus/machine-id",
	"/sys/class/dmi/id/product_uuid",
}

func (f *MachineFingerprint) Fingerprint() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cached != "" {
		return f.cached, nil
	}

	factors := []string{runtime.GOOS, runtime.GOARCH}

	if id := readMachineID(); id != "" {
		factors = append(factors, "machine-id", id)
	} else {
		hostname, err := os.Hostname()
		if err != nil || hostname == "" {
			return "", fmt.Errorf("no machine ID and no hostname available")
		}
		mac := primaryMACAddress()
		if mac == "" {
			return "", fmt.Errorf("no machine ID and no MAC address available")
		}
		factors = append(factors, "host-mac", strings.ToLower(strings.TrimSpace(hostname)), mac)
	}

	hash := sha256.Sum256([]byte(strings.Join(factors, "|")))
	f.cached = hex.EncodeToString(hash[:])
	return f.cached, nil
}

func readMachineID() string {
	for _, path := range machineIDPaths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		id := strings.TrimSpace(string(data))
		if id != "" {
			return id
		}
	}
	return ""
}

// primaryMACAddress returns the MAC of the first up, non-loopback interface,
// falling back to any interface with a hardware address.
func primaryMACAddress() string {
	interfaces, err := net.Interfaces()
	if err != nil {
		return ""
	}

	for _, iface := range interfaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac
		}
	}

	for _, iface := range interfaces {
		if mac := iface.HardwareAddr.String(); mac != "" && mac != "00:00:00:00:00:00" {
			return mac
		}
	}

	return ""
}

// StaticFingerprint is a FingerprintProvider returning a fixed value, for
// tests and for callers that manage hardware identity themselves.
type StaticFingerprint string

func (s StaticFingerprint) Fingerprint() (string, error) {
	return string(s), nil
}
