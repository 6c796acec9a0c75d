package license

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/crypto/hkdf"
)

// cacheSalt is the fixed per-installation HKDF salt. It is not a secret; the
// secrecy of the cache key comes entirely from the hardware fingerprint.
var cacheSalt = []byte("warden-offline-cache-v1")

// cacheKeyInfo is the HKDF info string binding the derived key to this use.
var cacheKeyInfo = []byte("offline-validation-key")

// CachedValidation is the client-side snapshot of the last successful online
// validation. It is never read by the server.
type CachedValidation struct {
	LicenseKey        string     `json:"license_key"`
	HardwareID        string     `json:"hardware_id"`
	Features          []string   `json:"features"`
	Tier              *string    `json:"tier,omitempty"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	GracePeriodEndsAt *time.Time `json:"grace_period_ends_at,omitempty"`
	ValidatedAt       time.Time  `json:"validated_at"`
}

// OfflineCache stores an encrypted CachedValidation on disk. The encryption
// key is derived from the hardware fingerprint, so a copied cache file cannot
// be decrypted on another machine. Writes replace the whole record.
type OfflineCache struct {
	mu          sync.Mutex
	path        string
	fingerprint FingerprintProvider
}

// NewOfflineCache creates a cache persisted at path.
func NewOfflineCache(path string, fingerprint FingerprintProvider) *OfflineCache {
	return &OfflineCache{
		path:        path,
		fingerprint: fingerprint,
	}
}

// deriveKey derives the AES-256 key from the hardware fingerprint with
// HKDF-SHA256. The license key is deliberately not an input: knowing it must
// not help decrypt a cache copied off the machine.
func deriveKey(hardwareID string) ([]byte, error) {
	key := make([]byte, 32)
	reader := hkdf.New(sha256.New, []byte(hardwareID), cacheSalt, cacheKeyInfo)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive cache key: %w", err)
	}
	return key, nil
}

// Store replaces the cached record with a fresh snapshot. A previously
// granted offline deadline for the same license is kept when it is later
// than the new one, so a refresh can only ever extend the offline window.
func (c *OfflineCache) Store(record CachedValidation) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return fmt.Errorf("resolve fingerprint: %w", err)
	}
	record.HardwareID = hw

	if existing, err := c.load(hw); err == nil && existing.LicenseKey == record.LicenseKey {
		if laterDeadline(existing.GracePeriodEndsAt, record.GracePeriodEndsAt) {
			record.GracePeriodEndsAt = existing.GracePeriodEndsAt
		}
	}

	return c.write(hw, record)
}

// Refresh updates only the offline deadline of an existing cached record,
// used after heartbeat responses which carry no feature payload. It is a
// no-op when no cache exists or the cache belongs to a different license.
func (c *OfflineCache) Refresh(licenseKey string, deadline *time.Time, at time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return fmt.Errorf("resolve fingerprint: %w", err)
	}

	record, err := c.load(hw)
	if err != nil {
		return nil
	}
	if record.LicenseKey != licenseKey {
		return nil
	}

	if !laterDeadline(record.GracePeriodEndsAt, deadline) {
		record.GracePeriodEndsAt = deadline
	}
	record.ValidatedAt = at

	return c.write(hw, *record)
}

// Load decrypts and returns the cached record, verifying it was created on
// this machine. Any decrypt or decode failure is reported as ErrCacheInvalid.
func (c *OfflineCache) Load() (*CachedValidation, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	hw, err := c.fingerprint.Fingerprint()
	if err != nil {
		return nil, fmt.Errorf("resolve fingerprint: %w", err)
	}

	record, err := c.load(hw)
	if err != nil {
		return nil, err
	}

	// The key derivation already ties the cache to this machine; the stored
	// hardware ID is checked as well so a key-derivation bug cannot silently
	// make caches portable.
	if record.HardwareID != hw {
		return nil, ErrCacheWrongHardware
	}

	return record, nil
}

// Clear removes the cached record.
func (c *OfflineCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := os.Remove(c.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove cache: %w", err)
	}
	return nil
}

func (c *OfflineCache) load(hardwareID string) (*CachedValidation, error) {
	ciphertext, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMissing
		}
		return nil, fmt.Errorf("read cache: %w", err)
	}

	key, err := deriveKey(hardwareID)
	if err != nil {
		return nil, err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, ErrCacheInvalid
	}

	nonce, sealed := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	plaintext, err := gcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		// Fail closed: tampering and wrong-machine decryption both land here.
		return nil, ErrCacheInvalid
	}

	var record CachedValidation
	if err := json.Unmarshal(plaintext, &record); err != nil {
		return nil, ErrCacheInvalid
	}

	return &record, nil
}

func (c *OfflineCache) write(hardwareID string, record CachedValidation) error {
	plaintext, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal cache record: %w", err)
	}

	key, err := deriveKey(hardwareID)
	if err != nil {
		return err
	}

	gcm, err := newGCM(key)
	if err != nil {
		return err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, plaintext, nil)

	// Write to a temp file and rename so a crash mid-write cannot leave a
	// half-written cache behind.
	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".warden-cache-*")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(ciphertext); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file: %w", err)
	}

	return nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("init gcm: %w", err)
	}
	return gcm, nil
}

// laterDeadline reports whether existing is strictly later than candidate.
// A nil deadline never wins over a concrete one.
func laterDeadline(existing, candidate *time.Time) bool {
	if existing == nil {
		return false
	}
	if candidate == nil {
		return true
	}
	return existing.After(*candidate)
}
