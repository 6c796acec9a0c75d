// Package licensekey generates and validates formatted license keys.
package licensekey

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

const (
	// Alphabet excludes visually ambiguous characters: 0, O, I, L, 1.
	alphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"

	// DefaultPrefix is the default key prefix.
	DefaultPrefix = "LIC"

	// DefaultSegments is the default number of random segments.
	DefaultSegments = 4

	// DefaultSegmentLength is the default character count per segment.
	DefaultSegmentLength = 4

	// maxGenerateAttempts bounds collision retries in GenerateUnique.
	maxGenerateAttempts = 10
)

// Format describes the shape of a license key: PREFIX-XXXX-XXXX-...
type Format struct {
	Prefix        string
	Segments      int
	SegmentLength int
}

// DefaultFormat returns the standard key format (LIC-XXXX-XXXX-XXXX-XXXX).
func DefaultFormat() Format {
	return Format{
		Prefix:        DefaultPrefix,
		Segments:      DefaultSegments,
		SegmentLength: DefaultSegmentLength,
	}
}

func (f Format) normalized() Format {
	if f.Prefix == "" {
		f.Prefix = DefaultPrefix
	}
	if f.Segments <= 0 {
		f.Segments = DefaultSegments
	}
	if f.SegmentLength <= 0 {
		f.SegmentLength = DefaultSegmentLength
	}
	return f
}

// Generate creates a random license key in the given format. Each character
// is drawn independently from the key alphabet using crypto/rand.
func Generate(f Format) (string, error) {
	f = f.normalized()

	parts := make([]string, 0, f.Segments+1)
	parts = append(parts, f.Prefix)

	alphabetLen := big.NewInt(int64(len(alphabet)))
	for s := 0; s < f.Segments; s++ {
		segment := make([]byte, f.SegmentLength)
		for i := range segment {
			num, err := rand.Int(rand.Reader, alphabetLen)
			if err != nil {
				return "", fmt.Errorf("failed to generate random number: %w", err)
			}
			segment[i] = alphabet[num.Int64()]
		}
		parts = append(parts, string(segment))
	}

	return strings.Join(parts, "-"), nil
}

// ValidateFormat reports whether key matches the given format exactly:
// correct prefix, segment count, segment length, and alphabet membership.
func ValidateFormat(key string, f Format) bool {
	f = f.normalized()

	parts := strings.Split(key, "-")
	if len(parts) != f.Segments+1 {
		return false
	}
	if parts[0] != f.Prefix {
		return false
	}
	for _, segment := range parts[1:] {
		if len(segment) != f.SegmentLength {
			return false
		}
		for _, c := range segment {
			if !strings.ContainsRune(alphabet, c) {
				return false
			}
		}
	}
	return true
}

// GenerateUnique creates a key not already present according to exists,
// retrying a bounded number of times on collision.
func GenerateUnique(ctx context.Context, f Format, exists func(ctx context.Context, key string) (bool, error)) (string, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		key, err := Generate(f)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, key)
		if err != nil {
			return "", fmt.Errorf("failed to check key uniqueness: %w", err)
		}
		if !taken {
			return key, nil
		}
	}
	return "", fmt.Errorf("failed to generate unique license key after %d attempts", maxGenerateAttempts)
}
