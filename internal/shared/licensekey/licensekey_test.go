package licensekey

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_DefaultFormat(t *testing.T) {
	key, err := Generate(DefaultFormat())
	require.NoError(t, err)

	parts := strings.Split(key, "-")
	require.Len(t, parts, 5)
	assert.Equal(t, "LIC", parts[0])
	for _, segment := range parts[1:] {
		assert.Len(t, segment, 4)
	}
	assert.True(t, ValidateFormat(key, DefaultFormat()))
}

func TestGenerate_ExcludesAmbiguousCharacters(t *testing.T) {
	for i := 0; i < 50; i++ {
		key, err := Generate(DefaultFormat())
		require.NoError(t, err)
		for _, c := range "0OIL1" {
			assert.NotContains(t, key[4:], string(c))
		}
	}
}

func TestGenerate_CustomFormat(t *testing.T) {
	f := Format{Prefix: "WRD", Segments: 6, SegmentLength: 5}
	key, err := Generate(f)
	require.NoError(t, err)

	parts := strings.Split(key, "-")
	require.Len(t, parts, 7)
	assert.Equal(t, "WRD", parts[0])
	assert.True(t, ValidateFormat(key, f))
	assert.False(t, ValidateFormat(key, DefaultFormat()))
}

func TestValidateFormat(t *testing.T) {
	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid", "LIC-2345-6789-ABCD-EFGH", true},
		{"wrong prefix", "XXX-2345-6789-ABCD-EFGH", false},
		{"missing segment", "LIC-2345-6789-ABCD", false},
		{"extra segment", "LIC-2345-6789-ABCD-EFGH-JKMN", false},
		{"short segment", "LIC-234-6789-ABCD-EFGH", false},
		{"ambiguous char O", "LIC-2345-6789-ABCD-EFGO", false},
		{"ambiguous char 0", "LIC-0345-6789-ABCD-EFGH", false},
		{"lowercase", "LIC-abcd-6789-ABCD-EFGH", false},
		{"empty", "", false},
		{"no separators", "LIC23456789ABCDEFGH", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateFormat(tt.key, DefaultFormat()))
		})
	}
}

func TestGenerateUnique_RetriesOnCollision(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, key string) (bool, error) {
		calls++
		return calls < 3, nil
	}

	key, err := GenerateUnique(context.Background(), DefaultFormat(), exists)
	require.NoError(t, err)
	assert.True(t, ValidateFormat(key, DefaultFormat()))
	assert.Equal(t, 3, calls)
}

func TestGenerateUnique_ExhaustsAttempts(t *testing.T) {
	exists := func(ctx context.Context, key string) (bool, error) {
		return true, nil
	}

	_, err := GenerateUnique(context.Background(), DefaultFormat(), exists)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 10 attempts")
}

func TestGenerateUnique_PropagatesExistsError(t *testing.T) {
	boom := errors.New("db down")
	exists := func(ctx context.Context, key string) (bool, error) {
		return false, boom
	}

	_, err := GenerateUnique(context.Background(), DefaultFormat(), exists)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}
