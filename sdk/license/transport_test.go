package license

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPTransport_Validate(t *testing.T) {
	deadline := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/licenses/validate", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req ValidateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, testLicenseKey, req.LicenseKey)

		resp := map[string]any{
			"success": true,
			"data": ValidationResult{
				Valid:             true,
				Features:          []string{"export"},
				GracePeriodEndsAt: &deadline,
				ValidatedAt:       time.Now(),
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL, WithToken("test-token"))

	result, err := transport.Validate(context.Background(), ValidateRequest{
		LicenseKey: testLicenseKey,
		HardwareID: cacheHW1,
	})
	require.NoError(t, err)
	assert.True(t, result.Valid)
	assert.Equal(t, []string{"export"}, result.Features)
	require.NotNil(t, result.GracePeriodEndsAt)
	assert.True(t, result.GracePeriodEndsAt.Equal(deadline))
}

func TestHTTPTransport_ServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"code":    CodeAlreadyBound,
			"message": "license is already bound to another device",
		})
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL)

	_, err := transport.Bind(context.Background(), BindRequest{LicenseKey: testLicenseKey, HardwareID: cacheHW1})
	require.Error(t, err)

	apiErr, ok := IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, CodeAlreadyBound, apiErr.Code)
	assert.False(t, IsNetworkError(err))
}

func TestHTTPTransport_MalformedResponseIsNetworkClass(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream error</html>"))
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL)

	_, err := transport.Validate(context.Background(), ValidateRequest{LicenseKey: testLicenseKey, HardwareID: cacheHW1})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestHTTPTransport_ConnectionRefusedIsNetworkClass(t *testing.T) {
	transport := NewHTTPTransport("http://127.0.0.1:1", WithTimeout(time.Second))

	_, err := transport.Validate(context.Background(), ValidateRequest{LicenseKey: testLicenseKey, HardwareID: cacheHW1})
	require.Error(t, err)
	assert.True(t, IsNetworkError(err))
}

func TestHTTPTransport_Release(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/licenses/release", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"success": true})
	}))
	defer server.Close()

	transport := NewHTTPTransport(server.URL)

	err := transport.Release(context.Background(), ValidateRequest{LicenseKey: testLicenseKey, HardwareID: cacheHW1})
	assert.NoError(t, err)
}
