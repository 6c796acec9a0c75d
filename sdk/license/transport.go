package license

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// HTTPTransport talks to the license server over its JSON API.
type HTTPTransport struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPOption is a function that configures the HTTPTransport.
type HTTPOption func(*HTTPTransport)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(t *HTTPTransport) {
		t.httpClient = c
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HTTPOption {
	return func(t *HTTPTransport) {
		t.httpClient.Timeout = d
	}
}

// WithToken sets the API authentication token.
func WithToken(token string) HTTPOption {
	return func(t *HTTPTransport) {
		t.token = token
	}
}

// NewHTTPTransport creates a Transport over HTTP.
//
// Parameters:
//   - baseURL: The API base URL (e.g., "https://license.example.com")
func NewHTTPTransport(baseURL string, opts ...HTTPOption) *HTTPTransport {
	t := &HTTPTransport{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *HTTPTransport) Bind(ctx context.Context, req BindRequest) (*BindResult, error) {
	var result BindResult
	if err := t.doRequest(ctx, "/api/v1/licenses/bind", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) Release(ctx context.Context, req ValidateRequest) error {
	return t.doRequest(ctx, "/api/v1/licenses/release", req, nil)
}

func (t *HTTPTransport) Validate(ctx context.Context, req ValidateRequest) (*ValidationResult, error) {
	var result ValidationResult
	if err := t.doRequest(ctx, "/api/v1/licenses/validate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) ValidateOrBind(ctx context.Context, req BindRequest) (*ValidationResult, error) {
	var result ValidationResult
	if err := t.doRequest(ctx, "/api/v1/licenses/validate-or-bind", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) Heartbeat(ctx context.Context, req ValidateRequest) (*HeartbeatResult, error) {
	var result HeartbeatResult
	if err := t.doRequest(ctx, "/api/v1/licenses/heartbeat", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (t *HTTPTransport) ValidateFeature(ctx context.Context, req FeatureRequest) (*ValidationResult, error) {
	var result ValidationResult
	if err := t.doRequest(ctx, "/api/v1/licenses/validate-feature", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// apiResponse is the server's response envelope.
type apiResponse struct {
	Success bool            `json:"success"`
	Code    string          `json:"code,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// doRequest performs an HTTP POST and decodes the response envelope. A
// response that carries a server error code becomes an *APIError; everything
// else (dial failure, timeout, unparseable body) stays a plain error so the
// caller can classify it as network-class.
func (t *HTTPTransport) doRequest(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		return fmt.Errorf("api error: status=%d body=%s", resp.StatusCode, string(respBody))
	}

	if !apiResp.Success {
		if apiResp.Code == "" {
			return fmt.Errorf("api error: status=%d message=%s", resp.StatusCode, apiResp.Message)
		}
		return &APIError{Code: apiResp.Code, Message: apiResp.Message}
	}

	if result == nil || apiResp.Data == nil {
		return nil
	}

	if err := json.Unmarshal(apiResp.Data, result); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}

	return nil
}
