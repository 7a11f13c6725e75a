// Base HTTP client shared by the user and catalog services
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tvbf/internal/shared"
	"golang.org/x/oauth2"
)

// RequestIDHeader carries a per-request UUID for correlating client and service logs.
const RequestIDHeader = "X-Request-ID"

// APIService performs raw JSON requests against a single service base URL.
type APIService struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

// NewAPIService creates a new API service instance for baseURL.
func NewAPIService(baseURL string, client *http.Client) *APIService {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &APIService{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     log.Default(),
	}
}

// SetLogger replaces the logger used for request tracing.
func (a *APIService) SetLogger(l *log.Logger) {
	if l != nil {
		a.logger = l
	}
}

// BaseURL returns the service base URL without a trailing slash.
func (a *APIService) BaseURL() string {
	return a.baseURL
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the status code is in the 2xx range.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Decode unmarshals the response body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// RequestOption modifies an outbound request before it is sent.
type RequestOption func(*http.Request)

// WithHeader copies h onto the request, replacing existing values.
func WithHeader(h http.Header) RequestOption {
	return func(req *http.Request) {
		for k, vs := range h {
			req.Header.Del(k)
			for _, v := range vs {
				req.Header.Add(k, v)
			}
		}
	}
}

// WithToken sets the Authorization header from tok, overwriting any caller-supplied value.
func WithToken(tok *oauth2.Token) RequestOption {
	return func(req *http.Request) {
		if tok != nil && tok.AccessToken != "" {
			tok.SetAuthHeader(req)
		}
	}
}

// Do sends a request with an optional JSON body and reads the full response.
//
// A non-2xx status is not an error; callers inspect [APIResponse.StatusCode].
func (a *APIService) Do(ctx context.Context, method, path string, body []byte, opts ...RequestOption) (*APIResponse, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := shared.GenerateID()
	req.Header.Set(RequestIDHeader, requestID)

	for _, opt := range opts {
		opt(req)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		a.logger.Debug("request failed", "method", method, "path", path, "request_id", requestID, "error", err)
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	a.logger.Debug("request completed", "method", method, "path", path, "status", resp.StatusCode, "request_id", requestID)

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       data,
	}

	var jsonData any
	if err := json.Unmarshal(data, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

// Get performs a GET request to the specified path and returns the raw response.
func (a *APIService) Get(ctx context.Context, path string, opts ...RequestOption) (*APIResponse, error) {
	return a.Do(ctx, http.MethodGet, path, nil, opts...)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (a *APIService) Post(ctx context.Context, path string, data []byte, opts ...RequestOption) (*APIResponse, error) {
	if data == nil {
		data = []byte{}
	}
	return a.Do(ctx, http.MethodPost, path, data, opts...)
}

// encodeBody marshals v to JSON; nil stays nil so no body is sent.
func encodeBody(v any) ([]byte, error) {
	switch b := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to encode request body: %v", shared.ErrInvalidInput, err)
		}
		return data, nil
	}
}
