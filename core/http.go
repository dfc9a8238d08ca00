package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// APIClient is the HTTP request helper every domain client goes
// through. It mirrors the front-end fetcher contract: relative paths
// against a fixed base URL, a bearer token attached from the token
// store when present, JSON in and out by default, and a non-2xx
// response surfaced as an error carrying the raw response body text.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
	// streamClient carries no overall timeout: http.Client.Timeout
	// covers the whole body read and would cut long-lived streams.
	streamClient *http.Client
	tokens       *TokenStore
	logger       Logger
	telemetry    Telemetry
	userAgent    string
}

// ClientOption configures the APIClient
type ClientOption func(*APIClient)

// WithLogger sets the logger used for request logging
func WithLogger(logger Logger) ClientOption {
	return func(c *APIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClientTelemetry sets the telemetry used for request spans
func WithClientTelemetry(t Telemetry) ClientOption {
	return func(c *APIClient) {
		if t != nil {
			c.telemetry = t
		}
	}
}

// WithHTTPClient replaces the underlying http.Client (tests)
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *APIClient) {
		if hc != nil {
			c.httpClient = hc
			c.streamClient = hc
		}
	}
}

// WithTokenStore attaches the token store used for bearer auth
func WithTokenStore(tokens *TokenStore) ClientOption {
	return func(c *APIClient) {
		c.tokens = tokens
	}
}

// NewAPIClient creates the request helper from configuration. When
// telemetry is enabled the transport is wrapped with otelhttp so every
// outgoing request carries a client span.
func NewAPIClient(cfg *Config, opts ...ClientOption) *APIClient {
	transport := http.DefaultTransport
	if cfg.Telemetry.Enabled {
		transport = otelhttp.NewTransport(transport)
	}

	c := &APIClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.HTTP.Timeout,
			Transport: transport,
		},
		streamClient: &http.Client{
			Transport: transport,
		},
		logger:    &NoOpLogger{},
		telemetry: &NoOpTelemetry{},
		userAgent: cfg.HTTP.UserAgent,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// url joins the base URL with a relative path
func (c *APIClient) url(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// newRequest builds a request with default headers and bearer auth
func (c *APIClient) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	return req, nil
}

// Request performs an API call and decodes the JSON response into out
// when out is non-nil. Transport failures wrap ErrConnectionFailed;
// non-2xx responses return an *HTTPError whose message is the raw
// response body text.
func (c *APIClient) Request(ctx context.Context, method, path string, body, out interface{}) error {
	ctx, span := c.telemetry.StartSpan(ctx, "api."+strings.ToLower(method))
	defer span.End()
	span.SetAttribute("http.method", method)
	span.SetAttribute("http.path", path)

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		span.RecordError(err)
		return err
	}

	c.logger.Debug("API request", map[string]interface{}{
		"method": method,
		"path":   path,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		c.logger.Error("API request failed", map[string]interface{}{
			"method": method,
			"path":   path,
			"error":  err.Error(),
		})
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	span.SetAttribute("http.status_code", resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		httpErr := &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
		span.RecordError(httpErr)
		c.logger.Warn("API request rejected", map[string]interface{}{
			"method":      method,
			"path":        path,
			"status_code": resp.StatusCode,
		})
		return httpErr
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get is shorthand for Request with GET and no body
func (c *APIClient) Get(ctx context.Context, path string, out interface{}) error {
	return c.Request(ctx, http.MethodGet, path, nil, out)
}

// Post is shorthand for Request with POST
func (c *APIClient) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Request(ctx, http.MethodPost, path, body, out)
}

// Put is shorthand for Request with PUT
func (c *APIClient) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Request(ctx, http.MethodPut, path, body, out)
}

// Patch is shorthand for Request with PATCH
func (c *APIClient) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Request(ctx, http.MethodPatch, path, body, out)
}

// Delete is shorthand for Request with DELETE and no body
func (c *APIClient) Delete(ctx context.Context, path string, out interface{}) error {
	return c.Request(ctx, http.MethodDelete, path, nil, out)
}

// OpenStream opens a long-lived event stream response. The caller
// owns the returned body and must close it; cancelling ctx aborts the
// in-flight read.
func (c *APIClient) OpenStream(ctx context.Context, path string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if resp.StatusCode != http.StatusOK {
		text, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	return resp.Body, nil
}

// Download fetches a binary document (e.g. a shipping receipt PDF)
// and returns its bytes together with the filename suggested by the
// Content-Disposition header, or fallback when none is present.
func (c *APIClient) Download(ctx context.Context, path, fallback string) ([]byte, string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		text, _ := io.ReadAll(resp.Body)
		return nil, "", &HTTPError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(text)),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read document: %w", err)
	}

	filename := fallback
	if disposition := resp.Header.Get("Content-Disposition"); strings.Contains(disposition, "filename=") {
		part := disposition[strings.Index(disposition, "filename=")+len("filename="):]
		filename = strings.Trim(strings.TrimSpace(part), `"`)
	}

	return data, filename, nil
}

// BaseURL returns the configured API base URL
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// Tokens returns the attached token store, which may be nil
func (c *APIClient) Tokens() *TokenStore {
	return c.tokens
}

// Logger returns the configured logger
func (c *APIClient) Logger() Logger {
	return c.logger
}
