package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pestguard/fieldops/internal/logging"
)

// TokenSource supplies the bearer token for outgoing requests. Returning
// an empty string (or an error) means the request proceeds without an
// Authorization header and the server decides how to reject it; a missing
// token must never fail the request path locally.
type TokenSource func() (string, error)

// envelope is the platform's standard response wrapper:
// {"data": <payload>, "message": "..."}.
type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// errorBody is the platform's error response shape on non-2xx statuses.
type errorBody struct {
	Message string `json:"message"`
}

// Client is a thin HTTP client for the field-service platform mobile API.
// It handles Bearer token authentication, the {data, message} response
// envelope, and automatic retry with exponential backoff on HTTP 429.
type Client struct {
	baseURL    string
	token      TokenSource
	httpClient *http.Client
	maxRetries int
}

// NewClient creates a new platform API client. The baseURL should be the
// mobile API root (e.g., https://api.pestguard.example/api/mobile).
func NewClient(baseURL string, token TokenSource, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries: 3,
	}
}

// Get performs an HTTP GET request and unmarshals the envelope's data
// field into result.
func (c *Client) Get(
	ctx context.Context,
	path string,
	result interface{},
) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

// Post performs an HTTP POST request with a JSON body and unmarshals the
// envelope's data field into result.
func (c *Client) Post(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

// Patch performs an HTTP PATCH request with a JSON body and unmarshals
// the envelope's data field into result.
func (c *Client) Patch(
	ctx context.Context,
	path string,
	body interface{},
	result interface{},
) error {
	return c.do(ctx, http.MethodPatch, path, body, result)
}

// do is the core HTTP method that builds the request, handles auth,
// rate limiting with exponential backoff, and envelope decoding.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	body interface{},
	result interface{},
) error {
	url := c.baseURL + path
	requestID := uuid.NewString()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Rebuild the body reader on retries since it was consumed.
		if attempt > 0 && body != nil {
			data, _ := json.Marshal(body)
			bodyReader = bytes.NewReader(data)
		}

		req, err := http.NewRequestWithContext(
			ctx, method, url, bodyReader,
		)
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		if token, tokenErr := c.token(); tokenErr == nil && token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("X-Request-ID", requestID)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logging.Logger.Warn().
				Str("request_id", requestID).
				Str("method", method).
				Str("path", path).
				Err(err).
				Msg("transport failure")
			return &RequestError{Method: method, Path: path, Err: err}
		}

		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			return &RequestError{Method: method, Path: path, Err: readErr}
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			waitDuration := retryAfterDuration(resp, attempt)
			lastErr = &APIError{
				StatusCode: resp.StatusCode,
				Method:     method,
				Path:       path,
				Message:    "rate limited",
			}

			select {
			case <-ctx.Done():
				return &RequestError{Method: method, Path: path, Err: ctx.Err()}
			case <-time.After(waitDuration):
				continue
			}
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			apiErr := &APIError{
				StatusCode: resp.StatusCode,
				Method:     method,
				Path:       path,
			}
			var eb errorBody
			if json.Unmarshal(respBody, &eb) == nil {
				apiErr.Message = eb.Message
			}
			logging.Logger.Warn().
				Str("request_id", requestID).
				Str("method", method).
				Str("path", path).
				Int("status", resp.StatusCode).
				Str("message", apiErr.Message).
				Msg("server rejected request")
			return apiErr
		}

		// No content to parse (e.g. 204).
		if result == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}

		var env envelope
		if err := json.Unmarshal(respBody, &env); err != nil {
			return fmt.Errorf(
				"unmarshaling response from %s %s: %w", method, path, err,
			)
		}

		// Some endpoints return the payload bare rather than wrapped.
		payload := env.Data
		if payload == nil {
			payload = respBody
		}

		if err := json.Unmarshal(payload, result); err != nil {
			return fmt.Errorf(
				"unmarshaling response data from %s %s: %w",
				method, path, err,
			)
		}

		return nil
	}

	return fmt.Errorf(
		"max retries (%d) exceeded: %w", c.maxRetries, lastErr,
	)
}

// retryAfterDuration reads the Retry-After header and computes a wait
// duration. Falls back to exponential backoff if the header is missing.
func retryAfterDuration(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if seconds, err := strconv.Atoi(header); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}

	// Exponential backoff: 1s, 2s, 4s, ...
	backoff := time.Duration(1<<uint(attempt)) * time.Second
	if backoff > 30*time.Second {
		backoff = 30 * time.Second
	}
	return backoff
}
