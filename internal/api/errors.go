package api

import (
	"errors"
	"fmt"
	"net/http"
)

// RequestError indicates the request never produced a usable response:
// connection failures, timeouts, cancelled contexts. The local cache is
// left untouched when one of these surfaces.
type RequestError struct {
	Method string
	Path   string
	Err    error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("request failed: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// APIError is a non-2xx response from the platform. Message carries the
// server's human-readable explanation from the {message} error body.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf(
			"server error (%d) on %s %s: %s",
			e.StatusCode, e.Method, e.Path, e.Message,
		)
	}
	return fmt.Sprintf(
		"unexpected status %d on %s %s", e.StatusCode, e.Method, e.Path,
	)
}

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// IsNotFound reports whether err is a 404 from the platform.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsAuthError reports whether err is a 401 from the platform, meaning the
// stored token is missing, expired, or revoked.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
