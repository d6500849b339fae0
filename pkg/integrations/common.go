// Package integrations provides the shared HTTP plumbing for remote
// API clients. It handles response caching, retry with exponential
// backoff, a global in-flight request limit, and common headers.
package integrations

import (
	"errors"
	"net/http"
	"time"
)

const httpTimeout = 30 * time.Second

// DefaultMaxInFlight bounds the number of simultaneous remote calls
// across one client. Sized conservatively for the GitHub API's
// secondary rate limits.
const DefaultMaxInFlight = 8

var (
	// ErrNotFound is returned when a resource doesn't exist upstream.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")

	// ErrForbidden is returned for authenticated requests the upstream rejects.
	ErrForbidden = errors.New("forbidden")
)

// NewHTTPClient creates an HTTP client with a standard timeout for API requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}
