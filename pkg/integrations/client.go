package integrations

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/depchase/depchase/pkg/cache"
	dcerrors "github.com/depchase/depchase/pkg/errors"
	"github.com/depchase/depchase/pkg/httputil"
	"github.com/depchase/depchase/pkg/observability"
)

// Client provides shared HTTP functionality for remote API clients.
// It handles caching, retry logic, a global in-flight limit, and
// common request headers. All methods are safe for concurrent use.
type Client struct {
	http    *http.Client
	cache   cache.Cache
	ttl     time.Duration
	headers map[string]string
	sem     *semaphore.Weighted
}

// NewClient creates a Client with the given cache and default headers.
// Headers are applied to all requests made through this client.
// Pass nil for headers if no default headers are needed; pass a
// [cache.NullCache] to disable caching. maxInFlight bounds concurrent
// requests; values <= 0 use [DefaultMaxInFlight].
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string, maxInFlight int) *Client {
	if maxInFlight <= 0 {
		maxInFlight = DefaultMaxInFlight
	}
	return &Client{
		http:    NewHTTPClient(),
		cache:   c,
		ttl:     ttl,
		headers: headers,
		sem:     semaphore.NewWeighted(int64(maxInFlight)),
	}
}

// Cached retrieves a value from cache or executes fetch and caches the result.
// If refresh is true, the cache is bypassed and fetch is always called.
// The fetch function should populate v; on success, v is stored in the
// cache. Fetch functions built on [Client.Get] already retry
// transient failures; Cached does not add a second retry layer.
func (c *Client) Cached(ctx context.Context, key string, refresh bool, v any, fetch func() error) error {
	keyType := keyTypeOf(key)
	if !refresh {
		if data, ok, _ := c.cache.Get(ctx, key); ok {
			observability.Cache().OnCacheHit(ctx, keyType)
			return json.Unmarshal(data, v)
		}
		observability.Cache().OnCacheMiss(ctx, keyType)
	}
	if err := fetch(); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, keyType, len(data))
	}
	return nil
}

// Invalidate removes a cached entry so the next Cached call refetches.
func (c *Client) Invalidate(ctx context.Context, key string) error {
	return c.cache.Delete(ctx, key)
}

// Get performs an HTTP GET request and JSON-decodes the response into v.
// It uses the client's default headers; transient failures (network
// errors, 5xx, rate limits) are retried with exponential backoff.
func (c *Client) Get(ctx context.Context, url string, v any) error {
	return c.GetWithHeaders(ctx, url, nil, v)
}

// GetWithHeaders performs an HTTP GET with additional headers merged with defaults.
// Request-specific headers override client defaults for the same key.
func (c *Client) GetWithHeaders(ctx context.Context, url string, headers map[string]string, v any) error {
	data, err := c.fetch(ctx, url, headers)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// GetText performs an HTTP GET request and returns the response body as a string.
// Useful for raw-content endpoints like manifest files.
func (c *Client) GetText(ctx context.Context, url string, headers map[string]string) (string, error) {
	data, err := c.fetch(ctx, url, headers)
	return string(data), err
}

// fetch performs the GET and reads the whole body under the retry
// budget, so every remote call through this client gets the same
// backoff behavior regardless of whether the caller caches.
func (c *Client) fetch(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	var data []byte
	err := httputil.RetryWithBackoff(ctx, func() error {
		body, err := c.doRequest(ctx, url, headers)
		if err != nil {
			return err
		}
		defer body.Close()
		data, err = io.ReadAll(body)
		if err != nil {
			return &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (c *Client) doRequest(ctx context.Context, url string, headers map[string]string) (io.ReadCloser, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	observability.HTTP().OnRequest(ctx, req.Method, req.URL.Host, req.URL.Path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		observability.HTTP().OnError(ctx, req.Method, req.URL.Host, req.URL.Path, err)
		return nil, &httputil.RetryableError{Err: fmt.Errorf("%w: %v", ErrNetwork, err)}
	}
	observability.HTTP().OnResponse(ctx, req.Method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}

func checkStatus(resp *http.Response) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code == http.StatusTooManyRequests, isRateLimited(resp):
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		return &httputil.RetryableError{Err: &dcerrors.RateLimitedError{RetryAfter: retryAfter}}
	case code == http.StatusForbidden, code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", ErrForbidden, code)
	case code >= 500:
		return &httputil.RetryableError{Err: fmt.Errorf("%w: status %d", ErrNetwork, code)}
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}

// isRateLimited detects GitHub's 403-based primary rate limit, which is
// distinguishable from a plain 403 by the remaining-quota header.
func isRateLimited(resp *http.Response) bool {
	return resp.StatusCode == http.StatusForbidden &&
		resp.Header.Get("X-Ratelimit-Remaining") == "0"
}

// keyTypeOf extracts the "type" prefix of a "type:rest" cache key,
// used to label cache hook events.
func keyTypeOf(key string) string {
	for i := 0; i < len(key); i++ {
		if key[i] == ':' {
			return key[:i]
		}
	}
	return key
}
