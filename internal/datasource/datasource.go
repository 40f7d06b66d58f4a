// Package datasource fetches raw financial statements from vendors. Each
// source returns statements with the vendor's own row labels; mapping them to
// canonical line items is the normalizer's job.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/seenimoa/ratiolens/pkg/models"
)

// StatementSource is implemented by every statement vendor.
type StatementSource interface {
	// Name returns the human-readable name of this source.
	Name() string

	// FetchStatement returns one statement family for ticker. Unsupported
	// family/frequency combinations return ErrNotSupported.
	FetchStatement(ctx context.Context, ticker string, family models.Family, freq models.Frequency) (models.RawStatement, error)

	// FetchCompanyInfo returns the company's name, sector and industry.
	FetchCompanyInfo(ctx context.Context, ticker string) (models.CompanyInfo, error)
}

// --- Sentinel errors ---

// ErrNotSupported is returned when a source cannot serve a request.
var ErrNotSupported = errors.New("operation not supported by this data source")

// ErrTickerNotFound is returned when a ticker cannot be resolved.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrNoData is returned when a source answered but had no statement rows.
var ErrNoData = errors.New("no statement data")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// --- Shared HTTP client ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// Options configures an HTTP-backed source. Zero fields take defaults.
type Options struct {
	BaseURL        string
	Client         *http.Client
	Timeout        time.Duration
	RequestsPerSec float64
	CacheTTL       time.Duration
	Logger         zerolog.Logger
}

func (o Options) httpClient() *http.Client {
	if o.Client != nil {
		return o.Client
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) limiter(defaultRPS float64) *RateLimiter {
	rps := o.RequestsPerSec
	if rps <= 0 {
		rps = defaultRPS
	}
	return NewRateLimiter(rps, 1)
}

func (o Options) cache(defaultTTL time.Duration) *Cache[models.RawStatement] {
	ttl := o.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return NewCache[models.RawStatement](ttl)
}

// doGet performs a GET request, returning the response body. The caller
// closes it. 404 maps to ErrTickerNotFound and 429 to ErrRateLimited, both
// wrapped around the *ErrHTTP.
func doGet(ctx context.Context, client *http.Client, url string, headers map[string]string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		herr := &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, fmt.Errorf("%w: %w", ErrTickerNotFound, herr)
		case http.StatusTooManyRequests:
			return nil, fmt.Errorf("%w: %w", ErrRateLimited, herr)
		}
		return nil, herr
	}

	return resp.Body, nil
}

// --- In-memory cache ---

type cacheEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// Cache is a thread-safe in-memory cache with TTL.
type Cache[V any] struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry[V]
	ttl     time.Duration
	now     func() time.Time
}

// NewCache creates a cache with the given default TTL.
func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[string]cacheEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a live entry.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || c.now().After(e.expiresAt) {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value with the default TTL. Expired entries are dropped on
// the way, so a long sector run does not hold every statement it fetched.
func (c *Cache[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	c.entries[key] = cacheEntry[V]{value: value, expiresAt: now.Add(c.ttl)}
}

// --- Rate limiter ---

// RateLimiter is a token bucket refilled at a fixed rate.
type RateLimiter struct {
	mu       sync.Mutex
	tokens   float64
	burst    float64
	interval time.Duration // time to earn one token
	last     time.Time
}

// NewRateLimiter allows rps requests per second with bursts of up to burst.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		tokens:   float64(burst),
		burst:    float64(burst),
		interval: time.Duration(float64(time.Second) / rps),
		last:     time.Now(),
	}
}

// Wait blocks until a token is available or ctx is done.
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		now := time.Now()
		rl.tokens += float64(now.Sub(rl.last)) / float64(rl.interval)
		if rl.tokens > rl.burst {
			rl.tokens = rl.burst
		}
		rl.last = now
		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}
		wait := time.Duration((1 - rl.tokens) * float64(rl.interval))
		rl.mu.Unlock()

		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}

func cacheKey(ticker string, family models.Family, freq models.Frequency) string {
	return ticker + ":" + string(family) + ":" + string(freq)
}
