// Package directions is a client for a Google-compatible driving directions
// provider. It returns decoded route geometry for one origin/destination pair.
package directions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/polyline"
)

// ErrNoRoute is returned when the provider answers but has no usable route
// (any status other than "OK", or an empty routes array).
var ErrNoRoute = errors.New("no route")

// ErrNotConfigured is returned by every call when the client has no API key.
var ErrNotConfigured = errors.New("directions provider not configured")

const (
	directionsPath = "/maps/api/directions/json"
	cacheKeyPrefix = "directions:"
	maxBodyBytes   = 4 << 20
)

// Cache stores encoded polylines by origin/destination key.
// A miss is reported as ok=false with a nil error.
type Cache interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Client calls the directions provider. Every outbound request first waits
// on the shared rate limiter.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	ttl     time.Duration
	log     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default 10s-timeout http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit caps outbound requests per second with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// WithCache stores decoded legs in cache for ttl.
func WithCache(cache Cache, ttl time.Duration) Option {
	return func(c *Client) {
		c.cache = cache
		c.ttl = ttl
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New constructs a Client for the provider at baseURL (e.g. "https://maps.googleapis.com").
// An empty apiKey yields a client whose calls all fail with ErrNotConfigured.
func New(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 10 * time.Second},
		limiter: rate.NewLimiter(rate.Inf, 0),
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Route returns the driving path from origin to dest as decoded points.
func (c *Client) Route(ctx context.Context, origin, dest domain.LatLng) ([]domain.LatLng, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	key := cacheKeyPrefix + origin.String() + "|" + dest.String()
	if encoded, ok := c.cached(ctx, key); ok {
		if points, err := polyline.Decode(encoded); err == nil {
			return points, nil
		}
	}

	encoded, err := c.fetch(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	points, err := polyline.Decode(encoded)
	if err != nil {
		return nil, fmt.Errorf("directions.Client.Route: %w", err)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, key, encoded, c.ttl); err != nil {
			c.log.WarnContext(ctx, "directions cache write failed", "key", key, "error", err)
		}
	}
	return points, nil
}

func (c *Client) cached(ctx context.Context, key string) (string, bool) {
	if c.cache == nil {
		return "", false
	}
	v, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "directions cache read failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

// fetch performs one provider request and returns the overview polyline.
func (c *Client) fetch(ctx context.Context, origin, dest domain.LatLng) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("directions.Client.fetch: rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("origin", origin.String())
	q.Set("destination", dest.String())
	q.Set("mode", "driving")
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+directionsPath+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("directions.Client.fetch: create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("directions.Client.fetch: http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("directions.Client.fetch: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("directions.Client.fetch: provider status %d", resp.StatusCode)
	}

	var out directionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("directions.Client.fetch: unmarshal response: %w", err)
	}
	if out.Status != "OK" || len(out.Routes) == 0 {
		return "", fmt.Errorf("directions.Client.fetch: %w: status %s %s", ErrNoRoute, out.Status, out.ErrorMessage)
	}
	return out.Routes[0].OverviewPolyline.Points, nil
}

type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
	} `json:"routes"`
}
