// Package client is a typed HTTP client for the companion REST API. It is
// what the CLI and the bookmark synchronizer talk to the server through.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/moroccoview/companion/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	// pageLimit is the server's maximum page size.
	pageLimit = 100
)

// APIError is a non-2xx response. It unwraps to the domain sentinel matching
// the status, so callers can use errors.Is(err, domain.ErrNotFound).
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %d", e.Status)
	}
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusUnprocessableEntity:
		return domain.ErrValidation
	case http.StatusConflict:
		return domain.ErrConflict
	}
	return nil
}

// Client calls one companion server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default 30s-timeout http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// New constructs a Client for the server at baseURL (e.g. "http://localhost:8080").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListVenues returns every venue matching kind and city, following pages
// until the total is reached. Empty filters match everything.
func (c *Client) ListVenues(ctx context.Context, kind domain.VenueKind, city string) ([]domain.Venue, error) {
	out := []domain.Venue{}
	for page := 1; ; page++ {
		q := url.Values{}
		if kind != "" {
			q.Set("kind", string(kind))
		}
		if city != "" {
			q.Set("city", city)
		}
		q.Set("page", strconv.Itoa(page))
		q.Set("limit", strconv.Itoa(pageLimit))

		var resp struct {
			Data       []domain.Venue `json:"data"`
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
		}
		if err := c.do(ctx, http.MethodGet, "/venues?"+q.Encode(), nil, &resp); err != nil {
			return nil, fmt.Errorf("client.ListVenues: %w", err)
		}
		out = append(out, resp.Data...)
		if len(resp.Data) == 0 || len(out) >= resp.Pagination.Total {
			return out, nil
		}
	}
}

// GetVenue fetches one venue.
func (c *Client) GetVenue(ctx context.Context, id string) (domain.Venue, error) {
	var v domain.Venue
	if err := c.do(ctx, http.MethodGet, "/venues/"+url.PathEscape(id), nil, &v); err != nil {
		return domain.Venue{}, fmt.Errorf("client.GetVenue: %w", err)
	}
	return v, nil
}

// Add saves a bookmark.
func (c *Client) Add(ctx context.Context, elementID string, typ domain.BookmarkType) error {
	body := map[string]string{"elementId": elementID, "type": string(typ)}
	if err := c.do(ctx, http.MethodPost, "/bookmarks", body, nil); err != nil {
		return fmt.Errorf("client.Add: %w", err)
	}
	return nil
}

// Remove deletes the bookmark of one venue.
func (c *Client) Remove(ctx context.Context, elementID string) error {
	if err := c.do(ctx, http.MethodDelete, "/bookmarks/"+url.PathEscape(elementID), nil, nil); err != nil {
		return fmt.Errorf("client.Remove: %w", err)
	}
	return nil
}

// List returns every bookmark, newest first.
func (c *Client) List(ctx context.Context) ([]domain.Bookmark, error) {
	var out []domain.Bookmark
	if err := c.do(ctx, http.MethodGet, "/bookmarks", nil, &out); err != nil {
		return nil, fmt.Errorf("client.List: %w", err)
	}
	return out, nil
}

// Schedule returns the built schedule of a saved tour.
func (c *Client) Schedule(ctx context.Context, tourID uuid.UUID) (domain.ScheduleView, error) {
	var view domain.ScheduleView
	if err := c.do(ctx, http.MethodGet, "/tours/"+tourID.String()+"/schedule", nil, &view); err != nil {
		return domain.ScheduleView{}, fmt.Errorf("client.Schedule: %w", err)
	}
	return view, nil
}

// DayRoute returns the route preview of the schedule day at index (zero-based).
func (c *Client) DayRoute(ctx context.Context, tourID uuid.UUID, index int) (domain.RoutePreview, error) {
	path := fmt.Sprintf("/tours/%s/schedule/%d/route", tourID, index)
	var preview domain.RoutePreview
	if err := c.do(ctx, http.MethodGet, path, nil, &preview); err != nil {
		return domain.RoutePreview{}, fmt.Errorf("client.DayRoute: %w", err)
	}
	return preview, nil
}

// do sends one request. in, when non-nil, is encoded as the JSON body; out,
// when non-nil, receives the decoded 2xx response.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return apiErr
	}
	var envelope struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		return apiErr
	}
	apiErr.Message = strings.TrimSpace(string(raw))
	return apiErr
}

// IsUnavailable reports whether err means the server could not be reached or
// failed internally, as opposed to rejecting the request.
func IsUnavailable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	return err != nil
}
