package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/handler"
	"github.com/moroccoview/companion/internal/service"
)

// Each mock is a test double for one Servicer interface.
// Set only the method fields your test needs.

type mockVenueServicer struct {
	create    func(ctx context.Context, v domain.Venue) (domain.Venue, error)
	getByID   func(ctx context.Context, id string) (domain.Venue, error)
	listPaged func(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error)
	delete    func(ctx context.Context, id string) error
}

func (m *mockVenueServicer) Create(ctx context.Context, v domain.Venue) (domain.Venue, error) {
	return m.create(ctx, v)
}
func (m *mockVenueServicer) GetByID(ctx context.Context, id string) (domain.Venue, error) {
	return m.getByID(ctx, id)
}
func (m *mockVenueServicer) ListPaged(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockVenueServicer) Delete(ctx context.Context, id string) error {
	return m.delete(ctx, id)
}

var _ handler.VenueServicer = (*mockVenueServicer)(nil)

type mockBookmarkServicer struct {
	add    func(ctx context.Context, elementID string, typ domain.BookmarkType) (domain.Bookmark, error)
	remove func(ctx context.Context, elementID string) error
	list   func(ctx context.Context) ([]domain.Bookmark, error)
}

func (m *mockBookmarkServicer) Add(ctx context.Context, elementID string, typ domain.BookmarkType) (domain.Bookmark, error) {
	return m.add(ctx, elementID, typ)
}
func (m *mockBookmarkServicer) Remove(ctx context.Context, elementID string) error {
	return m.remove(ctx, elementID)
}
func (m *mockBookmarkServicer) List(ctx context.Context) ([]domain.Bookmark, error) {
	return m.list(ctx)
}

var _ handler.BookmarkServicer = (*mockBookmarkServicer)(nil)

type mockTourServicer struct {
	create       func(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	getByID      func(ctx context.Context, id uuid.UUID) (domain.Tour, error)
	listPaged    func(ctx context.Context, p domain.PaginationParams) ([]domain.Tour, int64, error)
	update       func(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	delete       func(ctx context.Context, id uuid.UUID) error
	schedule     func(ctx context.Context, id uuid.UUID) (domain.ScheduleView, error)
	updateItem   func(ctx context.Context, id uuid.UUID, day, item int, u service.ItemUpdate) (domain.DailySchedule, error)
	reorder      func(ctx context.Context, id uuid.UUID, day int, itemIDs []string) (domain.DailySchedule, error)
	routePreview func(ctx context.Context, id uuid.UUID, day int) (domain.RoutePreview, error)
	export       func(ctx context.Context, id uuid.UUID) ([]domain.ExportRow, error)
}

func (m *mockTourServicer) Create(ctx context.Context, t domain.Tour) (domain.Tour, error) {
	return m.create(ctx, t)
}
func (m *mockTourServicer) GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	return m.getByID(ctx, id)
}
func (m *mockTourServicer) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Tour, int64, error) {
	return m.listPaged(ctx, p)
}
func (m *mockTourServicer) Update(ctx context.Context, t domain.Tour) (domain.Tour, error) {
	return m.update(ctx, t)
}
func (m *mockTourServicer) Delete(ctx context.Context, id uuid.UUID) error {
	return m.delete(ctx, id)
}
func (m *mockTourServicer) Schedule(ctx context.Context, id uuid.UUID) (domain.ScheduleView, error) {
	return m.schedule(ctx, id)
}
func (m *mockTourServicer) UpdateItem(ctx context.Context, id uuid.UUID, day, item int, u service.ItemUpdate) (domain.DailySchedule, error) {
	return m.updateItem(ctx, id, day, item, u)
}
func (m *mockTourServicer) Reorder(ctx context.Context, id uuid.UUID, day int, itemIDs []string) (domain.DailySchedule, error) {
	return m.reorder(ctx, id, day, itemIDs)
}
func (m *mockTourServicer) RoutePreview(ctx context.Context, id uuid.UUID, day int) (domain.RoutePreview, error) {
	return m.routePreview(ctx, id, day)
}
func (m *mockTourServicer) Export(ctx context.Context, id uuid.UUID) ([]domain.ExportRow, error) {
	return m.export(ctx, id)
}

var _ handler.TourServicer = (*mockTourServicer)(nil)

type mockPreviewServicer struct {
	schedule func(ctx context.Context, in service.ScheduleInput) (domain.ScheduleView, error)
	route    func(ctx context.Context, day int, items []domain.TourItem) (domain.RoutePreview, error)
}

func (m *mockPreviewServicer) Schedule(ctx context.Context, in service.ScheduleInput) (domain.ScheduleView, error) {
	return m.schedule(ctx, in)
}
func (m *mockPreviewServicer) Route(ctx context.Context, day int, items []domain.TourItem) (domain.RoutePreview, error) {
	return m.route(ctx, day, items)
}

var _ handler.PreviewServicer = (*mockPreviewServicer)(nil)

// ---- helpers ---------------------------------------------------------------

// serve runs one request through the full router built from svc.
// This mirrors how main.go mounts Routes in production.
func serve(t *testing.T, svc handler.Services, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	handler.NewServer(svc, nil).Routes().ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

// decode reads the recorded body without draining it, so assertions on
// rec.Body still see the raw JSON afterwards.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

// requireError asserts the status and the error envelope of a failed request.
func requireError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) handler.ErrorDetail {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	resp := decode[handler.ErrorResponse](t, rec)
	require.Equal(t, code, resp.Error.Code)
	return resp.Error
}

// serveLimited caps the request body with http.MaxBytesReader before routing,
// as the body-size middleware does for chunked uploads.
func serveLimited(t *testing.T, h http.Handler, method, target, body string, limit int64) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	req.Body = http.MaxBytesReader(rec, req.Body, limit)
	h.ServeHTTP(rec, req)
	return rec
}
