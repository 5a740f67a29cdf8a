// Package handler implements the HTTP handlers for the companion API.
// All handlers are methods on Server. Methods are split into resource files
// (health.go, venue.go, tour.go, ...) but share the same Server struct so they
// can reach its dependencies. Routes wires them into a chi router.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/service"
)

// VenueServicer defines the catalog operations the venue handlers depend on.
// Interfaces live here, in the consumer package, so handler tests can inject
// mocks without touching the database or service layer.
type VenueServicer interface {
	Create(ctx context.Context, v domain.Venue) (domain.Venue, error)
	GetByID(ctx context.Context, id string) (domain.Venue, error)
	ListPaged(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error)
	Delete(ctx context.Context, id string) error
}

// BookmarkServicer defines the bookmark store operations.
type BookmarkServicer interface {
	Add(ctx context.Context, elementID string, typ domain.BookmarkType) (domain.Bookmark, error)
	Remove(ctx context.Context, elementID string) error
	List(ctx context.Context) ([]domain.Bookmark, error)
}

// TourServicer defines the tour and schedule operations.
type TourServicer interface {
	Create(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error)
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Tour, int64, error)
	Update(ctx context.Context, tour domain.Tour) (domain.Tour, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Schedule(ctx context.Context, id uuid.UUID) (domain.ScheduleView, error)
	UpdateItem(ctx context.Context, id uuid.UUID, day, item int, u service.ItemUpdate) (domain.DailySchedule, error)
	Reorder(ctx context.Context, id uuid.UUID, day int, itemIDs []string) (domain.DailySchedule, error)
	RoutePreview(ctx context.Context, id uuid.UUID, day int) (domain.RoutePreview, error)
	Export(ctx context.Context, id uuid.UUID) ([]domain.ExportRow, error)
}

// PreviewServicer defines the stateless builder and planner operations.
type PreviewServicer interface {
	Schedule(ctx context.Context, in service.ScheduleInput) (domain.ScheduleView, error)
	Route(ctx context.Context, day int, items []domain.TourItem) (domain.RoutePreview, error)
}

// Services groups the Server's dependencies. Nil services leave their routes
// unregistered, which keeps single-resource handler tests small.
type Services struct {
	Venues    VenueServicer
	Bookmarks BookmarkServicer
	Tours     TourServicer
	Previews  PreviewServicer
}

// Server holds every handler's dependencies.
type Server struct {
	venues    VenueServicer
	bookmarks BookmarkServicer
	tours     TourServicer
	previews  PreviewServicer
	validate  *validator
	log       *slog.Logger
}

// NewServer constructs the Server. A nil logger means slog.Default().
func NewServer(svc Services, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		venues:    svc.Venues,
		bookmarks: svc.Bookmarks,
		tours:     svc.Tours,
		previews:  svc.Previews,
		validate:  newValidator(),
		log:       log,
	}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(Services{}, nil)
}

// Routes returns the API router. Mount it at "/".
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed here")
	})

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)

	if s.venues != nil {
		r.Route("/venues", func(r chi.Router) {
			r.Get("/", s.ListVenues)
			r.Post("/", s.CreateVenue)
			r.Get("/{id}", s.GetVenue)
			r.Delete("/{id}", s.DeleteVenue)
		})
	}
	if s.bookmarks != nil {
		r.Route("/bookmarks", func(r chi.Router) {
			r.Get("/", s.ListBookmarks)
			r.Post("/", s.AddBookmark)
			r.Delete("/{id}", s.RemoveBookmark)
		})
	}
	if s.tours != nil {
		r.Route("/tours", func(r chi.Router) {
			r.Get("/", s.ListTours)
			r.Post("/", s.CreateTour)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetTour)
				r.Put("/", s.UpdateTour)
				r.Delete("/", s.DeleteTour)
				r.Get("/schedule", s.GetSchedule)
				r.Patch("/schedule/{day}/items/{item}", s.UpdateScheduleItem)
				r.Put("/schedule/{day}/order", s.ReorderScheduleDay)
				r.Get("/schedule/{day}/route", s.GetDayRoute)
				r.Get("/export", s.ExportTour)
			})
		})
	}
	if s.previews != nil {
		r.Post("/schedules/preview", s.PreviewSchedule)
		r.Post("/routes/preview", s.PreviewRoute)
	}
	return r
}
