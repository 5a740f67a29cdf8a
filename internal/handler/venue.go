package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moroccoview/companion/internal/domain"
)

// Pagination is the paging metadata attached to every list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// PagedResponse is the envelope of GET /venues and GET /tours.
type PagedResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type latLngRequest struct {
	Lat *float64 `json:"lat" validate:"required,gte=-90,lte=90"`
	Lng *float64 `json:"lng" validate:"required,gte=-180,lte=180"`
}

type createVenueRequest struct {
	ID       string         `json:"id" validate:"required,max=128"`
	Kind     string         `json:"kind" validate:"required,oneof=match restaurant monument artisan hotel-pickup broker entertainment"`
	Title    string         `json:"title" validate:"required,max=200"`
	Subtitle string         `json:"subtitle" validate:"max=200"`
	City     string         `json:"city" validate:"max=100"`
	Images   []string       `json:"images" validate:"dive,url"`
	Location *latLngRequest `json:"location"`
}

func (req createVenueRequest) toDomain() domain.Venue {
	v := domain.Venue{
		ID:       req.ID,
		Kind:     domain.VenueKind(req.Kind),
		Title:    req.Title,
		Subtitle: req.Subtitle,
		City:     req.City,
		Images:   req.Images,
	}
	if req.Location != nil {
		v.Location = &domain.LatLng{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	}
	return v
}

// ListVenues handles GET /venues.
// Supports ?kind=, ?city=, ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func (s *Server) ListVenues(w http.ResponseWriter, r *http.Request) {
	params, ok := paginationParams(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	f := domain.VenueFilter{Kind: domain.VenueKind(q.Get("kind")), City: q.Get("city")}

	venues, total, err := s.venues.ListPaged(r.Context(), f, params)
	if err != nil {
		s.respondErr(w, r, err, "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, PagedResponse[domain.Venue]{
		Data:       venues,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: int(total)},
	})
}

// CreateVenue handles POST /venues.
func (s *Server) CreateVenue(w http.ResponseWriter, r *http.Request) {
	var req createVenueRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	created, err := s.venues.Create(r.Context(), req.toDomain())
	if err != nil {
		s.respondErr(w, r, err, "venue not found")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// GetVenue handles GET /venues/{id}.
func (s *Server) GetVenue(w http.ResponseWriter, r *http.Request) {
	v, err := s.venues.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, r, err, "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// DeleteVenue handles DELETE /venues/{id}. A bookmarked venue yields 409.
func (s *Server) DeleteVenue(w http.ResponseWriter, r *http.Request) {
	if err := s.venues.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondErr(w, r, err, "venue not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// paginationParams reads ?page= and ?limit=. Absent values take the defaults;
// present values must be integers.
func paginationParams(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	q := r.URL.Query()
	page, ok := optionalInt(w, q.Get("page"), "page")
	if !ok {
		return domain.PaginationParams{}, false
	}
	limit, ok := optionalInt(w, q.Get("limit"), "limit")
	if !ok {
		return domain.PaginationParams{}, false
	}
	return domain.NewPaginationParams(page, limit), true
}

func optionalInt(w http.ResponseWriter, raw, name string) (*int, bool) {
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, name+" must be an integer")
		return nil, false
	}
	return &n, true
}
