package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/moroccoview/companion/internal/domain"
)

const tourNotFound = "tour not found"

type tourDayRequest struct {
	Day     int      `json:"day" validate:"gte=1"`
	City    string   `json:"city" validate:"max=100"`
	ItemIDs []string `json:"item_ids" validate:"dive,required"`
}

// tourRequest is the body of POST /tours and PUT /tours/{id}.
type tourRequest struct {
	Name      string              `json:"name" validate:"required,max=200"`
	StartDate *openapi_types.Date `json:"start_date" validate:"required"`
	Days      []tourDayRequest    `json:"days" validate:"dive"`
}

func (req tourRequest) toDomain(id uuid.UUID) domain.Tour {
	t := domain.Tour{
		ID:        id,
		Name:      req.Name,
		StartDate: req.StartDate.Time,
		Days:      make([]domain.TourDay, len(req.Days)),
	}
	for i, d := range req.Days {
		t.Days[i] = domain.TourDay{Day: d.Day, City: d.City, ItemIDs: d.ItemIDs}
	}
	return t
}

// TourResponse is a tour on the wire; the start date is a calendar date.
type TourResponse struct {
	ID        uuid.UUID          `json:"id"`
	Name      string             `json:"name"`
	StartDate openapi_types.Date `json:"start_date"`
	Days      []domain.TourDay   `json:"days"`
	Notes     []domain.ItemNote  `json:"notes,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}

func tourToResponse(t domain.Tour) TourResponse {
	days := t.Days
	if days == nil {
		days = []domain.TourDay{}
	}
	return TourResponse{
		ID:        t.ID,
		Name:      t.Name,
		StartDate: openapi_types.Date{Time: t.StartDate},
		Days:      days,
		Notes:     t.Notes,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// CreateTour handles POST /tours.
func (s *Server) CreateTour(w http.ResponseWriter, r *http.Request) {
	var req tourRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	created, err := s.tours.Create(r.Context(), req.toDomain(uuid.Nil))
	if err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, tourToResponse(created))
}

// ListTours handles GET /tours.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListTours(w http.ResponseWriter, r *http.Request) {
	params, ok := paginationParams(w, r)
	if !ok {
		return
	}
	tours, total, err := s.tours.ListPaged(r.Context(), params)
	if err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}

	data := make([]TourResponse, len(tours))
	for i, t := range tours {
		data[i] = tourToResponse(t)
	}
	writeJSON(w, http.StatusOK, PagedResponse[TourResponse]{
		Data:       data,
		Pagination: Pagination{Page: params.Page, Limit: params.Limit, Total: int(total)},
	})
}

// GetTour handles GET /tours/{id}.
func (s *Server) GetTour(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	tour, err := s.tours.GetByID(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tourToResponse(tour))
}

// UpdateTour handles PUT /tours/{id}. Changing the start date or any day's
// selection discards the stored manual orders.
func (s *Server) UpdateTour(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	var req tourRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.tours.Update(r.Context(), req.toDomain(id))
	if err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tourToResponse(updated))
}

// DeleteTour handles DELETE /tours/{id}.
func (s *Server) DeleteTour(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	if err := s.tours.Delete(r.Context(), id); err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// tourID parses the {id} path segment. A malformed ID cannot name a tour, so
// it is answered like a missing one.
func tourID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, tourNotFound)
		return uuid.Nil, false
	}
	return id, true
}
