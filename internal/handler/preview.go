package handler

import (
	"net/http"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/service"
)

type tourItemRequest struct {
	ID       string         `json:"id" validate:"required"`
	Type     string         `json:"type" validate:"required,oneof=hotel restaurant match entertainment monument money-exchange artisan"`
	Title    string         `json:"title"`
	Subtitle string         `json:"subtitle"`
	City     string         `json:"city"`
	Duration string         `json:"duration"`
	TimeSlot string         `json:"time_slot"`
	Location *latLngRequest `json:"location"`
}

func (req tourItemRequest) toDomain() domain.TourItem {
	it := domain.TourItem{
		ID:       req.ID,
		Type:     domain.TourItemType(req.Type),
		Title:    req.Title,
		Subtitle: req.Subtitle,
		City:     req.City,
		Duration: req.Duration,
		TimeSlot: req.TimeSlot,
	}
	if req.Location != nil {
		it.Location = &domain.LatLng{Lat: *req.Location.Lat, Lng: *req.Location.Lng}
	}
	return it
}

func itemsToDomain(reqs []tourItemRequest) []domain.TourItem {
	items := make([]domain.TourItem, len(reqs))
	for i, it := range reqs {
		items[i] = it.toDomain()
	}
	return items
}

// previewScheduleRequest is an unsaved tour. The start date is a string
// because the builder accepts several date forms.
type previewScheduleRequest struct {
	StartDate      string            `json:"start_date" validate:"required"`
	SelectionByDay map[int][]string  `json:"selection_by_day"`
	Cities         map[int]string    `json:"cities"`
	Items          []tourItemRequest `json:"items" validate:"dive"`
}

type previewRouteRequest struct {
	Day   int               `json:"day"`
	Items []tourItemRequest `json:"items" validate:"dive"`
}

// PreviewSchedule handles POST /schedules/preview.
// An unparsable start date yields 422; an empty selection yields the placeholder day.
func (s *Server) PreviewSchedule(w http.ResponseWriter, r *http.Request) {
	var req previewScheduleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	view, err := s.previews.Schedule(r.Context(), service.ScheduleInput{
		StartDate:      req.StartDate,
		SelectionByDay: req.SelectionByDay,
		Cities:         req.Cities,
		Items:          itemsToDomain(req.Items),
	})
	if err != nil {
		s.respondErr(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// PreviewRoute handles POST /routes/preview.
func (s *Server) PreviewRoute(w http.ResponseWriter, r *http.Request) {
	var req previewRouteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	preview, err := s.previews.Route(r.Context(), req.Day, itemsToDomain(req.Items))
	if err != nil {
		s.respondErr(w, r, err, "not found")
		return
	}
	writeJSON(w, http.StatusOK, preview)
}
