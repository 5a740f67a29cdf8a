package handler

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/service"
)

const scheduleItemNotFound = "schedule day or item not found"

// csvHeaders is the first row of every CSV export.
var csvHeaders = []string{
	"tour_id", "tour_name", "day", "date", "city", "position",
	"item_id", "item_type", "title", "duration", "time_slot",
}

type updateItemRequest struct {
	Duration *string `json:"duration" validate:"omitempty,max=100"`
	TimeSlot *string `json:"time_slot" validate:"omitempty,max=100"`
}

type reorderRequest struct {
	ItemIDs []string `json:"item_ids" validate:"required,min=1,dive,required"`
}

// GetSchedule handles GET /tours/{id}/schedule.
func (s *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	view, err := s.tours.Schedule(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateScheduleItem handles PATCH /tours/{id}/schedule/{day}/items/{item}.
// day and item are zero-based positions in the built schedule.
func (s *Server) UpdateScheduleItem(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	day, ok := pathIndex(w, r, "day")
	if !ok {
		return
	}
	item, ok := pathIndex(w, r, "item")
	if !ok {
		return
	}
	var req updateItemRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.Duration == nil && req.TimeSlot == nil {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "duration or time_slot is required")
		return
	}

	updated, err := s.tours.UpdateItem(r.Context(), id, day, item,
		service.ItemUpdate{Duration: req.Duration, TimeSlot: req.TimeSlot})
	if err != nil {
		s.respondErr(w, r, err, scheduleItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// ReorderScheduleDay handles PUT /tours/{id}/schedule/{day}/order.
// The body must list exactly the day's current item IDs.
func (s *Server) ReorderScheduleDay(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	day, ok := pathIndex(w, r, "day")
	if !ok {
		return
	}
	var req reorderRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	updated, err := s.tours.Reorder(r.Context(), id, day, req.ItemIDs)
	if err != nil {
		s.respondErr(w, r, err, scheduleItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// GetDayRoute handles GET /tours/{id}/schedule/{day}/route.
func (s *Server) GetDayRoute(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	day, ok := pathIndex(w, r, "day")
	if !ok {
		return
	}
	preview, err := s.tours.RoutePreview(r.Context(), id, day)
	if err != nil {
		s.respondErr(w, r, err, scheduleItemNotFound)
		return
	}
	writeJSON(w, http.StatusOK, preview)
}

// ExportTour handles GET /tours/{id}/export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) ExportTour(w http.ResponseWriter, r *http.Request) {
	id, ok := tourID(w, r)
	if !ok {
		return
	}
	format := r.URL.Query().Get("format")
	if format != "" && format != "json" && format != "csv" {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "format must be one of: csv json")
		return
	}

	rows, err := s.tours.Export(r.Context(), id)
	if err != nil {
		s.respondErr(w, r, err, tourNotFound)
		return
	}
	if format != "csv" {
		writeJSON(w, http.StatusOK, rows)
		return
	}

	body := buildCSV(rows)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="tour-%s.csv"`, id))
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// buildCSV encodes rows with a header line.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write([]string{
			r.TourID,
			r.TourName,
			strconv.Itoa(r.Day),
			r.Date,
			r.City,
			strconv.Itoa(r.Position),
			r.ItemID,
			r.ItemType,
			r.Title,
			r.Duration,
			r.TimeSlot,
		})
	}
	w.Flush()
	return &buf
}

// pathIndex parses a zero-based position from the path. Anything that is not
// an integer cannot address a schedule entry and is answered with 404.
func pathIndex(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, codeNotFound, scheduleItemNotFound)
		return 0, false
	}
	return n, true
}
