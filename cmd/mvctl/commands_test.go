package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/polyline"
)

const tourID = "7d1f3c9e-5b2a-4c8d-9e0f-1a2b3c4d5e6f"

// fakeServer is a minimal in-memory companion API.
type fakeServer struct {
	mu       sync.Mutex
	venues   []domain.Venue
	saved    map[string]bool
	failAdds bool
}

func (f *fakeServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /venues", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := []domain.Venue{}
		for _, v := range f.venues {
			if k := r.URL.Query().Get("kind"); k != "" && string(v.Kind) != k {
				continue
			}
			v.Saved = f.saved[v.ID]
			out = append(out, v)
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out, "pagination": map[string]int{"total": len(out)}})
	})
	mux.HandleFunc("POST /bookmarks", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.failAdds {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"error": map[string]string{"code": "internal"}})
			return
		}
		f.saved[body["elementId"]] = true
		writeJSON(w, http.StatusCreated, map[string]string{"id": body["elementId"]})
	})
	mux.HandleFunc("DELETE /bookmarks/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		delete(f.saved, r.PathValue("id"))
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("GET /tours/{id}/schedule", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, domain.ScheduleView{Status: "ok", Days: []domain.DailySchedule{{
			Day: 1, Date: "Sat 15 Jun 2030", City: "Rabat",
			Items: []domain.TourItem{
				{ID: "m1", Type: domain.ItemMatch, Title: "Morocco vs Spain", TimeSlot: "21:00"},
				{ID: "r1", Type: domain.ItemRestaurant, Title: "Dar Naji", Duration: "2h"},
			},
		}}})
	})
	mux.HandleFunc("GET /tours/{id}/schedule/{day}/route", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("day") != "0" {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": map[string]string{"code": "not_found", "message": "schedule day or item not found"}})
			return
		}
		writeJSON(w, http.StatusOK, domain.RoutePreview{Day: 1, Anchored: true, Legs: []domain.RouteLeg{
			{From: "h1", To: "m1", Points: make([]domain.LatLng, 12), Color: "#C1272D"},
			{From: "m1", To: "h1", Points: make([]domain.LatLng, 2), Color: "#006233", Fallback: true},
		}})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newFake(t *testing.T) (*fakeServer, string) {
	t.Helper()
	f := &fakeServer{
		venues: []domain.Venue{
			{ID: "m1", Kind: domain.KindMatch, Title: "Morocco vs Spain", City: "Rabat"},
			{ID: "r1", Kind: domain.KindRestaurant, Title: "Dar Naji", City: "Rabat"},
			{ID: "e1", Kind: domain.KindEntertainment, Title: "Fan zone"},
		},
		saved: map[string]bool{"r1": true},
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return f, srv.URL
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestVenues(t *testing.T) {
	_, url := newFake(t)

	out, err := run(t, "--server", url, "venues")

	require.NoError(t, err)
	assert.Contains(t, out, "[ ] match          m1                       Morocco vs Spain (Rabat)")
	assert.Contains(t, out, "[x] restaurant     r1                       Dar Naji (Rabat)")
}

func TestVenues_kindFilter(t *testing.T) {
	_, url := newFake(t)

	out, err := run(t, "--server", url, "venues", "--kind", "restaurant")

	require.NoError(t, err)
	assert.Contains(t, out, "r1")
	assert.NotContains(t, out, "m1")
}

func TestVenues_unknownKind(t *testing.T) {
	_, err := run(t, "venues", "--kind", "spa")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestVenues_serverDown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := run(t, "--server", srv.URL, "venues")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "is the server running?")
}

func TestBookmark_togglesEachVenue(t *testing.T) {
	f, url := newFake(t)

	out, err := run(t, "--server", url, "bookmark", "m1", "r1")

	require.NoError(t, err)
	assert.Contains(t, out, "[x] m1 Morocco vs Spain (Rabat)")
	assert.Contains(t, out, "[ ] r1 Dar Naji (Rabat)")
	assert.Equal(t, map[string]bool{"m1": true}, f.saved)
}

func TestBookmark_reportsRejectedVenues(t *testing.T) {
	_, url := newFake(t)

	out, err := run(t, "--server", url, "bookmark", "e1", "zz")

	require.NoError(t, err)
	assert.Contains(t, out, "e1: ")
	assert.Contains(t, out, "cannot be bookmarked")
	assert.Contains(t, out, "zz: ")
}

func TestBookmark_failureRollsBack(t *testing.T) {
	f, url := newFake(t)
	f.failAdds = true

	out, err := run(t, "--server", url, "bookmark", "m1")

	require.Error(t, err)
	assert.Equal(t, "Could not save Morocco vs Spain. Please try again.", err.Error())
	assert.Contains(t, out, "[ ] m1")
}

func TestSchedule(t *testing.T) {
	_, url := newFake(t)

	out, err := run(t, "--server", url, "schedule", tourID)

	require.NoError(t, err)
	assert.Equal(t,
		"Day 1  Sat 15 Jun 2030  Rabat\n"+
			"  1. match          Morocco vs Spain  @ 21:00\n"+
			"  2. restaurant     Dar Naji  (2h)\n",
		out)
}

func TestSchedule_invalidID(t *testing.T) {
	_, err := run(t, "schedule", "nope")
	require.EqualError(t, err, `invalid tour id "nope"`)
}

func TestRoute(t *testing.T) {
	_, url := newFake(t)

	out, err := run(t, "--server", url, "route", tourID, "1")

	require.NoError(t, err)
	assert.Equal(t,
		"Day 1: 2 legs\n"+
			"  1. h1 -> m1  12 points  #C1272D\n"+
			"  2. m1 -> h1  2 points  #006233  (straight line)\n",
		out)
}

func TestRoute_dayOutOfRange(t *testing.T) {
	_, url := newFake(t)

	_, err := run(t, "--server", url, "route", tourID, "4")

	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoute_invalidDay(t *testing.T) {
	_, err := run(t, "route", tourID, "0")
	require.ErrorContains(t, err, "must be a positive integer")
}

func TestDecode(t *testing.T) {
	line := polyline.Encode([]domain.LatLng{{Lat: 38.5, Lng: -120.2}, {Lat: 40.7, Lng: -120.95}})

	out, err := run(t, "decode", line)

	require.NoError(t, err)
	assert.Equal(t, "38.500000,-120.200000\n40.700000,-120.950000\n", out)
}

func TestDecode_malformed(t *testing.T) {
	_, err := run(t, "decode", "_p~iF~ps|")
	require.ErrorIs(t, err, polyline.ErrMalformed)
}
