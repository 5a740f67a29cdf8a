// Package itinerary turns a tour's per-day selections into display-ready
// daily schedules and supports targeted edits to a built schedule.
//
// Build never panics and never hides a bad input: it reports what happened
// through Result.Status so the caller can decide between showing the days,
// a placeholder, or an error.
package itinerary

import (
	"cmp"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/moroccoview/companion/internal/domain"
)

// DisplayDateLayout is the layout of DailySchedule.Date.
const DisplayDateLayout = "Mon 02 Jan 2006"

// Status tags the outcome of Build.
type Status int

const (
	// StatusOK means at least one day was produced.
	StatusOK Status = iota
	// StatusEmpty means the input parsed but no day resolved to any item.
	StatusEmpty
	// StatusInvalid means the start date could not be parsed; Result.Err says why.
	StatusInvalid
)

// String returns the lower-case wire name of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	case StatusInvalid:
		return "invalid"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is the tagged outcome of Build.
// Days is non-nil for StatusOK and StatusEmpty; Err is set only for StatusInvalid.
type Result struct {
	Status Status
	Days   []domain.DailySchedule
	Err    error
}

// startDateLayouts are tried in order. Slash dates with a leading year are
// year-first; otherwise they are day-first.
var startDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
}

// ParseStartDate parses a trip start date in any of the accepted forms and
// returns midnight UTC of that calendar day.
func ParseStartDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range startDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognised start date %q", domain.ErrValidation, s)
}

// typePriority orders items within a day; unlisted types sort last.
var typePriority = map[domain.TourItemType]int{
	domain.ItemMatch:         1,
	domain.ItemRestaurant:    2,
	domain.ItemEntertainment: 3,
	domain.ItemHotel:         4,
}

const otherPriority = 5

func priority(t domain.TourItemType) int {
	if p, ok := typePriority[t]; ok {
		return p
	}
	return otherPriority
}

// SortItems orders items by type priority in place. Items of equal priority
// keep their relative order.
func SortItems(items []domain.TourItem) {
	slices.SortStableFunc(items, func(a, b domain.TourItem) int {
		return cmp.Compare(priority(a.Type), priority(b.Type))
	})
}

// Build resolves each day's selected IDs against catalog and returns the
// per-day schedules in ascending day order.
//
// Items resolve in catalog order; IDs missing from the catalog are dropped.
// Day i falls on startDate + (i-1) days. Day indices below 1 and days that
// resolve to no items are omitted. A day's city comes from cities, falling
// back to the city of its first item.
func Build(startDate string, selectionByDay map[int][]string, cities map[int]string, catalog []domain.TourItem) Result {
	start, err := ParseStartDate(startDate)
	if err != nil {
		return Result{Status: StatusInvalid, Err: err}
	}

	days := []domain.DailySchedule{}
	for _, day := range slices.Sorted(maps.Keys(selectionByDay)) {
		if day < 1 {
			continue
		}
		items := resolve(selectionByDay[day], catalog)
		if len(items) == 0 {
			continue
		}
		SortItems(items)

		city := cities[day]
		if city == "" {
			city = items[0].City
		}
		days = append(days, domain.DailySchedule{
			Day:   day,
			Date:  start.AddDate(0, 0, day-1).Format(DisplayDateLayout),
			City:  city,
			Items: items,
		})
	}

	if len(days) == 0 {
		return Result{Status: StatusEmpty, Days: days}
	}
	return Result{Status: StatusOK, Days: days}
}

// resolve returns copies of the catalog entries whose IDs appear in ids,
// in catalog order, each at most once.
func resolve(ids []string, catalog []domain.TourItem) []domain.TourItem {
	if len(ids) == 0 {
		return nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var items []domain.TourItem
	for _, it := range catalog {
		if want[it.ID] {
			items = append(items, it)
			delete(want, it.ID)
		}
	}
	return items
}

// Placeholder returns the canned single-day schedule shown when a tour has
// nothing scheduled yet. Each call returns a fresh copy.
func Placeholder() []domain.DailySchedule {
	return []domain.DailySchedule{{
		Day:  1,
		Date: "Day 1",
		City: "Casablanca",
		Items: []domain.TourItem{
			{
				ID:       "placeholder-match",
				Type:     domain.ItemMatch,
				Title:    "Pick a match",
				Subtitle: "Browse fixtures to start your tour",
				City:     "Casablanca",
			},
			{
				ID:       "placeholder-hotel",
				Type:     domain.ItemHotel,
				Title:    "Add your hotel",
				Subtitle: "Routes start and end at your hotel",
				City:     "Casablanca",
			},
		},
	}}
}
