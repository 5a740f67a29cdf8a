package itinerary

import (
	"fmt"
	"slices"

	"github.com/moroccoview/companion/internal/domain"
)

// Schedule is an editable, built itinerary. Day and item indices are zero-based
// positions in the current schedule.
//
// A Schedule is owned by one caller at a time; it is not safe for concurrent use.
type Schedule struct {
	days []domain.DailySchedule
}

// NewSchedule wraps a copy of days.
func NewSchedule(days []domain.DailySchedule) *Schedule {
	return &Schedule{days: cloneDays(days)}
}

// Days returns a copy of the current schedule.
func (s *Schedule) Days() []domain.DailySchedule {
	return cloneDays(s.days)
}

// Day returns a copy of the day at index i.
func (s *Schedule) Day(i int) (domain.DailySchedule, bool) {
	if i < 0 || i >= len(s.days) {
		return domain.DailySchedule{}, false
	}
	return cloneDay(s.days[i]), true
}

// SetItemDuration sets the free-text duration of one item and touches nothing else.
// It reports false, changing nothing, when either index is out of range.
func (s *Schedule) SetItemDuration(day, item int, text string) bool {
	it := s.item(day, item)
	if it == nil {
		return false
	}
	it.Duration = text
	return true
}

// SetItemTimeSlot sets the free-text time slot of one item and touches nothing else.
// It reports false, changing nothing, when either index is out of range.
func (s *Schedule) SetItemTimeSlot(day, item int, text string) bool {
	it := s.item(day, item)
	if it == nil {
		return false
	}
	it.TimeSlot = text
	return true
}

func (s *Schedule) item(day, item int) *domain.TourItem {
	if day < 0 || day >= len(s.days) {
		return nil
	}
	items := s.days[day].Items
	if item < 0 || item >= len(items) {
		return nil
	}
	return &items[item]
}

// ReorderDay replaces the items of one day with items, which must be a
// permutation (by ID) of the day's current items.
// Returns domain.ErrNotFound for an out-of-range day and domain.ErrValidation
// when items is not a permutation; the day is left untouched in both cases.
func (s *Schedule) ReorderDay(day int, items []domain.TourItem) error {
	if day < 0 || day >= len(s.days) {
		return fmt.Errorf("itinerary.ReorderDay: day %d: %w", day, domain.ErrNotFound)
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	if !IsPermutation(itemIDs(s.days[day].Items), ids) {
		return fmt.Errorf("itinerary.ReorderDay: %w: new order is not a permutation of day %d", domain.ErrValidation, day)
	}
	s.days[day].Items = slices.Clone(items)
	return nil
}

// ReorderDayByID rearranges one day's existing items into the order given by ids,
// keeping each item's current metadata. Same errors as ReorderDay.
func (s *Schedule) ReorderDayByID(day int, ids []string) error {
	if day < 0 || day >= len(s.days) {
		return fmt.Errorf("itinerary.ReorderDayByID: day %d: %w", day, domain.ErrNotFound)
	}
	current := s.days[day].Items
	if !IsPermutation(itemIDs(current), ids) {
		return fmt.Errorf("itinerary.ReorderDayByID: %w: new order is not a permutation of day %d", domain.ErrValidation, day)
	}
	byID := make(map[string]domain.TourItem, len(current))
	for _, it := range current {
		byID[it.ID] = it
	}
	reordered := make([]domain.TourItem, len(ids))
	for i, id := range ids {
		reordered[i] = byID[id]
	}
	s.days[day].Items = reordered
	return nil
}

// IndexOfDay returns the zero-based position of the schedule entry built
// from the 1-based day index, or -1.
func (s *Schedule) IndexOfDay(dayNumber int) int {
	return slices.IndexFunc(s.days, func(d domain.DailySchedule) bool { return d.Day == dayNumber })
}

// IsPermutation reports whether next contains exactly the IDs of current,
// each the same number of times.
func IsPermutation(current, next []string) bool {
	if len(current) != len(next) {
		return false
	}
	counts := make(map[string]int, len(current))
	for _, id := range current {
		counts[id]++
	}
	for _, id := range next {
		counts[id]--
		if counts[id] < 0 {
			return false
		}
	}
	return true
}

func itemIDs(items []domain.TourItem) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func cloneDays(days []domain.DailySchedule) []domain.DailySchedule {
	out := make([]domain.DailySchedule, len(days))
	for i, d := range days {
		out[i] = cloneDay(d)
	}
	return out
}

func cloneDay(d domain.DailySchedule) domain.DailySchedule {
	d.Items = slices.Clone(d.Items)
	if d.Items == nil {
		d.Items = []domain.TourItem{}
	}
	return d
}
