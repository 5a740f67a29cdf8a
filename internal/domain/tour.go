package domain

import (
	"time"

	"github.com/google/uuid"
)

// TourItemType classifies a schedulable item within a tour day.
type TourItemType string

const (
	ItemHotel         TourItemType = "hotel"
	ItemRestaurant    TourItemType = "restaurant"
	ItemMatch         TourItemType = "match"
	ItemEntertainment TourItemType = "entertainment"
	ItemMonument      TourItemType = "monument"
	ItemMoneyExchange TourItemType = "money-exchange"
	ItemArtisan       TourItemType = "artisan"
)

// TourItemTypeFor maps a catalog venue kind to the itinerary item type.
func TourItemTypeFor(k VenueKind) TourItemType {
	switch k {
	case KindHotelPickup:
		return ItemHotel
	case KindBroker:
		return ItemMoneyExchange
	default:
		return TourItemType(k)
	}
}

// TourItem is one schedulable unit within an itinerary.
// Duration and TimeSlot are free text entered by the traveller.
type TourItem struct {
	ID       string       `json:"id"`
	Type     TourItemType `json:"type"`
	Title    string       `json:"title"`
	Subtitle string       `json:"subtitle,omitempty"`
	City     string       `json:"city"`
	Duration string       `json:"duration,omitempty"`
	TimeSlot string       `json:"time_slot,omitempty"`
	Location *LatLng      `json:"location,omitempty"`
}

// TourItemFromVenue projects a catalog venue into an itinerary item.
func TourItemFromVenue(v Venue) TourItem {
	return TourItem{
		ID:       v.ID,
		Type:     TourItemTypeFor(v.Kind),
		Title:    v.Title,
		Subtitle: v.Subtitle,
		City:     v.City,
		Location: v.Location,
	}
}

// DailySchedule is the ordered set of activities for one calendar day of a tour.
// Day is the 1-based day index the schedule was built from.
type DailySchedule struct {
	Day   int        `json:"day"`
	Date  string     `json:"date"`
	City  string     `json:"city"`
	Items []TourItem `json:"items"`
}

// TourDay is the stored selection for one day of a tour.
// ManualOrder holds the traveller's drag-reordered item IDs; it is empty until
// the day is reordered and is cleared whenever the selection or start date changes.
type TourDay struct {
	Day         int      `json:"day"`
	City        string   `json:"city"`
	ItemIDs     []string `json:"item_ids"`
	ManualOrder []string `json:"manual_order,omitempty"`
}

// ItemNote carries the free-text metadata a traveller attached to one item on one day.
type ItemNote struct {
	Day      int    `json:"day"`
	ItemID   string `json:"item_id"`
	Duration string `json:"duration,omitempty"`
	TimeSlot string `json:"time_slot,omitempty"`
}

// Tour is a persisted trip itinerary: a start date plus per-day selections.
// A tour is the top-level aggregate; days and notes belong to it.
type Tour struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	StartDate time.Time  `json:"start_date"`
	Days      []TourDay  `json:"days"`
	Notes     []ItemNote `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// SelectionByDay returns the day index → item IDs mapping the builder consumes.
func (t Tour) SelectionByDay() map[int][]string {
	out := make(map[int][]string, len(t.Days))
	for _, d := range t.Days {
		out[d.Day] = d.ItemIDs
	}
	return out
}

// Cities returns the day index → city mapping the builder consumes.
func (t Tour) Cities() map[int]string {
	out := make(map[int]string, len(t.Days))
	for _, d := range t.Days {
		if d.City != "" {
			out[d.Day] = d.City
		}
	}
	return out
}

// ItemIDs returns every selected item ID across all days, without duplicates,
// in first-seen order.
func (t Tour) ItemIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, d := range t.Days {
		for _, id := range d.ItemIDs {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// ExportRow is a single row in a tour export: one row per scheduled item,
// with the day's fields repeated on every item of that day.
type ExportRow struct {
	TourID   string `json:"tour_id"`
	TourName string `json:"tour_name"`
	Day      int    `json:"day"`
	Date     string `json:"date"`
	City     string `json:"city"`
	Position int    `json:"position"`
	ItemID   string `json:"item_id"`
	ItemType string `json:"item_type"`
	Title    string `json:"title"`
	Duration string `json:"duration,omitempty"`
	TimeSlot string `json:"time_slot,omitempty"`
}

// ScheduleView is a built schedule as served to clients. Status is "ok" or
// "empty"; an empty schedule carries the placeholder day and Placeholder=true.
type ScheduleView struct {
	Status      string          `json:"status"`
	Placeholder bool            `json:"placeholder"`
	Days        []DailySchedule `json:"days"`
}
