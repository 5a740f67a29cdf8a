// Package domain contains the core data types for the Morocco View companion service.
// This package depends only on uuid and is imported by every other
// internal package (repo, service, handler, itinerary, route, bookmarksync).
package domain

import (
	"fmt"
	"time"
)

// VenueKind identifies what a catalog entry is.
type VenueKind string

const (
	KindMatch         VenueKind = "match"
	KindRestaurant    VenueKind = "restaurant"
	KindMonument      VenueKind = "monument"
	KindArtisan       VenueKind = "artisan"
	KindHotelPickup   VenueKind = "hotel-pickup"
	KindBroker        VenueKind = "broker"
	KindEntertainment VenueKind = "entertainment"
)

// VenueKinds lists every known kind in display order.
var VenueKinds = []VenueKind{
	KindMatch, KindRestaurant, KindMonument, KindArtisan,
	KindHotelPickup, KindBroker, KindEntertainment,
}

// ParseVenueKind validates s against the known kinds.
func ParseVenueKind(s string) (VenueKind, error) {
	for _, k := range VenueKinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown venue kind %q", ErrValidation, s)
}

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String renders the pair the way directions providers expect it: "lat,lng".
func (p LatLng) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// Venue is a catalog entry the traveller can browse and bookmark:
// a match, restaurant, monument, artisan souk, broker, hotel pickup or
// entertainment spot.
//
// Saved is not stored on the venue row. It is derived from the bookmark
// store when venues are read.
type Venue struct {
	ID        string    `json:"id"`
	Kind      VenueKind `json:"kind"`
	Title     string    `json:"title"`
	Subtitle  string    `json:"subtitle,omitempty"`
	City      string    `json:"city"`
	Images    []string  `json:"images"`
	Location  *LatLng   `json:"location,omitempty"`
	Saved     bool      `json:"saved"`
	CreatedAt time.Time `json:"created_at"`
}

// VenueFilter narrows a venue listing. Zero values match everything.
type VenueFilter struct {
	Kind VenueKind
	City string
}
