package domain

import (
	"fmt"
	"time"
)

// BookmarkType is the wire enumeration the bookmark store uses for element kinds.
type BookmarkType string

const (
	BookmarkMatch         BookmarkType = "MATCH"
	BookmarkPickup        BookmarkType = "PICKUP"
	BookmarkMoneyExchange BookmarkType = "MONEY_EXCHANGE"
	BookmarkRestaurant    BookmarkType = "RESTAURANT"
	BookmarkMonument      BookmarkType = "MONUMENT"
	BookmarkArtisan       BookmarkType = "ARTISAN"
)

var bookmarkTypeByKind = map[VenueKind]BookmarkType{
	KindMatch:       BookmarkMatch,
	KindHotelPickup: BookmarkPickup,
	KindBroker:      BookmarkMoneyExchange,
	KindRestaurant:  BookmarkRestaurant,
	KindMonument:    BookmarkMonument,
	KindArtisan:     BookmarkArtisan,
}

// BookmarkTypeFor returns the bookmark type for a venue kind.
// ok is false for kinds that cannot be bookmarked (entertainment).
func BookmarkTypeFor(k VenueKind) (BookmarkType, bool) {
	t, ok := bookmarkTypeByKind[k]
	return t, ok
}

// ParseBookmarkType validates s against the known bookmark types.
func ParseBookmarkType(s string) (BookmarkType, error) {
	for _, t := range bookmarkTypeByKind {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: unknown bookmark type %q", ErrValidation, s)
}

// Bookmark is the bookmark store's projection of a saved venue.
// ID is the bookmarked element's ID; there is at most one bookmark per element.
type Bookmark struct {
	ID        string       `json:"id"`
	Type      BookmarkType `json:"type"`
	Images    []string     `json:"images"`
	Title     string       `json:"title"`
	CreatedAt time.Time    `json:"created_at"`
}
