package service

import (
	"context"
	"fmt"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/repo"
)

// BookmarkService implements the bookmark store. It holds the venue repo
// because a bookmark's type must agree with the kind of the venue it saves.
type BookmarkService struct {
	bookmarks repo.BookmarkRepo
	venues    repo.VenueRepo
}

// NewBookmarkService constructs a BookmarkService backed by the provided repos.
func NewBookmarkService(bookmarks repo.BookmarkRepo, venues repo.VenueRepo) *BookmarkService {
	return &BookmarkService{bookmarks: bookmarks, venues: venues}
}

// Add saves a venue. Adding an already-saved venue returns the existing bookmark.
// Returns domain.ErrNotFound for an unknown venue and domain.ErrValidation
// when typ is unknown, does not match the venue kind, or the venue cannot be
// bookmarked at all.
func (s *BookmarkService) Add(ctx context.Context, elementID string, typ domain.BookmarkType) (domain.Bookmark, error) {
	if _, err := domain.ParseBookmarkType(string(typ)); err != nil {
		return domain.Bookmark{}, fmt.Errorf("service.BookmarkService.Add: %w", err)
	}
	v, err := s.venues.GetByID(ctx, elementID)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("service.BookmarkService.Add: %w", err)
	}
	want, ok := domain.BookmarkTypeFor(v.Kind)
	if !ok {
		return domain.Bookmark{}, fmt.Errorf("service.BookmarkService.Add: %w: %s venues cannot be bookmarked", domain.ErrValidation, v.Kind)
	}
	if typ != want {
		return domain.Bookmark{}, fmt.Errorf("service.BookmarkService.Add: %w: type %s does not match %s venue %q (want %s)",
			domain.ErrValidation, typ, v.Kind, v.ID, want)
	}

	b, err := s.bookmarks.Add(ctx, elementID, typ)
	if err != nil {
		return domain.Bookmark{}, fmt.Errorf("service.BookmarkService.Add: %w", err)
	}
	return b, nil
}

// Remove deletes the bookmark of a venue.
// Returns domain.ErrNotFound if the venue is not bookmarked.
func (s *BookmarkService) Remove(ctx context.Context, elementID string) error {
	if err := s.bookmarks.Remove(ctx, elementID); err != nil {
		return fmt.Errorf("service.BookmarkService.Remove: %w", err)
	}
	return nil
}

// List returns every bookmark, newest first.
// Always returns a non-nil slice so callers can safely range over it.
func (s *BookmarkService) List(ctx context.Context) ([]domain.Bookmark, error) {
	bookmarks, err := s.bookmarks.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.BookmarkService.List: %w", err)
	}
	if bookmarks == nil {
		return []domain.Bookmark{}, nil
	}
	return bookmarks, nil
}
