// Package service contains the business logic for the companion API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here; services depend on repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/repo"
)

// VenueService implements business logic for the venue catalog.
type VenueService struct {
	venues repo.VenueRepo
}

// NewVenueService constructs a VenueService backed by the provided VenueRepo.
func NewVenueService(venues repo.VenueRepo) *VenueService {
	return &VenueService{venues: venues}
}

// Create validates and persists a catalog entry.
// Returns domain.ErrValidation for invalid input and domain.ErrConflict when
// the ID is already taken.
func (s *VenueService) Create(ctx context.Context, v domain.Venue) (domain.Venue, error) {
	v.ID = strings.TrimSpace(v.ID)
	v.Title = strings.TrimSpace(v.Title)
	if err := validateVenue(v); err != nil {
		return domain.Venue{}, fmt.Errorf("service.VenueService.Create: %w", err)
	}
	result, err := s.venues.Create(ctx, v)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("service.VenueService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns one venue with its saved flag.
func (s *VenueService) GetByID(ctx context.Context, id string) (domain.Venue, error) {
	result, err := s.venues.GetByID(ctx, id)
	if err != nil {
		return domain.Venue{}, fmt.Errorf("service.VenueService.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of the catalog and the total number of matches.
// An unknown kind is a validation error rather than an empty page.
func (s *VenueService) ListPaged(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error) {
	if f.Kind != "" {
		if _, err := domain.ParseVenueKind(string(f.Kind)); err != nil {
			return nil, 0, fmt.Errorf("service.VenueService.ListPaged: %w", err)
		}
	}
	venues, total, err := s.venues.ListPaged(ctx, f, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.VenueService.ListPaged: %w", err)
	}
	if venues == nil {
		venues = []domain.Venue{}
	}
	return venues, total, nil
}

// Delete removes a venue. Bookmarked venues return domain.ErrConflict.
func (s *VenueService) Delete(ctx context.Context, id string) error {
	if err := s.venues.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.VenueService.Delete: %w", err)
	}
	return nil
}

// validateVenue enforces the catalog rules:
//   - ID and title are required.
//   - Kind must be a known venue kind.
//   - A location, when present, must be a valid WGS84 coordinate.
func validateVenue(v domain.Venue) error {
	if v.ID == "" {
		return fmt.Errorf("%w: id is required", domain.ErrValidation)
	}
	if v.Title == "" {
		return fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if _, err := domain.ParseVenueKind(string(v.Kind)); err != nil {
		return err
	}
	if loc := v.Location; loc != nil {
		if loc.Lat < -90 || loc.Lat > 90 || loc.Lng < -180 || loc.Lng > 180 {
			return fmt.Errorf("%w: location %s is out of range", domain.ErrValidation, loc)
		}
	}
	return nil
}
