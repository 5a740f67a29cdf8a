package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/repo"
	"github.com/moroccoview/companion/internal/service"
)

// ---- mock repo -------------------------------------------------------------

// mockVenueRepo is a hand-written test double for repo.VenueRepo.
// Each method delegates to a function field so tests set only what they need.
type mockVenueRepo struct {
	create    func(ctx context.Context, v domain.Venue) (domain.Venue, error)
	getByID   func(ctx context.Context, id string) (domain.Venue, error)
	listPaged func(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error)
	listByIDs func(ctx context.Context, ids []string) ([]domain.Venue, error)
	delete    func(ctx context.Context, id string) error
}

func (m *mockVenueRepo) Create(ctx context.Context, v domain.Venue) (domain.Venue, error) {
	return m.create(ctx, v)
}
func (m *mockVenueRepo) GetByID(ctx context.Context, id string) (domain.Venue, error) {
	return m.getByID(ctx, id)
}
func (m *mockVenueRepo) ListPaged(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error) {
	return m.listPaged(ctx, f, p)
}
func (m *mockVenueRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Venue, error) {
	return m.listByIDs(ctx, ids)
}
func (m *mockVenueRepo) Delete(ctx context.Context, id string) error {
	return m.delete(ctx, id)
}

// compile-time check: mockVenueRepo must satisfy repo.VenueRepo.
var _ repo.VenueRepo = (*mockVenueRepo)(nil)

func validVenue() domain.Venue {
	return domain.Venue{
		ID:       "m1",
		Kind:     domain.KindMatch,
		Title:    "Morocco vs Spain",
		City:     "Rabat",
		Location: &domain.LatLng{Lat: 34.0, Lng: -6.8},
	}
}

// ---- Create ----------------------------------------------------------------

func TestVenueService_Create_OK(t *testing.T) {
	var stored domain.Venue
	svc := service.NewVenueService(&mockVenueRepo{
		create: func(_ context.Context, v domain.Venue) (domain.Venue, error) {
			stored = v
			return v, nil
		},
	})
	input := validVenue()
	input.ID = "  m1 "
	input.Title = " Morocco vs Spain "

	got, err := svc.Create(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "Morocco vs Spain", stored.Title, "title is trimmed before storage")
}

func TestVenueService_Create_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(v *domain.Venue)
	}{
		{"missing id", func(v *domain.Venue) { v.ID = " " }},
		{"missing title", func(v *domain.Venue) { v.Title = "" }},
		{"unknown kind", func(v *domain.Venue) { v.Kind = "stadium" }},
		{"latitude out of range", func(v *domain.Venue) { v.Location = &domain.LatLng{Lat: 91, Lng: 0} }},
		{"longitude out of range", func(v *domain.Venue) { v.Location = &domain.LatLng{Lat: 0, Lng: -181} }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := service.NewVenueService(&mockVenueRepo{}) // repo must not be called
			v := validVenue()
			tc.mutate(&v)

			_, err := svc.Create(context.Background(), v)

			assert.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestVenueService_Create_Conflict(t *testing.T) {
	svc := service.NewVenueService(&mockVenueRepo{
		create: func(context.Context, domain.Venue) (domain.Venue, error) {
			return domain.Venue{}, domain.ErrConflict
		},
	})

	_, err := svc.Create(context.Background(), validVenue())

	assert.ErrorIs(t, err, domain.ErrConflict)
}

// ---- reads -------------------------------------------------------------------

func TestVenueService_GetByID_NotFound(t *testing.T) {
	svc := service.NewVenueService(&mockVenueRepo{
		getByID: func(context.Context, string) (domain.Venue, error) { return domain.Venue{}, domain.ErrNotFound },
	})

	_, err := svc.GetByID(context.Background(), "ghost")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestVenueService_ListPaged_PassesFilter(t *testing.T) {
	var gotFilter domain.VenueFilter
	var gotParams domain.PaginationParams
	svc := service.NewVenueService(&mockVenueRepo{
		listPaged: func(_ context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error) {
			gotFilter, gotParams = f, p
			return nil, 0, nil
		},
	})
	f := domain.VenueFilter{Kind: domain.KindRestaurant, City: "Fes"}
	p := domain.PaginationParams{Page: 2, Limit: 5}

	venues, total, err := svc.ListPaged(context.Background(), f, p)

	require.NoError(t, err)
	assert.NotNil(t, venues, "nil from the repo becomes an empty slice")
	assert.Zero(t, total)
	assert.Equal(t, f, gotFilter)
	assert.Equal(t, p, gotParams)
}

func TestVenueService_ListPaged_UnknownKind(t *testing.T) {
	svc := service.NewVenueService(&mockVenueRepo{})

	_, _, err := svc.ListPaged(context.Background(), domain.VenueFilter{Kind: "stadium"}, domain.NewPaginationParams(nil, nil))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestVenueService_Delete_PropagatesRepoError(t *testing.T) {
	dbErr := errors.New("connection reset")
	svc := service.NewVenueService(&mockVenueRepo{
		delete: func(context.Context, string) error { return dbErr },
	})

	err := svc.Delete(context.Background(), "m1")

	assert.ErrorIs(t, err, dbErr)
}
