package route_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/route"
)

// mockRouter is a hand-written test double for route.Router.
type mockRouter struct {
	mu    sync.Mutex
	calls int
	route func(ctx context.Context, origin, dest domain.LatLng) ([]domain.LatLng, error)
}

func (m *mockRouter) Route(ctx context.Context, origin, dest domain.LatLng) ([]domain.LatLng, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	return m.route(ctx, origin, dest)
}

var _ route.Router = (*mockRouter)(nil)

// threePointRouter answers every leg with origin, a midpoint, and dest.
func threePointRouter() *mockRouter {
	return &mockRouter{
		route: func(_ context.Context, o, d domain.LatLng) ([]domain.LatLng, error) {
			mid := domain.LatLng{Lat: (o.Lat + d.Lat) / 2, Lng: (o.Lng + d.Lng) / 2}
			return []domain.LatLng{o, mid, d}, nil
		},
	}
}

func located(id string, typ domain.TourItemType, lat, lng float64) domain.TourItem {
	return domain.TourItem{ID: id, Type: typ, Title: id, Location: &domain.LatLng{Lat: lat, Lng: lng}}
}

func dayFixture() []domain.TourItem {
	return []domain.TourItem{
		located("match-1", domain.ItemMatch, 33.5828, -7.6476),
		located("resto-1", domain.ItemRestaurant, 33.5950, -7.6190),
		located("hotel-1", domain.ItemHotel, 33.5890, -7.6030),
		located("souk-1", domain.ItemArtisan, 33.6010, -7.6200),
	}
}

func TestPreview_CircularLegs(t *testing.T) {
	p := route.NewPlanner(threePointRouter(), nil)

	got, err := p.Preview(context.Background(), 1, dayFixture())

	require.NoError(t, err)
	assert.True(t, got.Anchored)
	assert.Equal(t, 1, got.Day)
	// 3 stops besides the hotel → 4 legs, closing back at the hotel.
	require.Len(t, got.Legs, 4)
	assert.Equal(t, "hotel-1", got.Legs[0].From)
	assert.Equal(t, "match-1", got.Legs[0].To)
	assert.Equal(t, "match-1", got.Legs[1].From)
	assert.Equal(t, "resto-1", got.Legs[1].To)
	assert.Equal(t, "resto-1", got.Legs[2].From)
	assert.Equal(t, "souk-1", got.Legs[2].To)
	assert.Equal(t, "souk-1", got.Legs[3].From)
	assert.Equal(t, "hotel-1", got.Legs[3].To)
	for i, leg := range got.Legs {
		assert.Len(t, leg.Points, 3)
		assert.False(t, leg.Fallback)
		assert.Equal(t, route.Palette[i%len(route.Palette)], leg.Color)
	}
}

func TestPreview_NoHotelIsSilentNoop(t *testing.T) {
	router := threePointRouter()
	p := route.NewPlanner(router, nil)
	items := []domain.TourItem{
		located("match-1", domain.ItemMatch, 33.58, -7.64),
		located("resto-1", domain.ItemRestaurant, 33.59, -7.61),
	}

	got, err := p.Preview(context.Background(), 2, items)

	require.NoError(t, err)
	assert.False(t, got.Anchored)
	assert.NotNil(t, got.Legs)
	assert.Empty(t, got.Legs)
	assert.Zero(t, router.calls)
}

func TestPreview_HotelOnly(t *testing.T) {
	router := threePointRouter()
	p := route.NewPlanner(router, nil)

	got, err := p.Preview(context.Background(), 1, []domain.TourItem{located("hotel-1", domain.ItemHotel, 33.5, -7.6)})

	require.NoError(t, err)
	assert.True(t, got.Anchored)
	assert.Empty(t, got.Legs)
	assert.Zero(t, router.calls)
}

func TestPreview_FailedLegFallsBackToStraightLine(t *testing.T) {
	items := dayFixture()
	resto := *items[1].Location
	router := &mockRouter{
		route: func(_ context.Context, o, d domain.LatLng) ([]domain.LatLng, error) {
			if d == resto {
				return nil, errors.New("provider timeout")
			}
			return []domain.LatLng{o, d, d}, nil
		},
	}
	p := route.NewPlanner(router, nil)

	got, err := p.Preview(context.Background(), 1, items)

	require.NoError(t, err)
	require.Len(t, got.Legs, 4)
	failed := got.Legs[1]
	assert.True(t, failed.Fallback)
	assert.Equal(t, []domain.LatLng{*items[0].Location, resto}, failed.Points)
	for _, i := range []int{0, 2, 3} {
		assert.False(t, got.Legs[i].Fallback, "leg %d", i)
		assert.Len(t, got.Legs[i].Points, 3, "leg %d", i)
	}
}

func TestPreview_AllLegsFail(t *testing.T) {
	router := &mockRouter{
		route: func(context.Context, domain.LatLng, domain.LatLng) ([]domain.LatLng, error) {
			return nil, errors.New("down")
		},
	}
	p := route.NewPlanner(router, nil)

	got, err := p.Preview(context.Background(), 1, dayFixture())

	require.NoError(t, err)
	require.Len(t, got.Legs, 4)
	for _, leg := range got.Legs {
		assert.True(t, leg.Fallback)
		assert.Len(t, leg.Points, 2)
	}
}

func TestPreview_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	router := &mockRouter{
		route: func(ctx context.Context, _, _ domain.LatLng) ([]domain.LatLng, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	p := route.NewPlanner(router, nil)

	_, err := p.Preview(ctx, 1, dayFixture())

	assert.ErrorIs(t, err, context.Canceled)
}

func TestSequence_SkipsItemsWithoutLocation(t *testing.T) {
	items := append(dayFixture(), domain.TourItem{ID: "no-geo", Type: domain.ItemMonument})

	seq, ok := route.Sequence(items)

	require.True(t, ok)
	ids := make([]string, len(seq))
	for i, it := range seq {
		ids[i] = it.ID
	}
	assert.Equal(t, []string{"hotel-1", "match-1", "resto-1", "souk-1", "hotel-1"}, ids)
}

func TestSequence_HotelWithoutLocationIsNotAnAnchor(t *testing.T) {
	items := []domain.TourItem{
		{ID: "hotel-1", Type: domain.ItemHotel},
		located("match-1", domain.ItemMatch, 33.58, -7.64),
	}

	_, ok := route.Sequence(items)

	assert.False(t, ok)
}
