package service

import (
	"context"
	"fmt"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/itinerary"
)

// PreviewService runs the itinerary builder and the route planner on
// client-supplied input without touching storage.
type PreviewService struct {
	planner RoutePlanner
}

// NewPreviewService constructs a PreviewService around planner.
func NewPreviewService(planner RoutePlanner) *PreviewService {
	return &PreviewService{planner: planner}
}

// ScheduleInput is an unsaved tour: a start date in any accepted form, the
// per-day selections and city overrides, and the items to resolve them against.
type ScheduleInput struct {
	StartDate      string
	SelectionByDay map[int][]string
	Cities         map[int]string
	Items          []domain.TourItem
}

// Schedule builds a schedule from in. An unparsable start date returns an
// error wrapping domain.ErrValidation; an empty result is served as the
// placeholder day.
func (s *PreviewService) Schedule(_ context.Context, in ScheduleInput) (domain.ScheduleView, error) {
	res := itinerary.Build(in.StartDate, in.SelectionByDay, in.Cities, in.Items)
	if res.Status == itinerary.StatusInvalid {
		return domain.ScheduleView{}, fmt.Errorf("service.PreviewService.Schedule: %w", res.Err)
	}
	return viewOf(res.Days), nil
}

// Route builds the route preview of one unsaved day.
func (s *PreviewService) Route(ctx context.Context, day int, items []domain.TourItem) (domain.RoutePreview, error) {
	preview, err := s.planner.Preview(ctx, day, items)
	if err != nil {
		return domain.RoutePreview{}, fmt.Errorf("service.PreviewService.Route: %w", err)
	}
	return preview, nil
}
