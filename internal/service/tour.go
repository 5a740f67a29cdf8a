package service

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/moroccoview/companion/internal/domain"
	"github.com/moroccoview/companion/internal/itinerary"
	"github.com/moroccoview/companion/internal/repo"
)

// startDateLayout is how a stored start date is handed to the itinerary builder.
const startDateLayout = "2006-01-02"

// RoutePlanner builds the route preview of one scheduled day.
// *route.Planner satisfies it.
type RoutePlanner interface {
	Preview(ctx context.Context, day int, items []domain.TourItem) (domain.RoutePreview, error)
}

// TourService implements business logic for tours and their schedules.
// Schedules are never stored: every read rebuilds them from the tour's
// selection and the venue catalog, then re-applies the stored manual orders
// and item notes.
type TourService struct {
	tours   repo.TourRepo
	venues  repo.VenueRepo
	planner RoutePlanner
	log     *slog.Logger
}

// NewTourService constructs a TourService. A nil logger means slog.Default().
func NewTourService(tours repo.TourRepo, venues repo.VenueRepo, planner RoutePlanner, log *slog.Logger) *TourService {
	if log == nil {
		log = slog.Default()
	}
	return &TourService{tours: tours, venues: venues, planner: planner, log: log}
}

// Create validates and persists a new tour. Manual orders in the input are dropped.
func (s *TourService) Create(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	tour.Name = strings.TrimSpace(tour.Name)
	if err := validateTour(tour); err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Create: %w", err)
	}
	tour.Days = withoutManualOrder(tour.Days)

	result, err := s.tours.Create(ctx, tour)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Create: %w", err)
	}
	return result, nil
}

// GetByID returns a tour with its days and notes.
func (s *TourService) GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	result, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged returns one page of tours and the total count.
func (s *TourService) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Tour, int64, error) {
	tours, total, err := s.tours.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.TourService.ListPaged: %w", err)
	}
	if tours == nil {
		tours = []domain.Tour{}
	}
	return tours, total, nil
}

// Update validates and replaces a tour's name, start date and days.
// Manual orders survive only when neither the start date nor any day's
// selection changed; otherwise every day is rebuilt in builder order.
func (s *TourService) Update(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	tour.Name = strings.TrimSpace(tour.Name)
	if err := validateTour(tour); err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Update: %w", err)
	}

	current, err := s.tours.GetByID(ctx, tour.ID)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Update: %w", err)
	}

	tour.Days = withoutManualOrder(tour.Days)
	if sameDate(current, tour) && sameSelection(current.Days, tour.Days) {
		kept := make(map[int][]string, len(current.Days))
		for _, d := range current.Days {
			kept[d.Day] = d.ManualOrder
		}
		for i := range tour.Days {
			tour.Days[i].ManualOrder = kept[tour.Days[i].Day]
		}
	}

	result, err := s.tours.Update(ctx, tour)
	if err != nil {
		return domain.Tour{}, fmt.Errorf("service.TourService.Update: %w", err)
	}
	return result, nil
}

// Delete removes a tour with its days and notes.
func (s *TourService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.tours.Delete(ctx, id); err != nil {
		return fmt.Errorf("service.TourService.Delete: %w", err)
	}
	return nil
}

// Schedule builds the tour's current schedule. An empty schedule is served
// as the placeholder day.
func (s *TourService) Schedule(ctx context.Context, id uuid.UUID) (domain.ScheduleView, error) {
	_, sched, err := s.load(ctx, id)
	if err != nil {
		return domain.ScheduleView{}, fmt.Errorf("service.TourService.Schedule: %w", err)
	}
	return viewOf(sched.Days()), nil
}

// ItemUpdate carries the optional fields of an item edit. Nil leaves a field unchanged.
type ItemUpdate struct {
	Duration *string
	TimeSlot *string
}

// UpdateItem edits the duration and/or time slot of one scheduled item,
// addressed by zero-based day and item positions, and returns the updated day.
// Returns domain.ErrNotFound when either position is out of range.
func (s *TourService) UpdateItem(ctx context.Context, id uuid.UUID, day, item int, u ItemUpdate) (domain.DailySchedule, error) {
	_, sched, err := s.load(ctx, id)
	if err != nil {
		return domain.DailySchedule{}, fmt.Errorf("service.TourService.UpdateItem: %w", err)
	}

	ok := true
	if u.Duration != nil {
		ok = sched.SetItemDuration(day, item, *u.Duration)
	}
	if ok && u.TimeSlot != nil {
		ok = sched.SetItemTimeSlot(day, item, *u.TimeSlot)
	}
	d, inRange := sched.Day(day)
	if !ok || !inRange || item < 0 || item >= len(d.Items) {
		return domain.DailySchedule{}, fmt.Errorf("service.TourService.UpdateItem: day %d item %d: %w", day, item, domain.ErrNotFound)
	}

	it := d.Items[item]
	note := domain.ItemNote{Day: d.Day, ItemID: it.ID, Duration: it.Duration, TimeSlot: it.TimeSlot}
	if err := s.tours.UpsertNote(ctx, id, note); err != nil {
		return domain.DailySchedule{}, fmt.Errorf("service.TourService.UpdateItem: %w", err)
	}
	return d, nil
}

// Reorder stores a new item order for one scheduled day (zero-based) and
// returns the updated day. itemIDs must be a permutation of the day's items.
func (s *TourService) Reorder(ctx context.Context, id uuid.UUID, day int, itemIDs []string) (domain.DailySchedule, error) {
	_, sched, err := s.load(ctx, id)
	if err != nil {
		return domain.DailySchedule{}, fmt.Errorf("service.TourService.Reorder: %w", err)
	}
	if err := sched.ReorderDayByID(day, itemIDs); err != nil {
		return domain.DailySchedule{}, fmt.Errorf("service.TourService.Reorder: %w", err)
	}

	d, _ := sched.Day(day)
	if err := s.tours.SetManualOrder(ctx, id, d.Day, itemIDs); err != nil {
		return domain.DailySchedule{}, fmt.Errorf("service.TourService.Reorder: %w", err)
	}
	return d, nil
}

// RoutePreview builds the route of one scheduled day (zero-based).
// The preview's Day is the day's 1-based tour day.
func (s *TourService) RoutePreview(ctx context.Context, id uuid.UUID, day int) (domain.RoutePreview, error) {
	_, sched, err := s.load(ctx, id)
	if err != nil {
		return domain.RoutePreview{}, fmt.Errorf("service.TourService.RoutePreview: %w", err)
	}
	d, ok := sched.Day(day)
	if !ok {
		return domain.RoutePreview{}, fmt.Errorf("service.TourService.RoutePreview: day %d: %w", day, domain.ErrNotFound)
	}

	preview, err := s.planner.Preview(ctx, d.Day, d.Items)
	if err != nil {
		return domain.RoutePreview{}, fmt.Errorf("service.TourService.RoutePreview: %w", err)
	}
	return preview, nil
}

// Export returns one row per scheduled item, in schedule order.
// A tour with nothing scheduled exports no rows.
func (s *TourService) Export(ctx context.Context, id uuid.UUID) ([]domain.ExportRow, error) {
	tour, sched, err := s.load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("service.TourService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, d := range sched.Days() {
		for i, it := range d.Items {
			rows = append(rows, domain.ExportRow{
				TourID:   tour.ID.String(),
				TourName: tour.Name,
				Day:      d.Day,
				Date:     d.Date,
				City:     d.City,
				Position: i + 1,
				ItemID:   it.ID,
				ItemType: string(it.Type),
				Title:    it.Title,
				Duration: it.Duration,
				TimeSlot: it.TimeSlot,
			})
		}
	}
	return rows, nil
}

// load fetches a tour and rebuilds its schedule against the current catalog.
func (s *TourService) load(ctx context.Context, id uuid.UUID) (domain.Tour, *itinerary.Schedule, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return domain.Tour{}, nil, err
	}
	venues, err := s.venues.ListByIDs(ctx, tour.ItemIDs())
	if err != nil {
		return domain.Tour{}, nil, err
	}
	catalog := make([]domain.TourItem, len(venues))
	for i, v := range venues {
		catalog[i] = domain.TourItemFromVenue(v)
	}

	res := itinerary.Build(tour.StartDate.Format(startDateLayout), tour.SelectionByDay(), tour.Cities(), catalog)
	if res.Status == itinerary.StatusInvalid {
		return domain.Tour{}, nil, res.Err
	}
	sched := itinerary.NewSchedule(res.Days)
	s.applyManualOrders(ctx, tour, sched)
	applyNotes(tour.Notes, sched)
	return tour, sched, nil
}

// applyManualOrders re-applies each stored order that is still a permutation
// of the rebuilt day. Stale orders (a venue left the catalog) are skipped.
func (s *TourService) applyManualOrders(ctx context.Context, tour domain.Tour, sched *itinerary.Schedule) {
	for _, d := range tour.Days {
		if len(d.ManualOrder) == 0 {
			continue
		}
		idx := sched.IndexOfDay(d.Day)
		if idx < 0 {
			continue
		}
		if err := sched.ReorderDayByID(idx, d.ManualOrder); err != nil {
			s.log.WarnContext(ctx, "stored day order no longer matches schedule",
				"tour_id", tour.ID, "day", d.Day, "error", err)
		}
	}
}

func applyNotes(notes []domain.ItemNote, sched *itinerary.Schedule) {
	for _, n := range notes {
		idx := sched.IndexOfDay(n.Day)
		d, ok := sched.Day(idx)
		if !ok {
			continue
		}
		pos := slices.IndexFunc(d.Items, func(it domain.TourItem) bool { return it.ID == n.ItemID })
		if pos < 0 {
			continue
		}
		sched.SetItemDuration(idx, pos, n.Duration)
		sched.SetItemTimeSlot(idx, pos, n.TimeSlot)
	}
}

// viewOf wraps built days for clients, substituting the placeholder when empty.
func viewOf(days []domain.DailySchedule) domain.ScheduleView {
	if len(days) == 0 {
		return domain.ScheduleView{
			Status:      itinerary.StatusEmpty.String(),
			Placeholder: true,
			Days:        itinerary.Placeholder(),
		}
	}
	return domain.ScheduleView{Status: itinerary.StatusOK.String(), Days: days}
}

// validateTour enforces business rules common to both Create and Update.
//   - Name must be non-empty.
//   - Start date is required.
//   - Day indices are 1-based and unique.
func validateTour(t domain.Tour) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if t.StartDate.IsZero() {
		return fmt.Errorf("%w: start_date is required", domain.ErrValidation)
	}
	seen := make(map[int]bool, len(t.Days))
	for _, d := range t.Days {
		if d.Day < 1 {
			return fmt.Errorf("%w: day must be 1 or greater, got %d", domain.ErrValidation, d.Day)
		}
		if seen[d.Day] {
			return fmt.Errorf("%w: day %d appears more than once", domain.ErrValidation, d.Day)
		}
		seen[d.Day] = true
	}
	return nil
}

func withoutManualOrder(days []domain.TourDay) []domain.TourDay {
	out := slices.Clone(days)
	for i := range out {
		out[i].ManualOrder = nil
	}
	return out
}

func sameDate(a, b domain.Tour) bool {
	return a.StartDate.Format(startDateLayout) == b.StartDate.Format(startDateLayout)
}

// sameSelection compares the selected item sets day by day. Order within a
// day is irrelevant because the builder resolves items in catalog order.
func sameSelection(a, b []domain.TourDay) bool {
	index := func(days []domain.TourDay) map[int][]string {
		m := make(map[int][]string, len(days))
		for _, d := range days {
			ids := slices.Clone(d.ItemIDs)
			slices.Sort(ids)
			m[d.Day] = slices.Compact(ids)
		}
		return m
	}
	return maps.EqualFunc(index(a), index(b), slices.Equal[[]string])
}
