package repo

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moroccoview/companion/internal/domain"
)

// TourRepo defines the persistence operations for Tours, their day
// selections and their per-item notes.
// The service layer depends on this interface, not the concrete Postgres
// implementation, so the service can be unit-tested with a mock.
type TourRepo interface {
	// Create inserts a tour with its days and returns the persisted record
	// (with DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, tour domain.Tour) (domain.Tour, error)

	// GetByID retrieves a tour with its days (ascending) and notes.
	// Returns domain.ErrNotFound if no tour with that ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error)

	// ListPaged returns one page of tours ordered by start_date descending,
	// with their days, and the total number of tours.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Tour, int64, error)

	// Update overwrites name, start date and the full set of days.
	// Notes are left alone. Returns domain.ErrNotFound if the tour does not exist.
	Update(ctx context.Context, tour domain.Tour) (domain.Tour, error)

	// Delete removes a tour with its days and notes.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetManualOrder stores the traveller's item order for one day.
	// Returns domain.ErrNotFound if the tour has no such day.
	SetManualOrder(ctx context.Context, tourID uuid.UUID, day int, itemIDs []string) error

	// UpsertNote stores the duration and time slot of one item on one day.
	UpsertNote(ctx context.Context, tourID uuid.UUID, note domain.ItemNote) error
}

// pgTourRepo is the Postgres implementation of TourRepo.
type pgTourRepo struct {
	db db
}

// NewTourRepo constructs a TourRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTourRepo(db db) TourRepo {
	return &pgTourRepo{db: db}
}

const tourColumns = `id, name, start_date, created_at, updated_at`

// Create inserts the tour row and its days in one transaction.
func (r *pgTourRepo) Create(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	const q = `
		INSERT INTO tours (name, start_date)
		VALUES (@name, @start_date)
		RETURNING ` + tourColumns

	var result domain.Tour
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		args := pgx.NamedArgs{"name": tour.Name, "start_date": pgDate(tour)}
		t, err := scanTour(tx.QueryRow(ctx, q, args))
		if err != nil {
			return err
		}
		if err := insertDays(ctx, tx, t.ID, tour.Days); err != nil {
			return err
		}
		t.Days = sortedDays(tour.Days)
		result = t
		return nil
	})
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgTourRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Tour, error) {
	const q = `SELECT ` + tourColumns + ` FROM tours WHERE id = @id`

	t, err := scanTour(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.GetByID: %w", err)
	}

	days, err := r.daysFor(ctx, []uuid.UUID{t.ID})
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.GetByID: %w", err)
	}
	t.Days = days[t.ID]
	if t.Days == nil {
		t.Days = []domain.TourDay{}
	}

	if t.Notes, err = r.notesFor(ctx, t.ID); err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.GetByID: %w", err)
	}
	return t, nil
}

func (r *pgTourRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Tour, int64, error) {
	const q = `
		SELECT ` + tourColumns + `
		FROM tours
		ORDER BY start_date DESC, created_at DESC
		LIMIT @limit OFFSET @offset`

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM tours`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.TourRepo.ListPaged: count: %w", err)
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TourRepo.ListPaged: %w", err)
	}
	tours, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Tour, error) {
		return scanTour(row)
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TourRepo.ListPaged: scan: %w", err)
	}

	ids := make([]uuid.UUID, len(tours))
	for i, t := range tours {
		ids[i] = t.ID
	}
	days, err := r.daysFor(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.TourRepo.ListPaged: %w", err)
	}
	for i := range tours {
		tours[i].Days = days[tours[i].ID]
		if tours[i].Days == nil {
			tours[i].Days = []domain.TourDay{}
		}
	}
	return tours, total, nil
}

// Update rewrites the tour row and replaces its days in one transaction.
func (r *pgTourRepo) Update(ctx context.Context, tour domain.Tour) (domain.Tour, error) {
	const q = `
		UPDATE tours
		SET name       = @name,
		    start_date = @start_date,
		    updated_at = now()
		WHERE id = @id
		RETURNING ` + tourColumns

	var result domain.Tour
	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		args := pgx.NamedArgs{"id": tour.ID, "name": tour.Name, "start_date": pgDate(tour)}
		t, err := scanTour(tx.QueryRow(ctx, q, args))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tour_days WHERE tour_id = @id`, pgx.NamedArgs{"id": t.ID}); err != nil {
			return fmt.Errorf("clear days: %w", err)
		}
		if err := insertDays(ctx, tx, t.ID, tour.Days); err != nil {
			return err
		}
		t.Days = sortedDays(tour.Days)
		result = t
		return nil
	})
	if err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.Update: %w", err)
	}

	if result.Notes, err = r.notesFor(ctx, result.ID); err != nil {
		return domain.Tour{}, fmt.Errorf("repo.TourRepo.Update: %w", err)
	}
	return result, nil
}

func (r *pgTourRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM tours WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		return fmt.Errorf("repo.TourRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TourRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgTourRepo) SetManualOrder(ctx context.Context, tourID uuid.UUID, day int, itemIDs []string) error {
	const q = `
		WITH d AS (
			UPDATE tour_days
			SET manual_order = @item_ids
			WHERE tour_id = @tour_id AND day = @day
			RETURNING tour_id
		)
		UPDATE tours SET updated_at = now()
		WHERE id IN (SELECT tour_id FROM d)`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"tour_id":  tourID,
		"day":      day,
		"item_ids": nonNilStrings(itemIDs),
	})
	if err != nil {
		return fmt.Errorf("repo.TourRepo.SetManualOrder: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.TourRepo.SetManualOrder: day %d: %w", day, domain.ErrNotFound)
	}
	return nil
}

func (r *pgTourRepo) UpsertNote(ctx context.Context, tourID uuid.UUID, note domain.ItemNote) error {
	const q = `
		INSERT INTO tour_item_notes (tour_id, day, item_id, duration, time_slot)
		VALUES (@tour_id, @day, @item_id, @duration, @time_slot)
		ON CONFLICT (tour_id, day, item_id)
		DO UPDATE SET duration = EXCLUDED.duration, time_slot = EXCLUDED.time_slot`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"tour_id":   tourID,
		"day":       note.Day,
		"item_id":   note.ItemID,
		"duration":  note.Duration,
		"time_slot": note.TimeSlot,
	})
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("repo.TourRepo.UpsertNote: %w", domain.ErrNotFound)
		}
		return fmt.Errorf("repo.TourRepo.UpsertNote: %w", err)
	}
	return nil
}

// insertDays queues one INSERT per day on a single batch round trip.
func insertDays(ctx context.Context, tx pgx.Tx, tourID uuid.UUID, days []domain.TourDay) error {
	if len(days) == 0 {
		return nil
	}
	const q = `
		INSERT INTO tour_days (tour_id, day, city, item_ids, manual_order)
		VALUES (@tour_id, @day, @city, @item_ids, @manual_order)`

	b := &pgx.Batch{}
	for _, d := range days {
		b.Queue(q, pgx.NamedArgs{
			"tour_id":      tourID,
			"day":          d.Day,
			"city":         d.City,
			"item_ids":     nonNilStrings(d.ItemIDs),
			"manual_order": nonNilStrings(d.ManualOrder),
		})
	}
	if err := tx.SendBatch(ctx, b).Close(); err != nil {
		if pgCode(err) == pgUniqueViolation {
			return fmt.Errorf("insert days: duplicate day: %w", domain.ErrValidation)
		}
		return fmt.Errorf("insert days: %w", err)
	}
	return nil
}

// daysFor loads the days of several tours with one query, grouped by tour.
func (r *pgTourRepo) daysFor(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]domain.TourDay, error) {
	const q = `
		SELECT tour_id, day, city, item_ids, manual_order
		FROM tour_days
		WHERE tour_id = ANY(@ids)
		ORDER BY tour_id, day`

	out := make(map[uuid.UUID][]domain.TourDay, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"ids": ids})
	if err != nil {
		return nil, fmt.Errorf("days: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tourID pgtype.UUID
			d      domain.TourDay
		)
		if err := rows.Scan(&tourID, &d.Day, &d.City, &d.ItemIDs, &d.ManualOrder); err != nil {
			return nil, fmt.Errorf("days: scan: %w", err)
		}
		if d.ItemIDs == nil {
			d.ItemIDs = []string{}
		}
		if len(d.ManualOrder) == 0 {
			d.ManualOrder = nil
		}
		id := uuid.UUID(tourID.Bytes)
		out[id] = append(out[id], d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("days: rows: %w", err)
	}
	return out, nil
}

func (r *pgTourRepo) notesFor(ctx context.Context, tourID uuid.UUID) ([]domain.ItemNote, error) {
	const q = `
		SELECT day, item_id, duration, time_slot
		FROM tour_item_notes
		WHERE tour_id = @tour_id
		ORDER BY day, item_id`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"tour_id": tourID})
	if err != nil {
		return nil, fmt.Errorf("notes: %w", err)
	}
	notes, err := pgx.CollectRows(rows, pgx.RowToStructByPos[domain.ItemNote])
	if err != nil {
		return nil, fmt.Errorf("notes: scan: %w", err)
	}
	return notes, nil
}

// pgDate strips the clock so the DATE column receives the intended calendar day.
func pgDate(t domain.Tour) pgtype.Date {
	y, m, d := t.StartDate.Date()
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// sortedDays returns a copy of days ordered by day index, matching what a read returns.
func sortedDays(days []domain.TourDay) []domain.TourDay {
	out := make([]domain.TourDay, len(days))
	copy(out, days)
	slices.SortFunc(out, func(a, b domain.TourDay) int { return a.Day - b.Day })
	for i := range out {
		if out[i].ItemIDs == nil {
			out[i].ItemIDs = []string{}
		}
		if len(out[i].ManualOrder) == 0 {
			out[i].ManualOrder = nil
		}
	}
	return out
}

// scanTour maps a single row selected with tourColumns into a domain.Tour.
func scanTour(s scanner) (domain.Tour, error) {
	var (
		t     domain.Tour
		id    pgtype.UUID
		start pgtype.Date
	)
	if err := s.Scan(&id, &t.Name, &start, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return domain.Tour{}, notFound(err)
	}
	t.ID = uuid.UUID(id.Bytes)
	t.StartDate = start.Time
	return t, nil
}
