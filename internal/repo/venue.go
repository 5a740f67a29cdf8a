package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/moroccoview/companion/internal/domain"
)

// VenueRepo defines the persistence operations for the venue catalog.
// Every read derives Venue.Saved from the bookmarks table.
type VenueRepo interface {
	// Create inserts a catalog entry. Returns domain.ErrConflict if the ID is taken.
	Create(ctx context.Context, v domain.Venue) (domain.Venue, error)

	// GetByID returns domain.ErrNotFound if no venue has that ID.
	GetByID(ctx context.Context, id string) (domain.Venue, error)

	// ListPaged returns one page of venues matching f, in catalog order,
	// and the total number of matches.
	ListPaged(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error)

	// ListByIDs returns the venues among ids that exist, in catalog order.
	ListByIDs(ctx context.Context, ids []string) ([]domain.Venue, error)

	// Delete removes a venue. Returns domain.ErrNotFound if it does not exist
	// and domain.ErrConflict while it is still bookmarked.
	Delete(ctx context.Context, id string) error
}

type pgVenueRepo struct {
	db db
}

// NewVenueRepo constructs a VenueRepo backed by the provided db connection.
func NewVenueRepo(db db) VenueRepo {
	return &pgVenueRepo{db: db}
}

// Catalog order is insertion order with the ID as tie-breaker.
const venueColumns = `
	v.id, v.kind, v.title, v.subtitle, v.city, v.images, v.lat, v.lng,
	(b.element_id IS NOT NULL) AS saved, v.created_at`

func (r *pgVenueRepo) Create(ctx context.Context, v domain.Venue) (domain.Venue, error) {
	const q = `
		WITH v AS (
			INSERT INTO venues (id, kind, title, subtitle, city, images, lat, lng)
			VALUES (@id, @kind, @title, @subtitle, @city, @images, @lat, @lng)
			RETURNING *
		)
		SELECT ` + venueColumns + `
		FROM v
		LEFT JOIN bookmarks b ON b.element_id = v.id`

	args := pgx.NamedArgs{
		"id":       v.ID,
		"kind":     string(v.Kind),
		"title":    v.Title,
		"subtitle": v.Subtitle,
		"city":     v.City,
		"images":   nonNilStrings(v.Images),
		"lat":      nil,
		"lng":      nil,
	}
	if v.Location != nil {
		args["lat"] = v.Location.Lat
		args["lng"] = v.Location.Lng
	}

	result, err := scanVenue(r.db.QueryRow(ctx, q, args))
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return domain.Venue{}, fmt.Errorf("repo.VenueRepo.Create: venue %q: %w", v.ID, domain.ErrConflict)
		}
		return domain.Venue{}, fmt.Errorf("repo.VenueRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgVenueRepo) GetByID(ctx context.Context, id string) (domain.Venue, error) {
	const q = `
		SELECT ` + venueColumns + `
		FROM venues v
		LEFT JOIN bookmarks b ON b.element_id = v.id
		WHERE v.id = @id`

	result, err := scanVenue(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Venue{}, fmt.Errorf("repo.VenueRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListPaged runs the page query and the count query with the same filter.
// An empty kind or city matches every row.
func (r *pgVenueRepo) ListPaged(ctx context.Context, f domain.VenueFilter, p domain.PaginationParams) ([]domain.Venue, int64, error) {
	const where = `
		WHERE (@kind = '' OR v.kind = @kind)
		  AND (@city = '' OR lower(v.city) = lower(@city))`

	const countQ = `SELECT count(*) FROM venues v` + where
	const pageQ = `
		SELECT ` + venueColumns + `
		FROM venues v
		LEFT JOIN bookmarks b ON b.element_id = v.id` + where + `
		ORDER BY v.created_at, v.id
		LIMIT @limit OFFSET @offset`

	args := pgx.NamedArgs{
		"kind":   string(f.Kind),
		"city":   f.City,
		"limit":  p.Limit,
		"offset": p.Offset(),
	}

	var total int64
	if err := r.db.QueryRow(ctx, countQ, args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.VenueRepo.ListPaged: count: %w", err)
	}

	venues, err := r.query(ctx, pageQ, args)
	if err != nil {
		return nil, 0, fmt.Errorf("repo.VenueRepo.ListPaged: %w", err)
	}
	return venues, total, nil
}

func (r *pgVenueRepo) ListByIDs(ctx context.Context, ids []string) ([]domain.Venue, error) {
	const q = `
		SELECT ` + venueColumns + `
		FROM venues v
		LEFT JOIN bookmarks b ON b.element_id = v.id
		WHERE v.id = ANY(@ids)
		ORDER BY v.created_at, v.id`

	venues, err := r.query(ctx, q, pgx.NamedArgs{"ids": nonNilStrings(ids)})
	if err != nil {
		return nil, fmt.Errorf("repo.VenueRepo.ListByIDs: %w", err)
	}
	return venues, nil
}

func (r *pgVenueRepo) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM venues WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id})
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("repo.VenueRepo.Delete: venue %q is bookmarked: %w", id, domain.ErrConflict)
		}
		return fmt.Errorf("repo.VenueRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.VenueRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgVenueRepo) query(ctx context.Context, q string, args pgx.NamedArgs) ([]domain.Venue, error) {
	rows, err := r.db.Query(ctx, q, args)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	venues := []domain.Venue{}
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		venues = append(venues, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return venues, nil
}

// scanVenue maps one row selected with venueColumns into a domain.Venue.
func scanVenue(s scanner) (domain.Venue, error) {
	var (
		v        domain.Venue
		kind     string
		lat, lng pgtype.Float8
	)
	err := s.Scan(&v.ID, &kind, &v.Title, &v.Subtitle, &v.City, &v.Images, &lat, &lng, &v.Saved, &v.CreatedAt)
	if err != nil {
		return domain.Venue{}, notFound(err)
	}
	v.Kind = domain.VenueKind(kind)
	if v.Images == nil {
		v.Images = []string{}
	}
	if lat.Valid && lng.Valid {
		v.Location = &domain.LatLng{Lat: lat.Float64, Lng: lng.Float64}
	}
	return v, nil
}

// nonNilStrings keeps pgx from encoding a nil slice as SQL NULL.
func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
