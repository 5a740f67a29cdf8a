package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/moroccoview/companion/internal/domain"
)

// BookmarkRepo defines the persistence operations for the bookmark store.
// A bookmark is keyed by the ID of the venue it saves.
type BookmarkRepo interface {
	// Add saves a venue, or returns the existing bookmark if the venue is
	// already saved. Returns domain.ErrNotFound if the venue does not exist.
	Add(ctx context.Context, elementID string, typ domain.BookmarkType) (domain.Bookmark, error)

	// Remove deletes the bookmark of a venue.
	// Returns domain.ErrNotFound if the venue is not bookmarked.
	Remove(ctx context.Context, elementID string) error

	// List returns every bookmark, newest first, with the venue's title and images.
	List(ctx context.Context) ([]domain.Bookmark, error)
}

type pgBookmarkRepo struct {
	db db
}

// NewBookmarkRepo constructs a BookmarkRepo backed by the provided db connection.
func NewBookmarkRepo(db db) BookmarkRepo {
	return &pgBookmarkRepo{db: db}
}

// Add inserts a bookmark or returns the existing row on conflict.
// The DO UPDATE SET no-op forces RETURNING to fire when the row already
// exists; DO NOTHING would return no rows.
func (r *pgBookmarkRepo) Add(ctx context.Context, elementID string, typ domain.BookmarkType) (domain.Bookmark, error) {
	const q = `
		WITH b AS (
			INSERT INTO bookmarks (element_id, type)
			VALUES (@element_id, @type)
			ON CONFLICT (element_id) DO UPDATE SET element_id = EXCLUDED.element_id
			RETURNING element_id, type, created_at
		)
		SELECT b.element_id, b.type, v.images, v.title, b.created_at
		FROM b
		JOIN venues v ON v.id = b.element_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"element_id": elementID, "type": string(typ)})
	result, err := scanBookmark(row)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return domain.Bookmark{}, fmt.Errorf("repo.BookmarkRepo.Add: venue %q: %w", elementID, domain.ErrNotFound)
		}
		return domain.Bookmark{}, fmt.Errorf("repo.BookmarkRepo.Add: %w", err)
	}
	return result, nil
}

func (r *pgBookmarkRepo) Remove(ctx context.Context, elementID string) error {
	const q = `DELETE FROM bookmarks WHERE element_id = @element_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"element_id": elementID})
	if err != nil {
		return fmt.Errorf("repo.BookmarkRepo.Remove: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.BookmarkRepo.Remove: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgBookmarkRepo) List(ctx context.Context) ([]domain.Bookmark, error) {
	const q = `
		SELECT b.element_id, b.type, v.images, v.title, b.created_at
		FROM bookmarks b
		JOIN venues v ON v.id = b.element_id
		ORDER BY b.created_at DESC, b.element_id`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.BookmarkRepo.List: %w", err)
	}
	defer rows.Close()

	bookmarks := []domain.Bookmark{}
	for rows.Next() {
		b, err := scanBookmark(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.BookmarkRepo.List: scan: %w", err)
		}
		bookmarks = append(bookmarks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.BookmarkRepo.List: rows: %w", err)
	}
	return bookmarks, nil
}

func scanBookmark(s scanner) (domain.Bookmark, error) {
	var (
		b   domain.Bookmark
		typ string
	)
	if err := s.Scan(&b.ID, &typ, &b.Images, &b.Title, &b.CreatedAt); err != nil {
		return domain.Bookmark{}, notFound(err)
	}
	b.Type = domain.BookmarkType(typ)
	if b.Images == nil {
		b.Images = []string{}
	}
	return b, nil
}
