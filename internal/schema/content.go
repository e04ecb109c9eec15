// internal/schema/content.go
//
// Content-master repository for one tenant database.  Slugs follow the
// same restricted alphabet the admin UI generates; uniqueness is enforced
// by the table, surfaced here as ErrSlugTaken.

package schema

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrContentNotFound is returned on unknown content lookups.
var ErrContentNotFound = errors.New("content not found")

// ErrSlugTaken is returned when a slug is already in use.
var ErrSlugTaken = errors.New("slug already exists")

// ContentItem mirrors one row in the tenant-scoped `content_master` table.
type ContentItem struct {
	ID        int64     `db:"id"`
	Title     string    `db:"title"`
	Slug      string    `db:"slug"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Content queries the `content_master` table of one tenant.
type Content struct {
	db *sqlx.DB
}

// Create inserts a content row.
func (r *Content) Create(ctx context.Context, title, slug, body string) (*ContentItem, error) {
	const q = `INSERT INTO content_master (title, slug, body) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, title, slug, body)
	if err != nil {
		if isUnique(err) {
			return nil, ErrSlugTaken
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// ByID fetches one content row.
func (r *Content) ByID(ctx context.Context, id int64) (*ContentItem, error) {
	const q = `
        SELECT id, title, slug, body, created_at, updated_at
        FROM   content_master WHERE id = ? LIMIT 1`
	var c ContentItem
	if err := r.db.GetContext(ctx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	return &c, nil
}

// List returns every content row, newest first.
func (r *Content) List(ctx context.Context) ([]ContentItem, error) {
	const q = `
        SELECT id, title, slug, body, created_at, updated_at
        FROM   content_master ORDER BY id DESC`
	var rows []ContentItem
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Update rewrites title and body.  The slug is immutable once assigned.
func (r *Content) Update(ctx context.Context, id int64, title, body string) (*ContentItem, error) {
	const q = `
        UPDATE content_master
        SET    title = ?, body = ?, updated_at = CURRENT_TIMESTAMP
        WHERE  id = ?`
	res, err := r.db.ExecContext(ctx, q, title, body, id)
	if err != nil {
		return nil, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrContentNotFound
	}
	return r.ByID(ctx, id)
}

// Delete removes one content row.
func (r *Content) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM content_master WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrContentNotFound
	}
	return nil
}
