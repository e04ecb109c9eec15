// internal/schema/media.go
//
// Media-asset repository for one tenant database.  Rows are metadata
// only; the bytes live on disk under the tenant's media directory, and
// blob lifecycle is the upload layer's concern.

package schema

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrMediaNotFound is returned on unknown asset lookups.
var ErrMediaNotFound = errors.New("media asset not found")

// MediaAsset mirrors one row in the tenant-scoped `media_asset` table.
type MediaAsset struct {
	ID        int64     `db:"id"`
	FileName  string    `db:"file_name"`
	Path      string    `db:"path"`
	MimeType  string    `db:"mime_type"`
	SizeBytes int64     `db:"size_bytes"`
	CreatedAt time.Time `db:"created_at"`
}

// Media queries the `media_asset` table of one tenant.
type Media struct {
	db *sqlx.DB
}

// Create inserts an asset row.
func (r *Media) Create(ctx context.Context, fileName, path, mimeType string, sizeBytes int64) (*MediaAsset, error) {
	const q = `
        INSERT INTO media_asset (file_name, path, mime_type, size_bytes)
        VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, fileName, path, mimeType, sizeBytes)
	if err != nil {
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// ByID fetches one asset row.
func (r *Media) ByID(ctx context.Context, id int64) (*MediaAsset, error) {
	const q = `
        SELECT id, file_name, path, mime_type, size_bytes, created_at
        FROM   media_asset WHERE id = ? LIMIT 1`
	var m MediaAsset
	if err := r.db.GetContext(ctx, &m, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMediaNotFound
		}
		return nil, err
	}
	return &m, nil
}

// List returns every asset row, newest first.
func (r *Media) List(ctx context.Context) ([]MediaAsset, error) {
	const q = `
        SELECT id, file_name, path, mime_type, size_bytes, created_at
        FROM   media_asset ORDER BY id DESC`
	var rows []MediaAsset
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Delete removes one asset row.  The file on disk is left for the upload
// layer to clean up.
func (r *Media) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM media_asset WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMediaNotFound
	}
	return nil
}
