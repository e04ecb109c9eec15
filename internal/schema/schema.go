// internal/schema/schema.go
//
// The relation-schema set: every table a tenant database carries.
//
// Context
// -------
// When the connection cache opens a tenant database file for the first
// time it calls `Apply` to instantiate the full catalog in one shot.  The
// catalog is a static package-level list, resolved once at compile time;
// nothing re-derives table definitions per request.
//
// Adding a tenant-scoped entity means appending its DDL here and, if it
// needs a query surface, giving it a repository in binding.go.  Existing
// tenant files do not pick up new tables automatically; that is a
// migration concern outside this package.
//
// Notes
// -----
// • All statements are CREATE-IF-NOT-EXISTS so a re-apply against an
//   existing file is harmless.
// • Apply runs inside one transaction: a tenant database either gets the
//   whole catalog or none of it.
package schema

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var tenantDDL = []string{
	`CREATE TABLE IF NOT EXISTS users (
        id             INTEGER PRIMARY KEY AUTOINCREMENT,
        username       TEXT    NOT NULL UNIQUE,
        password_hash  TEXT    NOT NULL,
        role           TEXT    NOT NULL,
        allowed_fields TEXT    NOT NULL DEFAULT '*',
        created_at     TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS content_master (
        id         INTEGER PRIMARY KEY AUTOINCREMENT,
        title      TEXT NOT NULL,
        slug       TEXT NOT NULL UNIQUE,
        body       TEXT NOT NULL DEFAULT '',
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS media_asset (
        id         INTEGER PRIMARY KEY AUTOINCREMENT,
        file_name  TEXT    NOT NULL,
        path       TEXT    NOT NULL,
        mime_type  TEXT    NOT NULL DEFAULT 'application/octet-stream',
        size_bytes INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
}

// Apply instantiates the full relation-schema set on db.  Exactly-once
// semantics per tenant file are the cache's job; Apply itself is
// idempotent.
func Apply(ctx context.Context, db *sqlx.DB) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("schema: begin apply: %w", err)
	}
	for _, ddl := range tenantDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			tx.Rollback()
			return fmt.Errorf("schema: apply relation set: %w", err)
		}
	}
	return tx.Commit()
}
