// internal/registry/bootstrap.go
//
// Control-database schema bootstrap.
//
// Runs once at startup against the shared control file.  Every statement
// is CREATE-IF-NOT-EXISTS, so bootstrap is idempotent across restarts and
// safe to run on an already-populated registry.

package registry

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var controlDDL = []string{
	`CREATE TABLE IF NOT EXISTS tenant (
        id           INTEGER PRIMARY KEY AUTOINCREMENT,
        display_name TEXT    NOT NULL,
        site_url     TEXT    NOT NULL DEFAULT '',
        tenant_code  TEXT    NOT NULL UNIQUE,
        database_id  TEXT    NOT NULL UNIQUE,
        restricted   BOOLEAN NOT NULL DEFAULT 0,
        created_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at   TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS tenant_membership (
        id                     INTEGER PRIMARY KEY AUTOINCREMENT,
        tenant_key             TEXT NOT NULL,
        all_member_ids         TEXT NOT NULL DEFAULT '[]',
        blacklisted_member_ids TEXT,
        created_at             TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at             TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
	`CREATE TABLE IF NOT EXISTS credential_blacklist (
        token      TEXT PRIMARY KEY,
        revoked_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    )`,
}

// Bootstrap creates the control tables when absent.
func Bootstrap(ctx context.Context, db *sqlx.DB) error {
	for _, ddl := range controlDDL {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("registry: bootstrap control schema: %w", err)
		}
	}
	return nil
}
