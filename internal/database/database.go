// Package database centralises sqlx connection helpers.  The driver is
// mattn/go-sqlite3: every tenant owns a private database file, and the
// shared control registry lives in one more file alongside them, so a
// file-backed engine is the storage model rather than a network server.
//
// Public entry points:
//
//	Open(path)                     – quick helper with conservative pool sizes.
//	OpenWithOptions(ctx, path, o)  – fine-grained control plus PingContext.
//	Exists(path)                   – reports whether a database file is present.
//
// Both open helpers Ping the database before returning so callers can fail
// fast during bootstrap.  Callers should Close() the returned *sqlx.DB when
// no longer needed.
package database

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Options tunes one pool.  The zero value is usable; fields left zero fall
// back to the defaults noted per field.
type Options struct {
	MaxOpenConns    int           // default 15
	MaxIdleConns    int           // default 5
	ConnMaxLifetime time.Duration // default 30m
}

// DSN builds the sqlite3 connection string for a database file.  Busy
// timeout covers writer contention between pooled connections; WAL keeps
// readers from blocking the writer.
func DSN(path string) string {
	return "file:" + url.PathEscape(path) +
		"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
}

// Exists reports whether a database file already exists at path.  The
// tenant loader uses this to decide whether the relation-schema set must
// be applied, and provisioning uses it to reject double-provisioning.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Open returns a *sqlx.DB with sane defaults.  Suitable for the control
// registry pool or for test setups.
func Open(path string) (*sqlx.DB, error) {
	return OpenWithOptions(context.Background(), path, Options{})
}

// OpenWithOptions lets callers tune the pool per database.  Used by the
// tenant loader to keep per-tenant resource usage small, and to bound the
// open+ping under the caller's context.
func OpenWithOptions(ctx context.Context, path string, o Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite3", DSN(path))
	if err != nil {
		return nil, err
	}

	if o.MaxOpenConns == 0 {
		o.MaxOpenConns = 15
	}
	if o.MaxIdleConns == 0 {
		o.MaxIdleConns = 5
	}
	if o.ConnMaxLifetime == 0 {
		o.ConnMaxLifetime = 30 * time.Minute
	}
	db.SetMaxOpenConns(o.MaxOpenConns)
	db.SetMaxIdleConns(o.MaxIdleConns)
	db.SetConnMaxLifetime(o.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
