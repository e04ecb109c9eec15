// internal/schema/binding.go
//
// Repositories bound to one tenant connection.
//
// Context
// -------
// `Bind(db)` resolves the repository set for a tenant pool exactly once,
// at cache-population time.  Handlers receive the resulting *Binding via
// the resolved tenant and never construct repositories themselves, so
// there is no per-request schema-object churn and no way to point a
// repository at another tenant's pool by accident.
package schema

import (
	"errors"

	"github.com/jmoiron/sqlx"
	sqlite3 "github.com/mattn/go-sqlite3"
)

// Binding groups every repository for one tenant connection.
type Binding struct {
	Users   *Users
	Content *Content
	Media   *Media
}

// Bind resolves the repository set against db.
func Bind(db *sqlx.DB) *Binding {
	return &Binding{
		Users:   &Users{db: db},
		Content: &Content{db: db},
		Media:   &Media{db: db},
	}
}

// isUnique reports whether err is a sqlite UNIQUE constraint hit.
func isUnique(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
