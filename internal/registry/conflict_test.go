// internal/registry/conflict_test.go
//
// Constraint-violation mapping tests against a real control database.
// sqlmock cannot produce driver-native errors, so these run on SQLite.

package registry

import (
	"context"
	"path/filepath"
	"testing"

	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/yanizio/atrium/internal/database"
)

func newSQLiteStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "control.db"))
	if err != nil {
		t.Fatalf("open control db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := Bootstrap(context.Background(), db); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	return NewStore(db)
}

// A database-identifier collision slips past the code pre-check when the
// occupying row carries a different tenant code.  The INSERT must then
// surface the driver's UNIQUE violation as ErrConflict.
func TestCreateTenantDatabaseIDConflict(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
        INSERT INTO tenant (display_name, site_url, tenant_code, database_id, restricted)
        VALUES ('Acme', '', '0x00AAAAAA', 'Acme_0x00BBBBBB', 0)`)
	if err != nil {
		t.Fatalf("seed row: %v", err)
	}

	_, err = s.CreateTenant(ctx, CreateInput{
		DisplayName: "Acme",
		TenantCode:  "0x00BBBBBB",
	})
	if err != ErrConflict {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	unique := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintUnique,
	}
	if !isUniqueViolation(unique) {
		t.Fatal("UNIQUE violation not recognised")
	}
	pk := sqlite3.Error{
		Code:         sqlite3.ErrConstraint,
		ExtendedCode: sqlite3.ErrConstraintPrimaryKey,
	}
	if !isUniqueViolation(pk) {
		t.Fatal("PRIMARY KEY violation not recognised")
	}
	busy := sqlite3.Error{Code: sqlite3.ErrBusy}
	if isUniqueViolation(busy) {
		t.Fatal("non-constraint error misclassified")
	}
	if isUniqueViolation(context.Canceled) {
		t.Fatal("foreign error misclassified")
	}
}
