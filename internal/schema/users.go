// internal/schema/users.go
//
// User repository for one tenant database.
//
// Role values are plain strings; RoleAdmin is the only one the core cares
// about (the default administrative user created at provisioning time).
// AllowedFields carries the permission marker; "*" means every field.

package schema

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
)

// Roles understood by the admin panel.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
)

// AllFieldsAllowed is the permission marker granting access to every field.
const AllFieldsAllowed = "*"

// ErrUserNotFound is returned on unknown username or id lookups.
var ErrUserNotFound = errors.New("user not found")

// ErrUserExists is returned when a username is already taken.
var ErrUserExists = errors.New("user already exists")

// User mirrors one row in the tenant-scoped `users` table.
type User struct {
	ID            int64     `db:"id"`
	Username      string    `db:"username"`
	PasswordHash  string    `db:"password_hash"`
	Role          string    `db:"role"`
	AllowedFields string    `db:"allowed_fields"`
	CreatedAt     time.Time `db:"created_at"`
}

// Users queries the `users` table of one tenant.
type Users struct {
	db *sqlx.DB
}

// Create inserts a user row.  The password must arrive already hashed.
func (r *Users) Create(ctx context.Context, username, passwordHash, role, allowedFields string) (*User, error) {
	const q = `
        INSERT INTO users (username, password_hash, role, allowed_fields)
        VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, username, passwordHash, role, allowedFields)
	if err != nil {
		if isUnique(err) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return r.ByID(ctx, id)
}

// ByID fetches one user row by primary key.
func (r *Users) ByID(ctx context.Context, id int64) (*User, error) {
	const q = `
        SELECT id, username, password_hash, role, allowed_fields, created_at
        FROM   users WHERE id = ? LIMIT 1`
	var u User
	if err := r.db.GetContext(ctx, &u, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// ByUsername fetches one user row by its unique username.
func (r *Users) ByUsername(ctx context.Context, username string) (*User, error) {
	const q = `
        SELECT id, username, password_hash, role, allowed_fields, created_at
        FROM   users WHERE username = ? LIMIT 1`
	var u User
	if err := r.db.GetContext(ctx, &u, q, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// All returns every user in the tenant, ordered by id.
func (r *Users) All(ctx context.Context) ([]User, error) {
	const q = `
        SELECT id, username, password_hash, role, allowed_fields, created_at
        FROM   users ORDER BY id`
	var rows []User
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count reports how many users the tenant has.
func (r *Users) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`); err != nil {
		return 0, err
	}
	return n, nil
}

// Delete removes one user row.
func (r *Users) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}
