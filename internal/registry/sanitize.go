// internal/registry/sanitize.go
//
// Identifier sanitisation.
//
// • Sanitize(name) ─ strips every rune outside [A-Za-z0-9_] so the result
//   is safe to embed in a database file name.
// • DatabaseID(name, code) ─ joins the sanitised name and the tenant code
//   with a single “_”.
//
// Rules (Sanitize)
// ----------------
// 1. Keep ASCII letters, digits, and “_” exactly as written (case is
//    preserved; “Acme” stays “Acme”).
// 2. Drop everything else outright.  Spaces, punctuation, emoji, and
//    non-ASCII vanish rather than turning into separators.
// 3. The result may be empty; callers treat that as invalid input.
//
// Notes
// -----
// • No Unicode transliteration; tenant names are effectively ASCII-only
//   for file-naming purposes.
// • The database identifier doubles as the file stem on disk, so these
//   rules are the whole path-injection defence for tenant storage.

package registry

import "strings"

// Sanitize strips name down to [A-Za-z0-9_].
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// DatabaseID derives the unique storage key for a tenant.
func DatabaseID(displayName, tenantCode string) string {
	return Sanitize(displayName) + "_" + tenantCode
}
