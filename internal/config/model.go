// internal/config/model.go
//
// Typed configuration model for Atrium.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                          – dotenv values,
//   • `conf/global.yaml`                       – primary static file,
//   • `ATRIUM_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* the server starts, so downstream
// code only ever sees plain strings.  Right now the JWT signing key is
// the one secret we pull this way.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml` tags
//     unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
	ForceHTTPS bool   `koanf:"force_https"`
}

//
// Database section
//

// Database names the shared control database file and the directory that
// holds one database file per tenant.  Both paths are relative to
// `Paths.Root` unless absolute.
type Database struct {
	ControlPath string `koanf:"control_path" validate:"required"`
	DataDir     string `koanf:"data_dir"     validate:"required"`
}

//
// Cache section
//

// Cache tunes the tenant-connection cache.  Zero values fall back to the
// package defaults in internal/tenant.
type Cache struct {
	IdleTTL     time.Duration `koanf:"idle_ttl"`
	MaxEntries  int           `koanf:"max_entries"`
	LoadTimeout time.Duration `koanf:"load_timeout"`
}

//
// Auth section
//

// Auth carries the JWT signing material.  `JWTSecret` may be a literal
// string or a `vault:mount/path#key` reference; the loader resolves the
// latter before validation so an unreachable Vault aborts startup.
type Auth struct {
	JWTSecret string        `koanf:"jwt_secret" validate:"required"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

//
// Geo section (optional)
//

// Geo points at a MaxMind GeoLite2-City database used to enrich access
// logs.  Empty path disables the lookup entirely.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or ATRIUM_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string // ATRIUM_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Cache    Cache    `koanf:"cache"`
	Auth     Auth     `koanf:"auth"`
	Geo      Geo      `koanf:"geo"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}
