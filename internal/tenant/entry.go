// internal/tenant/entry.go
//
// Tenant cache entry and aggregate.
//
// Context
// -------
// A live Tenant aggregates everything a request handler needs to touch
// one tenant's data: the database identifier, the per-tenant connection
// pool, and the repository set bound to that pool at load time.  The
// cache stores a pointer to Tenant inside `entry`, along with a
// `lastSeen` UnixNano timestamp used by the evictor for idle and LRU
// eviction.
//
// Notes
// -----
//   - Handlers borrow the Tenant for the duration of one request; they
//     never close it or rebind repositories.  `Close` is invoked only by
//     the cache evictor and by shutdown.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/atrium/internal/schema"
)

//
// Cache entry
//

type entry struct {
	tenant   *Tenant
	lastSeen int64 // UnixNano
}

//
// Tenant aggregate
//

// Tenant groups all per-tenant runtime assets needed by request handlers.
type Tenant struct {
	DatabaseID string          // cache key, also the file stem on disk
	Path       string          // absolute path of the database file
	DB         *sqlx.DB        // per-tenant connection pool
	Schemas    *schema.Binding // repositories bound once at load time
	CreatedAt  time.Time       // when this handle was opened
}

// Close is called by the cache evictor on idle or LRU eviction, and by
// Cache.Close at shutdown.
func (t *Tenant) Close() error {
	if t.DB == nil {
		return nil
	}
	return t.DB.Close()
}
