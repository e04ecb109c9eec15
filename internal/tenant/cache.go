// internal/tenant/cache.go
//
// Process-wide tenant-connection cache.
//
// Context
// -------
// This is the single chokepoint between request handlers and tenant
// data: every route reaches a tenant database through `Get`, and no
// handler opens its own connection.  The cache guarantees at most one
// live connection per database identifier.  The check-then-create
// sequence is guarded by singleflight plus a double-check after the
// barrier, so N concurrent first-requests for a new tenant converge on
// one load and the relation-schema set is applied exactly once.
//
// A failed load is never memoized; the next call starts clean.
package tenant

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/atrium/internal/metrics"
)

// Static defaults.  Override via the cache section of conf/global.yaml.
const (
	IdleTTL       = 30 * time.Minute
	MaxEntries    = 100
	EvictInterval = 5 * time.Minute
	LoadTimeout   = 10 * time.Second
)

// ErrInvalidDatabaseID is returned for identifiers that could escape the
// data directory.  Registry-derived IDs never trip this; it guards the
// cache as an independent boundary.
var ErrInvalidDatabaseID = errors.New("invalid database identifier")

// ErrLoadTimeout is returned when opening or initialising a tenant
// database exceeds the bounded load window.
var ErrLoadTimeout = errors.New("tenant connection timed out")

// databaseIDPattern is the full alphabet a database identifier may use.
var databaseIDPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Options tunes one Cache.  Zero fields fall back to package defaults.
type Options struct {
	IdleTTL     time.Duration
	MaxEntries  int
	LoadTimeout time.Duration
}

// Cache lazily opens tenant databases, stores the handles in a sync.Map,
// and evicts them on idle TTL or LRU pressure.
type Cache struct {
	dataDir     string
	sfg         singleflight.Group
	m           sync.Map
	evictTicker *time.Ticker
	done        chan struct{}
	closeOnce   sync.Once
	idleTTL     time.Duration
	maxEntries  int
	loadTimeout time.Duration

	// loadFn is swappable in tests; production uses loadTenant.
	loadFn func(ctx context.Context, dataDir, databaseID string) (*Tenant, error)
}

// New constructs a Cache over dataDir and starts the background evictor.
func New(dataDir string, o Options) *Cache {
	if o.IdleTTL == 0 {
		o.IdleTTL = IdleTTL
	}
	if o.MaxEntries == 0 {
		o.MaxEntries = MaxEntries
	}
	if o.LoadTimeout == 0 {
		o.LoadTimeout = LoadTimeout
	}
	c := &Cache{
		dataDir:     dataDir,
		done:        make(chan struct{}),
		idleTTL:     o.IdleTTL,
		maxEntries:  o.MaxEntries,
		loadTimeout: o.LoadTimeout,
		loadFn:      loadTenant,
	}
	c.evictTicker = time.NewTicker(EvictInterval)
	go c.evictLoop()
	return c
}

// Get returns the Tenant for databaseID, opening it on demand.  Repeated
// calls for a cached tenant return the same handle with no I/O.
func (c *Cache) Get(ctx context.Context, databaseID string) (*Tenant, error) {
	if !databaseIDPattern.MatchString(databaseID) {
		return nil, ErrInvalidDatabaseID
	}

	if v, ok := c.m.Load(databaseID); ok {
		ent := v.(*entry)
		atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
		return ent.tenant, nil
	}

	v, err, _ := c.sfg.Do(databaseID, func() (interface{}, error) {
		// Double-check after singleflight barrier.
		if v, ok := c.m.Load(databaseID); ok {
			ent := v.(*entry)
			atomic.StoreInt64(&ent.lastSeen, time.Now().UnixNano())
			return ent.tenant, nil
		}

		// The load serves every waiter behind the barrier, not just the
		// request that happened to arrive first, so it must not die with
		// that request.  The bounded timeout is the only deadline.
		lctx, cancel := context.WithTimeout(context.Background(), c.loadTimeout)
		defer cancel()

		ten, err := c.loadFn(lctx, c.dataDir, databaseID)
		if err != nil {
			metrics.TenantLoadErrorsTotal.Inc()
			if errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrLoadTimeout
			}
			return nil, err
		}
		ent := &entry{
			tenant:   ten,
			lastSeen: time.Now().UnixNano(),
		}
		c.m.Store(databaseID, ent)
		metrics.TenantLoadTotal.Inc()
		metrics.ActiveTenants.Inc()
		return ten, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Tenant), nil
}

// Len reports how many tenants are currently cached.  Used by tests and
// the health endpoint.
func (c *Cache) Len() int {
	n := 0
	c.m.Range(func(_, _ any) bool { n++; return true })
	return n
}

// Evict drops one tenant from the cache and closes its pool.  Used by
// provisioning rollback; a miss is a no-op.
func (c *Cache) Evict(databaseID string) {
	if v, ok := c.m.Load(databaseID); ok {
		c.m.Delete(databaseID)
		_ = v.(*entry).tenant.Close()
		metrics.TenantEvictTotal.Inc()
		metrics.ActiveTenants.Dec()
	}
}

// Close stops the evictor and closes every cached pool.  Call once at
// shutdown.
func (c *Cache) Close() {
	c.closeOnce.Do(func() {
		c.evictTicker.Stop()
		close(c.done)
		c.m.Range(func(key, value any) bool {
			_ = value.(*entry).tenant.Close()
			c.m.Delete(key)
			metrics.ActiveTenants.Dec()
			return true
		})
		zap.S().Infow("tenant cache closed")
	})
}
