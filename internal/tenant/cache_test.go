// internal/tenant/cache_test.go
//
// Concurrency and lifecycle tests for the connection cache.  The loader
// is swapped for a stub so these run without touching disk.

package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// stubCache returns a Cache whose loader counts invocations and returns
// a distinct *Tenant per database identifier.
func stubCache(loadDelay time.Duration) (*Cache, *int64) {
	var loads int64
	c := New("/nonexistent", Options{LoadTimeout: 2 * time.Second})
	c.loadFn = func(ctx context.Context, _, databaseID string) (*Tenant, error) {
		atomic.AddInt64(&loads, 1)
		if loadDelay > 0 {
			select {
			case <-time.After(loadDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return &Tenant{DatabaseID: databaseID, CreatedAt: time.Now()}, nil
	}
	return c, &loads
}

func TestGetConcurrentSingleLoad(t *testing.T) {
	c, loads := stubCache(50 * time.Millisecond)
	defer c.Close()

	const n = 32
	results := make([]*Tenant, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			ten, err := c.Get(context.Background(), "Acme_0x00ABCDEF")
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			results[i] = ten
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt64(loads); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
	for i := 1; i < n; i++ {
		if results[i] != results[0] {
			t.Fatalf("goroutine %d got a different handle", i)
		}
	}
	if c.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", c.Len())
	}
}

func TestGetCachedHit(t *testing.T) {
	c, loads := stubCache(0)
	defer c.Close()

	first, err := c.Get(context.Background(), "Acme_0x00ABCDEF")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := c.Get(context.Background(), "Acme_0x00ABCDEF")
	if err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if first != second {
		t.Fatal("cached call returned a different handle")
	}
	if got := atomic.LoadInt64(loads); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
}

func TestGetDistinctTenants(t *testing.T) {
	c, _ := stubCache(0)
	defer c.Close()

	a, _ := c.Get(context.Background(), "Acme_0x00ABCDEF")
	b, _ := c.Get(context.Background(), "Globex_0x00000002")
	if a == b {
		t.Fatal("distinct identifiers shared one handle")
	}
	if c.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", c.Len())
	}
}

func TestGetInvalidDatabaseID(t *testing.T) {
	c, loads := stubCache(0)
	defer c.Close()

	for _, id := range []string{"", "../escape", "acme.db", "a b", "x/y"} {
		if _, err := c.Get(context.Background(), id); err != ErrInvalidDatabaseID {
			t.Errorf("Get(%q) err = %v, want ErrInvalidDatabaseID", id, err)
		}
	}
	if got := atomic.LoadInt64(loads); got != 0 {
		t.Fatalf("loader ran %d times for invalid IDs", got)
	}
}

func TestGetLoadTimeout(t *testing.T) {
	c := New("/nonexistent", Options{LoadTimeout: 20 * time.Millisecond})
	defer c.Close()
	c.loadFn = func(ctx context.Context, _, _ string) (*Tenant, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	_, err := c.Get(context.Background(), "Slow_0x00000003")
	if !errors.Is(err, ErrLoadTimeout) {
		t.Fatalf("err = %v, want ErrLoadTimeout", err)
	}
	if c.Len() != 0 {
		t.Fatal("failed load was memoized")
	}

	// A later call retries from scratch.
	c.loadFn = func(ctx context.Context, _, databaseID string) (*Tenant, error) {
		return &Tenant{DatabaseID: databaseID}, nil
	}
	if _, err := c.Get(context.Background(), "Slow_0x00000003"); err != nil {
		t.Fatalf("retry after timeout: %v", err)
	}
}

// The first caller in drives the shared load.  Cancelling that caller's
// request must not fail the load for everyone queued behind it.
func TestGetLeaderCancelDoesNotPoisonWaiters(t *testing.T) {
	c, loads := stubCache(200 * time.Millisecond)
	defer c.Close()

	leaderCtx, cancelLeader := context.WithCancel(context.Background())

	type result struct {
		ten *Tenant
		err error
	}
	leader := make(chan result, 1)
	waiter := make(chan result, 1)

	go func() {
		ten, err := c.Get(leaderCtx, "Shared_0x00000007")
		leader <- result{ten, err}
	}()
	time.Sleep(50 * time.Millisecond) // let the leader start the load
	go func() {
		ten, err := c.Get(context.Background(), "Shared_0x00000007")
		waiter <- result{ten, err}
	}()
	time.Sleep(50 * time.Millisecond)
	cancelLeader()

	w := <-waiter
	if w.err != nil {
		t.Fatalf("waiter inherited leader's cancellation: %v", w.err)
	}
	if w.ten == nil || w.ten.DatabaseID != "Shared_0x00000007" {
		t.Fatalf("waiter tenant = %+v", w.ten)
	}
	<-leader

	if got := atomic.LoadInt64(loads); got != 1 {
		t.Fatalf("loader ran %d times, want 1", got)
	}
	if c.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", c.Len())
	}
}

func TestGetFailedLoadNotMemoized(t *testing.T) {
	c, _ := stubCache(0)
	defer c.Close()

	boom := errors.New("disk full")
	calls := 0
	c.loadFn = func(ctx context.Context, _, databaseID string) (*Tenant, error) {
		calls++
		if calls == 1 {
			return nil, boom
		}
		return &Tenant{DatabaseID: databaseID}, nil
	}

	if _, err := c.Get(context.Background(), "Flaky_0x00000004"); !errors.Is(err, boom) {
		t.Fatalf("first Get err = %v, want injected failure", err)
	}
	if _, err := c.Get(context.Background(), "Flaky_0x00000004"); err != nil {
		t.Fatalf("second Get: %v", err)
	}
	if calls != 2 {
		t.Fatalf("loader ran %d times, want 2", calls)
	}
}

func TestEvict(t *testing.T) {
	c, loads := stubCache(0)
	defer c.Close()

	if _, err := c.Get(context.Background(), "Acme_0x00ABCDEF"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	c.Evict("Acme_0x00ABCDEF")
	if c.Len() != 0 {
		t.Fatalf("cache len = %d after evict, want 0", c.Len())
	}

	// Evicting a miss is a no-op.
	c.Evict("Acme_0x00ABCDEF")

	if _, err := c.Get(context.Background(), "Acme_0x00ABCDEF"); err != nil {
		t.Fatalf("Get after evict: %v", err)
	}
	if got := atomic.LoadInt64(loads); got != 2 {
		t.Fatalf("loader ran %d times, want 2", got)
	}
}
