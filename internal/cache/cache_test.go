package cache

import (
	"context"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// countingFetcher records how many times each key was fetched.
type countingFetcher struct {
	mu     sync.Mutex
	counts map[string]int
	absent map[string]bool
}

func newCountingFetcher() *countingFetcher {
	return &countingFetcher{counts: map[string]int{}, absent: map[string]bool{}}
}

func (f *countingFetcher) Fetch(_ context.Context, key string) (int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[key]++
	if f.absent[key] {
		return 0, false
	}
	return f.counts[key], true
}

func (f *countingFetcher) count(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key]
}

func newTestCache(t *testing.T) (*Cache[int], *countingFetcher, *fakeClock) {
	t.Helper()
	f := newCountingFetcher()
	clk := newFakeClock()
	return New[int](f, WithClock[int](clk.Now)), f, clk
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func Test_Get_Freshness(t *testing.T) {
	c, f, clk := newTestCache(t)
	ctx := context.Background()

	if _, _ = c.Get(ctx, "x", time.Second); f.count("x") != 1 {
		t.Fatalf("after first Get count = %d, want 1", f.count("x"))
	}
	if _, _ = c.Get(ctx, "x", time.Second); f.count("x") != 1 {
		t.Fatalf("immediate repeat count = %d, want 1", f.count("x"))
	}

	clk.Advance(1100 * time.Millisecond)
	v, ok := c.Get(ctx, "x", time.Second)
	if f.count("x") != 2 {
		t.Fatalf("after expiry count = %d, want 2", f.count("x"))
	}
	if !ok || v != 2 {
		t.Errorf("Get = (%d, %v), want (2, true)", v, ok)
	}
}

func Test_Get_ExactTTLIsStale(t *testing.T) {
	c, f, clk := newTestCache(t)
	ctx := context.Background()

	c.Get(ctx, "x", time.Second)
	clk.Advance(time.Second)
	c.Get(ctx, "x", time.Second)

	if f.count("x") != 2 {
		t.Errorf("count = %d, want 2 (age == ttl must refetch)", f.count("x"))
	}
}

func Test_Get_TTLIsPerCaller(t *testing.T) {
	c, f, clk := newTestCache(t)
	ctx := context.Background()

	c.Get(ctx, "x", 10*time.Second)
	clk.Advance(3 * time.Second)

	// A long-TTL caller still sees the entry as fresh.
	c.Get(ctx, "x", 10*time.Second)
	if f.count("x") != 1 {
		t.Fatalf("long ttl count = %d, want 1", f.count("x"))
	}

	// A short-TTL caller at the same instant sees it as stale.
	c.Get(ctx, "x", 2*time.Second)
	if f.count("x") != 2 {
		t.Errorf("short ttl count = %d, want 2", f.count("x"))
	}
}

func Test_Get_KeyIsolation(t *testing.T) {
	c, f, clk := newTestCache(t)
	ctx := context.Background()

	c.Get(ctx, "a", time.Second)
	clk.Advance(600 * time.Millisecond)
	c.Get(ctx, "b", time.Second)
	clk.Advance(600 * time.Millisecond)

	// "a" is 1.2s old, "b" is 0.6s old.
	c.Get(ctx, "a", time.Second)
	c.Get(ctx, "b", time.Second)

	if f.count("a") != 2 {
		t.Errorf("count(a) = %d, want 2", f.count("a"))
	}
	if f.count("b") != 1 {
		t.Errorf("count(b) = %d, want 1", f.count("b"))
	}
}

func Test_Get_AbsenceIsCached(t *testing.T) {
	c, f, clk := newTestCache(t)
	f.absent["down"] = true
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, ok := c.Get(ctx, "down", 5*time.Second); ok {
			t.Fatal("expected absent value")
		}
	}
	if f.count("down") != 1 {
		t.Errorf("count = %d, want 1 (absence must be cached)", f.count("down"))
	}

	clk.Advance(5 * time.Second)
	c.Get(ctx, "down", 5*time.Second)
	if f.count("down") != 2 {
		t.Errorf("count after ttl = %d, want 2", f.count("down"))
	}
}

// ---------------------------------------------------------------------------
// Invalidate
// ---------------------------------------------------------------------------

func Test_Invalidate_Cases(t *testing.T) {
	tests := []struct {
		name       string
		invalidate func(c *Cache[int])
		wantA      int
		wantB      int
	}{
		{
			name:       "single key forces refetch of that key only",
			invalidate: func(c *Cache[int]) { c.Invalidate("a") },
			wantA:      2,
			wantB:      1,
		},
		{
			name:       "no key forces refetch of every key",
			invalidate: func(c *Cache[int]) { c.Invalidate() },
			wantA:      2,
			wantB:      2,
		},
		{
			name:       "unknown key is a no-op",
			invalidate: func(c *Cache[int]) { c.Invalidate("zzz") },
			wantA:      1,
			wantB:      1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c, f, _ := newTestCache(t)
			ctx := context.Background()

			c.Get(ctx, "a", time.Hour)
			c.Get(ctx, "b", time.Hour)
			tc.invalidate(c)
			c.Get(ctx, "a", time.Hour)
			c.Get(ctx, "b", time.Hour)

			if f.count("a") != tc.wantA {
				t.Errorf("count(a) = %d, want %d", f.count("a"), tc.wantA)
			}
			if f.count("b") != tc.wantB {
				t.Errorf("count(b) = %d, want %d", f.count("b"), tc.wantB)
			}
		})
	}
}

func Test_Peek_DoesNotFetch(t *testing.T) {
	c, f, _ := newTestCache(t)

	if _, ok := c.Peek("x"); ok {
		t.Fatal("Peek on empty cache returned ok")
	}
	c.Get(context.Background(), "x", time.Second)
	e, ok := c.Peek("x")
	if !ok || e.Value != 1 || !e.Found {
		t.Errorf("Peek = (%+v, %v), want value 1 found", e, ok)
	}
	if f.count("x") != 1 {
		t.Errorf("count = %d, want 1", f.count("x"))
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func Test_FetchFunc_Adapter(t *testing.T) {
	calls := 0
	c := New[string](FetchFunc[string](func(_ context.Context, key string) (string, bool) {
		calls++
		return "v:" + key, true
	}))

	v, ok := c.Get(context.Background(), "k", time.Minute)
	if !ok || v != "v:k" {
		t.Errorf("Get = (%q, %v), want (v:k, true)", v, ok)
	}
	c.Get(context.Background(), "k", time.Minute)
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func Test_New_NilFetcherPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for nil fetcher")
		}
	}()
	New[int](nil)
}
