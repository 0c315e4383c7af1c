package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)}
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

func countingRefill(calls *int32, value any) RefillFunc {
	return func(ctx context.Context) (any, error) {
		atomic.AddInt32(calls, 1)
		return value, nil
	}
}

func TestStoreGetCachesWithinTTL(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(5*time.Minute, WithClock(clock.Now))

	var calls int32
	refill := countingRefill(&calls, "quote-1")

	for i := 0; i < 3; i++ {
		v, err := s.Get(context.Background(), "stock", refill)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != "quote-1" {
			t.Fatalf("expected quote-1, got %v", v)
		}
		clock.Advance(time.Minute)
	}
	if calls != 1 {
		t.Fatalf("expected one refill inside TTL, got %d", calls)
	}
}

func TestStoreGetRefillsAfterTTL(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(5*time.Minute, WithClock(clock.Now))

	var calls int32
	refill := countingRefill(&calls, 42)

	if _, err := s.Get(context.Background(), "stock", refill); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	clock.Advance(5 * time.Minute)
	if _, err := s.Get(context.Background(), "stock", refill); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refill once TTL elapsed, got %d calls", calls)
	}
}

func TestStoreInvalidateForcesRefill(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(5*time.Minute, WithClock(clock.Now))

	var calls int32
	refill := countingRefill(&calls, "v")

	_, _ = s.Get(context.Background(), "news", refill)
	clock.Advance(10 * time.Second)
	if !s.Invalidate("news") {
		t.Fatal("expected entry to be removed")
	}
	_, _ = s.Get(context.Background(), "news", refill)
	if calls != 2 {
		t.Fatalf("expected refill after invalidate, got %d calls", calls)
	}
}

func TestStoreInvalidateAll(t *testing.T) {
	s := NewStore(time.Minute)

	var calls int32
	refill := countingRefill(&calls, "v")
	for _, key := range []string{"stock", "news", "kline:day:60"} {
		_, _ = s.Get(context.Background(), key, refill)
	}

	if n := s.InvalidateAll(); n != 3 {
		t.Fatalf("expected 3 invalidated entries, got %d", n)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	_, _ = s.Get(context.Background(), "stock", refill)
	if calls != 4 {
		t.Fatalf("expected 4 refills, got %d", calls)
	}
}

func TestStoreSingleFlight(t *testing.T) {
	s := NewStore(time.Minute)

	var calls int32
	release := make(chan struct{})
	refill := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return "merged", nil
	}

	const n = 16
	var wg sync.WaitGroup
	results := make([]any, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = s.Get(context.Background(), "news", refill)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected exactly one refill, got %d", calls)
	}
	for i := 0; i < n; i++ {
		if errs[i] != nil || results[i] != "merged" {
			t.Fatalf("caller %d got (%v, %v)", i, results[i], errs[i])
		}
	}
}

func TestStoreSingleFlightFailureReachesAllWaiters(t *testing.T) {
	s := NewStore(time.Minute)

	var calls int32
	upstream := errors.New("upstream down")
	release := make(chan struct{})
	refill := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil, upstream
	}

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Get(context.Background(), "stock", refill)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if calls != 1 {
		t.Fatalf("expected exactly one refill, got %d", calls)
	}
	for i, err := range errs {
		if !errors.Is(err, ErrRefillFailed) || !errors.Is(err, upstream) {
			t.Fatalf("caller %d: expected wrapped refill failure, got %v", i, err)
		}
	}
	if s.Len() != 0 {
		t.Fatal("failed refill must not install an entry")
	}
}

func TestStoreInvalidateDuringRefillDoesNotInstallStaleValue(t *testing.T) {
	s := NewStore(time.Minute)

	started := make(chan struct{})
	release := make(chan struct{})
	slow := func(ctx context.Context) (any, error) {
		close(started)
		<-release
		return "old", nil
	}

	done := make(chan any)
	go func() {
		v, _ := s.Get(context.Background(), "stock", slow)
		done <- v
	}()

	<-started
	s.Invalidate("stock")

	var calls int32
	v, err := s.Get(context.Background(), "stock", countingRefill(&calls, "new"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "new" || calls != 1 {
		t.Fatalf("expected fresh refill after invalidate, got %v (%d calls)", v, calls)
	}

	close(release)
	if old := <-done; old != "old" {
		t.Fatalf("in-flight caller should still get its own result, got %v", old)
	}

	v, _ = s.Get(context.Background(), "stock", countingRefill(&calls, "newer"))
	if v != "new" {
		t.Fatalf("orphaned refill must not overwrite the fresh entry, got %v", v)
	}
}

func TestStoreWaiterContextCancel(t *testing.T) {
	s := NewStore(time.Minute)

	release := make(chan struct{})
	defer close(release)
	refill := func(ctx context.Context) (any, error) {
		<-release
		return "late", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := s.Get(ctx, "news", refill); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestFetchTyped(t *testing.T) {
	s := NewStore(time.Minute)

	got, err := Fetch(context.Background(), s, "kline:day:60", func(ctx context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 values, got %v", got)
	}

	if _, err := Fetch(context.Background(), s, "kline:day:60", func(ctx context.Context) (string, error) {
		return "never", nil
	}); err == nil {
		t.Fatal("expected type mismatch error")
	}
}
