package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a refilled value stays fresh.
const DefaultTTL = 5 * time.Minute

// ErrRefillFailed wraps every refill error handed to waiters.
var ErrRefillFailed = errors.New("cache refill failed")

// RefillFunc produces a fresh value for a missing or expired key.
type RefillFunc func(ctx context.Context) (any, error)

type entry struct {
	value     any
	expiresAt time.Time
}

// Store is an in-memory TTL cache. Concurrent misses on the same key share
// one refill; expiry is checked lazily on access.
type Store struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]entry
	gens    map[string]uint64
	epoch   uint64

	group singleflight.Group
}

type Option func(*Store)

// WithClock replaces the wall clock used for expiry.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(ttl time.Duration, opts ...Option) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	s := &Store{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
		gens:    make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TTL returns the configured time-to-live.
func (s *Store) TTL() time.Duration { return s.ttl }

// Get returns the fresh value for key, refilling it at most once across all
// concurrent callers. A caller whose ctx ends stops waiting; the refill itself
// runs detached from any single caller's cancellation.
func (s *Store) Get(ctx context.Context, key string, refill RefillFunc) (any, error) {
	if v, ok := s.lookup(key); ok {
		return v, nil
	}

	stamp := s.stamp(key)
	ch := s.group.DoChan(key+"#"+stamp, func() (any, error) {
		// A flight for this key may have installed between our miss and now.
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		v, err := refill(context.WithoutCancel(ctx))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrRefillFailed, key, err)
		}
		s.install(key, stamp, v)
		return v, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops key. Refills already in flight for it will not install.
func (s *Store) Invalidate(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	s.gens[key]++
	return ok
}

// InvalidateAll drops every entry and orphans every in-flight refill.
func (s *Store) InvalidateAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	s.entries = make(map[string]entry)
	s.epoch++
	return n
}

// Len counts stored entries, fresh or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) lookup(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false
	}
	return e.value, true
}

func (s *Store) stamp(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strconv.FormatUint(s.epoch, 10) + "." + strconv.FormatUint(s.gens[key], 10)
}

func (s *Store) install(key, stamp string, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := strconv.FormatUint(s.epoch, 10) + "." + strconv.FormatUint(s.gens[key], 10)
	if current != stamp {
		return
	}
	s.entries[key] = entry{value: v, expiresAt: s.now().Add(s.ttl)}
}

// Fetch is a typed wrapper around Store.Get.
func Fetch[T any](ctx context.Context, s *Store, key string, refill func(context.Context) (T, error)) (T, error) {
	var zero T
	v, err := s.Get(ctx, key, func(ctx context.Context) (any, error) {
		return refill(ctx)
	})
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("cache key %s holds %T", key, v)
	}
	return t, nil
}
