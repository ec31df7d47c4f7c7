// Package querycache is a read-through cache for idempotent queries with
// stale-while-revalidate semantics.
//
// A miss fetches in the foreground; concurrent callers of the same key
// share one fetch. A stale hit returns the cached value at once and
// refreshes it in the background. Entries are replaced whole when a fetch
// succeeds and are left untouched when it fails.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrClosed is returned by Get after Close.
var ErrClosed = errors.New("querycache: closed")

// FetchFunc loads the value for a key. It must honour ctx.
type FetchFunc func(ctx context.Context) (any, error)

type entry struct {
	val       any
	fetchedAt time.Time
	policy    Policy
	fetch     FetchFunc
	invalid   bool
}

// flight is the in-flight fetch registered for a key. done is closed once
// the fetch has finished and its result, if any, is stored.
type flight struct {
	key        Key
	cancel     context.CancelFunc
	done       chan struct{}
	waiters    int
	background bool
}

// Cache holds query results keyed by Key.
type Cache struct {
	clock clockwork.Clock
	log   *zap.Logger

	mu      sync.Mutex
	entries map[Key]*entry
	flights map[Key]*flight
	closed  bool

	sf     singleflight.Group
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock sets the clock used for staleness checks.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Cache) { c.clock = clock }
}

// New returns an empty cache. Call Close to stop background work.
func New(logger *zap.Logger, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		clock:   clockwork.NewRealClock(),
		log:     logger,
		entries: make(map[Key]*entry),
		flights: make(map[Key]*flight),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the value for key, fetching it when absent. A stale or
// invalidated entry is returned as is and revalidated in the background.
//
// If ctx ends before a foreground fetch completes, Get returns ctx.Err();
// the fetch is cancelled once no caller is waiting for it.
func (c *Cache) Get(ctx context.Context, key Key, policy Policy, fetch FetchFunc) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClosed
	}

	if e, ok := c.entries[key]; ok {
		e.policy = policy
		e.fetch = fetch
		if e.invalid || c.clock.Since(e.fetchedAt) >= policy.StaleTime {
			c.revalidateLocked(key, e)
		}
		val := e.val
		c.mu.Unlock()
		return val, nil
	}

	fl, ch := c.startLocked(key, policy, fetch)
	fl.waiters++
	c.mu.Unlock()

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		c.leave(fl)
		return nil, ctx.Err()
	}
}

// Peek returns the cached value for key and when it was fetched, without
// fetching or revalidating.
func (c *Cache) Peek(key Key) (any, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return e.val, e.fetchedAt, true
}

// Focus handles a window-focus signal: every entry whose policy has
// RevalidateOnFocus is marked stale and revalidated. Focus waits for those
// fetches to finish or for ctx to end, so a read issued after it returns
// sees the refreshed values. It returns the number of entries revalidated.
func (c *Cache) Focus(ctx context.Context) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}

	var pending []chan struct{}
	for key, e := range c.entries {
		if !e.policy.RevalidateOnFocus {
			continue
		}
		e.invalid = true
		pending = append(pending, c.revalidateLocked(key, e).done)
	}
	c.mu.Unlock()

	for _, done := range pending {
		select {
		case <-done:
		case <-ctx.Done():
			return len(pending)
		}
	}
	return len(pending)
}

// Invalidate marks every entry in scope stale and revalidates it in the
// background. It returns the number of entries affected.
func (c *Cache) Invalidate(scope string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0
	}

	n := 0
	for key, e := range c.entries {
		if key.Scope != scope {
			continue
		}
		e.invalid = true
		c.revalidateLocked(key, e)
		n++
	}
	return n
}

// Len reports the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prune drops entries fetched at least maxAge ago. Entries with a fetch
// in flight are kept. It returns the number of entries removed.
func (c *Cache) Prune(maxAge time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key, e := range c.entries {
		if c.clock.Since(e.fetchedAt) < maxAge {
			continue
		}
		if _, ok := c.flights[key]; ok {
			continue
		}
		delete(c.entries, key)
		n++
	}
	return n
}

// Close cancels in-flight fetches and waits for them to return.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.cancel()
	c.mu.Unlock()

	c.wg.Wait()
}

// revalidateLocked starts a background refresh of key unless one is
// already running, and returns the flight doing it. Caller holds c.mu.
func (c *Cache) revalidateLocked(key Key, e *entry) *flight {
	if fl, ok := c.flights[key]; ok {
		fl.background = true
		return fl
	}
	fl, _ := c.startLocked(key, e.policy, e.fetch)
	fl.background = true
	c.log.Debug("querycache: revalidating", zap.String("key", key.String()))
	return fl
}

// startLocked joins the in-flight fetch for key or starts a new one.
// Sibling fetches in the same scope that only serve background
// revalidation are cancelled; a sibling with a caller waiting on it runs
// to completion. Caller holds c.mu.
//
// A key is in flight in c.sf exactly while its flight is registered in
// c.flights, so a new flight always runs its own fetch.
func (c *Cache) startLocked(key Key, policy Policy, fetch FetchFunc) (*flight, <-chan singleflight.Result) {
	sfKey := key.String()

	if fl, ok := c.flights[key]; ok {
		return fl, c.sf.DoChan(sfKey, func() (any, error) {
			return nil, fmt.Errorf("querycache: %s: flight lost", sfKey)
		})
	}
	for k, fl := range c.flights {
		if k.Scope != key.Scope || fl.waiters > 0 {
			continue
		}
		c.log.Debug("querycache: superseded",
			zap.String("old", k.String()),
			zap.String("new", sfKey))
		fl.cancel()
		c.sf.Forget(k.String())
		delete(c.flights, k)
	}

	fctx, cancel := context.WithCancel(c.ctx)
	fl := &flight{key: key, cancel: cancel, done: make(chan struct{})}
	c.flights[key] = fl
	c.wg.Add(1)

	ch := c.sf.DoChan(sfKey, func() (any, error) {
		defer c.wg.Done()
		defer cancel()

		val, err := c.run(fctx, fetch)

		c.mu.Lock()
		defer c.mu.Unlock()
		defer close(fl.done)
		if c.flights[key] == fl {
			delete(c.flights, key)
			c.sf.Forget(sfKey)
		}
		switch {
		case err != nil:
			if fctx.Err() != nil {
				c.log.Debug("querycache: fetch cancelled", zap.String("key", sfKey), zap.Error(err))
			} else {
				c.log.Warn("querycache: fetch failed", zap.String("key", sfKey), zap.Error(err))
			}
		case fctx.Err() != nil:
			// Superseded or closed while the fetch was finishing; drop it.
			err = fctx.Err()
			val = nil
		default:
			c.entries[key] = &entry{
				val:       val,
				fetchedAt: c.clock.Now(),
				policy:    policy,
				fetch:     fetch,
			}
		}
		return val, err
	})
	return fl, ch
}

// run calls fetch, turning a panic into an error so one bad query cannot
// wedge the flight for its key.
func (c *Cache) run(ctx context.Context, fetch FetchFunc) (val any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("querycache: fetch panicked: %v", r)
		}
	}()
	return fetch(ctx)
}

// leave drops a foreground waiter; the last one out cancels a fetch that
// nobody else needs.
func (c *Cache) leave(fl *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fl.waiters--
	if fl.waiters > 0 || fl.background {
		return
	}
	if c.flights[fl.key] == fl {
		delete(c.flights, fl.key)
		c.sf.Forget(fl.key.String())
	}
	fl.cancel()
}

// Get is the typed form of (*Cache).Get.
func Get[T any](ctx context.Context, c *Cache, key Key, policy Policy, fetch func(context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, policy, func(ctx context.Context) (any, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return t, nil
}
