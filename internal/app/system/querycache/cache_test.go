package querycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var (
	statsKey  = NewKey("dashboard", "stats")
	statsPol  = Policy{StaleTime: 5 * time.Minute, RevalidateOnFocus: true}
	recentPol = Policy{StaleTime: 2 * time.Minute}
)

func newCache(t *testing.T) (*Cache, *clockwork.FakeClock) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	c := New(zap.NewNop(), WithClock(clock))
	t.Cleanup(c.Close)
	return c, clock
}

// counter returns a fetch that yields successive integers.
func counter(calls *atomic.Int32) FetchFunc {
	return func(ctx context.Context) (any, error) {
		return int(calls.Add(1)), nil
	}
}

func TestKeyString(t *testing.T) {
	assert.Equal(t, "dashboard/stats", statsKey.String())
	assert.Equal(t, "dashboard/recent-contacts?limit=5", NewKey("dashboard", "recent-contacts").WithLimit(5).String())
	assert.NotEqual(t, NewKey("a").WithLimit(5), NewKey("a").WithLimit(10))
}

func TestGet_MissThenFreshHit(t *testing.T) {
	c, clock := newCache(t)
	var calls atomic.Int32

	v, err := c.Get(context.Background(), statsKey, statsPol, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	clock.Advance(4 * time.Minute)
	v, err = c.Get(context.Background(), statsKey, statsPol, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGet_StaleServesCachedAndRevalidates(t *testing.T) {
	c, clock := newCache(t)
	var calls atomic.Int32

	_, err := c.Get(context.Background(), statsKey, statsPol, counter(&calls))
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	v, err := c.Get(context.Background(), statsKey, statsPol, counter(&calls))
	require.NoError(t, err)
	assert.Equal(t, 1, v, "stale hit returns the cached value")

	require.Eventually(t, func() bool {
		v, _, _ := c.Peek(statsKey)
		return v == 2
	}, time.Second, 5*time.Millisecond)
}

func TestGet_ParametersCacheIndependently(t *testing.T) {
	c, _ := newCache(t)
	k5 := NewKey("dashboard", "recent-contacts").WithLimit(5)
	k10 := k5.WithLimit(10)

	v5, err := c.Get(context.Background(), k5, recentPol, func(ctx context.Context) (any, error) { return "five", nil })
	require.NoError(t, err)
	v10, err := c.Get(context.Background(), k10, recentPol, func(ctx context.Context) (any, error) { return "ten", nil })
	require.NoError(t, err)

	assert.Equal(t, "five", v5)
	assert.Equal(t, "ten", v10)
	assert.Equal(t, 2, c.Len())
}

func TestGet_ConcurrentMissesShareOneFetch(t *testing.T) {
	c, _ := newCache(t)
	var calls atomic.Int32
	release := make(chan struct{})

	fetch := func(ctx context.Context) (any, error) {
		calls.Add(1)
		<-release
		return "stats", nil
	}

	const n = 5
	var wg sync.WaitGroup
	results := make([]any, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = c.Get(context.Background(), statsKey, statsPol, fetch)
		}(i)
	}

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		fl := c.flights[statsKey]
		return fl != nil && fl.waiters == n
	}, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		assert.Equal(t, "stats", r)
	}
}

func TestGet_MissFailureCachesNothing(t *testing.T) {
	c, _ := newCache(t)
	boom := errors.New("backend down")

	_, err := c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestGet_FailedRevalidationKeepsEntry(t *testing.T) {
	c, clock := newCache(t)

	_, err := c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) { return "old", nil })
	require.NoError(t, err)
	_, firstAt, _ := c.Peek(statsKey)

	clock.Advance(10 * time.Minute)
	var failed atomic.Bool
	v, err := c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) {
		failed.Store(true)
		return nil, errors.New("timeout")
	})
	require.NoError(t, err)
	assert.Equal(t, "old", v)

	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return failed.Load() && c.flights[statsKey] == nil
	}, time.Second, 5*time.Millisecond)

	v, at, ok := c.Peek(statsKey)
	require.True(t, ok)
	assert.Equal(t, "old", v)
	assert.True(t, at.Equal(firstAt))
}

func TestGet_SiblingKeyCancelsBackgroundRevalidation(t *testing.T) {
	c, clock := newCache(t)
	k5 := NewKey("dashboard", "recent-contacts").WithLimit(5)
	k10 := k5.WithLimit(10)

	_, err := c.Get(context.Background(), k5, recentPol, func(ctx context.Context) (any, error) { return "five", nil })
	require.NoError(t, err)
	clock.Advance(recentPol.StaleTime)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	v, err := c.Get(context.Background(), k5, recentPol, func(ctx context.Context) (any, error) {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	assert.Equal(t, "five", v)
	<-started

	v, err = c.Get(context.Background(), k10, recentPol, func(ctx context.Context) (any, error) { return "ten", nil })
	require.NoError(t, err)
	assert.Equal(t, "ten", v)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("sibling revalidation was not cancelled")
	}
	v, _, ok := c.Peek(k5)
	require.True(t, ok)
	assert.Equal(t, "five", v)
}

func TestGet_SiblingForegroundFetchesBothSucceed(t *testing.T) {
	c, _ := newCache(t)
	k10 := NewKey("dashboard", "recent-contacts").WithLimit(10)
	k5 := k10.WithLimit(5)

	started := make(chan struct{})
	release := make(chan struct{})
	type result struct {
		v   any
		err error
	}
	resc := make(chan result, 1)
	go func() {
		v, err := c.Get(context.Background(), k10, recentPol, func(ctx context.Context) (any, error) {
			close(started)
			select {
			case <-release:
				return "ten", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		})
		resc <- result{v, err}
	}()
	<-started

	v, err := c.Get(context.Background(), k5, recentPol, func(ctx context.Context) (any, error) { return "five", nil })
	require.NoError(t, err)
	assert.Equal(t, "five", v)

	close(release)
	select {
	case res := <-resc:
		require.NoError(t, res.err)
		assert.Equal(t, "ten", res.v)
	case <-time.After(time.Second):
		t.Fatal("first caller never returned")
	}
	assert.Equal(t, 2, c.Len())
}

func TestGet_LastWaiterLeavingCancelsFetch(t *testing.T) {
	c, _ := newCache(t)
	cancelled := make(chan struct{})
	started := make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, statsKey, statsPol, func(fctx context.Context) (any, error) {
			close(started)
			<-fctx.Done()
			close(cancelled)
			return nil, fctx.Err()
		})
		errc <- err
	}()

	<-started
	cancel()
	assert.ErrorIs(t, <-errc, context.Canceled)

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatal("abandoned fetch kept running")
	}
}

func TestFocus_RevalidatesOnlyFocusPolicies(t *testing.T) {
	c, _ := newCache(t)
	var statsCalls, recentCalls atomic.Int32
	recentKey := NewKey("dashboard", "recent-projects").WithLimit(5)

	_, err := c.Get(context.Background(), statsKey, statsPol, counter(&statsCalls))
	require.NoError(t, err)
	_, err = c.Get(context.Background(), recentKey, recentPol, counter(&recentCalls))
	require.NoError(t, err)

	assert.Equal(t, 1, c.Focus(context.Background()))

	v, _, _ := c.Peek(statsKey)
	assert.Equal(t, 2, v, "focus returns once the refreshed value is stored")
	assert.Equal(t, int32(1), recentCalls.Load())
}

func TestFocus_StopsWaitingWhenContextEnds(t *testing.T) {
	c, _ := newCache(t)
	_, err := c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)

	release := make(chan struct{})
	defer close(release)

	// Swap in a slow fetch for the revalidation Focus triggers.
	c.mu.Lock()
	c.entries[statsKey].fetch = func(ctx context.Context) (any, error) {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return 2, nil
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.Equal(t, 1, c.Focus(ctx))
	v, _, _ := c.Peek(statsKey)
	assert.Equal(t, 1, v)
}

func TestInvalidate_RefreshesScope(t *testing.T) {
	c, _ := newCache(t)
	var calls atomic.Int32

	_, err := c.Get(context.Background(), statsKey, statsPol, counter(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, c.Invalidate(statsKey.Scope))
	assert.Equal(t, 0, c.Invalidate("dashboard/unknown"))

	require.Eventually(t, func() bool {
		v, _, _ := c.Peek(statsKey)
		return v == 2
	}, time.Second, 5*time.Millisecond)
}

func TestClose_CancelsBackgroundWork(t *testing.T) {
	clock := clockwork.NewFakeClock()
	c := New(zap.NewNop(), WithClock(clock))

	_, err := c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) { return 1, nil })
	require.NoError(t, err)

	clock.Advance(time.Hour)
	blocked := make(chan struct{})
	_, err = c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) {
		close(blocked)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	require.NoError(t, err)
	<-blocked

	c.Close()
	_, err = c.Get(context.Background(), statsKey, statsPol, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestGetTyped(t *testing.T) {
	c, _ := newCache(t)

	n, err := Get(context.Background(), c, statsKey, statsPol, func(ctx context.Context) (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = Get(context.Background(), c, statsKey, statsPol, func(ctx context.Context) (string, error) { return "x", nil })
	assert.Error(t, err, "type mismatch on a cached entry")
}

func TestGet_FetchPanicIsError(t *testing.T) {
	c, _ := newCache(t)
	_, err := c.Get(context.Background(), statsKey, statsPol, func(ctx context.Context) (any, error) {
		panic("bad query")
	})
	assert.Error(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestPrune_DropsOldEntries(t *testing.T) {
	c, clock := newCache(t)
	var calls atomic.Int32
	ctx := context.Background()

	_, err := c.Get(ctx, statsKey, statsPol, counter(&calls))
	require.NoError(t, err)
	clock.Advance(time.Hour)
	_, err = c.Get(ctx, NewKey("dashboard", "recent-contacts").WithLimit(5), Policy{StaleTime: time.Hour * 2}, counter(&calls))
	require.NoError(t, err)

	assert.Equal(t, 1, c.Prune(30*time.Minute))
	assert.Equal(t, 1, c.Len())
	_, _, ok := c.Peek(statsKey)
	assert.False(t, ok)
}
