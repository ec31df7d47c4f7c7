// internal/app/system/workers/cachepruner.go
package workers

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Pruner is the part of the query cache the worker drives.
type Pruner interface {
	Prune(maxAge time.Duration) int
}

// CachePruner is a background worker that drops long-unused query cache
// entries, such as feeds requested once with an unusual limit.
type CachePruner struct {
	cache    Pruner
	log      *zap.Logger
	clock    clockwork.Clock
	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewCachePruner creates a cache pruning worker.
//
// Parameters:
//   - cache: the query cache
//   - logger: zap logger for logging
//   - interval: how often to prune (e.g., 10 minutes)
//   - maxAge: entries fetched longer ago than this are dropped (e.g., 1 hour)
func NewCachePruner(cache Pruner, logger *zap.Logger, interval, maxAge time.Duration) *CachePruner {
	return NewCachePrunerWithClock(cache, logger, clockwork.NewRealClock(), interval, maxAge)
}

// NewCachePrunerWithClock is NewCachePruner with an explicit clock.
func NewCachePrunerWithClock(cache Pruner, logger *zap.Logger, clock clockwork.Clock, interval, maxAge time.Duration) *CachePruner {
	return &CachePruner{
		cache:    cache,
		log:      logger,
		clock:    clock,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background prune loop.
func (w *CachePruner) Start() {
	ticker := w.clock.NewTicker(w.interval)
	w.wg.Add(1)
	go w.run(ticker)
	w.log.Info("cache pruner started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_age", w.maxAge))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *CachePruner) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("cache pruner stopped")
}

func (w *CachePruner) run(ticker clockwork.Ticker) {
	defer w.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.Chan():
			if n := w.cache.Prune(w.maxAge); n > 0 {
				w.log.Debug("pruned query cache entries", zap.Int("count", n))
			}
		}
	}
}
