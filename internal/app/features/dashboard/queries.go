// internal/app/features/dashboard/queries.go
package dashboard

import (
	"context"
	"errors"
	"time"

	statsstore "github.com/dalemusser/folioadmin/internal/app/store/stats"
	"github.com/dalemusser/folioadmin/internal/app/system/querycache"
	"github.com/dalemusser/folioadmin/internal/domain/models"
)

// MaxRecentLimit caps the limit accepted by the recent feeds.
const MaxRecentLimit = 50

// Cache keys for the dashboard queries.
var (
	StatsKey           = querycache.NewKey("dashboard", "stats")
	RecentContactsKey  = querycache.NewKey("dashboard", "recent-contacts")
	RecentProjectsKey  = querycache.NewKey("dashboard", "recent-projects")
	RecentBlogPostsKey = querycache.NewKey("dashboard", "recent-blog-posts")
	EvolutionKey       = querycache.NewKey("dashboard", "evolution")
)

var errFallback = errors.New("dashboard: read fell back to empty result")

// Policies holds the cache policy of each dashboard query.
type Policies struct {
	Stats           querycache.Policy
	RecentContacts  querycache.Policy
	RecentProjects  querycache.Policy
	RecentBlogPosts querycache.Policy
	Evolution       querycache.Policy
}

// DefaultPolicies returns the standard staleness windows. Only the counts
// revalidate when the browser window regains focus.
func DefaultPolicies() Policies {
	return Policies{
		Stats:           querycache.Policy{StaleTime: 5 * time.Minute, RevalidateOnFocus: true},
		RecentContacts:  querycache.Policy{StaleTime: 2 * time.Minute},
		RecentProjects:  querycache.Policy{StaleTime: 5 * time.Minute},
		RecentBlogPosts: querycache.Policy{StaleTime: 5 * time.Minute},
		Evolution:       querycache.Policy{StaleTime: 10 * time.Minute},
	}
}

// Queries serves the dashboard reads through the query cache.
type Queries struct {
	store    *statsstore.Store
	cache    *querycache.Cache
	policies Policies
}

// NewQueries wires the stats store to the cache.
func NewQueries(store *statsstore.Store, cache *querycache.Cache, policies Policies) *Queries {
	return &Queries{store: store, cache: cache, policies: policies}
}

// Stats returns the count snapshot. Errors are not masked.
func (q *Queries) Stats(ctx context.Context) (models.Counts, error) {
	return querycache.Get(ctx, q.cache, StatsKey, q.policies.Stats, q.store.GetDashboardStats)
}

// RecentContacts returns the newest contacts. limit <= 0 means the default.
func (q *Queries) RecentContacts(ctx context.Context, limit int) statsstore.BestEffort[[]models.RecentContact] {
	limit = NormalizeLimit(limit)
	return cachedBestEffort(ctx, q.cache, RecentContactsKey.WithLimit(limit), q.policies.RecentContacts,
		[]models.RecentContact{},
		func(ctx context.Context) statsstore.BestEffort[[]models.RecentContact] {
			return q.store.GetRecentContacts(ctx, limit)
		})
}

// RecentProjects returns the newest projects.
func (q *Queries) RecentProjects(ctx context.Context, limit int) statsstore.BestEffort[[]models.RecentProject] {
	limit = NormalizeLimit(limit)
	return cachedBestEffort(ctx, q.cache, RecentProjectsKey.WithLimit(limit), q.policies.RecentProjects,
		[]models.RecentProject{},
		func(ctx context.Context) statsstore.BestEffort[[]models.RecentProject] {
			return q.store.GetRecentProjects(ctx, limit)
		})
}

// RecentBlogPosts returns the newest blog posts.
func (q *Queries) RecentBlogPosts(ctx context.Context, limit int) statsstore.BestEffort[[]models.RecentBlogPost] {
	limit = NormalizeLimit(limit)
	return cachedBestEffort(ctx, q.cache, RecentBlogPostsKey.WithLimit(limit), q.policies.RecentBlogPosts,
		[]models.RecentBlogPost{},
		func(ctx context.Context) statsstore.BestEffort[[]models.RecentBlogPost] {
			return q.store.GetRecentBlogPosts(ctx, limit)
		})
}

// Evolution returns the 30-day activity histogram.
func (q *Queries) Evolution(ctx context.Context) statsstore.BestEffort[models.Evolution] {
	return cachedBestEffort(ctx, q.cache, EvolutionKey, q.policies.Evolution,
		models.EmptyEvolution(), q.store.GetStatsEvolution)
}

// WindowDays lists the chart's day columns, oldest first.
func (q *Queries) WindowDays() []string {
	return q.store.WindowDays()
}

// Focus revalidates the focus-sensitive queries, waits for them until ctx
// ends and reports how many there were.
func (q *Queries) Focus(ctx context.Context) int {
	return q.cache.Focus(ctx)
}

// InvalidateStats marks the count snapshot stale so the next read refreshes it.
func (q *Queries) InvalidateStats() {
	q.cache.Invalidate(StatsKey.Scope)
}

// NormalizeLimit maps non-positive limits to the default and caps large ones.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return statsstore.DefaultRecentLimit
	case limit > MaxRecentLimit:
		return MaxRecentLimit
	}
	return limit
}

// cachedBestEffort caches only successful reads. A fallback surfaces to the
// cache as an error, so nothing is stored on a miss and an older entry
// survives a failed revalidation.
func cachedBestEffort[T any](ctx context.Context, c *querycache.Cache, key querycache.Key, policy querycache.Policy,
	fallback T, read func(context.Context) statsstore.BestEffort[T]) statsstore.BestEffort[T] {
	v, err := querycache.Get(ctx, c, key, policy, func(ctx context.Context) (T, error) {
		res := read(ctx)
		if !res.Fallback {
			return res.Value, nil
		}
		if res.Err != nil {
			return res.Value, res.Err
		}
		return res.Value, errFallback
	})
	if err != nil {
		return statsstore.BestEffort[T]{Value: fallback, Fallback: true, Err: err}
	}
	return statsstore.BestEffort[T]{Value: v}
}
