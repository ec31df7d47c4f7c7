// internal/app/store/stats/statsstore.go
package statsstore

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultRecentLimit is used when a recent-feed limit is not positive.
const DefaultRecentLimit = 5

// DefaultDayLayout formats histogram days as month/day/year.
const DefaultDayLayout = "01/02/2006"

const createdAtColumn = "created_at"

// BestEffort carries a result that never fails outright. When the read
// failed, Value holds the empty fallback, Fallback is true and Err records
// the cause.
type BestEffort[T any] struct {
	Value    T
	Fallback bool
	Err      error
}

// Store reads dashboard aggregates from the backend.
type Store struct {
	be     backend.Backend
	log    *zap.Logger
	clock  clockwork.Clock
	layout string
	loc    *time.Location
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the clock used for the evolution window.
func WithClock(c clockwork.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithDayLayout sets the time layout used for histogram day keys.
func WithDayLayout(layout string) Option {
	return func(s *Store) {
		if layout != "" {
			s.layout = layout
		}
	}
}

// WithLocation sets the time zone in which days are bucketed.
func WithLocation(loc *time.Location) Option {
	return func(s *Store) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// New returns a Store reading through be. Without options it buckets days
// in UTC with DefaultDayLayout, matching the application defaults.
func New(be backend.Backend, logger *zap.Logger, opts ...Option) *Store {
	s := &Store{
		be:     be,
		log:    logger,
		clock:  clockwork.NewRealClock(),
		layout: DefaultDayLayout,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetDashboardStats counts every tracked kind concurrently. A nil count
// from the backend is reported as 0. If any count fails the whole call
// fails.
func (s *Store) GetDashboardStats(ctx context.Context) (models.Counts, error) {
	counts := make([]*int64, len(models.Kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range models.Kinds {
		g.Go(func() error {
			n, err := s.be.Count(gctx, k.Table())
			if err != nil {
				return fmt.Errorf("count %s: %w", k, err)
			}
			counts[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Error("dashboard stats failed", zap.Error(err))
		return models.Counts{}, err
	}

	var out models.Counts
	for i, k := range models.Kinds {
		out.Set(k, counts[i])
	}
	return out, nil
}

// GetRecentContacts returns the newest contacts, newest first.
func (s *Store) GetRecentContacts(ctx context.Context, limit int) BestEffort[[]models.RecentContact] {
	return recent[models.RecentContact](ctx, s, models.KindContact, models.RecentContactColumns, limit)
}

// GetRecentProjects returns the newest projects, newest first.
func (s *Store) GetRecentProjects(ctx context.Context, limit int) BestEffort[[]models.RecentProject] {
	return recent[models.RecentProject](ctx, s, models.KindProject, models.RecentProjectColumns, limit)
}

// GetRecentBlogPosts returns the newest blog posts, newest first.
func (s *Store) GetRecentBlogPosts(ctx context.Context, limit int) BestEffort[[]models.RecentBlogPost] {
	return recent[models.RecentBlogPost](ctx, s, models.KindBlogPost, models.RecentBlogPostColumns, limit)
}

type created interface {
	Created() time.Time
}

func recent[T created](ctx context.Context, s *Store, k models.Kind, cols []string, limit int) BestEffort[[]T] {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	rows, err := s.be.Select(ctx, k.Table(), backend.Query{
		Columns:    cols,
		OrderBy:    createdAtColumn,
		Descending: true,
		Limit:      limit,
	})
	if err != nil {
		return recentFallback[T](s, k, err)
	}

	items, err := backend.DecodeRows[T](rows)
	if err != nil {
		return recentFallback[T](s, k, err)
	}

	// The backend orders and limits already; do it again so a misbehaving
	// backend cannot break the feed's guarantees.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Created().After(items[j].Created())
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return BestEffort[[]T]{Value: items}
}

func recentFallback[T any](s *Store, k models.Kind, err error) BestEffort[[]T] {
	s.log.Warn("recent feed failed; showing empty list",
		zap.String("kind", string(k)),
		zap.Error(err))
	return BestEffort[[]T]{Value: []T{}, Fallback: true, Err: err}
}

// GetStatsEvolution buckets contacts, projects and blog posts created in
// the trailing 30 days by calendar day. If any of the three reads fails the
// result is three empty histograms.
func (s *Store) GetStatsEvolution(ctx context.Context) BestEffort[models.Evolution] {
	now := s.clock.Now()
	boundary := now.Add(-models.EvolutionWindow)

	kinds := []models.Kind{models.KindContact, models.KindProject, models.KindBlogPost}
	hists := make([]models.Histogram, len(kinds))

	g, gctx := errgroup.WithContext(ctx)
	for i, k := range kinds {
		g.Go(func() error {
			rows, err := s.be.Select(gctx, k.Table(), backend.Query{
				Columns:     []string{createdAtColumn},
				SinceColumn: createdAtColumn,
				Since:       boundary,
			})
			if err != nil {
				return fmt.Errorf("evolution %s: %w", k, err)
			}
			hists[i] = s.bucket(rows, boundary, now)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn("stats evolution failed; showing empty histograms", zap.Error(err))
		return BestEffort[models.Evolution]{Value: models.EmptyEvolution(), Fallback: true, Err: err}
	}

	return BestEffort[models.Evolution]{Value: models.Evolution{
		Contacts:  hists[0],
		Projects:  hists[1],
		BlogPosts: hists[2],
	}}
}

// bucket counts rows per day. Rows without a timestamp or outside
// [boundary, now] are skipped.
func (s *Store) bucket(rows []backend.Row, boundary, now time.Time) models.Histogram {
	h := models.Histogram{}
	for _, row := range rows {
		ts, ok := backend.Time(row, createdAtColumn)
		if !ok || ts.Before(boundary) || ts.After(now) {
			continue
		}
		h[s.DayKey(ts)]++
	}
	return h
}

// DayKey formats t as a histogram key in the store's zone and layout.
func (s *Store) DayKey(t time.Time) string {
	return t.In(s.loc).Format(s.layout)
}

// WindowDays lists the day keys covered by the evolution window, oldest
// first: every calendar day from the boundary's day through today.
func (s *Store) WindowDays() []string {
	now := s.clock.Now().In(s.loc)
	start := now.Add(-models.EvolutionWindow)

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, s.loc)
	last := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)

	var out []string
	for !day.After(last) {
		out = append(out, day.Format(s.layout))
		day = day.AddDate(0, 0, 1)
	}
	return out
}
