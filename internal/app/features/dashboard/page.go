// internal/app/features/dashboard/page.go
package dashboard

import (
	"context"
	"net/http"

	statsstore "github.com/dalemusser/folioadmin/internal/app/store/stats"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/app/system/viewdata"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// statsErrorMessage is the only text shown when the counts fail to load.
const statsErrorMessage = "Failed to load dashboard statistics."

type countCard struct {
	Label string
	Count int64
	Href  string
}

type dayColumn struct {
	Day       string
	Contacts  int
	Projects  int
	BlogPosts int
	Total     int
	Height    int // percent of the busiest day
}

type chartVM struct {
	Columns  []dayColumn
	Total    int
	Max      int
	Fallback bool
}

type dashboardData struct {
	viewdata.BaseVM

	StatsError string
	Cards      []countCard

	RecentContacts  []models.RecentContact
	RecentProjects  []models.RecentProject
	RecentBlogPosts []models.RecentBlogPost

	Chart chartVM
}

// ServeDashboard renders the overview page.
// GET /dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		counts    models.Counts
		statsErr  error
		contacts  statsstore.BestEffort[[]models.RecentContact]
		projects  statsstore.BestEffort[[]models.RecentProject]
		posts     statsstore.BestEffort[[]models.RecentBlogPost]
		evolution statsstore.BestEffort[models.Evolution]
	)

	// Every read is best effort at this level; the group only joins them.
	var g errgroup.Group
	g.Go(func() error { counts, statsErr = h.Queries.Stats(ctx); return nil })
	g.Go(func() error { contacts = h.Queries.RecentContacts(ctx, 0); return nil })
	g.Go(func() error { projects = h.Queries.RecentProjects(ctx, 0); return nil })
	g.Go(func() error { posts = h.Queries.RecentBlogPosts(ctx, 0); return nil })
	g.Go(func() error { evolution = h.Queries.Evolution(ctx); return nil })
	_ = g.Wait()

	data := dashboardData{
		BaseVM:          viewdata.NewBaseVM(r, "Dashboard", "/"),
		RecentContacts:  contacts.Value,
		RecentProjects:  projects.Value,
		RecentBlogPosts: posts.Value,
		Chart:           buildChart(h.Queries.WindowDays(), evolution.Value),
	}
	data.Chart.Fallback = evolution.Fallback

	if statsErr != nil {
		h.Log.Warn("dashboard stats unavailable", zap.Error(statsErr))
		data.StatsError = statsErrorMessage
	} else {
		data.Cards = buildCards(counts)
	}

	templates.Render(w, r, "dashboard_page", data)
}

func buildCards(c models.Counts) []countCard {
	cards := make([]countCard, 0, len(models.Kinds))
	for _, k := range models.Kinds {
		card := countCard{Label: k.Label(), Count: c.Get(k)}
		if k == models.KindSector {
			card.Href = "/sectors"
		}
		cards = append(cards, card)
	}
	return cards
}

// buildChart lays the sparse histograms out over the window's days.
// Days with no activity become zero columns; keys outside days are ignored.
func buildChart(days []string, ev models.Evolution) chartVM {
	chart := chartVM{Columns: make([]dayColumn, 0, len(days))}
	for _, d := range days {
		col := dayColumn{
			Day:       d,
			Contacts:  ev.Contacts[d],
			Projects:  ev.Projects[d],
			BlogPosts: ev.BlogPosts[d],
		}
		col.Total = col.Contacts + col.Projects + col.BlogPosts
		chart.Total += col.Total
		if col.Total > chart.Max {
			chart.Max = col.Total
		}
		chart.Columns = append(chart.Columns, col)
	}
	if chart.Max > 0 {
		for i := range chart.Columns {
			chart.Columns[i].Height = chart.Columns[i].Total * 100 / chart.Max
		}
	}
	return chart
}
