package testutil

import (
	"context"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/go-chi/chi/v5"
)

// TestContext returns a context with a short timeout for store calls.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures seeds a FakeBackend with content rows.
type Fixtures struct {
	be *FakeBackend
	t  *testing.T
}

// NewFixtures creates a Fixtures bound to be.
func NewFixtures(t *testing.T, be *FakeBackend) *Fixtures {
	t.Helper()
	return &Fixtures{be: be, t: t}
}

// Backend returns the underlying fake for direct access in tests.
func (f *Fixtures) Backend() *FakeBackend {
	return f.be
}

// CreateContact seeds a contact created at the given time.
func (f *Fixtures) CreateContact(id, name string, created time.Time) backend.Row {
	f.t.Helper()
	row := backend.Row{
		"id":         id,
		"name":       name,
		"email":      id + "@example.com",
		"subject":    "Hello from " + name,
		"message":    "…",
		"created_at": created,
	}
	f.be.Seed(models.KindContact.Table(), row)
	return row
}

// CreateProject seeds a project created at the given time.
func (f *Fixtures) CreateProject(id, title string, created time.Time) backend.Row {
	f.t.Helper()
	row := backend.Row{
		"id":         id,
		"title":      title,
		"status":     "published",
		"created_at": created,
	}
	f.be.Seed(models.KindProject.Table(), row)
	return row
}

// CreateBlogPost seeds a blog post created at the given time.
func (f *Fixtures) CreateBlogPost(id, title string, created time.Time) backend.Row {
	f.t.Helper()
	row := backend.Row{
		"id":         id,
		"title":      title,
		"slug":       id,
		"published":  true,
		"created_at": created,
	}
	f.be.Seed(models.KindBlogPost.Table(), row)
	return row
}

// CreateSector seeds a sector with a nested content modal.
func (f *Fixtures) CreateSector(id, title string) models.Sector {
	f.t.Helper()
	s := models.Sector{
		ID:          id,
		Title:       title,
		Description: title + " description",
		Services:    []string{"Consulting", "Delivery"},
		Icon:        "briefcase",
		Content: models.ContentModal{
			HeroTitle:  title + " hero",
			Highlights: []string{"Fast"},
			TechStack:  []string{"Go"},
			CaseStudy:  models.CaseStudy{Title: "Case", Results: "Results"},
			CTAText:    "Talk to us",
		},
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	f.be.Seed(models.KindSector.Table(), backend.Row{
		"id":            s.ID,
		"title":         s.Title,
		"description":   s.Description,
		"services":      s.Services,
		"icon":          s.Icon,
		"image":         s.Image,
		"content_modal": s.Content,
		"created_at":    s.CreatedAt,
	})
	return s
}

// Seed adds n rows to table, one per day going back from newest.
func (f *Fixtures) Seed(table string, n int, newest time.Time) {
	f.t.Helper()
	for i := 0; i < n; i++ {
		f.be.Seed(table, backend.Row{
			"id":         table + "-" + strconv.Itoa(i),
			"created_at": newest.AddDate(0, 0, -i),
		})
	}
}
