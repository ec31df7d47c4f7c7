// internal/app/features/dashboard/api.go
package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// fallbackHeader is set on feed responses that were masked to an empty result.
const fallbackHeader = "X-Dashboard-Fallback"

// ServeStats returns the count snapshot as JSON, or 502 when the backend failed.
// GET /dashboard/stats
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	counts, err := h.Queries.Stats(ctx)
	if err != nil {
		h.Log.Warn("dashboard stats unavailable", zap.Error(err))
		h.writeJSON(w, http.StatusBadGateway, map[string]string{"error": statsErrorMessage})
		return
	}
	h.writeJSON(w, http.StatusOK, counts)
}

// ServeRecent returns one recent feed as a JSON array.
// GET /dashboard/recent/{kind}?limit=N
func (h *Handler) ServeRecent(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var (
		items    any
		fallback bool
	)
	switch models.Kind(chi.URLParam(r, "kind")) {
	case models.KindContact:
		res := h.Queries.RecentContacts(ctx, limit)
		items, fallback = res.Value, res.Fallback
	case models.KindProject:
		res := h.Queries.RecentProjects(ctx, limit)
		items, fallback = res.Value, res.Fallback
	case models.KindBlogPost:
		res := h.Queries.RecentBlogPosts(ctx, limit)
		items, fallback = res.Value, res.Fallback
	default:
		h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown feed"})
		return
	}

	if fallback {
		w.Header().Set(fallbackHeader, "true")
	}
	h.writeJSON(w, http.StatusOK, items)
}

// ServeEvolution returns the sparse 30-day histograms.
// GET /dashboard/evolution
func (h *Handler) ServeEvolution(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res := h.Queries.Evolution(ctx)
	if res.Fallback {
		w.Header().Set(fallbackHeader, "true")
	}
	h.writeJSON(w, http.StatusOK, res.Value)
}

// ServeFocus handles the browser's window-refocus signal.
// POST /dashboard/focus
func (h *Handler) ServeFocus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "dashboard focus")
	defer cancel()

	n := h.Queries.Focus(ctx)
	h.Log.Debug("dashboard focus revalidation", zap.Int("queries", n))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.Log.Warn("dashboard: encode response failed", zap.Error(err))
	}
}
