// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the dashboard feature under whatever mount point
// the top-level router chooses (e.g., "/dashboard").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/", h.ServeDashboard)
		pr.Get("/stats", h.ServeStats)
		pr.Get("/recent/{kind}", h.ServeRecent)
		pr.Get("/evolution", h.ServeEvolution)
		pr.Post("/focus", h.ServeFocus)
	})

	return r
}
