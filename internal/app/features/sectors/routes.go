// internal/app/features/sectors/routes.go
package sectors

import (
	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes wires the sector editor under the mount point chosen by the
// top-level router (normally "/sectors").
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("admin"))

		pr.Get("/", h.ServeList)
		pr.Get("/list", h.ServeListFragment)
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)
		pr.Get("/{id}/delete", h.ServeDelete)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
