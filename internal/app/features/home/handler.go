// internal/app/features/home/handler.go
package home

import (
	"net/http"

	"github.com/dalemusser/folioadmin/internal/app/system/auth"
)

// Handler serves the site root.
type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// ServeRoot sends signed-in admins to the dashboard and everyone else to sign in.
// GET /
func (h *Handler) ServeRoot(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
