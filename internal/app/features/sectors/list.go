// internal/app/features/sectors/list.go
package sectors

import (
	"context"
	"net/http"

	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// ServeList renders the page shell. The grid itself loads from /sectors/list,
// so the shell shows only the loading indicator.
// GET /sectors
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	vm := pageVM{
		BaseVM: viewdata.NewBaseVM(r, "Sectors", "/dashboard"),
		List:   listVM{State: listLoading},
	}
	vm.PopFlashes(w, r, h.Flash)
	templates.Render(w, r, "sectors_page", vm)
}

// ServeListFragment renders the list in its error, empty or ready state.
// Failures still answer 200 so HTMX swaps the error panel in.
// GET /sectors/list
func (h *Handler) ServeListFragment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	sectors, err := h.Sectors.List(ctx)
	if err != nil {
		h.Log.Error("list sectors failed", zap.Error(err))
	}
	vm := newListVM(sectors, err)
	vm.CSRFToken = csrf.Token(r)
	templates.RenderSnippet(w, "sectors_list", vm)
}
