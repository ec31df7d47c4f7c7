// internal/app/features/sectors/delete.go
package sectors

import (
	"context"
	"net/http"

	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeDelete opens the delete confirmation dialog.
// GET /sectors/{id}/delete
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.loadSector(w, r)
	if !ok {
		return
	}
	wf := NewWorkflow(h.Sectors, &notices{})
	wf.OpenDelete(sec)
	h.renderDelete(w, r, wf, nil)
}

// HandleDelete deletes the sector. On failure the dialog is shown again
// with the same target.
// POST /sectors/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.loadSector(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n := &notices{}
	wf := NewWorkflow(h.Sectors, n)
	wf.OpenDelete(sec)
	err := wf.ConfirmDelete(ctx)
	h.AuditLog.SectorChanged(ctx, r, audit.EventSectorDeleted, actor(r), sec.ID, err)
	if err != nil {
		h.logMutationError("delete sector failed", sec.ID, err)
		h.renderDelete(w, r, wf, n.errors())
		return
	}
	h.finish(w, r, n)
}

func (h *Handler) renderDelete(w http.ResponseWriter, r *http.Request, wf *Workflow, errs []string) {
	target := wf.DeleteTarget()
	if target == nil {
		http.Redirect(w, r, "/sectors", http.StatusSeeOther)
		return
	}
	vm := deleteVM{
		BaseVM: viewdata.NewBaseVM(r, "Delete Sector", "/sectors"),
		Target: *target,
		Action: "/sectors/" + target.ID + "/delete",
		Errors: errs,
	}

	if isHTMX(r) {
		templates.RenderSnippet(w, "sector_delete_modal", vm)
		return
	}
	if len(errs) > 0 {
		w.WriteHeader(http.StatusInternalServerError)
	}
	templates.Render(w, r, "sector_delete_page", vm)
}
