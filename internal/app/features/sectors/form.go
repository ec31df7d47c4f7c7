// internal/app/features/sectors/form.go
package sectors

import (
	"context"
	"errors"
	"net/http"

	uierrors "github.com/dalemusser/folioadmin/internal/app/features/errors"
	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	sectorstore "github.com/dalemusser/folioadmin/internal/app/store/sectors"
	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"github.com/dalemusser/folioadmin/internal/app/system/limits"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/app/system/viewdata"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ServeNew opens the create dialog.
// GET /sectors/new
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	wf := NewWorkflow(h.Sectors, &notices{})
	wf.OpenCreate()
	h.renderForm(w, r, wf, nil)
}

// HandleCreate inserts a sector from the submitted form.
// POST /sectors
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSectorFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse sector form failed", err, "Invalid form submission.", "/sectors")
		return
	}
	form := models.SectorFormFrom(r.PostForm.Get)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n := &notices{}
	wf := NewWorkflow(h.Sectors, n)
	wf.OpenCreate()
	err := wf.Submit(ctx, form)
	h.AuditLog.SectorChanged(ctx, r, audit.EventSectorCreated, actor(r), form.Sector().ID, err)
	if err != nil {
		h.logMutationError("create sector failed", form.Sector().ID, err)
		h.renderForm(w, r, wf, n.errors())
		return
	}
	h.finish(w, r, n)
}

// ServeEdit opens the edit dialog prefilled from the stored sector.
// GET /sectors/{id}/edit
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	sec, ok := h.loadSector(w, r)
	if !ok {
		return
	}
	wf := NewWorkflow(h.Sectors, &notices{})
	wf.OpenEdit(sec)
	h.renderForm(w, r, wf, nil)
}

// HandleEdit saves the edit form. The sector id comes from the route;
// an id in the form body is ignored.
// POST /sectors/{id}/edit
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxSectorFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse sector form failed", err, "Invalid form submission.", "/sectors")
		return
	}
	sec, ok := h.loadSector(w, r)
	if !ok {
		return
	}
	form := models.SectorFormFrom(r.PostForm.Get)
	form.ID = sec.ID

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	n := &notices{}
	wf := NewWorkflow(h.Sectors, n)
	wf.OpenEdit(sec)
	err := wf.Submit(ctx, form)
	h.AuditLog.SectorChanged(ctx, r, audit.EventSectorUpdated, actor(r), sec.ID, err)
	if err != nil {
		h.logMutationError("update sector failed", sec.ID, err)
		h.renderForm(w, r, wf, n.errors())
		return
	}
	h.finish(w, r, n)
}

func (h *Handler) renderForm(w http.ResponseWriter, r *http.Request, wf *Workflow, errs []string) {
	vm := formVM{
		BaseVM: viewdata.NewBaseVM(r, "New Sector", "/sectors"),
		Mode:   "create",
		Action: "/sectors",
		Form:   wf.Form(),
		Errors: errs,
	}
	if ed := wf.Editing(); ed != nil {
		vm.BaseVM.Title = "Edit Sector"
		vm.Mode = "edit"
		vm.Action = "/sectors/" + ed.ID + "/edit"
	}

	if isHTMX(r) {
		templates.RenderSnippet(w, "sector_form_modal", vm)
		return
	}
	if len(errs) > 0 {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "sector_form_page", vm)
}

// loadSector fetches the sector named by the {id} route parameter and
// renders the error page itself when it cannot.
func (h *Handler) loadSector(w http.ResponseWriter, r *http.Request) (models.Sector, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		uierrors.RenderBadRequest(w, r, "Missing sector ID.", "/sectors")
		return models.Sector{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	sec, err := h.Sectors.GetByID(ctx, id)
	if errors.Is(err, sectorstore.ErrNotFound) {
		uierrors.RenderNotFound(w, r, "Sector not found.", "/sectors")
		return models.Sector{}, false
	}
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load sector failed", err, "Unable to load sector.", "/sectors")
		return models.Sector{}, false
	}
	return sec, true
}

// finish queues the success notices and returns to the list.
func (h *Handler) finish(w http.ResponseWriter, r *http.Request, n *notices) {
	h.changed()
	if h.Flash != nil {
		for _, m := range n.msgs {
			h.Flash.Add(w, r, m)
		}
	}
	if isHTMX(r) {
		w.Header().Set("HX-Redirect", "/sectors")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, "/sectors", http.StatusSeeOther)
}

func (h *Handler) logMutationError(msg, id string, err error) {
	switch {
	case errors.Is(err, sectorstore.ErrDuplicateID), errors.Is(err, sectorstore.ErrMissingID):
		h.Log.Info(msg, zap.String("sector_id", id), zap.Error(err))
	default:
		h.Log.Error(msg, zap.String("sector_id", id), zap.Error(err))
	}
}

func actor(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.LoginID
	}
	return ""
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}
