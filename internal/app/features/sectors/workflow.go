// internal/app/features/sectors/workflow.go
package sectors

import (
	"context"
	"errors"

	sectorstore "github.com/dalemusser/folioadmin/internal/app/store/sectors"
	"github.com/dalemusser/folioadmin/internal/domain/models"
)

// State is the position of the sector editor.
type State int

const (
	Viewing State = iota
	CreateOpen
	EditOpen
	DeleteConfirmOpen
)

func (s State) String() string {
	switch s {
	case Viewing:
		return "viewing"
	case CreateOpen:
		return "create"
	case EditOpen:
		return "edit"
	case DeleteConfirmOpen:
		return "delete"
	}
	return "unknown"
}

// User-facing notices.
const (
	MsgCreated      = "Sector created successfully."
	MsgUpdated      = "Sector updated successfully."
	MsgDeleted      = "Sector deleted successfully."
	MsgCreateFailed = "Failed to create sector."
	MsgUpdateFailed = "Failed to update sector."
	MsgDeleteFailed = "Failed to delete sector."
	MsgDuplicateID  = "A sector with that ID already exists."
	MsgMissingID    = "Sector ID is required."
)

// ErrNoForm is returned by Submit when no create or edit form is open.
var ErrNoForm = errors.New("sectors: no form is open")

// Mutator is the write side of the sector store.
type Mutator interface {
	Create(ctx context.Context, sec models.Sector) (models.Sector, error)
	Update(ctx context.Context, id string, sec models.Sector) error
	Delete(ctx context.Context, id string) error
}

// Notifier receives the outcome of each mutation.
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Workflow drives the create, edit and delete dialogs. A failed mutation
// leaves the state untouched so the open dialog can be retried.
type Workflow struct {
	store  Mutator
	notify Notifier

	state   State
	editing *models.Sector
	target  *models.Sector
	form    models.SectorForm
}

func NewWorkflow(store Mutator, notify Notifier) *Workflow {
	return &Workflow{store: store, notify: notify}
}

func (w *Workflow) State() State { return w.state }

// Editing returns the sector being edited, or nil.
func (w *Workflow) Editing() *models.Sector { return w.editing }

// DeleteTarget returns the sector awaiting delete confirmation, or nil.
func (w *Workflow) DeleteTarget() *models.Sector { return w.target }

// Form returns the values currently in the open form.
func (w *Workflow) Form() models.SectorForm { return w.form }

// OpenCreate opens an empty create form.
func (w *Workflow) OpenCreate() {
	w.state = CreateOpen
	w.editing = nil
	w.target = nil
	w.form = models.SectorForm{}
}

// OpenEdit opens the edit form prefilled from sec.
func (w *Workflow) OpenEdit(sec models.Sector) {
	w.state = EditOpen
	w.editing = &sec
	w.target = nil
	w.form = models.FormFromSector(sec)
}

// OpenDelete asks for confirmation before deleting sec.
func (w *Workflow) OpenDelete(sec models.Sector) {
	w.state = DeleteConfirmOpen
	w.editing = nil
	w.target = &sec
}

// Cancel closes any open dialog.
func (w *Workflow) Cancel() {
	w.state = Viewing
	w.editing = nil
	w.target = nil
	w.form = models.SectorForm{}
}

// Submit saves form: an update of the edited sector when one is open,
// otherwise an insert.
func (w *Workflow) Submit(ctx context.Context, form models.SectorForm) error {
	if w.state != CreateOpen && w.state != EditOpen {
		return ErrNoForm
	}
	w.form = form

	if w.editing != nil {
		if err := w.store.Update(ctx, w.editing.ID, form.Sector()); err != nil {
			w.notify.Error(MsgUpdateFailed)
			return err
		}
		w.notify.Success(MsgUpdated)
		w.Cancel()
		return nil
	}

	if _, err := w.store.Create(ctx, form.Sector()); err != nil {
		switch {
		case errors.Is(err, sectorstore.ErrDuplicateID):
			w.notify.Error(MsgDuplicateID)
		case errors.Is(err, sectorstore.ErrMissingID):
			w.notify.Error(MsgMissingID)
		default:
			w.notify.Error(MsgCreateFailed)
		}
		return err
	}
	w.notify.Success(MsgCreated)
	w.Cancel()
	return nil
}

// ConfirmDelete deletes the pending target. Without a target it does nothing.
// On failure the dialog stays open with its target.
func (w *Workflow) ConfirmDelete(ctx context.Context) error {
	if w.target == nil {
		return nil
	}
	if err := w.store.Delete(ctx, w.target.ID); err != nil {
		w.notify.Error(MsgDeleteFailed)
		return err
	}
	w.notify.Success(MsgDeleted)
	w.Cancel()
	return nil
}
