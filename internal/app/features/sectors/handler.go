// internal/app/features/sectors/handler.go
package sectors

import (
	uierrors "github.com/dalemusser/folioadmin/internal/app/features/errors"
	sectorstore "github.com/dalemusser/folioadmin/internal/app/store/sectors"
	"github.com/dalemusser/folioadmin/internal/app/system/auditlog"
	"github.com/dalemusser/folioadmin/internal/app/system/flash"
	"go.uber.org/zap"
)

// Handler owns the sector list and the create, edit and delete dialogs.
//
// Changed is called after every successful mutation; bootstrap uses it
// to mark the dashboard counts stale.
type Handler struct {
	Sectors  *sectorstore.Store
	Flash    *flash.Store
	AuditLog *auditlog.Logger
	Changed  func()
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(store *sectorstore.Store, fl *flash.Store, errLog *uierrors.ErrorLogger, audit *auditlog.Logger, changed func(), logger *zap.Logger) *Handler {
	return &Handler{
		Sectors:  store,
		Flash:    fl,
		AuditLog: audit,
		Changed:  changed,
		Log:      logger,
		ErrLog:   errLog,
	}
}

func (h *Handler) changed() {
	if h.Changed != nil {
		h.Changed()
	}
}
