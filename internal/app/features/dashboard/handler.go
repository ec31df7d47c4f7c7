// internal/app/features/dashboard/handler.go
package dashboard

import (
	uierrors "github.com/dalemusser/folioadmin/internal/app/features/errors"
	"go.uber.org/zap"
)

type Handler struct {
	Queries *Queries
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
}

func NewHandler(q *Queries, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Queries: q,
		Log:     logger,
		ErrLog:  errLog,
	}
}
