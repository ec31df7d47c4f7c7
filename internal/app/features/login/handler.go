// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/folioadmin/internal/app/features/errors"
	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/app/system/auditlog"
	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"github.com/dalemusser/folioadmin/internal/app/system/authutil"
	"github.com/dalemusser/folioadmin/internal/app/system/limits"
	"github.com/dalemusser/folioadmin/internal/app/system/ratelimit"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/dalemusser/folioadmin/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/waffle/pantry/urlutil"
	"go.uber.org/zap"
)

// invalidCredentials is shown for both an unknown email and a wrong
// password so the form does not reveal which one was wrong.
const invalidCredentials = "Invalid email or password."

// Admin is the single account allowed to sign in.
type Admin struct {
	Email        string
	PasswordHash string
	Name         string
}

type Handler struct {
	Admin      Admin
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.LoginLimiter
	AuditLog   *auditlog.Logger
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(admin Admin, sessionMgr *auth.SessionManager, limiter *ratelimit.LoginLimiter, audit *auditlog.Logger, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	if admin.Name == "" {
		admin.Name = "Administrator"
	}
	return &Handler{
		Admin:      admin,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		AuditLog:   audit,
		ErrLog:     errLog,
		Log:        logger,
	}
}

type loginFormData struct {
	viewdata.BaseVM
	ReturnURL string
	Email     string
	Error     string
}

/*─────────────────────────────────────────────────────────────────────────────*
| GET /login                                                                  |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	ret := query.Get(r, "return")
	if _, ok := auth.CurrentUser(r); ok {
		http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
		return
	}

	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		ReturnURL: ret,
	})
}

/*─────────────────────────────────────────────────────────────────────────────*
| POST /login                                                                 |
*─────────────────────────────────────────────────────────────────────────────*/

func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginFormSize)
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse form failed", err, "Invalid form data.", "/login")
		return
	}

	email := strings.TrimSpace(r.PostForm.Get("email"))
	password := r.PostForm.Get("password")
	ret := r.PostForm.Get("return")

	if email == "" || password == "" {
		h.renderFormWithError(w, r, http.StatusBadRequest, "Please enter your email and password.", email, ret)
		return
	}

	if h.Limiter != nil {
		if ok, msg := h.Limiter.Check(r, email); !ok {
			h.Log.Warn("login rate limited", zap.String("login_id", email), zap.String("ip", ratelimit.ClientIP(r)))
			h.renderFormWithError(w, r, http.StatusTooManyRequests, msg, email, ret)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if h.Admin.Email == "" || text.Fold(email) != text.Fold(h.Admin.Email) {
		h.AuditLog.LoginFailed(ctx, r, email, audit.EventLoginFailedUnknownUser, "unknown login id")
		h.renderFormWithError(w, r, http.StatusUnauthorized, invalidCredentials, email, ret)
		return
	}
	if !authutil.CheckPassword(password, h.Admin.PasswordHash) {
		h.AuditLog.LoginFailed(ctx, r, email, audit.EventLoginFailedWrongPassword, "wrong password")
		h.renderFormWithError(w, r, http.StatusUnauthorized, invalidCredentials, email, ret)
		return
	}

	err := h.SessionMgr.SignIn(w, r, auth.SessionUser{
		ID:      h.Admin.Email,
		Name:    h.Admin.Name,
		LoginID: h.Admin.Email,
		Role:    "admin",
	})
	if err != nil {
		h.Log.Error("save session failed", zap.Error(err), zap.String("login_id", email))
		h.renderFormWithError(w, r, http.StatusInternalServerError, "Unable to create session. Please try again.", email, ret)
		return
	}

	if h.Limiter != nil {
		h.Limiter.ResetEmail(email)
	}
	h.AuditLog.LoginSuccess(ctx, r, h.Admin.Email)

	http.Redirect(w, r, urlutil.SafeReturn(ret, "", "/dashboard"), http.StatusSeeOther)
}

func (h *Handler) renderFormWithError(w http.ResponseWriter, r *http.Request, status int, msg, email, ret string) {
	w.WriteHeader(status)
	templates.Render(w, r, "login", loginFormData{
		BaseVM:    viewdata.NewBaseVM(r, "Sign in", "/"),
		ReturnURL: ret,
		Email:     email,
		Error:     msg,
	})
}
