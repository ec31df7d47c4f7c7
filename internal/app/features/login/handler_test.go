package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/folioadmin/internal/app/features/errors"
	"github.com/dalemusser/folioadmin/internal/app/features/login"
	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/app/system/auditlog"
	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"github.com/dalemusser/folioadmin/internal/app/system/authutil"
	"github.com/dalemusser/folioadmin/internal/app/system/ratelimit"
	"github.com/dalemusser/folioadmin/internal/testutil"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct-horse"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.FakeBackend) {
	t.Helper()
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-must-be-32-chars-long", "test-session", "", time.Hour, false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	hash, err := authutil.HashPassword(adminPassword)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	be := testutil.NewFakeBackend()
	h := login.NewHandler(
		login.Admin{Email: adminEmail, PasswordHash: hash},
		sessionMgr,
		ratelimit.NewLoginLimiterWithClock(clockwork.NewFakeClock()),
		auditlog.New(audit.New(be), logger, auditlog.Config{}),
		uierrors.NewErrorLogger(logger),
		logger,
	)
	return h, be
}

func post(h *login.Handler, form url.Values) *testutil.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := testutil.NewRecorder()
	testutil.ServeIgnoringRender(h.HandleLoginPost, rec, req)
	return rec
}

func TestHandleLoginPost_Success(t *testing.T) {
	h, be := newTestHandler(t)

	rec := post(h, url.Values{"email": {"Admin@Example.com"}, "password": {adminPassword}, "return": {"/sectors"}})

	rec.AssertRedirect(t, "/sectors")
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("expected a session cookie")
	}
	rows := be.Rows(audit.Table)
	if len(rows) != 1 || rows[0]["event_type"] != audit.EventLoginSuccess {
		t.Errorf("audit rows: %+v", rows)
	}
}

func TestHandleLoginPost_DefaultsToDashboard(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := post(h, url.Values{"email": {adminEmail}, "password": {adminPassword}, "return": {"https://evil.example"}})

	rec.AssertRedirect(t, "/dashboard")
}

func TestHandleLoginPost_Failures(t *testing.T) {
	tests := []struct {
		name      string
		form      url.Values
		status    int
		wantAudit string
	}{
		{"missing fields", url.Values{"email": {adminEmail}}, http.StatusBadRequest, ""},
		{"unknown email", url.Values{"email": {"who@example.com"}, "password": {adminPassword}}, http.StatusUnauthorized, audit.EventLoginFailedUnknownUser},
		{"wrong password", url.Values{"email": {adminEmail}, "password": {"nope-nope"}}, http.StatusUnauthorized, audit.EventLoginFailedWrongPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, be := newTestHandler(t)

			rec := post(h, tt.form)

			rec.AssertStatus(t, tt.status)
			if rec.Header().Get("Location") != "" {
				t.Error("failed login must not redirect")
			}
			rows := be.Rows(audit.Table)
			if tt.wantAudit == "" {
				if len(rows) != 0 {
					t.Errorf("unexpected audit rows: %+v", rows)
				}
				return
			}
			if len(rows) != 1 || rows[0]["event_type"] != tt.wantAudit {
				t.Errorf("audit rows: %+v", rows)
			}
		})
	}
}

func TestHandleLoginPost_RateLimited(t *testing.T) {
	h, _ := newTestHandler(t)
	form := url.Values{"email": {adminEmail}, "password": {"wrong-guess"}}

	for i := 0; i < 5; i++ {
		post(h, form)
	}
	rec := post(h, url.Values{"email": {adminEmail}, "password": {adminPassword}})

	rec.AssertStatus(t, http.StatusTooManyRequests)
}

func TestServeLogin_SignedInRedirects(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := testutil.NewRecorder()
	h.ServeLogin(rec, testutil.NewAuthenticatedRequest(http.MethodGet, "/login", testutil.AdminUser()))

	rec.AssertRedirect(t, "/dashboard")
}
