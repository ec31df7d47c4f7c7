package auth_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const testKey = "test-session-key-must-be-32-chars-long"

func newManager(t *testing.T, secure bool) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(testKey, "", "", 24*time.Hour, secure, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

// adminChain is the middleware stack mounted in front of /dashboard and /sectors.
func adminChain(sm *auth.SessionManager) (http.Handler, *bool) {
	reached := new(bool)
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*reached = true
		w.WriteHeader(http.StatusOK)
	})
	return sm.LoadSessionUser(sm.RequireRole("admin")(inner)), reached
}

// signIn runs SignIn and returns the cookies it set.
func signIn(t *testing.T, sm *auth.SessionManager, u auth.SessionUser) []*http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	if err := sm.SignIn(rec, httptest.NewRequest(http.MethodPost, "/login", nil), u); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("SignIn set no cookie")
	}
	return cookies
}

func withCookies(r *http.Request, cookies []*http.Cookie) *http.Request {
	for _, c := range cookies {
		r.AddCookie(c)
	}
	return r
}

var admin = auth.SessionUser{
	ID:      "admin@example.com",
	Name:    "Administrator",
	LoginID: "admin@example.com",
	Role:    "admin",
}

func TestSignedInAdminReachesDashboard(t *testing.T) {
	sm := newManager(t, false)
	cookies := signIn(t, sm, admin)

	var got *auth.SessionUser
	h := sm.LoadSessionUser(sm.RequireRole("admin")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.CurrentUser(r)
	})))
	h.ServeHTTP(httptest.NewRecorder(), withCookies(httptest.NewRequest(http.MethodGet, "/dashboard", nil), cookies))

	if got == nil {
		t.Fatal("admin was not loaded from the session cookie")
	}
	if *got != admin {
		t.Errorf("loaded user = %+v, want %+v", *got, admin)
	}
}

func TestAnonymousRequestIsSentToLogin(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		status   int
		header   string
		location string
	}{
		{"page", map[string]string{"Accept": "text/html"}, http.StatusSeeOther, "Location", "/login?return=%2Fsectors%3Fq%3D1"},
		{"htmx", map[string]string{"HX-Request": "true"}, http.StatusUnauthorized, "HX-Redirect", "/login?return=%2Fsectors%3Fq%3D1"},
		{"json", map[string]string{"Accept": "application/json"}, http.StatusUnauthorized, "", ""},
	}

	sm := newManager(t, false)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, reached := adminChain(sm)
			req := httptest.NewRequest(http.MethodGet, "/sectors?q=1", nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if *reached {
				t.Fatal("handler ran without a session")
			}
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.header != "" && rec.Header().Get(tc.header) != tc.location {
				t.Errorf("%s = %q, want %q", tc.header, rec.Header().Get(tc.header), tc.location)
			}
		})
	}
}

func TestSessionWithoutAdminRoleIsForbidden(t *testing.T) {
	sm := newManager(t, false)
	noRole := admin
	noRole.Role = ""
	cookies := signIn(t, sm, noRole)

	tests := []struct {
		name    string
		headers map[string]string
		status  int
	}{
		{"page", map[string]string{"Accept": "text/html"}, http.StatusSeeOther},
		{"htmx", map[string]string{"HX-Request": "true"}, http.StatusForbidden},
		{"json", map[string]string{"Accept": "application/json"}, http.StatusForbidden},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h, reached := adminChain(sm)
			req := withCookies(httptest.NewRequest(http.MethodGet, "/dashboard", nil), cookies)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if *reached {
				t.Fatal("handler ran for a session without the admin role")
			}
			if rec.Code != tc.status {
				t.Errorf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.name == "page" && rec.Header().Get("Location") != "/forbidden" {
				t.Errorf("Location = %q, want /forbidden", rec.Header().Get("Location"))
			}
			if tc.name == "htmx" && rec.Header().Get("HX-Redirect") != "/forbidden" {
				t.Errorf("HX-Redirect = %q, want /forbidden", rec.Header().Get("HX-Redirect"))
			}
		})
	}
}

func TestRequireRole_IgnoresCase(t *testing.T) {
	sm := newManager(t, false)
	upper := admin
	upper.Role = "ADMIN"

	h, reached := adminChain(sm)
	h.ServeHTTP(httptest.NewRecorder(), withCookies(httptest.NewRequest(http.MethodGet, "/dashboard", nil), signIn(t, sm, upper)))
	if !*reached {
		t.Error("role match should ignore case")
	}
}

func TestSignOutEndsSession(t *testing.T) {
	sm := newManager(t, false)
	cookies := signIn(t, sm, admin)

	rec := httptest.NewRecorder()
	if err := sm.SignOut(rec, withCookies(httptest.NewRequest(http.MethodPost, "/logout", nil), cookies)); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	cleared := rec.Result().Cookies()
	if len(cleared) == 0 || cleared[0].MaxAge >= 0 {
		t.Fatalf("SignOut should expire the cookie, got %+v", cleared)
	}

	h, reached := adminChain(sm)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard", nil), cleared))
	if *reached {
		t.Error("signed-out cookie still reached the dashboard")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestForgedCookieIsAnonymous(t *testing.T) {
	sm := newManager(t, false)
	cookies := signIn(t, sm, admin)

	other, err := auth.NewSessionManager(strings.Repeat("k", 40), "", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}

	h, reached := adminChain(other)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withCookies(httptest.NewRequest(http.MethodGet, "/dashboard", nil), cookies))
	if *reached {
		t.Error("cookie signed with another key was accepted")
	}
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestCookieOptions(t *testing.T) {
	tests := []struct {
		name     string
		secure   bool
		sameSite http.SameSite
	}{
		{"dev", false, http.SameSiteLaxMode},
		{"prod", true, http.SameSiteNoneMode},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sm := newManager(t, tc.secure)
			c := signIn(t, sm, admin)[0]

			if c.Name != "folioadmin-session" {
				t.Errorf("cookie name = %q", c.Name)
			}
			if !c.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
			if c.Secure != tc.secure {
				t.Errorf("Secure = %v, want %v", c.Secure, tc.secure)
			}
			if c.SameSite != tc.sameSite {
				t.Errorf("SameSite = %v, want %v", c.SameSite, tc.sameSite)
			}
			if c.MaxAge != int((24 * time.Hour).Seconds()) {
				t.Errorf("MaxAge = %d", c.MaxAge)
			}
		})
	}
}

func TestNewSessionManager_Keys(t *testing.T) {
	if _, err := auth.NewSessionManager("", "s", "", time.Hour, false, zap.NewNop()); err == nil {
		t.Error("expected error for empty session key")
	}

	core, logs := observer.New(zapcore.WarnLevel)
	if _, err := auth.NewSessionManager("short", "s", "", time.Hour, false, zap.New(core)); err != nil {
		t.Fatalf("short key should only warn: %v", err)
	}
	if logs.FilterMessage("session key is short; 32+ chars recommended").Len() != 1 {
		t.Error("expected a short-key warning")
	}
}
