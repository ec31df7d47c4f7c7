// internal/app/bootstrap/routes.go
package bootstrap

import (
	"crypto/sha256"
	"fmt"
	"net/http"
	"time"

	dashboardfeature "github.com/dalemusser/folioadmin/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/folioadmin/internal/app/features/errors"
	healthfeature "github.com/dalemusser/folioadmin/internal/app/features/health"
	homefeature "github.com/dalemusser/folioadmin/internal/app/features/home"
	loginfeature "github.com/dalemusser/folioadmin/internal/app/features/login"
	logoutfeature "github.com/dalemusser/folioadmin/internal/app/features/logout"
	sectorsfeature "github.com/dalemusser/folioadmin/internal/app/features/sectors"
	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	sectorstore "github.com/dalemusser/folioadmin/internal/app/store/sectors"
	statsstore "github.com/dalemusser/folioadmin/internal/app/store/stats"
	"github.com/dalemusser/folioadmin/internal/app/system/auditlog"
	"github.com/dalemusser/folioadmin/internal/app/system/auth"
	"github.com/dalemusser/folioadmin/internal/app/system/flash"
	"github.com/dalemusser/folioadmin/internal/app/system/querycache"
	"github.com/dalemusser/folioadmin/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Folio Admin initializes the template
// engine, applies session and CSRF middleware, and mounts the dashboard,
// the sector editor and the sign-in pages.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	statsOpts, err := statsOptions(appCfg)
	if err != nil {
		return nil, err
	}

	errLog := errorsfeature.NewErrorLogger(logger)
	flashes := flash.New(sessionMgr.Store(), logger)
	auditLog := auditlog.New(audit.New(deps.Backend), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	cache := deps.Cache
	if cache == nil {
		cache = querycache.New(logger.Named("querycache"))
	}
	queries := dashboardfeature.NewQueries(
		statsstore.New(deps.Backend, logger, statsOpts...),
		cache,
		cachePolicies(appCfg),
	)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if logged in.
	r.Use(sessionMgr.LoadSessionUser)
	r.Use(csrfMiddleware(appCfg.SessionKey, secure, logger))

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.Backend, appCfg.Backend, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	homeHandler := homefeature.NewHandler()
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(loginfeature.Admin{
		Email:        appCfg.AdminEmail,
		PasswordHash: appCfg.AdminPasswordHash,
		Name:         appCfg.AdminName,
	}, sessionMgr, ratelimit.NewLoginLimiter(), auditLog, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(sessionMgr, auditLog, logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler, sessionMgr))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)
	r.NotFound(errorsHandler.NotFound)

	dashboardHandler := dashboardfeature.NewHandler(queries, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

	// Sector edits change the dashboard counts.
	sectorsHandler := sectorsfeature.NewHandler(sectorstore.New(deps.Backend), flashes, errLog, auditLog, queries.InvalidateStats, logger)
	r.Mount("/sectors", sectorsfeature.Routes(sectorsHandler, sessionMgr))

	return r, nil
}

// statsOptions turns the histogram settings into statsstore options.
func statsOptions(appCfg AppConfig) ([]statsstore.Option, error) {
	loc, err := time.LoadLocation(appCfg.HistogramTimezone)
	if err != nil {
		return nil, fmt.Errorf("load histogram timezone: %w", err)
	}
	return []statsstore.Option{
		statsstore.WithDayLayout(appCfg.HistogramDateLayout),
		statsstore.WithLocation(loc),
	}, nil
}

// cachePolicies applies configured staleness windows on top of the
// dashboard defaults. Zero durations keep the default.
func cachePolicies(appCfg AppConfig) dashboardfeature.Policies {
	p := dashboardfeature.DefaultPolicies()
	set := func(dst *querycache.Policy, d time.Duration) {
		if d > 0 {
			dst.StaleTime = d
		}
	}
	set(&p.Stats, appCfg.CacheStatsStale)
	set(&p.RecentContacts, appCfg.CacheContactsStale)
	set(&p.RecentProjects, appCfg.CacheProjectsStale)
	set(&p.RecentBlogPosts, appCfg.CacheBlogPostsStale)
	set(&p.Evolution, appCfg.CacheEvolutionStale)
	return p
}

// csrfMiddleware protects every state-changing request. The token key is
// derived from the session key so one secret configures both.
func csrfMiddleware(sessionKey string, secure bool, logger *zap.Logger) func(http.Handler) http.Handler {
	key := sha256.Sum256([]byte("csrf:" + sessionKey))
	protect := csrf.Protect(key[:],
		csrf.Secure(secure),
		csrf.Path("/"),
		csrf.FieldName("csrf_token"),
		csrf.ErrorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("csrf check failed",
				zap.String("path", r.URL.Path),
				zap.Error(csrf.FailureReason(r)))
			errorsfeature.RenderForbidden(w, r, "Your session expired. Reload the page and try again.", "/")
		})),
	)
	if secure {
		return protect
	}
	return func(next http.Handler) http.Handler {
		h := protect(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.ServeHTTP(w, csrf.PlaintextHTTPRequest(r))
		})
	}
}
