// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minSessionKeyLen is the shortest session key accepted outside dev.
const minSessionKeyLen = 32

// appConfigKeys defines the configuration keys for Folio Admin.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: FOLIOADMIN_MONGO_URI, FOLIOADMIN_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "backend", Default: BackendMongo, Desc: "Content backend: 'mongo' or 'postgres'"},

	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "folio", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "postgres_dsn", Default: "", Desc: "Postgres connection string (required when backend is 'postgres')"},

	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "folioadmin-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "24h", Desc: "Sign-in cookie lifetime (e.g., 12h or 168h)"},

	{Name: "admin_email", Default: "", Desc: "Email of the administrator allowed to sign in"},
	{Name: "admin_password_hash", Default: "", Desc: "bcrypt hash of the administrator password"},
	{Name: "admin_name", Default: "Administrator", Desc: "Display name of the administrator"},

	{Name: "histogram_date_layout", Default: "01/02/2006", Desc: "Go time layout for evolution day keys"},
	{Name: "histogram_timezone", Default: "UTC", Desc: "Time zone used to bucket records into days"},

	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "cache_stats_stale", Default: "5m", Desc: "Staleness window for dashboard counts"},
	{Name: "cache_contacts_stale", Default: "2m", Desc: "Staleness window for recent contacts"},
	{Name: "cache_projects_stale", Default: "5m", Desc: "Staleness window for recent projects"},
	{Name: "cache_blog_posts_stale", Default: "5m", Desc: "Staleness window for recent blog posts"},
	{Name: "cache_evolution_stale", Default: "10m", Desc: "Staleness window for the evolution histogram"},
	{Name: "cache_prune_interval", Default: "10m", Desc: "How often unused cache entries are dropped"},
	{Name: "cache_prune_max_age", Default: "1h", Desc: "Age after which an unused cache entry is dropped"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, FOLIOADMIN_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "FOLIOADMIN", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		Backend: appValues.String("backend"),

		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		PostgresDSN: appValues.String("postgres_dsn"),

		SessionKey:    appValues.String("session_key"),
		SessionName:   appValues.String("session_name"),
		SessionDomain: appValues.String("session_domain"),
		SessionMaxAge: appValues.Duration("session_max_age", 24*time.Hour),

		AdminEmail:        appValues.String("admin_email"),
		AdminPasswordHash: appValues.String("admin_password_hash"),
		AdminName:         appValues.String("admin_name"),

		HistogramDateLayout: appValues.String("histogram_date_layout"),
		HistogramTimezone:   appValues.String("histogram_timezone"),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		CacheStatsStale:     appValues.Duration("cache_stats_stale", 5*time.Minute),
		CacheContactsStale:  appValues.Duration("cache_contacts_stale", 2*time.Minute),
		CacheProjectsStale:  appValues.Duration("cache_projects_stale", 5*time.Minute),
		CacheBlogPostsStale: appValues.Duration("cache_blog_posts_stale", 5*time.Minute),
		CacheEvolutionStale: appValues.Duration("cache_evolution_stale", 10*time.Minute),
		CachePruneInterval:  appValues.Duration("cache_prune_interval", 10*time.Minute),
		CachePruneMaxAge:    appValues.Duration("cache_prune_max_age", time.Hour),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Connection strings are checked here so a typo fails fast instead of
// surfacing as a dial timeout.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	switch appCfg.Backend {
	case BackendMongo:
		if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
			logger.Error("invalid MongoDB URI", zap.Error(err))
			return fmt.Errorf("invalid MongoDB URI: %w", err)
		}
		if appCfg.MongoDatabase == "" {
			return fmt.Errorf("mongo_database is required when backend is %q", BackendMongo)
		}
	case BackendPostgres:
		if appCfg.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required when backend is %q", BackendPostgres)
		}
	default:
		return fmt.Errorf("unknown backend %q (want %q or %q)", appCfg.Backend, BackendMongo, BackendPostgres)
	}

	if _, err := time.LoadLocation(appCfg.HistogramTimezone); err != nil {
		return fmt.Errorf("invalid histogram_timezone %q: %w", appCfg.HistogramTimezone, err)
	}
	if appCfg.HistogramDateLayout == "" {
		return fmt.Errorf("histogram_date_layout must not be empty")
	}

	if len(appCfg.SessionKey) < minSessionKeyLen {
		if coreCfg != nil && coreCfg.Env == "prod" {
			return fmt.Errorf("session_key must be at least %d characters in production", minSessionKeyLen)
		}
		logger.Warn("session key is short; 32+ chars recommended",
			zap.Int("length", len(appCfg.SessionKey)))
	}

	if appCfg.AdminEmail == "" || appCfg.AdminPasswordHash == "" {
		logger.Warn("admin_email or admin_password_hash is not set; nobody will be able to sign in")
	}

	for _, v := range []string{appCfg.AuditLogAuth, appCfg.AuditLogAdmin} {
		switch v {
		case "all", "db", "log", "off":
		default:
			return fmt.Errorf("invalid audit log mode %q (want all, db, log or off)", v)
		}
	}

	return nil
}
