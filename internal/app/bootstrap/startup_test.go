package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"github.com/gorilla/csrf"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		Backend:             BackendMongo,
		MongoURI:            "mongodb://localhost:27017",
		MongoDatabase:       "folio_test",
		SessionKey:          strings.Repeat("k", 40),
		AdminEmail:          "admin@example.com",
		AdminPasswordHash:   "$2a$10$abcdefghijklmnopqrstuv",
		HistogramDateLayout: "01/02/2006",
		HistogramTimezone:   "UTC",
		AuditLogAuth:        "all",
		AuditLogAdmin:       "db",
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{name: "mongo ok", mutate: func(*AppConfig) {}},
		{name: "postgres ok", mutate: func(c *AppConfig) {
			c.Backend = BackendPostgres
			c.PostgresDSN = "postgres://folio@localhost/folio"
		}},
		{name: "unknown backend", mutate: func(c *AppConfig) { c.Backend = "sqlite" }, wantErr: "unknown backend"},
		{name: "bad mongo uri", mutate: func(c *AppConfig) { c.MongoURI = "localhost:27017" }, wantErr: "invalid MongoDB URI"},
		{name: "missing mongo database", mutate: func(c *AppConfig) { c.MongoDatabase = "" }, wantErr: "mongo_database"},
		{name: "missing postgres dsn", mutate: func(c *AppConfig) { c.Backend = BackendPostgres }, wantErr: "postgres_dsn"},
		{name: "bad timezone", mutate: func(c *AppConfig) { c.HistogramTimezone = "Mars/Olympus" }, wantErr: "histogram_timezone"},
		{name: "empty layout", mutate: func(c *AppConfig) { c.HistogramDateLayout = "" }, wantErr: "histogram_date_layout"},
		{name: "bad audit mode", mutate: func(c *AppConfig) { c.AuditLogAdmin = "sometimes" }, wantErr: "audit log mode"},
		{name: "short key allowed in dev", env: "dev", mutate: func(c *AppConfig) { c.SessionKey = "short" }},
		{name: "short key rejected in prod", env: "prod", mutate: func(c *AppConfig) { c.SessionKey = "short" }, wantErr: "session_key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			core := &config.CoreConfig{Env: tt.env}

			err := ValidateConfig(core, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCachePolicies_OverridesOnlyPositive(t *testing.T) {
	cfg := AppConfig{CacheStatsStale: time.Minute, CacheEvolutionStale: 0}

	p := cachePolicies(cfg)

	if p.Stats.StaleTime != time.Minute {
		t.Errorf("stats stale: got %v, want 1m", p.Stats.StaleTime)
	}
	if !p.Stats.RevalidateOnFocus {
		t.Error("stats should still revalidate on focus")
	}
	if p.Evolution.StaleTime != 10*time.Minute {
		t.Errorf("evolution stale: got %v, want default 10m", p.Evolution.StaleTime)
	}
}

func TestStatsOptions(t *testing.T) {
	if _, err := statsOptions(validConfig()); err != nil {
		t.Fatalf("statsOptions: %v", err)
	}

	cfg := validConfig()
	cfg.HistogramTimezone = "Nowhere/Special"
	if _, err := statsOptions(cfg); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestSchemaTables(t *testing.T) {
	tables := schemaTables()

	if len(tables) != len(models.Kinds)+1 {
		t.Fatalf("got %d tables, want %d", len(tables), len(models.Kinds)+1)
	}
	if tables[len(tables)-1] != audit.Table {
		t.Errorf("last table: got %q, want %q", tables[len(tables)-1], audit.Table)
	}
}

func TestCSRFMiddleware_IssuesToken(t *testing.T) {
	var token string
	h := csrfMiddleware(strings.Repeat("k", 40), false, testLogger())(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token = csrf.Token(r)
		}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if token == "" {
		t.Fatal("expected a csrf token on safe requests")
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected the csrf cookie to be set")
	}
}
