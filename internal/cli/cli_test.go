package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/dalemusser/folioadmin/internal/app/store/audit"
	"github.com/dalemusser/folioadmin/internal/app/system/authutil"
	"github.com/dalemusser/folioadmin/internal/testutil"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func withBackend(t *testing.T, be backend.Backend) {
	t.Helper()
	orig := openBackend
	openBackend = func(context.Context, connOptions, *zap.Logger) (backend.Backend, func() error, error) {
		return be, func() error { return nil }, nil
	}
	t.Cleanup(func() { openBackend = orig })
}

func TestVersion(t *testing.T) {
	out, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "folioctl v"+Version)
}

func TestStats_Table(t *testing.T) {
	be := testutil.NewFakeBackend()
	testutil.NewFixtures(t, be).CreateSector("web", "Web")
	withBackend(t, be)

	out, err := run(t, "", "stats")
	require.NoError(t, err)

	assert.Contains(t, out, "Sectors")
	assert.Contains(t, out, "Chatbot Knowledge")
	assert.Contains(t, out, "TOTAL")
}

func TestStats_JSON(t *testing.T) {
	be := testutil.NewFakeBackend()
	testutil.NewFixtures(t, be).CreateSector("web", "Web")
	withBackend(t, be)

	out, err := run(t, "", "stats", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"sectorsCount": 1`)
	assert.Contains(t, out, `"contactsCount": 0`)
}

func TestStats_BackendFailure(t *testing.T) {
	be := testutil.NewFakeBackend()
	be.Fail("count", "projects", errors.New("boom"))
	withBackend(t, be)

	_, err := run(t, "", "stats")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load counts")
}

func TestMigrate_RejectsMongo(t *testing.T) {
	_, err := run(t, "", "migrate", "--backend", "mongo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}

func TestMigrate_StatusSkipsMigrations(t *testing.T) {
	origRun, origVer := runMigrations, schemaVersion
	t.Cleanup(func() { runMigrations, schemaVersion = origRun, origVer })

	ran := false
	runMigrations = func(*sql.DB) error { ran = true; return nil }
	schemaVersion = func(*sql.DB) (int64, error) { return 2, nil }

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	require.NoError(t, migrate(cmd, nil, true))
	assert.False(t, ran)
	assert.Equal(t, "schema version: 2\n", out.String())

	out.Reset()
	require.NoError(t, migrate(cmd, nil, false))
	assert.True(t, ran)
}

func TestHashPassword(t *testing.T) {
	out, err := run(t, "", "hash-password", "correct horse battery")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, authutil.CheckPassword("correct horse battery", hash))
}

func TestHashPassword_FromStdin(t *testing.T) {
	out, err := run(t, "stdin-secret-42\n", "hash-password")
	require.NoError(t, err)
	assert.True(t, authutil.CheckPassword("stdin-secret-42", strings.TrimSpace(out)))
}

func TestHashPassword_RejectsShort(t *testing.T) {
	_, err := run(t, "", "hash-password", "abc")
	require.Error(t, err)
	assert.ErrorIs(t, err, authutil.ErrPasswordTooShort)
}

func TestSessionKey(t *testing.T) {
	out, err := run(t, "", "session-key")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(strings.TrimSpace(out)), 64)

	_, err = run(t, "", "session-key", "--bytes", "16")
	require.Error(t, err)
}

func TestAudit_ListsNewestFirst(t *testing.T) {
	be := testutil.NewFakeBackend()
	store := audit.New(be)
	ctx := context.Background()
	require.NoError(t, store.Log(ctx, audit.Event{
		Category: audit.CategoryAdmin, EventType: audit.EventSectorCreated,
		Actor: "admin@example.com", TargetID: "web", Success: true,
		CreatedAt: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}))
	require.NoError(t, store.Log(ctx, audit.Event{
		Category: audit.CategoryAdmin, EventType: audit.EventSectorDeleted,
		Actor: "admin@example.com", TargetID: "web", Success: false, FailureReason: "boom",
		CreatedAt: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
	}))
	withBackend(t, be)

	out, err := run(t, "", "audit")
	require.NoError(t, err)

	assert.Less(t, strings.Index(out, audit.EventSectorDeleted), strings.Index(out, audit.EventSectorCreated))
	assert.Contains(t, out, "boom")
}

func TestAudit_Empty(t *testing.T) {
	withBackend(t, testutil.NewFakeBackend())

	out, err := run(t, "", "audit")
	require.NoError(t, err)
	assert.Equal(t, "no audit events\n", out)
}
