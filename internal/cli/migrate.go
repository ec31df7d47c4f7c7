package cli

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dalemusser/folioadmin/internal/app/backend/pgbackend"
	"github.com/dalemusser/folioadmin/internal/app/system/timeouts"
	"github.com/spf13/cobra"
)

// Migration entry points; tests replace them.
var (
	runMigrations = pgbackend.Migrate
	schemaVersion = pgbackend.Version
)

func newMigrateCommand(opts *connOptions) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending Postgres migrations",
		Long: `Apply every pending schema migration to the Postgres backend.
The Mongo backend has no migrations; the server creates its indexes on start.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.backend != "postgres" {
				return fmt.Errorf("migrate only applies to the postgres backend (got %q)", opts.backend)
			}
			if opts.postgresDSN == "" {
				return fmt.Errorf("--postgres-dsn is required")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeouts.Long())
			defer cancel()

			db, _, err := pgbackend.Connect(ctx, opts.postgresDSN, opts.logger())
			if err != nil {
				return err
			}
			defer db.Close()

			return migrate(cmd, db, statusOnly)
		},
	}

	cmd.Flags().BoolVar(&statusOnly, "status", false, "Print the current schema version without migrating")
	return cmd
}

func migrate(cmd *cobra.Command, db *sql.DB, statusOnly bool) error {
	if !statusOnly {
		if err := runMigrations(db); err != nil {
			return err
		}
	}
	v, err := schemaVersion(db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "schema version: %d\n", v)
	return nil
}
