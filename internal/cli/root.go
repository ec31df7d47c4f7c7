// Package cli implements folioctl, the operator tool that sits next to the
// admin server: schema migrations, count snapshots and secret generation.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/dalemusser/folioadmin/internal/app/backend"
	"github.com/dalemusser/folioadmin/internal/app/backend/mongobackend"
	"github.com/dalemusser/folioadmin/internal/app/backend/pgbackend"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// connOptions selects and addresses the content backend. Defaults come
// from the same FOLIOADMIN_* variables the server reads.
type connOptions struct {
	backend       string
	mongoURI      string
	mongoDatabase string
	postgresDSN   string
	verbose       bool
}

// openBackend connects to the configured backend. It returns a close func
// that releases the connection. Tests replace it.
var openBackend = func(ctx context.Context, o connOptions, logger *zap.Logger) (backend.Backend, func() error, error) {
	switch o.backend {
	case "postgres":
		if o.postgresDSN == "" {
			return nil, nil, fmt.Errorf("--postgres-dsn is required for the postgres backend")
		}
		db, be, err := pgbackend.Connect(ctx, o.postgresDSN, logger)
		if err != nil {
			return nil, nil, err
		}
		return be, db.Close, nil
	case "mongo":
		client, be, err := mongobackend.Connect(ctx, mongobackend.Options{
			URI:      o.mongoURI,
			Database: o.mongoDatabase,
		}, logger)
		if err != nil {
			return nil, nil, err
		}
		return be, func() error { return client.Disconnect(context.Background()) }, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q (want mongo or postgres)", o.backend)
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &connOptions{}

	rootCmd := &cobra.Command{
		Use:   "folioctl",
		Short: "Operator tool for the Folio admin dashboard",
		Long: `folioctl works against the same content backend as the admin server.

It runs Postgres migrations, prints the dashboard count snapshot and
generates the secrets the server configuration needs.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&opts.backend, "backend", envOr("FOLIOADMIN_BACKEND", "mongo"), "Content backend: mongo or postgres")
	pf.StringVar(&opts.mongoURI, "mongo-uri", envOr("FOLIOADMIN_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	pf.StringVar(&opts.mongoDatabase, "mongo-database", envOr("FOLIOADMIN_MONGO_DATABASE", "folio"), "MongoDB database name")
	pf.StringVar(&opts.postgresDSN, "postgres-dsn", os.Getenv("FOLIOADMIN_POSTGRES_DSN"), "Postgres connection string")
	pf.BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	_ = rootCmd.RegisterFlagCompletionFunc("backend", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"mongo", "postgres"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newMigrateCommand(opts))
	rootCmd.AddCommand(newStatsCommand(opts))
	rootCmd.AddCommand(newAuditCommand(opts))
	rootCmd.AddCommand(newHashPasswordCommand())
	rootCmd.AddCommand(newSessionKeyCommand())

	return rootCmd
}

func (o connOptions) logger() *zap.Logger {
	if !o.verbose {
		return zap.NewNop()
	}
	l, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func envOr(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}
