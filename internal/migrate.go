package internal

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// Schema for customers, subscriptions, the credit ledger, billing events,
// the plan catalog and the jobs queue.
//
//go:embed migrations/*.sql
var migrations embed.FS

// RunMigrations applies pending migrations and logs each one applied.
func RunMigrations(ctx context.Context, db *sql.DB, logger *slog.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	for _, res := range results {
		logger.Info("Migration applied",
			"version", res.Source.Version,
			"file", res.Source.Path,
			"duration", res.Duration)
	}
	return nil
}
