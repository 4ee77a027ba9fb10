package dbconfig

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/tern/v2/migrate"
	"github.com/rs/zerolog/log"
)

// VersionTable records the applied schema version.
const VersionTable = "schema_version"

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migrate brings the database up to the latest embedded migration. tern holds an
// advisory lock for the duration so concurrent migrators are serialized.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire migration connection: %w", err)
	}
	defer conn.Release()

	m, err := migrate.NewMigrator(ctx, conn.Conn(), VersionTable)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	sub, err := fs.Sub(migrationFiles, "migrations")
	if err != nil {
		return err
	}
	if err := m.LoadMigrations(sub); err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	m.OnStart = func(sequence int32, name, direction, _ string) {
		log.Info().Int32("sequence", sequence).Str("migration", name).Str("direction", direction).Msg("applying migration")
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	version, err := m.GetCurrentVersion(ctx)
	if err != nil {
		return err
	}
	log.Info().Int32("version", version).Int("available", len(m.Migrations)).Msg("schema up to date")
	return nil
}

// Migrations lists the embedded migration file names in apply order.
func Migrations() ([]string, error) {
	return fs.Glob(migrationFiles, "migrations/*.sql")
}
