package migrations

import (
	"embed"
	"errors"
	"fmt"
	"github.com/bootcamp67/ms-transaction/pkg/log"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"strings"
)

//go:embed sql/*.sql
var migrationsFS embed.FS

// Run applies the embedded migrations to the database behind dsn.
// An up-to-date schema is not an error.
func Run(dsn string) error {
	logger := log.GetLogger()

	source, err := iofs.New(migrationsFS, "sql")
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL(dsn))
	if err != nil {
		return fmt.Errorf("create migration instance: %w", err)
	}
	defer m.Close()

	if err = m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info().Msg("No new migrations found")
			return nil
		}

		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return fmt.Errorf("migration failed: dirty database version %d", dirty.Version)
		}
		return fmt.Errorf("migration failed: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info().Uint("version", version).Msg("Migrations applied")
	return nil
}

// databaseURL switches a postgres:// DSN to the pgx5 driver scheme.
func databaseURL(dsn string) string {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if strings.HasPrefix(dsn, scheme) {
			return "pgx5://" + strings.TrimPrefix(dsn, scheme)
		}
	}
	return dsn
}
