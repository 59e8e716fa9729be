package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Direction selects which way RunMigrations moves the schema.
type Direction string

const (
	MigrateUp   Direction = "up"
	MigrateDown Direction = "down"
)

func newMigrator(config Config) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, config.URL("pgx5"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialise migrator: %w", err)
	}
	return m, nil
}

// RunMigrations applies (or reverts) the embedded SQL migrations.
func RunMigrations(config Config, direction Direction, log logrus.FieldLogger) error {
	m, err := newMigrator(config)
	if err != nil {
		return err
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			log.WithFields(logrus.Fields{"source": srcErr, "database": dbErr}).Warn("failed to close migrator")
		}
	}()

	switch direction {
	case MigrateUp, "":
		err = m.Up()
	case MigrateDown:
		err = m.Down()
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
	if errors.Is(err, migrate.ErrNoChange) {
		log.Info("database schema already up to date")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations %s: %w", direction, err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read migration version: %w", verr)
	}
	log.WithFields(logrus.Fields{"version": version, "dirty": dirty, "direction": direction}).Info("migrations applied")
	return nil
}
