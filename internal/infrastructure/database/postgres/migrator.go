package postgres

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/structflo/structflo-ner/internal/infrastructure/monitoring/logging"
	apperrors "github.com/structflo/structflo-ner/pkg/errors"
)

// Migrator applies SQL migrations from a file source against a Connection.
type Migrator struct {
	conn   *Connection
	dir    string
	logger logging.Logger
}

// NewMigrator builds a migrator reading .sql files from dir.
func NewMigrator(conn *Connection, dir string, log logging.Logger) *Migrator {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Migrator{conn: conn, dir: dir, logger: log.Named("migrator")}
}

// Up applies all pending migrations.  A schema already at the latest version
// is not an error.
func (m *Migrator) Up() error {
	inst, err := m.instance()
	if err != nil {
		return err
	}

	if err := inst.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		version, _, _ := inst.Version()
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError,
			fmt.Sprintf("failed to run migrations (current version: %d)", version))
	}

	version, dirty, err := inst.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		m.logger.Warn("failed to read migration version", logging.Err(err))
	}
	m.logger.Info("migrations applied",
		logging.Int64("version", int64(version)),
		logging.Bool("dirty", dirty),
	)
	return nil
}

// Down rolls back a single migration step.
func (m *Migrator) Down() error {
	inst, err := m.instance()
	if err != nil {
		return err
	}
	if err := inst.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to roll back migration")
	}
	return nil
}

func (m *Migrator) instance() (*migrate.Migrate, error) {
	driver, err := migratepg.WithInstance(m.conn.DB(), &migratepg.Config{})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migration driver")
	}
	inst, err := migrate.NewWithDatabaseInstance("file://"+m.dir, "postgres", driver)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to create migrate instance")
	}
	return inst, nil
}
