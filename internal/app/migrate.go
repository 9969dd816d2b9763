package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/riskibarqy/cricbase/internal/config"
	"github.com/riskibarqy/cricbase/internal/platform/logging"
)

// Migrator applies the schema under db/migrations.
type Migrator struct {
	m      *migrate.Migrate
	source string
	logger *logging.Logger
}

func OpenMigrator(cfg config.Config, logger *logging.Logger) (*Migrator, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, fmt.Errorf("DB_URL is required")
	}
	dir, err := resolveMigrationsDir(cfg.MigrationsDir)
	if err != nil {
		return nil, err
	}

	source := "file://" + filepath.ToSlash(dir)
	m, err := migrate.New(source, normalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary))
	if err != nil {
		return nil, fmt.Errorf("create migrator: %w", err)
	}
	return &Migrator{m: m, source: source, logger: logger.Named("migrate")}, nil
}

func (m *Migrator) Up() error {
	if err := m.tolerateNoChange(m.m.Up()); err != nil {
		return fmt.Errorf("migrate up: %w", err)
	}
	m.logger.Info("migrations applied", "source", m.source)
	return nil
}

func (m *Migrator) Down(steps int) error {
	if steps <= 0 {
		return fmt.Errorf("down steps must be > 0")
	}
	if err := m.tolerateNoChange(m.m.Steps(-steps)); err != nil {
		return fmt.Errorf("migrate down %d: %w", steps, err)
	}
	m.logger.Info("migrations rolled back", "steps", steps)
	return nil
}

func (m *Migrator) Goto(version uint) error {
	if err := m.tolerateNoChange(m.m.Migrate(version)); err != nil {
		return fmt.Errorf("migrate to %d: %w", version, err)
	}
	m.logger.Info("migrated", "version", version)
	return nil
}

func (m *Migrator) Force(version int) error {
	if err := m.m.Force(version); err != nil {
		return fmt.Errorf("force version %d: %w", version, err)
	}
	m.logger.Warn("forced migration version", "version", version)
	return nil
}

type MigrationVersion struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
	None    bool `json:"none,omitempty"`
}

func (m *Migrator) Version() (MigrationVersion, error) {
	version, dirty, err := m.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return MigrationVersion{None: true}, nil
	}
	if err != nil {
		return MigrationVersion{}, fmt.Errorf("read version: %w", err)
	}
	return MigrationVersion{Version: version, Dirty: dirty}, nil
}

func (m *Migrator) Close() error {
	srcErr, dbErr := m.m.Close()
	if srcErr != nil {
		return fmt.Errorf("close migration source: %w", srcErr)
	}
	if dbErr != nil {
		return fmt.Errorf("close migration db: %w", dbErr)
	}
	return nil
}

func (m *Migrator) tolerateNoChange(err error) error {
	if errors.Is(err, migrate.ErrNoChange) {
		m.logger.Info("no migration changes")
		return nil
	}
	return err
}

// resolveMigrationsDir returns the first existing directory among the
// configured one and the usual checkout and container paths.
func resolveMigrationsDir(configured string) (string, error) {
	candidates := []string{
		strings.TrimSpace(configured),
		"./db/migrations",
		"/app/db/migrations",
	}
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		abs, err := filepath.Abs(candidate)
		if err != nil {
			continue
		}
		info, err := os.Stat(abs)
		if err != nil || !info.IsDir() {
			continue
		}
		return abs, nil
	}
	return "", fmt.Errorf("migration directory not found (checked MIGRATIONS_DIR, ./db/migrations, /app/db/migrations)")
}
