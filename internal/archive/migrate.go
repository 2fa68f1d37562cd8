package archive

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrations embed.FS

// Supported drivers.
const (
	DriverNone     = "none"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Direction selects which way Migrate moves the schema.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// MigrateResult reports where the schema ended up.
type MigrateResult struct {
	Version  uint
	Dirty    bool
	NoChange bool
}

// Migrate applies the embedded migrations for driver to the database at
// target, a sqlite file path or a postgres DSN. steps > 0 moves at most
// that many versions.
//
// Postcondition: Returns the resulting version; NoChange is set when the
// schema was already where it was asked to be.
func Migrate(driver, target string, dir Direction, steps int, logger *zap.Logger) (MigrateResult, error) {
	url, err := databaseURL(driver, target)
	if err != nil {
		return MigrateResult{}, err
	}
	sub, err := fs.Sub(migrations, "migrations/"+driver)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("opening %s migrations: %w", driver, err)
	}
	src, err := iofs.New(sub, ".")
	if err != nil {
		return MigrateResult{}, fmt.Errorf("reading %s migrations: %w", driver, err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, url)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	switch {
	case dir == Up && steps > 0:
		err = m.Steps(steps)
	case dir == Up:
		err = m.Up()
	case dir == Down && steps > 0:
		err = m.Steps(-steps)
	case dir == Down:
		err = m.Down()
	default:
		return MigrateResult{}, fmt.Errorf("invalid direction %q: must be 'up' or 'down'", dir)
	}
	noChange := errors.Is(err, migrate.ErrNoChange)
	if err != nil && !noChange {
		return MigrateResult{}, fmt.Errorf("migrating %s: %w", dir, err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrateResult{}, fmt.Errorf("reading schema version: %w", err)
	}
	logger.Info("archive schema migrated",
		zap.String("driver", driver),
		zap.String("direction", string(dir)),
		zap.Uint("version", version),
		zap.Bool("dirty", dirty),
		zap.Bool("no_change", noChange),
	)
	return MigrateResult{Version: version, Dirty: dirty, NoChange: noChange}, nil
}

func databaseURL(driver, target string) (string, error) {
	switch driver {
	case DriverSQLite:
		return "sqlite://" + target, nil
	case DriverPostgres:
		// The pgx driver registers the pgx5 scheme.
		if rest, ok := cutScheme(target); ok {
			return "pgx5://" + rest, nil
		}
		return "", fmt.Errorf("postgres target %q is not a postgres:// DSN", target)
	default:
		return "", fmt.Errorf("no migrations for driver %q", driver)
	}
}

func cutScheme(dsn string) (string, bool) {
	for _, scheme := range []string{"postgres://", "postgresql://"} {
		if rest, ok := strings.CutPrefix(dsn, scheme); ok && rest != "" {
			return rest, true
		}
	}
	return "", false
}
