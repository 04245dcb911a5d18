package helper

//nolint:revive
import (
	"errors"
	"fmt"
	"net/url"
	"rental/config"
	"rental/infras/postgres"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/rs/zerolog/log"
)

const (
	ActionUp     = "up"
	ActionDown   = "down"
	ActionStepUp = "step-up"
	ActionDrop   = "drop"

	migrationSource = "file://migrations/postgres"
)

var ErrUnknownAction = errors.New("unknown migration action")

func getConnection(config *config.Config) (*migrate.Migrate, error) {
	pg := config.DB.Postgres

	var options url.Values
	if pg.MigrationTable != "" {
		options = url.Values{"x-migrations-table": {pg.MigrationTable}}
	}

	connectionString := postgres.DSN(pg.Write, pg.Prefix, options)

	mig, err := migrate.New(migrationSource, connectionString)
	if err != nil {
		return nil, fmt.Errorf("error creating migrate instance: %w", err)
	}

	return mig, nil
}

// Runner applies one migration action against the write database. The bookings migration
// installs btree_gist, so the migrating role needs CREATE on the database.
func Runner(config *config.Config, action string) error {
	run, ok := map[string]func(*migrate.Migrate) error{
		ActionUp:     func(mig *migrate.Migrate) error { return mig.Up() },
		ActionDown:   func(mig *migrate.Migrate) error { return mig.Steps(-1) },
		ActionStepUp: func(mig *migrate.Migrate) error { return mig.Steps(1) },
		ActionDrop:   func(mig *migrate.Migrate) error { return mig.Down() },
	}[action]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}

	mig, err := getConnection(config)
	if err != nil {
		return err
	}

	defer mig.Close()

	if err := run(mig); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error running %s migration: %w", action, err)
	}

	version, dirty, err := mig.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("error reading migration version: %w", err)
	}

	log.Info().Str("action", action).Uint("version", version).Bool("dirty", dirty).Msg("Database migration finished")

	return nil
}

func Up(config *config.Config) error {
	return Runner(config, ActionUp)
}

func StepUp(config *config.Config) error {
	return Runner(config, ActionStepUp)
}

func Down(config *config.Config) error {
	return Runner(config, ActionDown)
}

func Drop(config *config.Config) error {
	return Runner(config, ActionDrop)
}
