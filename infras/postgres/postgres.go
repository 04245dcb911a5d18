package postgres

//nolint:revive
import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"rental/config"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

const (
	driverName = "postgres"

	roleRead  = "read"
	roleWrite = "write"
)

var ErrUnavailable = errors.New("postgres is unavailable")

// Connection splits reads from writes. Either side may be nil when every connect attempt failed.
type Connection struct {
	Read  *sqlx.DB
	Write *sqlx.DB
}

func New(cfg *config.Config) *Connection {
	pg := cfg.DB.Postgres

	return &Connection{
		Read:  connect(roleRead, DSN(pg.Read, pg.Prefix, nil), cfg),
		Write: connect(roleWrite, DSN(pg.Write, pg.Prefix, nil), cfg),
	}
}

// DSN renders an endpoint as a postgres URL. The endpoint timezone becomes the session TimeZone
// and extra is appended to the query string.
func DSN(endpoint config.PostgresEndpoint, prefix string, extra url.Values) string {
	query := url.Values{}

	if endpoint.SSLMode != "" {
		query.Set("sslmode", endpoint.SSLMode)
	}

	if endpoint.Timezone != "" {
		query.Set("timezone", endpoint.Timezone)
	}

	for key, values := range extra {
		for _, value := range values {
			query.Add(key, value)
		}
	}

	dsn := url.URL{
		Scheme:   driverName,
		User:     url.UserPassword(endpoint.Username, endpoint.Password),
		Host:     net.JoinHostPort(endpoint.Host, endpoint.Port),
		Path:     "/" + prefix + endpoint.Name,
		RawQuery: query.Encode(),
	}

	return dsn.String()
}

// Ping checks both sides of the connection.
func (c *Connection) Ping(ctx context.Context) error {
	for role, db := range map[string]*sqlx.DB{roleRead: c.Read, roleWrite: c.Write} {
		if db == nil {
			return fmt.Errorf("%s: %w", role, ErrUnavailable)
		}

		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("%s: %w", role, err)
		}
	}

	return nil
}

func (c *Connection) Close() error {
	var errs []error

	for _, db := range []*sqlx.DB{c.Read, c.Write} {
		if db != nil {
			errs = append(errs, db.Close())
		}
	}

	return errors.Join(errs...)
}

func connect(role, dsn string, cfg *config.Config) *sqlx.DB {
	pg := cfg.DB.Postgres
	logger := log.With().Str("role", role).Logger()

	for attempt := 1; attempt <= max(pg.MaxRetry, 1); attempt++ {
		db, err := sqlx.Connect(driverName, dsn)
		if err == nil {
			db.SetMaxOpenConns(pg.MaxOpenConns)
			db.SetMaxIdleConns(pg.MaxIdleConns)

			logger.Info().Int("attempt", attempt).Msg("Connected to database")

			return db
		}

		logger.Error().Err(err).Int("attempt", attempt).Msg("Failed connecting to database, retrying")

		time.Sleep(time.Duration(pg.RetryWaitTime) * time.Second)
	}

	return nil
}
