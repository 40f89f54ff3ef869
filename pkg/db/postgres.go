// Initialization of the PostgreSQL pool holding recap, travel and world tables.

package db

import (
	"Waitingway/pkg/log"
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

// PgxIface is the subset of pgxpool.Pool used by repositories.
// pgxmock.PgxPoolIface satisfies it as well, which keeps repositories testable.
type PgxIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
}

// Returns a new pgx pool connected to databaseURL.
func NewPostgresPool(ctx context.Context, logger log.Logger, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, errors.Wrap(err, "parsing DATABASE_URL")
	}
	config.MaxConns = 16
	config.HealthCheckPeriod = 30 * time.Second
	config.ConnConfig.ConnectTimeout = 5 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, errors.Wrap(err, "creating postgres pool")
	}

	// Ping with timeout to avoid hanging on slow connections
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pinging postgres")
	}
	logger.Info().Str("host", config.ConnConfig.Host).Str("database", config.ConnConfig.Database).Msg("Connection to Postgres Successful")
	return pool, nil
}
