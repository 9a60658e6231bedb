package postgresql

import (
	"context"
	"github.com/bootcamp67/ms-transaction/pkg/util/repeat"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"time"
)

const ClientTimeout = 5 * time.Second

type Client interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NewClient opens a pool and pings it, retrying up to maxConnAttempts times.
func NewClient(ctx context.Context, cfg *pgxpool.Config, maxConnAttempts int) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := repeat.RepeatContext(ctx, func() error {
		attemptCtx, cancel := context.WithTimeout(ctx, ClientTimeout)
		defer cancel()

		p, err := pgxpool.NewWithConfig(attemptCtx, cfg)
		if err != nil {
			return err
		}

		if err = p.Ping(attemptCtx); err != nil {
			p.Close()
			return err
		}

		pool = p
		return nil
	}, maxConnAttempts, ClientTimeout)

	if err != nil {
		return nil, err
	}

	return pool, nil
}
