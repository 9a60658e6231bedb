package db_client

import (
	"context"
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/config"
	"github.com/bootcamp67/ms-transaction/pkg/postgresql"
	decimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGClient struct {
	cfg config.PostgreSQL
}

func NewPGClient(cfg config.PostgreSQL) *PGClient {
	return &PGClient{cfg: cfg}
}

// Connect connects to the database and returns a pgxpool.Pool.
func (c *PGClient) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	pgxConfig, err := pgxpool.ParseConfig(c.cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("pgxpool.ParseConfig: %w", err)
	}

	// NUMERIC <-> decimal.Decimal
	pgxConfig.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		decimal.Register(conn.TypeMap())
		return nil
	}

	maxAttempts, err := c.cfg.Attempts()
	if err != nil {
		return nil, err
	}

	db, err := postgresql.NewClient(ctx, pgxConfig, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("postgresql.NewClient: %w", err)
	}

	return db, nil
}
