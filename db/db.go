package db

import (
	"context"

	"campus-canteen/config"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
)

var Pool *pgxpool.Pool

func Init(ctx context.Context, cfg config.DBConfig) error {
	pool, err := pgxpool.New(ctx, cfg.URL())
	if err != nil {
		return errors.Wrap(err, "open postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return errors.Wrapf(err, "ping postgres at %s:%d", cfg.Host, cfg.Port)
	}
	Pool = pool
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
