package db

import (
	"context"
	"fmt"

	"charlie-pos/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

func Init(cfg config.DBConfig) error {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s",
		cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database,
	)
	var err error
	Pool, err = pgxpool.New(context.Background(), connStr)
	if err != nil {
		return err
	}
	// pgxpool connects lazily; fail at startup rather than on the first order.
	if err := Pool.Ping(context.Background()); err != nil {
		Pool.Close()
		Pool = nil
		return fmt.Errorf("ping %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.Database, err)
	}
	return nil
}

func Close() {
	if Pool != nil {
		Pool.Close()
	}
}
