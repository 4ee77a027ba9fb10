package main

import (
	"context"
	"fmt"

	"github.com/criclink/criclink/go/internal/dbconfig"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

func setupDatabase(ctx context.Context, migrate bool) (*pgxpool.Pool, error) {
	cfg, err := dbconfig.NewConfigFromEnv()
	if err != nil {
		return nil, err
	}

	pool, err := cfg.OpenPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := dbconfig.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	log.Info().
		Str("host", cfg.Host).
		Int("port", cfg.Port).
		Str("database", cfg.Database).
		Msg("connected to database")
	return pool, nil
}
