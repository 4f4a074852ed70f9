package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"theaterops/theater-api/internal/logutil"
)

// WaitForDB pings the database at dsn until it answers or timeout elapses.
func WaitForDB(ctx context.Context, dsn string, timeout, interval time.Duration) error {
	if dsn == "" {
		return fmt.Errorf("database url is required")
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := logutil.GetOrDefault(ctx)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	defer db.Close()

	deadline := time.Now().Add(timeout)
	for {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := db.PingContext(pingCtx)
		cancel()
		if err == nil {
			logger.Info().Msg("postgres ready")
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("postgres not ready within %s: %w", timeout, err)
		}
		logger.Debug().Err(err).Msg("postgres not ready yet")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
