package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eapache/go-resiliency/retrier"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Connect opens a PostgreSQL pool and waits until the server answers.
func Connect(ctx context.Context, dsn string, retries int, backoff time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: failed to open database connection: %w", err)
	}
	if err := PingWithRetry(ctx, db, retries, backoff); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// PingWithRetry pings db up to retries+1 times, waiting backoff between attempts.
func PingWithRetry(ctx context.Context, db *sql.DB, retries int, backoff time.Duration) error {
	attempt := 0
	r := retrier.New(retrier.ConstantBackoff(retries, backoff), nil)

	err := r.RunCtx(ctx, func(ctx context.Context) error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			zap.L().Warn("Database not reachable yet", zap.Int("attempt", attempt), zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store: failed to ping database after %d attempts: %w", attempt, err)
	}
	return nil
}
