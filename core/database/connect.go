package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/m3rciful/gatekeeper/core/logger"
)

const (
	// readyTimeout covers a database container that is still starting.
	readyTimeout  = 30 * time.Second
	readyInterval = 2 * time.Second
	idleTimeout   = 5 * time.Minute
)

// Connect opens the journal database, waiting up to readyTimeout for it to
// accept connections, and sizes the pool from cfg.
func Connect(cfg Config) (*sqlx.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), readyTimeout)
	defer cancel()
	return connect(ctx, cfg, readyInterval)
}

func connect(ctx context.Context, cfg Config, interval time.Duration) (*sqlx.DB, error) {
	target := []any{
		slog.String("host", cfg.Host),
		slog.String("port", cfg.Port),
		slog.String("db", cfg.Name),
	}
	start := time.Now()
	attempts := 0
	for {
		attempts++
		db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
		if err == nil {
			db.SetMaxOpenConns(cfg.MaxConnections)
			db.SetMaxIdleConns(cfg.MaxConnections)
			db.SetConnMaxIdleTime(idleTimeout)
			logger.DB.Info("", append(target,
				slog.String("event", "db.connect"),
				slog.String("status", "ok"),
				slog.Int("attempts", attempts),
				slog.Int("pool_open", cfg.MaxConnections),
				slog.Duration("duration", time.Since(start)),
			)...)
			return db, nil
		}

		logger.DB.Debug("", append(target,
			slog.String("event", "db.wait"),
			slog.Int("attempts", attempts),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)...)
		select {
		case <-ctx.Done():
			logger.DB.Error("", append(target,
				slog.String("event", "db.connect"),
				slog.String("status", "fail"),
				slog.Int("attempts", attempts),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)...)
			return nil, fmt.Errorf("db connect after %d attempts: %w", attempts, err)
		case <-time.After(interval):
		}
	}
}
