package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const connectTimeout = 10 * time.Second

// dsn carries the pragmas so they apply to every pooled connection.
func dsn(dbPath string) string {
	q := url.Values{}
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "busy_timeout(5000)")
	return "file:" + dbPath + "?" + q.Encode()
}

// Open opens the SQLite database holding the yield reference table. The first ping is retried
// while the file is locked by another process.
func Open(ctx context.Context, dbPath string, logger *zap.Logger) (*sql.DB, error) {
	const operation = "db.Open"

	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", dsn(dbPath))
	if err != nil {
		return nil, fmt.Errorf("%s: open sqlite database: %w", operation, err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.MaxElapsedTime = connectTimeout

	err = backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		backoff.WithContext(policy, ctx),
		func(err error, next time.Duration) {
			logger.Warn("sqlite ping failed, retrying",
				zap.String("path", dbPath),
				zap.Error(err),
				zap.Duration("next_attempt_in", next))
		},
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: ping sqlite database: %w", operation, err)
	}

	return db, nil
}
