package migrations

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

const sqliteDialect = "sqlite3"

// Up runs all pending SQL migrations found in migrationsDir.
func Up(ctx context.Context, db *sql.DB, migrationsDir string, logger *zap.Logger) error {
	const operation = "migrations.Up"

	if err := goose.SetDialect(sqliteDialect); err != nil {
		return fmt.Errorf("%s: set goose dialect: %w", operation, err)
	}

	if err := goose.UpContext(ctx, db, migrationsDir); err != nil {
		return fmt.Errorf("%s: run goose up migrations: %w", operation, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("%s: read schema version: %w", operation, err)
	}
	logger.Info("database migrations applied", zap.Int64("version", version))

	return nil
}
