// Package database provides database helper functions
package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/pkg/config"
)

// VerifyConnection runs a trivial query against an open connection
func VerifyConnection(ctx context.Context, db *DB, logger *logging.ChanneledLogger) error {
	start := time.Now()
	logger.Database().Debug("Testing database connection", "driverName", db.Driver)

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		logger.Database().Error("Connection test query failed", "error", err.Error(), "driverName", db.Driver)
		return fmt.Errorf("connection test query failed: %w", err)
	}

	if result != 1 {
		logger.Database().Error("Unexpected connection test result", "result", result, "expected", 1)
		return fmt.Errorf("unexpected query result: %d", result)
	}

	logger.Database().Info("Connection test successful", "driverName", db.Driver, "duration", time.Since(start))
	return nil
}

// GetSlowQueryThreshold returns the configured slow query threshold
func GetSlowQueryThreshold() time.Duration {
	return config.SlowQueryThreshold
}

// CheckAndLogSlowQuery checks if a query duration exceeds threshold
// and logs it using the slow query channel if it does
func CheckAndLogSlowQuery(logger *logging.ChanneledLogger, query string, duration time.Duration) {
	threshold := GetSlowQueryThreshold()

	// schema and connection setup are allowed to be slower
	if strings.HasPrefix(query, "SCHEMA_") || strings.HasPrefix(query, "DATABASE_") {
		threshold *= 5
	}

	if duration > threshold {
		logger.LogSlowQuery(query, duration)
	}
}
