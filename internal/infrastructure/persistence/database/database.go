// Package database provides the core functionality for creating and managing
// database connections in a clean, isolated manner.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/pkg/config"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
)

// Supported driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverLibSQL   = "libsql"
	DriverPostgres = "postgres"
)

// DB represents a wrapper around the standard SQL database connection that
// knows the placeholder style of its driver.
type DB struct {
	*sql.DB
	Driver string
}

// Options configure a new connection.
type Options struct {
	Driver          string
	DSN             string
	AuthToken       string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// OptionsFromConfig builds connection options from the loaded configuration.
func OptionsFromConfig() Options {
	return Options{
		Driver:          config.DBDriver,
		DSN:             config.DBURL,
		AuthToken:       config.DBAuthToken,
		MaxOpenConns:    config.DBMaxOpenConns,
		MaxIdleConns:    config.DBMaxIdleConns,
		ConnMaxLifetime: time.Duration(config.DBConnMaxLifetimeMinutes) * time.Minute,
	}
}

// NewConnection establishes a new database connection for the specified driver.
func NewConnection(driverName, dataSourceName string) (*DB, error) {
	return open(context.Background(), Options{Driver: driverName, DSN: dataSourceName})
}

// NewConnectionWithLogger establishes a new database connection with logging.
func NewConnectionWithLogger(ctx context.Context, opts Options, logger *logging.ChanneledLogger) (*DB, error) {
	start := time.Now()
	logger.Database().Debug("Creating new database connection", "driverName", opts.Driver)

	db, err := open(ctx, opts)
	if err != nil {
		logger.Database().Error("Failed to open database connection", "error", err.Error(), "driverName", opts.Driver)
		return nil, err
	}

	duration := time.Since(start)
	logger.Database().Info("Database connection established", "driverName", opts.Driver, "duration", duration)
	CheckAndLogSlowQuery(logger, "DATABASE_CONNECTION", duration)

	return db, nil
}

func open(ctx context.Context, opts Options) (*DB, error) {
	dsn, err := dataSourceName(opts)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open(opts.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", opts.Driver, err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	if err = sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", opts.Driver, err)
	}

	return &DB{DB: sqlDB, Driver: opts.Driver}, nil
}

// dataSourceName appends the libsql auth token as the authToken query
// parameter, which is how the libsql client expects it.
func dataSourceName(opts Options) (string, error) {
	switch opts.Driver {
	case DriverSQLite, DriverPostgres:
		return opts.DSN, nil
	case DriverLibSQL:
		if opts.AuthToken == "" {
			return opts.DSN, nil
		}
		u, err := url.Parse(opts.DSN)
		if err != nil {
			return "", fmt.Errorf("invalid libsql url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", opts.AuthToken)
		u.RawQuery = q.Encode()
		return u.String(), nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", opts.Driver)
	}
}

// Wrap adapts an existing *sql.DB, e.g. one created by sqlmock.
func Wrap(db *sql.DB, driver string) *DB {
	return &DB{DB: db, Driver: driver}
}

// Rebind rewrites '?' placeholders into the driver's bind style.
func (db *DB) Rebind(query string) string {
	return Rebind(db.Driver, query)
}

// Rebind rewrites '?' placeholders into '$n' for postgres and leaves the query
// untouched for the sqlite dialects. Question marks inside single-quoted
// literals are kept.
func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Placeholders returns "?, ?, ..." with n entries.
func Placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
