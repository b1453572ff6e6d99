package database

import (
	"context"
	"fmt"
	"time"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

// Times are stored as unix milliseconds and JSON documents as TEXT so the same
// statements run on sqlite, libsql and postgres.
var tables = []string{
	`CREATE TABLE IF NOT EXISTS incident_status_cache (
		incident_id TEXT PRIMARY KEY,
		affected_regions TEXT,
		affects_project_creation BOOLEAN NOT NULL DEFAULT FALSE,
		updated_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organizations (
		id TEXT PRIMARY KEY,
		slug TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS organization_members (
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		user_id TEXT NOT NULL,
		PRIMARY KEY (organization_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		ref TEXT PRIMARY KEY,
		organization_id TEXT NOT NULL REFERENCES organizations(id),
		name TEXT NOT NULL,
		region TEXT NOT NULL,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_databases (
		identifier TEXT PRIMARY KEY,
		project_ref TEXT NOT NULL REFERENCES projects(ref),
		region TEXT NOT NULL,
		is_primary BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS storage_buckets (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		owner TEXT,
		public BOOLEAN NOT NULL DEFAULT FALSE,
		created_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS storage_objects (
		id TEXT PRIMARY KEY,
		bucket_id TEXT NOT NULL REFERENCES storage_buckets(id),
		name TEXT NOT NULL,
		owner TEXT,
		metadata TEXT,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL,
		last_accessed_at BIGINT,
		UNIQUE (bucket_id, name)
	)`,
}

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_organization_members_user ON organization_members(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_organization ON projects(organization_id)`,
	`CREATE INDEX IF NOT EXISTS idx_project_databases_project ON project_databases(project_ref)`,
	`CREATE INDEX IF NOT EXISTS idx_storage_objects_bucket ON storage_objects(bucket_id)`,
}

// TableCreator handles the creation of the database schema.
type TableCreator struct {
	logger *logging.ChanneledLogger
}

// NewTableCreator creates a new TableCreator.
func NewTableCreator(logger *logging.ChanneledLogger) *TableCreator {
	return &TableCreator{logger: logger}
}

// CreateSchema executes all necessary queries to build the tables and indexes.
// Every statement is idempotent.
func (tc *TableCreator) CreateSchema(ctx context.Context, db *DB) error {
	start := time.Now()

	for _, tableSQL := range tables {
		if _, err := db.ExecContext(ctx, tableSQL); err != nil {
			return fmt.Errorf("failed to create table for query [%s]: %w", tableSQL, err)
		}
	}

	for _, indexSQL := range indexes {
		if _, err := db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index for query [%s]: %w", indexSQL, err)
		}
	}

	duration := time.Since(start)
	tc.logger.Database().Info("Schema ensured", "tables", len(tables), "indexes", len(indexes), "duration", duration)
	CheckAndLogSlowQuery(tc.logger, "SCHEMA_CREATE", duration)
	return nil
}
