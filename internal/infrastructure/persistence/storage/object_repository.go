// Package storage provides the bucket and object repository backing the
// storage explorer.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"

	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
)

type ObjectRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
	now    func() time.Time
	newID  func() string
}

func NewObjectRepository(db *database.DB, logger *logging.ChanneledLogger) *ObjectRepository {
	return &ObjectRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return ulid.Make().String() },
	}
}

func (r *ObjectRepository) FindBucket(ctx context.Context, name string) (*storage.Bucket, error) {
	query := `SELECT id, name, owner, public, created_at FROM storage_buckets WHERE name = ?`

	var (
		bucket    storage.Bucket
		owner     sql.NullString
		createdAt int64
	)
	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), name).Scan(&bucket.ID, &bucket.Name, &owner, &bucket.Public, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repositories.ErrNotFound
	}
	if err != nil {
		r.logger.Database().Error("Bucket lookup failed", "error", err.Error(), "bucket", name)
		return nil, fmt.Errorf("failed to query bucket: %w", err)
	}
	bucket.Owner = owner.String
	bucket.CreatedAt = time.UnixMilli(createdAt).UTC()
	return &bucket, nil
}

// ListFolder returns the direct children of prefix sorted by name. Keys deeper
// than one level are folded into a single id-less folder entry.
func (r *ObjectRepository) ListFolder(ctx context.Context, bucketID, prefix string) ([]storage.Object, error) {
	prefix = strings.Trim(prefix, "/")
	keyPrefix := ""
	if prefix != "" {
		keyPrefix = prefix + "/"
	}

	query := `SELECT id, name, metadata, created_at, updated_at, last_accessed_at FROM storage_objects
		WHERE bucket_id = ? AND substr(name, 1, ?) = ?`

	start := time.Now()
	r.logger.Database().Debug("Executing storage folder listing", "bucketId", bucketID, "prefix", prefix)

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), bucketID, utf8.RuneCountInString(keyPrefix), keyPrefix)
	if err != nil {
		r.logger.Database().Error("Storage folder listing failed", "error", err.Error(), "bucketId", bucketID)
		return nil, fmt.Errorf("failed to list storage objects: %w", err)
	}
	defer rows.Close()

	objects := []storage.Object{}
	folders := make(map[string]bool)
	for rows.Next() {
		var (
			obj          storage.Object
			key          string
			metadataJSON sql.NullString
			createdAt    int64
			updatedAt    int64
			accessedAt   sql.NullInt64
		)
		if err := rows.Scan(&obj.ID, &key, &metadataJSON, &createdAt, &updatedAt, &accessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan storage object: %w", err)
		}
		if !strings.HasPrefix(key, keyPrefix) {
			continue
		}

		rest := strings.TrimPrefix(key, keyPrefix)
		if i := strings.Index(rest, "/"); i >= 0 {
			name := rest[:i]
			if name != "" && !folders[name] {
				folders[name] = true
				objects = append(objects, storage.Object{Name: name})
			}
			continue
		}

		obj.Name = rest
		obj.CreatedAt = msTime(createdAt)
		obj.UpdatedAt = msTime(updatedAt)
		if accessedAt.Valid {
			obj.LastAccessedAt = msTime(accessedAt.Int64)
		}
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &obj.Metadata); err != nil {
				r.logger.Database().Warn("Ignoring malformed object metadata", "key", key, "error", err.Error())
				obj.Metadata = nil
			}
		}
		objects = append(objects, obj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate storage objects: %w", err)
	}

	sort.SliceStable(objects, func(i, j int) bool { return objects[i].Name < objects[j].Name })

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return objects, nil
}

// Insert writes an object under key. Writing an existing key replaces its
// metadata.
func (r *ObjectRepository) Insert(ctx context.Context, bucketID, key string, obj storage.Object) error {
	var metadata any
	if obj.Metadata != nil {
		encoded, err := json.Marshal(obj.Metadata)
		if err != nil {
			return fmt.Errorf("failed to encode object metadata: %w", err)
		}
		metadata = string(encoded)
	}

	now := r.now()
	createdAt := now
	if obj.CreatedAt != nil {
		createdAt = *obj.CreatedAt
	}
	id := obj.ID
	if id == "" {
		id = r.newID()
	}

	query := `INSERT INTO storage_objects (id, bucket_id, name, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (bucket_id, name) DO UPDATE SET
			metadata = excluded.metadata,
			updated_at = excluded.updated_at`

	start := time.Now()
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), id, bucketID, key, metadata, createdAt.UnixMilli(), now.UnixMilli()); err != nil {
		r.logger.Database().Error("Storage object insert failed", "error", err.Error(), "key", key)
		return fmt.Errorf("failed to insert storage object: %w", err)
	}

	r.logger.Storage().Info("Storage object written", "bucketId", bucketID, "key", key, "duration", time.Since(start))
	return nil
}

func msTime(ms int64) *time.Time {
	t := time.UnixMilli(ms).UTC()
	return &t
}
