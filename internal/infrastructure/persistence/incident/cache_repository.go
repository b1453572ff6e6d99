// Package incident provides the incident_status_cache repository
package incident

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
)

type CacheRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
	now    func() time.Time
}

func NewCacheRepository(db *database.DB, logger *logging.ChanneledLogger) *CacheRepository {
	return &CacheRepository{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// FindByIncidentIDs returns the cache rows keyed by incident id. Incidents
// without a row are absent from the map.
func (r *CacheRepository) FindByIncidentIDs(ctx context.Context, ids []string) (map[string]incidents.IncidentCache, error) {
	result := make(map[string]incidents.IncidentCache, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := `SELECT incident_id, affected_regions, affects_project_creation FROM incident_status_cache WHERE incident_id IN (` +
		database.Placeholders(len(ids)) + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	start := time.Now()
	r.logger.Database().Debug("Executing incident cache lookup", "count", len(ids))

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Database().Error("Incident cache lookup failed", "error", err.Error())
		return nil, fmt.Errorf("failed to query incident_status_cache: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id              string
			regionsJSON     sql.NullString
			affectsCreation bool
		)
		if err := rows.Scan(&id, &regionsJSON, &affectsCreation); err != nil {
			return nil, fmt.Errorf("failed to scan incident cache row: %w", err)
		}

		cache := incidents.IncidentCache{AffectsProjectCreation: affectsCreation}
		if regionsJSON.Valid && regionsJSON.String != "" {
			if err := json.Unmarshal([]byte(regionsJSON.String), &cache.AffectedRegions); err != nil {
				r.logger.Database().Warn("Ignoring malformed affected_regions", "incidentId", id, "error", err.Error())
				cache.AffectedRegions = nil
			}
		}
		result[id] = cache
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate incident cache rows: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return result, nil
}

// Upsert writes or replaces the cache row of one incident.
func (r *CacheRepository) Upsert(ctx context.Context, incidentID string, cache incidents.IncidentCache) error {
	var regions any
	if cache.AffectedRegions != nil {
		encoded, err := json.Marshal(cache.AffectedRegions)
		if err != nil {
			return fmt.Errorf("failed to encode affected regions: %w", err)
		}
		regions = string(encoded)
	}

	query := `INSERT INTO incident_status_cache (incident_id, affected_regions, affects_project_creation, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (incident_id) DO UPDATE SET
			affected_regions = excluded.affected_regions,
			affects_project_creation = excluded.affects_project_creation,
			updated_at = excluded.updated_at`

	start := time.Now()
	r.logger.Database().Debug("Executing incident cache upsert", "incidentId", incidentID)

	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), incidentID, regions, cache.AffectsProjectCreation, r.now().UnixMilli()); err != nil {
		r.logger.Database().Error("Incident cache upsert failed", "error", err.Error(), "incidentId", incidentID)
		return fmt.Errorf("failed to upsert incident cache: %w", err)
	}

	r.logger.Database().Info("Incident cache upsert completed", "incidentId", incidentID, "duration", time.Since(start))
	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return nil
}

// Delete removes the cache row of one incident.
func (r *CacheRepository) Delete(ctx context.Context, incidentID string) error {
	query := `DELETE FROM incident_status_cache WHERE incident_id = ?`

	res, err := r.db.ExecContext(ctx, r.db.Rebind(query), incidentID)
	if err != nil {
		r.logger.Database().Error("Incident cache delete failed", "error", err.Error(), "incidentId", incidentID)
		return fmt.Errorf("failed to delete incident cache: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return repositories.ErrNotFound
	}

	r.logger.Database().Info("Incident cache row deleted", "incidentId", incidentID)
	return nil
}
