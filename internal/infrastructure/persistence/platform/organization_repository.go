// Package platform provides the organization and project repositories used to
// compute a visitor's deployment footprint.
package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
)

type OrganizationRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewOrganizationRepository(db *database.DB, logger *logging.ChanneledLogger) *OrganizationRepository {
	return &OrganizationRepository{db: db, logger: logger}
}

// FindByMember returns the organizations userID belongs to, ordered by slug.
func (r *OrganizationRepository) FindByMember(ctx context.Context, userID string) ([]incidents.Organization, error) {
	query := `SELECT o.id, o.slug, o.name FROM organizations o
		JOIN organization_members m ON m.organization_id = o.id
		WHERE m.user_id = ? ORDER BY o.slug`

	start := time.Now()
	r.logger.Database().Debug("Executing organization lookup", "userId", logging.MaskID(userID))

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), userID)
	if err != nil {
		r.logger.Database().Error("Organization lookup failed", "error", err.Error())
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	orgs := []incidents.Organization{}
	for rows.Next() {
		var org incidents.Organization
		if err := rows.Scan(&org.ID, &org.Slug, &org.Name); err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate organizations: %w", err)
	}

	database.CheckAndLogSlowQuery(r.logger, query, time.Since(start))
	return orgs, nil
}
