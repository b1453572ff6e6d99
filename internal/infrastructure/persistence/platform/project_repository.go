package platform

import (
	"context"
	"fmt"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/persistence/database"
)

type ProjectRepository struct {
	db     *database.DB
	logger *logging.ChanneledLogger
}

func NewProjectRepository(db *database.DB, logger *logging.ChanneledLogger) *ProjectRepository {
	return &ProjectRepository{db: db, logger: logger}
}

// FindPageByOrganization returns the newest limit projects of an organization
// with all their databases, plus the organization's total project count. A
// project without database rows reports its own region as the primary.
func (r *ProjectRepository) FindPageByOrganization(ctx context.Context, orgSlug string, limit int) ([]incidents.Project, int, error) {
	start := time.Now()
	r.logger.Database().Debug("Executing project page lookup", "orgSlug", orgSlug, "limit", limit)

	countQuery := `SELECT COUNT(*) FROM projects p JOIN organizations o ON o.id = p.organization_id WHERE o.slug = ?`
	var count int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind(countQuery), orgSlug).Scan(&count); err != nil {
		r.logger.Database().Error("Project count failed", "error", err.Error(), "orgSlug", orgSlug)
		return nil, 0, fmt.Errorf("failed to count projects: %w", err)
	}

	pageQuery := `SELECT p.ref, p.name, p.region FROM projects p
		JOIN organizations o ON o.id = p.organization_id
		WHERE o.slug = ? ORDER BY p.created_at DESC, p.ref LIMIT ?`
	rows, err := r.db.QueryContext(ctx, r.db.Rebind(pageQuery), orgSlug, limit)
	if err != nil {
		r.logger.Database().Error("Project page query failed", "error", err.Error(), "orgSlug", orgSlug)
		return nil, 0, fmt.Errorf("failed to query projects: %w", err)
	}

	var projects []incidents.Project
	index := make(map[string]int)
	for rows.Next() {
		var p incidents.Project
		if err := rows.Scan(&p.Ref, &p.Name, &p.Region); err != nil {
			rows.Close()
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		index[p.Ref] = len(projects)
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, 0, fmt.Errorf("failed to iterate projects: %w", err)
	}
	rows.Close()

	if len(projects) > 0 {
		if err := r.attachDatabases(ctx, projects, index); err != nil {
			return nil, 0, err
		}
	}

	database.CheckAndLogSlowQuery(r.logger, pageQuery, time.Since(start))
	return projects, count, nil
}

func (r *ProjectRepository) attachDatabases(ctx context.Context, projects []incidents.Project, index map[string]int) error {
	query := `SELECT identifier, project_ref, region FROM project_databases WHERE project_ref IN (` +
		database.Placeholders(len(projects)) + `) ORDER BY is_primary DESC, identifier`
	args := make([]any, len(projects))
	for i, p := range projects {
		args[i] = p.Ref
	}

	rows, err := r.db.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		r.logger.Database().Error("Project database query failed", "error", err.Error())
		return fmt.Errorf("failed to query project databases: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var db incidents.Database
		var ref string
		if err := rows.Scan(&db.Identifier, &ref, &db.Region); err != nil {
			return fmt.Errorf("failed to scan project database: %w", err)
		}
		if i, ok := index[ref]; ok {
			projects[i].Databases = append(projects[i].Databases, db)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate project databases: %w", err)
	}

	for i := range projects {
		if len(projects[i].Databases) == 0 {
			projects[i].Databases = []incidents.Database{{Identifier: projects[i].Ref, Region: projects[i].Region}}
		}
	}
	return nil
}
