// Package repositories defines the repository interfaces the edge services
// depend on. They abstract the data persistence details, keeping the
// application layer decoupled from the database.
package repositories

import (
	"context"
	"errors"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/storage"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// IncidentCacheRepository stores the per-incident banner metadata.
type IncidentCacheRepository interface {
	FindByIncidentIDs(ctx context.Context, ids []string) (map[string]incidents.IncidentCache, error)
	Upsert(ctx context.Context, incidentID string, cache incidents.IncidentCache) error
	Delete(ctx context.Context, incidentID string) error
}

// OrganizationRepository lists the organizations of a user.
type OrganizationRepository interface {
	FindByMember(ctx context.Context, userID string) ([]incidents.Organization, error)
}

// ProjectRepository loads organization projects with their databases.
type ProjectRepository interface {
	// FindPageByOrganization returns at most limit projects and the total
	// project count of the organization.
	FindPageByOrganization(ctx context.Context, orgSlug string, limit int) ([]incidents.Project, int, error)
}

// StorageObjectRepository reads and writes storage objects.
type StorageObjectRepository interface {
	FindBucket(ctx context.Context, name string) (*storage.Bucket, error)
	// ListFolder returns the direct children of prefix: files with their
	// object rows and sub-folders as id-less entries.
	ListFolder(ctx context.Context, bucketID, prefix string) ([]storage.Object, error)
	Insert(ctx context.Context, bucketID, key string, obj storage.Object) error
}
