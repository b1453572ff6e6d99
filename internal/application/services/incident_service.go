package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/interfaces"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

// incidentLoadTimeout bounds a shared load once it no longer follows the
// context of the caller that started it.
const incidentLoadTimeout = 30 * time.Second

// IncidentFetcher loads unresolved incidents from the status page.
type IncidentFetcher interface {
	UnresolvedIncidents(ctx context.Context) ([]incidents.IncidentInfo, error)
}

// IncidentService serves the banner-eligible incidents, enriched with their
// cache rows.
type IncidentService struct {
	fetcher     IncidentFetcher
	cacheRepo   repositories.IncidentCacheRepository
	store       interfaces.IncidentStore
	ttl         time.Duration
	group       singleflight.Group
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewIncidentService(
	fetcher IncidentFetcher,
	cacheRepo repositories.IncidentCacheRepository,
	store interfaces.IncidentStore,
	ttl time.Duration,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *IncidentService {
	return &IncidentService{
		fetcher:     fetcher,
		cacheRepo:   cacheRepo,
		store:       store,
		ttl:         ttl,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// ListBannerIncidents returns the incidents flagged for the banner. Results
// are cached for the configured TTL and concurrent misses share one upstream
// call.
func (s *IncidentService) ListBannerIncidents(ctx context.Context) ([]incidents.IncidentInfo, error) {
	marker := s.perfTracker.StartOperation("incidents:list", "")
	defer marker.Complete()

	if list, ok := s.store.GetIncidents(ctx); ok {
		marker.AddCacheHit()
		return list, nil
	}
	marker.AddCacheMiss()

	result, err, shared := s.group.Do("incidents", func() (any, error) {
		// other callers wait on this load, so the first caller's cancellation must not end it
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), incidentLoadTimeout)
		defer cancel()
		return s.load(loadCtx)
	})
	if err != nil {
		marker.SetError(err)
		return nil, err
	}
	marker.AddMetadata("shared", shared)

	list := result.([]incidents.IncidentInfo)
	out := make([]incidents.IncidentInfo, len(list))
	copy(out, list)
	return out, nil
}

func (s *IncidentService) load(ctx context.Context) ([]incidents.IncidentInfo, error) {
	upstream := s.perfTracker.StartOperation("statuspage:unresolved", "")
	all, err := s.fetcher.UnresolvedIncidents(ctx)
	upstream.SetError(err)
	upstream.Complete()
	if err != nil {
		s.logger.Incidents().Error("Failed to fetch active StatusPage incidents", "error", err.Error())
		return nil, fmt.Errorf("failed to fetch incidents: %w", err)
	}

	banner := incidents.FilterBannerIncidents(all)

	caches, err := s.cacheRepo.FindByIncidentIDs(ctx, incidents.IDs(banner))
	if err != nil {
		s.logger.Incidents().Error("Failed to fetch incident_status_cache", "error", err.Error())
		caches = nil
	}

	enriched := incidents.Enrich(banner, caches)
	s.store.SetIncidents(ctx, enriched, s.ttl)

	s.logger.Incidents().Info("Loaded banner incidents", "unresolved", len(all), "banner", len(enriched))
	return enriched, nil
}

// UpsertCache writes the banner metadata of one incident and drops the cached
// list so the change shows on the next request.
func (s *IncidentService) UpsertCache(ctx context.Context, incidentID string, cache incidents.IncidentCache) error {
	if incidentID == "" {
		return fmt.Errorf("incident ID cannot be empty")
	}
	if err := s.cacheRepo.Upsert(ctx, incidentID, cache); err != nil {
		return fmt.Errorf("failed to update incident cache %s: %w", incidentID, err)
	}
	s.store.InvalidateIncidents(ctx)
	return nil
}

// DeleteCache removes the banner metadata of one incident.
func (s *IncidentService) DeleteCache(ctx context.Context, incidentID string) error {
	if err := s.cacheRepo.Delete(ctx, incidentID); err != nil {
		return fmt.Errorf("failed to delete incident cache %s: %w", incidentID, err)
	}
	s.store.InvalidateIncidents(ctx)
	return nil
}
