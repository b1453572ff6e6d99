package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/domain/repositories"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

const orgQueryConcurrency = 8

// IncidentLister yields the banner-eligible incidents.
type IncidentLister interface {
	ListBannerIncidents(ctx context.Context) ([]incidents.IncidentInfo, error)
}

// BannerService decides which incident banner, if any, a visitor sees.
type BannerService struct {
	incidents   IncidentLister
	orgRepo     repositories.OrganizationRepository
	projectRepo repositories.ProjectRepository
	override    bool
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

func NewBannerService(
	incidentLister IncidentLister,
	orgRepo repositories.OrganizationRepository,
	projectRepo repositories.ProjectRepository,
	override bool,
	logger *logging.ChanneledLogger,
	perfTracker *performance.Tracker,
) *BannerService {
	return &BannerService{
		incidents:   incidentLister,
		orgRepo:     orgRepo,
		projectRepo: projectRepo,
		override:    override,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Resolve returns the banner for userID, or nil. An incident fetch failure
// shows no banner; an organization lookup failure is returned.
func (s *BannerService) Resolve(ctx context.Context, userID string) (*incidents.Banner, error) {
	marker := s.perfTracker.StartOperation("banner:resolve", "studio")
	defer marker.Complete()

	if s.override {
		marker.AddMetadata("override", true)
		return incidents.ResolveBanner(incidents.ResolveInput{Override: true}), nil
	}

	active, err := s.incidents.ListBannerIncidents(ctx)
	if err != nil {
		s.logger.Banner().Warn("Incident list unavailable, hiding banner", "error", err.Error())
		return nil, nil
	}
	if len(active) == 0 {
		return nil, nil
	}

	footprint, err := s.Footprint(ctx, userID)
	if err != nil {
		marker.SetError(err)
		return nil, err
	}

	banner := incidents.ResolveBanner(incidents.ResolveInput{
		Incidents: incidents.ToBannerIncidents(active),
		Footprint: footprint,
	})
	s.logger.Banner().Debug("Resolved incident banner",
		"userId", logging.MaskID(userID),
		"incidents", len(active),
		"hasProjects", footprint.HasProjects,
		"regions", len(footprint.UserRegions),
		"unknownRegions", footprint.HasUnknownRegions,
		"shown", banner != nil)
	return banner, nil
}

// Footprint loads the first page of projects of every organization userID
// belongs to. A failed page marks the regions unknown instead of failing.
func (s *BannerService) Footprint(ctx context.Context, userID string) (incidents.Footprint, error) {
	if userID == "" {
		return incidents.Summarize(nil), nil
	}

	orgs, err := s.orgRepo.FindByMember(ctx, userID)
	if err != nil {
		return incidents.Footprint{}, fmt.Errorf("failed to load organizations: %w", err)
	}

	pages := make([]incidents.OrgProjects, len(orgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(orgQueryConcurrency)
	for i, org := range orgs {
		i, org := i, org
		g.Go(func() error {
			projects, count, err := s.projectRepo.FindPageByOrganization(gctx, org.Slug, incidents.ProjectsPageLimit)
			if err != nil {
				s.logger.Banner().Warn("Project page failed", "orgSlug", org.Slug, "error", err.Error())
			}
			pages[i] = incidents.OrgProjects{OrgSlug: org.Slug, Projects: projects, Count: count, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return incidents.Summarize(pages), nil
}
