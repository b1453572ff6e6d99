// Package services provides application-level services that orchestrate
// the domain engines and coordinate between repositories and stores.
package services

import (
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/attribution"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/performance"
)

// AttributionService applies the first-referrer cookie policy to requests.
type AttributionService struct {
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
	now         func() time.Time
}

func NewAttributionService(logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *AttributionService {
	return &AttributionService{
		logger:      logger,
		perfTracker: perfTracker,
		now:         time.Now,
	}
}

// Stamp writes the first-referrer cookie when warranted and reports whether it
// did. Serialization failures are logged and never reach the request.
func (s *AttributionService) Stamp(req attribution.Request, resp attribution.CookieSetter, app string) bool {
	marker := s.perfTracker.StartOperation("attribution:stamp", app)
	defer marker.Complete()

	stamped, err := attribution.StampFirstReferrerCookie(req, resp, s.now())
	if err != nil {
		marker.SetError(err)
		s.logger.Attribution().Error("Failed to stamp first-referrer cookie", "error", err.Error(), "app", app)
		return false
	}

	marker.AddMetadata("stamped", stamped)
	if stamped {
		s.logger.Attribution().Debug("Stamped first-referrer cookie", "app", app, "host", req.Hostname())
	}
	return stamped
}

// Decode reads the first-referrer payload out of a Cookie header.
func (s *AttributionService) Decode(cookieHeader string) (attribution.Payload, bool) {
	payload, ok := attribution.ParseFirstReferrerCookie(cookieHeader, s.now())
	if !ok {
		s.logger.Attribution().Debug("No usable first-referrer cookie")
	}
	return payload, ok
}
