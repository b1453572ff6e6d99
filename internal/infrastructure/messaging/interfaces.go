// Package messaging pushes incident updates to connected websocket clients.
package messaging

import (
	"context"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
)

// IncidentSource yields the incidents currently eligible for the banner.
type IncidentSource interface {
	ListBannerIncidents(ctx context.Context) ([]incidents.IncidentInfo, error)
}
