// Package interfaces defines the cache contracts of the edge service.
package interfaces

import (
	"context"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
)

// IncidentStore caches the filtered, enriched incident list served by the
// incident status endpoint.
type IncidentStore interface {
	GetIncidents(ctx context.Context) ([]incidents.IncidentInfo, bool)
	SetIncidents(ctx context.Context, list []incidents.IncidentInfo, ttl time.Duration)
	InvalidateIncidents(ctx context.Context)
}

// Purgeable is a store the cleanup worker can sweep for expired entries.
type Purgeable interface {
	Name() string
	PurgeExpired(now time.Time) int
}

// Reportable exposes counters for the cleanup report.
type Reportable interface {
	Name() string
	Stats() StoreStats
}

// StoreStats is a point-in-time snapshot of a store.
type StoreStats struct {
	Entries     int       `json:"entries"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	LastUpdated time.Time `json:"lastUpdated"`
}
