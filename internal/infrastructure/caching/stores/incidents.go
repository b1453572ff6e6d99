// Package stores provides concrete cache store implementations
package stores

import (
	"context"
	"sync"
	"time"

	"github.com/webfutureiorepo/supabase/internal/domain/incidents"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/interfaces"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

type incidentEntry struct {
	list      []incidents.IncidentInfo
	expiresAt time.Time
}

// IncidentStore is the in-process incident cache.
type IncidentStore struct {
	mu          sync.RWMutex
	entry       *incidentEntry
	hits        int64
	misses      int64
	lastUpdated time.Time
	logger      *logging.ChanneledLogger
	now         func() time.Time
}

var (
	_ interfaces.IncidentStore = (*IncidentStore)(nil)
	_ interfaces.Purgeable     = (*IncidentStore)(nil)
	_ interfaces.Reportable    = (*IncidentStore)(nil)
)

func NewIncidentStore(logger *logging.ChanneledLogger) *IncidentStore {
	if logger != nil {
		logger.Cache().Info("Initializing incident cache store", "backend", "memory")
	}
	return &IncidentStore{logger: logger, now: time.Now}
}

func (s *IncidentStore) Name() string { return "incidents" }

// GetIncidents returns a copy of the cached list while it is fresh.
func (s *IncidentStore) GetIncidents(_ context.Context) ([]incidents.IncidentInfo, bool) {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == nil || !s.now().Before(s.entry.expiresAt) {
		s.misses++
		if s.logger != nil {
			s.logger.LogCacheOperation("get", "incidents", false, time.Since(start))
		}
		return nil, false
	}

	s.hits++
	if s.logger != nil {
		s.logger.LogCacheOperation("get", "incidents", true, time.Since(start))
	}
	out := make([]incidents.IncidentInfo, len(s.entry.list))
	copy(out, s.entry.list)
	return out, true
}

func (s *IncidentStore) SetIncidents(_ context.Context, list []incidents.IncidentInfo, ttl time.Duration) {
	start := time.Now()
	stored := make([]incidents.IncidentInfo, len(list))
	copy(stored, list)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.entry = &incidentEntry{list: stored, expiresAt: now.Add(ttl)}
	s.lastUpdated = now

	if s.logger != nil {
		s.logger.Cache().Debug("Cache operation", "operation", "set", "type", "incidents", "count", len(stored), "ttl", ttl, "duration", time.Since(start))
	}
}

func (s *IncidentStore) InvalidateIncidents(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entry = nil
	s.lastUpdated = s.now()
	if s.logger != nil {
		s.logger.Cache().Info("Incident cache invalidated")
	}
}

// PurgeExpired drops the cached list once it has expired.
func (s *IncidentStore) PurgeExpired(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.entry == nil || now.Before(s.entry.expiresAt) {
		return 0
	}
	s.entry = nil
	return 1
}

func (s *IncidentStore) Stats() interfaces.StoreStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := 0
	if s.entry != nil {
		entries = 1
	}
	return interfaces.StoreStats{
		Entries:     entries,
		Hits:        s.hits,
		Misses:      s.misses,
		LastUpdated: s.lastUpdated,
	}
}
