// Package performance provides performance markers and their aggregation for
// the edge service operations.
package performance

import (
	"time"
)

// Marker represents a single performance measurement for an operation
type Marker struct {
	Operation   string         `json:"operation"` // e.g. "incidents:list", "storage:create_folder"
	App         string         `json:"app"`       // cooperating application the request belongs to
	StartTime   time.Time      `json:"startTime"`
	EndTime     time.Time      `json:"endTime"`
	Duration    time.Duration  `json:"duration"`
	Success     bool           `json:"success"`
	Error       string         `json:"error,omitempty"`
	Metadata    map[string]any `json:"metadata"`
	CacheHits   int            `json:"cacheHits"`
	CacheMisses int            `json:"cacheMisses"`
	Completed   bool           `json:"completed"`

	tracker *Tracker
}

// Complete marks the operation as finished and hands it to the tracker
func (m *Marker) Complete() {
	if m.Completed {
		return
	}

	m.EndTime = time.Now()
	m.Duration = m.EndTime.Sub(m.StartTime)
	m.Completed = true

	if m.tracker != nil {
		m.tracker.record(m)
	}
}

// SetSuccess marks the operation as successful or failed
func (m *Marker) SetSuccess(success bool) {
	m.Success = success
}

// SetError sets an error message and marks the operation as failed
func (m *Marker) SetError(err error) {
	if err != nil {
		m.Error = err.Error()
		m.Success = false
	}
}

// AddMetadata adds key-value metadata to the marker
func (m *Marker) AddMetadata(key string, value any) {
	if m.Metadata == nil {
		m.Metadata = make(map[string]any)
	}
	m.Metadata[key] = value
}

func (m *Marker) AddCacheHit()  { m.CacheHits++ }
func (m *Marker) AddCacheMiss() { m.CacheMisses++ }

// GetCacheHitRatio returns the cache hit ratio (0.0 to 1.0)
func (m *Marker) GetCacheHitRatio() float64 {
	total := m.CacheHits + m.CacheMisses
	if total == 0 {
		return 0.0
	}
	return float64(m.CacheHits) / float64(total)
}

// OperationStats aggregates completed markers of one operation.
type OperationStats struct {
	Operation     string        `json:"operation"`
	Count         int           `json:"count"`
	Failures      int           `json:"failures"`
	AvgDuration   time.Duration `json:"avgDuration"`
	MaxDuration   time.Duration `json:"maxDuration"`
	P95Duration   time.Duration `json:"p95Duration"`
	CacheHitRatio float64       `json:"cacheHitRatio"`
	LastSeen      time.Time     `json:"lastSeen"`
}

// HealthStatus represents the overall health of the service
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
	HealthUnknown   HealthStatus = "unknown"
)

// Summary is the view served on the sysop performance endpoint.
type Summary struct {
	GeneratedAt   time.Time        `json:"generatedAt"`
	Uptime        string           `json:"uptime"`
	Retained      int              `json:"retained"`
	OverallHealth HealthStatus     `json:"overallHealth"`
	Operations    []OperationStats `json:"operations"`
	Alerts        []Alert          `json:"alerts"`
}

// Alert represents a slow or failing operation.
type Alert struct {
	Timestamp time.Time     `json:"timestamp"`
	Severity  AlertSeverity `json:"severity"`
	Operation string        `json:"operation"`
	App       string        `json:"app,omitempty"`
	Actual    time.Duration `json:"actual"`
	Message   string        `json:"message"`
}

// AlertSeverity represents the severity level of a performance alert
type AlertSeverity string

const (
	AlertWarning  AlertSeverity = "warning"
	AlertCritical AlertSeverity = "critical"
)
