package performance

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Tracker keeps a bounded history of completed markers and aggregates them
type Tracker struct {
	completed  []Marker
	next       int
	full       bool
	alerts     []Alert
	thresholds *AlertThresholds
	config     *TrackerConfig
	started    time.Time
	mu         sync.RWMutex
}

// TrackerConfig contains configuration options for the performance tracker
type TrackerConfig struct {
	MaxMarkers   int  `json:"maxMarkers"`
	MaxAlerts    int  `json:"maxAlerts"`
	EnableAlerts bool `json:"enableAlerts"`
}

// DefaultTrackerConfig returns a sensible default configuration
func DefaultTrackerConfig() *TrackerConfig {
	return &TrackerConfig{
		MaxMarkers:   5000,
		MaxAlerts:    200,
		EnableAlerts: true,
	}
}

// AlertThresholds defines performance thresholds for generating alerts
type AlertThresholds struct {
	SlowResponseThreshold     time.Duration `json:"slowResponseThreshold"`
	CriticalResponseThreshold time.Duration `json:"criticalResponseThreshold"`
	// Upstream calls (status page, redis, database fan-out) get more room
	UpstreamThreshold time.Duration `json:"upstreamThreshold"`
}

// DefaultAlertThresholds returns sensible default alert thresholds
func DefaultAlertThresholds() *AlertThresholds {
	return &AlertThresholds{
		SlowResponseThreshold:     time.Millisecond * 500,
		CriticalResponseThreshold: time.Second * 5,
		UpstreamThreshold:         time.Second * 2,
	}
}

// NewTracker creates a new performance tracker with the given configuration
func NewTracker(config *TrackerConfig) *Tracker {
	if config == nil {
		config = DefaultTrackerConfig()
	}
	if config.MaxMarkers <= 0 {
		config.MaxMarkers = DefaultTrackerConfig().MaxMarkers
	}

	return &Tracker{
		completed:  make([]Marker, config.MaxMarkers),
		thresholds: DefaultAlertThresholds(),
		config:     config,
		started:    time.Now(),
	}
}

// SetThresholds replaces the alert thresholds.
func (t *Tracker) SetThresholds(thresholds *AlertThresholds) {
	t.mu.Lock()
	t.thresholds = thresholds
	t.mu.Unlock()
}

// StartOperation creates a marker that reports to the tracker once completed
func (t *Tracker) StartOperation(operation, app string) *Marker {
	return &Marker{
		Operation: operation,
		App:       app,
		StartTime: time.Now(),
		Metadata:  make(map[string]any),
		Success:   true,
		tracker:   t,
	}
}

func (t *Tracker) record(m *Marker) {
	snapshot := *m
	snapshot.tracker = nil
	snapshot.Metadata = nil

	t.mu.Lock()
	defer t.mu.Unlock()

	t.completed[t.next] = snapshot
	t.next = (t.next + 1) % len(t.completed)
	if t.next == 0 {
		t.full = true
	}

	if t.config.EnableAlerts {
		if alert, ok := t.evaluate(snapshot); ok {
			t.alerts = append(t.alerts, alert)
			if len(t.alerts) > t.config.MaxAlerts {
				t.alerts = t.alerts[len(t.alerts)-t.config.MaxAlerts:]
			}
		}
	}
}

func (t *Tracker) evaluate(m Marker) (Alert, bool) {
	alert := Alert{
		Timestamp: m.EndTime,
		Operation: m.Operation,
		App:       m.App,
		Actual:    m.Duration,
	}

	limit := t.thresholds.SlowResponseThreshold
	if isUpstream(m.Operation) {
		limit = t.thresholds.UpstreamThreshold
	}

	switch {
	case m.Duration > t.thresholds.CriticalResponseThreshold:
		alert.Severity = AlertCritical
		alert.Message = "Operation exceeded critical response time threshold"
	case !m.Success:
		alert.Severity = AlertWarning
		alert.Message = "Operation failed: " + m.Error
	case m.Duration > limit:
		alert.Severity = AlertWarning
		alert.Message = "Operation exceeded slow response time threshold"
	default:
		return Alert{}, false
	}
	return alert, true
}

func isUpstream(operation string) bool {
	for _, prefix := range []string{"statuspage:", "redis:", "banner:"} {
		if strings.HasPrefix(operation, prefix) {
			return true
		}
	}
	return false
}

// Recent returns retained markers, newest first
func (t *Tracker) Recent(limit int) []Marker {
	t.mu.RLock()
	defer t.mu.RUnlock()

	all := t.retainedLocked()
	sort.Slice(all, func(i, j int) bool { return all[i].EndTime.After(all[j].EndTime) })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}

func (t *Tracker) retainedLocked() []Marker {
	n := t.next
	if t.full {
		n = len(t.completed)
	}
	out := make([]Marker, n)
	copy(out, t.completed[:n])
	return out
}

// Summary aggregates the retained markers per operation
func (t *Tracker) Summary() Summary {
	t.mu.RLock()
	markers := t.retainedLocked()
	alerts := append([]Alert(nil), t.alerts...)
	thresholds := *t.thresholds
	t.mu.RUnlock()

	byOp := make(map[string][]Marker)
	for _, m := range markers {
		byOp[m.Operation] = append(byOp[m.Operation], m)
	}

	ops := make([]OperationStats, 0, len(byOp))
	for op, list := range byOp {
		ops = append(ops, aggregate(op, list))
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Operation < ops[j].Operation })

	return Summary{
		GeneratedAt:   time.Now(),
		Uptime:        time.Since(t.started).Round(time.Second).String(),
		Retained:      len(markers),
		OverallHealth: calculateHealth(markers, thresholds),
		Operations:    ops,
		Alerts:        alerts,
	}
}

func aggregate(op string, list []Marker) OperationStats {
	stats := OperationStats{Operation: op, Count: len(list)}

	durations := make([]time.Duration, len(list))
	var total time.Duration
	hits, misses := 0, 0
	for i, m := range list {
		durations[i] = m.Duration
		total += m.Duration
		if m.Duration > stats.MaxDuration {
			stats.MaxDuration = m.Duration
		}
		if !m.Success {
			stats.Failures++
		}
		if m.EndTime.After(stats.LastSeen) {
			stats.LastSeen = m.EndTime
		}
		hits += m.CacheHits
		misses += m.CacheMisses
	}

	sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })
	stats.AvgDuration = total / time.Duration(len(list))
	stats.P95Duration = durations[(len(durations)*95-1)/100]
	if hits+misses > 0 {
		stats.CacheHitRatio = float64(hits) / float64(hits+misses)
	}
	return stats
}

func calculateHealth(markers []Marker, thresholds AlertThresholds) HealthStatus {
	if len(markers) == 0 {
		return HealthUnknown
	}

	critical, warning := 0, 0
	for _, m := range markers {
		if m.Duration > thresholds.CriticalResponseThreshold || !m.Success {
			critical++
		} else if m.Duration > thresholds.SlowResponseThreshold {
			warning++
		}
	}

	criticalRatio := float64(critical) / float64(len(markers))
	warningRatio := float64(warning) / float64(len(markers))

	if criticalRatio > 0.1 {
		return HealthUnhealthy
	} else if criticalRatio > 0.05 || warningRatio > 0.2 {
		return HealthDegraded
	}
	return HealthHealthy
}
