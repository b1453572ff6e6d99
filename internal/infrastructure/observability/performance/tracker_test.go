package performance

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completeWith(t *Tracker, op string, d time.Duration, err error) {
	m := t.StartOperation(op, "studio")
	m.StartTime = time.Now().Add(-d)
	m.SetError(err)
	m.Complete()
}

func TestMarkerComplete(t *testing.T) {
	tracker := NewTracker(nil)
	m := tracker.StartOperation("incidents:list", "studio")
	m.AddCacheHit()
	m.AddCacheMiss()
	m.AddMetadata("count", 2)
	m.Complete()
	m.Complete()

	assert.True(t, m.Completed)
	assert.True(t, m.Success)
	assert.Equal(t, 0.5, m.GetCacheHitRatio())
	assert.Len(t, tracker.Recent(0), 1)
}

func TestSummaryAggregatesPerOperation(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 100, MaxAlerts: 10, EnableAlerts: true})

	completeWith(tracker, "storage:list", 10*time.Millisecond, nil)
	completeWith(tracker, "storage:list", 30*time.Millisecond, nil)
	completeWith(tracker, "storage:create_folder", time.Millisecond, errors.New("duplicate"))

	summary := tracker.Summary()
	require.Len(t, summary.Operations, 2)
	assert.Equal(t, 3, summary.Retained)

	create := summary.Operations[0]
	assert.Equal(t, "storage:create_folder", create.Operation)
	assert.Equal(t, 1, create.Failures)

	list := summary.Operations[1]
	assert.Equal(t, 2, list.Count)
	assert.GreaterOrEqual(t, list.MaxDuration, 30*time.Millisecond)
	assert.GreaterOrEqual(t, list.AvgDuration, 20*time.Millisecond)

	require.Len(t, summary.Alerts, 1)
	assert.Equal(t, AlertWarning, summary.Alerts[0].Severity)
	assert.Equal(t, HealthUnhealthy, summary.OverallHealth)
}

func TestTrackerRetentionIsBounded(t *testing.T) {
	tracker := NewTracker(&TrackerConfig{MaxMarkers: 3, MaxAlerts: 1})
	for i := 0; i < 5; i++ {
		completeWith(tracker, "attribution:stamp", time.Millisecond, nil)
	}
	assert.Len(t, tracker.Recent(0), 3)
	assert.Len(t, tracker.Recent(2), 2)
	assert.Empty(t, tracker.Summary().Alerts)
}

func TestSlowOperationAlerts(t *testing.T) {
	tracker := NewTracker(nil)
	tracker.SetThresholds(&AlertThresholds{
		SlowResponseThreshold:     time.Millisecond,
		CriticalResponseThreshold: time.Hour,
		UpstreamThreshold:         time.Hour,
	})

	completeWith(tracker, "storage:list", 50*time.Millisecond, nil)
	completeWith(tracker, "statuspage:fetch", 50*time.Millisecond, nil)

	alerts := tracker.Summary().Alerts
	require.Len(t, alerts, 1)
	assert.Equal(t, "storage:list", alerts[0].Operation)
}

func TestEmptySummary(t *testing.T) {
	summary := NewTracker(nil).Summary()
	assert.Equal(t, HealthUnknown, summary.OverallHealth)
	assert.Empty(t, summary.Operations)
}
