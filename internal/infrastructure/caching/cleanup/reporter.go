package cleanup

import (
	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/interfaces"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

// Reporter writes cleanup progress and store snapshots to the cache channel.
type Reporter struct {
	logger *logging.ChanneledLogger
}

func NewReporter(logger *logging.ChanneledLogger) *Reporter {
	return &Reporter{logger: logger}
}

func (r *Reporter) LogStage(stage string) {
	r.logger.Cache().Debug("Cache cleanup stage", "stage", stage)
}

func (r *Reporter) LogError(message string, err error) {
	r.logger.Cache().Error(message, "error", err.Error())
}

// ReportStore logs the counters of a store that exposes them.
func (r *Reporter) ReportStore(store interfaces.Purgeable) {
	reportable, ok := store.(interfaces.Reportable)
	if !ok {
		return
	}
	stats := reportable.Stats()
	ratio := 0.0
	if total := stats.Hits + stats.Misses; total > 0 {
		ratio = float64(stats.Hits) / float64(total)
	}
	r.logger.Cache().Info("Cache store report",
		"store", reportable.Name(),
		"entries", stats.Entries,
		"hits", stats.Hits,
		"misses", stats.Misses,
		"hitRatio", ratio,
		"lastUpdated", stats.LastUpdated)
}
