// Package cleanup provides the background cache cleanup worker
package cleanup

import (
	"context"
	"time"

	"github.com/webfutureiorepo/supabase/internal/infrastructure/caching/interfaces"
	"github.com/webfutureiorepo/supabase/internal/infrastructure/observability/logging"
)

// Worker periodically sweeps expired entries out of the registered stores.
type Worker struct {
	stores   []interfaces.Purgeable
	config   *Config
	logger   *logging.ChanneledLogger
	reporter *Reporter
	now      func() time.Time
}

func NewWorker(config *Config, logger *logging.ChanneledLogger, stores ...interfaces.Purgeable) *Worker {
	return &Worker{
		stores:   stores,
		config:   config,
		logger:   logger,
		reporter: NewReporter(logger),
		now:      time.Now,
	}
}

// Start runs until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	if w.config.CleanupInterval <= 0 {
		w.logger.Cache().Warn("Cache cleanup worker disabled", "interval", w.config.CleanupInterval)
		return
	}

	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	w.logger.Cache().Info("Cache cleanup worker started",
		"interval", w.config.CleanupInterval, "verbose", w.config.VerboseReporting, "stores", len(w.stores))

	for {
		select {
		case <-ctx.Done():
			w.logger.Cache().Info("Cache cleanup worker stopping")
			return
		case <-ticker.C:
			w.performCleanup(ctx)
		}
	}
}

// performCleanup sweeps every store once and returns the number of purged
// entries.
func (w *Worker) performCleanup(ctx context.Context) int {
	start := time.Now()
	if w.config.VerboseReporting {
		w.reporter.LogStage("periodic cache cleanup")
	}

	total := 0
	for _, store := range w.stores {
		select {
		case <-ctx.Done():
			return total
		default:
		}

		if w.config.VerboseReporting {
			w.reporter.ReportStore(store)
		}
		total += store.PurgeExpired(w.now())
	}

	duration := time.Since(start)
	if total > 0 {
		w.logger.Cache().Info("Cache cleanup finished", "purged", total, "stores", len(w.stores), "duration", duration)
	} else if w.config.VerboseReporting {
		w.logger.Cache().Debug("Cache cleanup completed, nothing expired", "duration", duration)
	}
	return total
}
