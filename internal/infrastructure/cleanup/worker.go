package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper removes expired content and reports how many items went away.
type Sweeper interface {
	SweepExpired() (int, error)
}

// Worker runs the sweeper on a fixed interval until its context is canceled.
type Worker struct {
	sweeper Sweeper
	config  *Config
	logger  *slog.Logger
}

// NewWorker creates a sweep worker with injected configuration.
func NewWorker(sweeper Sweeper, config *Config, logger *slog.Logger) *Worker {
	return &Worker{
		sweeper: sweeper,
		config:  config,
		logger:  logger,
	}
}

// Start begins the sweep routine, using the configured interval.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	w.logger.Info("Story sweep worker started",
		slog.Duration("interval", w.config.SweepInterval),
		slog.Bool("verbose", w.config.VerboseReporting))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Story sweep worker stopping")
			return
		case <-ticker.C:
			w.performSweep()
		}
	}
}

func (w *Worker) performSweep() {
	start := time.Now()

	removed, err := w.sweeper.SweepExpired()
	if err != nil {
		w.logger.Error("Story sweep failed", slog.String("error", err.Error()))
		return
	}

	duration := time.Since(start)
	if removed > 0 {
		w.logger.Info("Story sweep finished",
			slog.Int("removed", removed),
			slog.Duration("duration", duration))
	} else if w.config.VerboseReporting {
		w.logger.Info("Story sweep completed - no expired stories",
			slog.Duration("duration", duration))
	}
}
