package notification

import (
	"context"
	"log/slog"
	"time"
)

// SweeperConfig holds configuration for the expiry sweeper.
type SweeperConfig struct {
	// Interval is how often the sweeper scans for expired statuses.
	Interval time.Duration

	// BatchSize is the maximum number of statuses expired per cycle.
	BatchSize int
}

// Sweeper periodically moves pending statuses whose request expiry has
// passed into the expired state. A pending status here is one that never got
// a terminal outcome: a deferred placeholder whose request was never
// resumed, or an attempt interrupted mid-flight.
type Sweeper struct {
	statuses StatusStore
	config   SweeperConfig
}

// NewSweeper creates an expiry sweeper.
func NewSweeper(statuses StatusStore, cfg SweeperConfig) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &Sweeper{statuses: statuses, config: cfg}
}

// Run starts the sweeper loop. It blocks until the context is cancelled.
// Should be called in a goroutine.
func (s *Sweeper) Run(ctx context.Context) {
	slog.Info("sweeper started",
		"interval", s.config.Interval,
		"batch_size", s.config.BatchSize,
	)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep performs one cycle: find expired pending statuses and mark them.
func (s *Sweeper) sweep(ctx context.Context) {
	stale, err := s.statuses.ListExpiredPending(ctx, time.Now().UTC(), s.config.BatchSize)
	if err != nil {
		slog.Error("sweeper: failed to list expired statuses", "error", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	expired := 0
	for _, st := range stale {
		if err := s.statuses.MarkExpired(ctx, st.ID); err != nil {
			slog.Error("sweeper: failed to expire status",
				"status_id", st.ID,
				"request_id", st.RequestID,
				"error", err,
			)
			continue
		}
		expired++
	}

	slog.Info("sweeper: cycle complete", "expired", expired, "candidates", len(stale))
}
