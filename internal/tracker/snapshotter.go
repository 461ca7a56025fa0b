package tracker

import (
	"context"
	"log/slog"
	"time"

	"github.com/MercuryTechnologies/streamly/internal/core/storage"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Snapshotter periodically extracts every live series and persists the
// values. It is stateless between ticks: each flush reads whatever the
// tracker holds at that moment.
type Snapshotter struct {
	interval time.Duration
	tracker  *Tracker
	store    storage.SnapshotStore
	workers  int
}

// NewSnapshotter creates a periodic snapshot flusher.
func NewSnapshotter(interval time.Duration, t *Tracker, store storage.SnapshotStore, workers int) *Snapshotter {
	if workers <= 0 {
		workers = 4
	}
	return &Snapshotter{
		interval: interval,
		tracker:  t,
		store:    store,
		workers:  workers,
	}
}

// Start begins periodic snapshotting. Runs until the context is cancelled,
// then takes one final snapshot so a clean shutdown never loses the last
// interval's worth of movement.
func (s *Snapshotter) Start(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	slog.Info("[Snapshotter] Starting",
		"interval", s.interval,
		"workers", s.workers,
	)

	for {
		select {
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				slog.Error("[Snapshotter] Flush failed", "error", err)
			}
		case <-ctx.Done():
			slog.Info("[Snapshotter] Stopping (context cancelled)")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.Flush(shutdownCtx); err != nil {
				slog.Error("[Snapshotter] Final flush failed", "error", err)
			} else {
				slog.Info("[Snapshotter] Final flush complete")
			}
			return nil
		}
	}
}

// Flush extracts every series once and upserts the results, fanning writes
// out over a bounded worker pool.
func (s *Snapshotter) Flush(ctx context.Context) error {
	points := s.tracker.AllPoints()
	if len(points) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, p := range points {
		p := p
		g.Go(func() error {
			snap := &storage.Snapshot{
				ID:              uuid.New().String(),
				RuleName:        p.RuleName,
				Metric:          p.Metric,
				Statistic:       p.Statistic,
				WindowSize:      p.WindowSize,
				Value:           p.Value,
				Samples:         p.Samples,
				RuleFingerprint: s.tracker.fingerprint(p.RuleName),
				ObservedAt:      p.ObservedAt,
			}
			return s.store.UpsertSnapshot(gctx, snap)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Debug("[Snapshotter] Flushed", "points", len(points))
	return nil
}
