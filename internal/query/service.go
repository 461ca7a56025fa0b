// Package query implements the read-side API: live statistic extracts from
// the tracker and historical snapshots from storage.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	v1 "github.com/MercuryTechnologies/streamly/internal/api/v1"
	"github.com/MercuryTechnologies/streamly/internal/core/rule"
	"github.com/MercuryTechnologies/streamly/internal/core/storage"
	"github.com/MercuryTechnologies/streamly/internal/tracker"
)

const defaultHistoryLimit = 500

var (
	// ErrUnknownMetric marks queries for metrics no rule tracks.
	ErrUnknownMetric = errors.New("no statistic rule tracks this metric")

	// ErrUnknownRule marks history queries for rules that do not exist.
	ErrUnknownRule = errors.New("statistic rule not found")

	// ErrInvalidRange marks history queries with an empty or inverted range.
	ErrInvalidRange = errors.New("invalid time range")
)

// Service implements the query layer over the live tracker and the snapshot
// store.
type Service struct {
	tracker   *tracker.Tracker
	snapStore storage.SnapshotStore
	rules     map[string]rule.Rule // keyed by rule name
	metrics   map[string]bool      // metrics with at least one rule
}

// NewService creates the query service for a fixed rule set.
func NewService(tr *tracker.Tracker, snapStore storage.SnapshotStore, rules []rule.Rule) *Service {
	s := &Service{
		tracker:   tr,
		snapStore: snapStore,
		rules:     make(map[string]rule.Rule, len(rules)),
		metrics:   make(map[string]bool, len(rules)),
	}
	for _, rl := range rules {
		s.rules[rl.Name] = rl
		s.metrics[rl.Metric] = true
	}
	return s
}

// LivePoints returns the current extracts for one metric. An empty slice
// means the metric is tracked but has not seen samples yet.
func (s *Service) LivePoints(metric string) ([]v1.StatPoint, error) {
	if !s.metrics[metric] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMetric, metric)
	}
	return s.tracker.Points(metric), nil
}

// History returns stored snapshots for one rule within [from, to).
func (s *Service) History(ctx context.Context, ruleName string, from, to time.Time, limit int) ([]v1.StatPoint, error) {
	if _, ok := s.rules[ruleName]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRule, ruleName)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: start must be before end", ErrInvalidRange)
	}
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	snaps, err := s.snapStore.RangeSnapshots(ctx, ruleName, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("querying snapshots for rule %q: %w", ruleName, err)
	}

	points := make([]v1.StatPoint, 0, len(snaps))
	for _, snap := range snaps {
		points = append(points, v1.StatPoint{
			RuleName:   snap.RuleName,
			Metric:     snap.Metric,
			Statistic:  snap.Statistic,
			WindowSize: snap.WindowSize,
			Value:      snap.Value,
			Samples:    snap.Samples,
			ObservedAt: snap.ObservedAt,
		})
	}

	return points, nil
}
