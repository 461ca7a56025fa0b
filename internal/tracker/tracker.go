package tracker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	v1 "github.com/MercuryTechnologies/streamly/internal/api/v1"
	"github.com/MercuryTechnologies/streamly/internal/core/partition"
	"github.com/MercuryTechnologies/streamly/internal/core/rule"
	"github.com/MercuryTechnologies/streamly/internal/core/window"
)

// series is one live statistic: a rule, its accumulator, and — for sliding
// rules — the ring of raw values whose oldest entry becomes the eviction once
// the window is full. The accumulator itself never buffers the window; only
// the tracker knows which value leaves.
type series struct {
	rule rule.Rule
	acc  window.Accumulator[float64, float64]

	ring []float64 // nil for cumulative rules (window size 0)
	head int
	fill int

	seen int64 // observations delivered to this series
}

// observe feeds one value. For a sliding rule the window grows until it
// reaches the configured size and then slides; it never shrinks.
func (s *series) observe(v float64) {
	s.seen++

	if s.ring == nil {
		s.acc.Step(window.Grow(v))
		return
	}

	if s.fill < len(s.ring) {
		s.ring[(s.head+s.fill)%len(s.ring)] = v
		s.fill++
		s.acc.Step(window.Grow(v))
		return
	}

	old := s.ring[s.head]
	s.ring[s.head] = v
	s.head = (s.head + 1) % len(s.ring)
	s.acc.Step(window.Slide(v, old))
}

// point extracts the current value as an API stat point. The second return is
// false until the series has seen at least one observation: order statistics
// have no value yet, and a mean would extract NaN, which has no JSON
// rendering.
func (s *series) point(now time.Time) (v1.StatPoint, bool) {
	if s.seen == 0 {
		return v1.StatPoint{}, false
	}
	val, err := s.acc.Extract()
	if err != nil {
		return v1.StatPoint{}, false
	}
	return v1.StatPoint{
		RuleName:   s.rule.Name,
		Metric:     s.rule.Metric,
		Statistic:  s.rule.Statistic,
		WindowSize: s.rule.WindowSize,
		Value:      val,
		Samples:    s.seen,
		ObservedAt: now,
	}, true
}

// shard groups the series of the metrics hashing to it behind one mutex, so
// accumulator steps are serialized per metric as the core engine requires
// while unrelated metrics proceed in parallel.
type shard struct {
	mu     sync.Mutex
	series map[string][]*series // keyed by metric
}

// Tracker owns every live accumulator. It is the single component that turns
// incoming samples into window events; everything downstream only ever sees
// extracted values.
type Tracker struct {
	shards [partition.Count]shard
	rules  []rule.Rule
}

// New builds a tracker with one series per rule. Unknown statistics are
// rejected here rather than at first observation.
func New(rules []rule.Rule) (*Tracker, error) {
	t := &Tracker{rules: rules}
	for i := range t.shards {
		t.shards[i].series = make(map[string][]*series)
	}

	for _, rl := range rules {
		stat, ok := rule.Statistics[rl.Statistic]
		if !ok {
			return nil, fmt.Errorf("rule %q: unsupported statistic %q", rl.Name, rl.Statistic)
		}

		s := &series{rule: rl, acc: stat.Build(rl)}
		if rl.WindowSize > 0 {
			s.ring = make([]float64, rl.WindowSize)
		}

		sh := &t.shards[partition.For(rl.Metric)]
		sh.series[rl.Metric] = append(sh.series[rl.Metric], s)
	}

	slog.Info("[Tracker] Initialized", "rules", len(rules))
	return t, nil
}

// Observe delivers one sample value to every series tracking its metric.
// Safe for concurrent use; observations of the same metric are serialized.
func (t *Tracker) Observe(metric string, value float64) {
	sh := &t.shards[partition.For(metric)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	for _, s := range sh.series[metric] {
		s.observe(value)
	}
}

// Points returns the current extracts for one metric. Series whose order
// statistic has not seen any event yet are omitted.
func (t *Tracker) Points(metric string) []v1.StatPoint {
	now := time.Now().UTC()

	sh := &t.shards[partition.For(metric)]
	sh.mu.Lock()
	defer sh.mu.Unlock()

	var out []v1.StatPoint
	for _, s := range sh.series[metric] {
		if p, ok := s.point(now); ok {
			out = append(out, p)
		}
	}
	return out
}

// AllPoints returns the current extracts of every series, for snapshotting.
func (t *Tracker) AllPoints() []v1.StatPoint {
	now := time.Now().UTC()

	var out []v1.StatPoint
	for i := range t.shards {
		sh := &t.shards[i]
		sh.mu.Lock()
		for _, ss := range sh.series {
			for _, s := range ss {
				if p, ok := s.point(now); ok {
					out = append(out, p)
				}
			}
		}
		sh.mu.Unlock()
	}
	return out
}

// Rules returns the rules this tracker was built with.
func (t *Tracker) Rules() []rule.Rule {
	return t.rules
}

// fingerprint looks up the fingerprint of a rule by name, for snapshots.
func (t *Tracker) fingerprint(name string) string {
	for _, rl := range t.rules {
		if rl.Name == name {
			return rl.Fingerprint
		}
	}
	return ""
}

// sampleSource is the slice of the sample store replay needs.
type sampleSource interface {
	RetrieveSamplesAfterCursor(ctx context.Context, cursor int64, limit int) ([]*v1.Sample, error)
}

// Replay rebuilds live accumulators from persisted samples in strict
// ingestion order. Called once on startup, before the HTTP surface opens.
func (t *Tracker) Replay(ctx context.Context, store sampleSource, batchSize int) error {
	if batchSize <= 0 {
		batchSize = 1000
	}

	var cursor int64
	var total int
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		samples, err := store.RetrieveSamplesAfterCursor(ctx, cursor, batchSize)
		if err != nil {
			return fmt.Errorf("replay: %w", err)
		}
		if len(samples) == 0 {
			break
		}

		for _, smp := range samples {
			t.Observe(smp.Metric, smp.Float64())
			cursor = smp.IngestSeq
		}
		total += len(samples)
	}

	slog.Info("[Tracker] Replay complete", "samples", total, "cursor", cursor)
	return nil
}
