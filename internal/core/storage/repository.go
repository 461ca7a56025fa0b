package storage

import (
	"context"
	"errors"
	"time"

	v1 "github.com/MercuryTechnologies/streamly/internal/api/v1"
)

// ErrDuplicate is returned when a sample with the same id already exists.
var ErrDuplicate = errors.New("sample already exists")

// Snapshot is one persisted statistic extraction: the value a rule's live
// accumulator held at observation time. Snapshots persist extracted values
// only, never accumulator state.
type Snapshot struct {
	ID              string
	RuleName        string
	Metric          string
	Statistic       string
	WindowSize      int // samples; 0 means cumulative
	Value           float64
	Samples         int64 // observations the series had seen at snapshot time
	RuleFingerprint string
	ObservedAt      time.Time
}

// SampleStore defines the interface for storing and retrieving raw samples.
type SampleStore interface {
	SaveSample(ctx context.Context, sample *v1.Sample) error

	// RetrieveSamplesAfterCursor fetches samples after a cursor (ingest_seq)
	// in strict total order. Used on startup to replay the recent stream into
	// the tracker; cursor=0 means "from the beginning".
	RetrieveSamplesAfterCursor(ctx context.Context, cursor int64, limit int) ([]*v1.Sample, error)
}

// SnapshotStore defines the interface for persisted statistic snapshots.
type SnapshotStore interface {
	// UpsertSnapshot writes one snapshot; re-observing the same
	// (rule, observed_at) pair overwrites the previous row.
	UpsertSnapshot(ctx context.Context, snap *Snapshot) error

	// RangeSnapshots returns stored snapshots for one rule within
	// [from, to), oldest first.
	RangeSnapshots(ctx context.Context, ruleName string, from, to time.Time, limit int) ([]*Snapshot, error)
}
