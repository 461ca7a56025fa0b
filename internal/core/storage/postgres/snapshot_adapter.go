package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/MercuryTechnologies/streamly/internal/core/storage"
)

// SnapshotAdapter implements storage.SnapshotStore for PostgreSQL.
// It shares the connection pool of the sample adapter.
type SnapshotAdapter struct {
	db *sql.DB
}

// NewSnapshotAdapter creates a snapshot store on an existing handle.
func NewSnapshotAdapter(db *sql.DB) *SnapshotAdapter {
	return &SnapshotAdapter{db: db}
}

// UpsertSnapshot writes one snapshot. Re-observing the same
// (rule_name, observed_at) pair overwrites value, samples and fingerprint.
func (a *SnapshotAdapter) UpsertSnapshot(ctx context.Context, snap *storage.Snapshot) error {
	_, err := a.db.ExecContext(ctx, queryUpsertSnapshot,
		snap.ID,
		snap.RuleName,
		snap.Metric,
		snap.Statistic,
		snap.WindowSize,
		snap.Value,
		snap.Samples,
		snap.RuleFingerprint,
		snap.ObservedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}

	slog.Debug("[Postgres] Upserted snapshot",
		"rule_name", snap.RuleName,
		"metric", snap.Metric,
		"observed_at", snap.ObservedAt)
	return nil
}

// RangeSnapshots returns stored snapshots for one rule within [from, to),
// oldest first.
func (a *SnapshotAdapter) RangeSnapshots(ctx context.Context, ruleName string, from, to time.Time, limit int) ([]*storage.Snapshot, error) {
	rows, err := a.db.QueryContext(ctx, queryRangeSnapshots, ruleName, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	var snaps []*storage.Snapshot
	for rows.Next() {
		var snap storage.Snapshot
		err := rows.Scan(
			&snap.ID,
			&snap.RuleName,
			&snap.Metric,
			&snap.Statistic,
			&snap.WindowSize,
			&snap.Value,
			&snap.Samples,
			&snap.RuleFingerprint,
			&snap.ObservedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan snapshot row: %w", err)
		}
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating snapshots: %w", err)
	}

	return snaps, nil
}
