package postgres

// SQL queries for sample and snapshot storage.

const (
	// querySaveSample inserts a sample idempotently by client-supplied id.
	// RETURNING retrieves the auto-generated ingest_seq for cursor tracking.
	// ON CONFLICT DO NOTHING returns no rows (sql.ErrNoRows) for duplicates.
	querySaveSample = `
		INSERT INTO samples (
			id, metric, value, labels, occurred_at, ingested_at
		)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
		RETURNING ingest_seq
	`

	// queryRetrieveSamplesAfterCursor fetches samples after a cursor
	// (ingest_seq) in strict total order. Used by startup replay to rebuild
	// live accumulators without batch-boundary loss.
	queryRetrieveSamplesAfterCursor = `
		SELECT id, metric, value, labels, occurred_at, ingested_at, ingest_seq
		FROM samples
		WHERE ingest_seq > $1
		ORDER BY ingest_seq ASC
		LIMIT $2
	`

	// queryUpsertSnapshot writes one statistic snapshot. A rule observed
	// twice at the same instant overwrites the previous row.
	queryUpsertSnapshot = `
		INSERT INTO stat_snapshots (
			id, rule_name, metric, statistic, window_size,
			value, samples, rule_fingerprint, observed_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rule_name, observed_at)
		DO UPDATE SET
			value            = EXCLUDED.value,
			samples          = EXCLUDED.samples,
			rule_fingerprint = EXCLUDED.rule_fingerprint
	`

	queryRangeSnapshots = `
		SELECT id, rule_name, metric, statistic, window_size,
		       value, samples, rule_fingerprint, observed_at
		FROM stat_snapshots
		WHERE rule_name = $1
		  AND observed_at >= $2
		  AND observed_at < $3
		ORDER BY observed_at ASC
		LIMIT $4
	`
)
