package postgres

import (
	"encoding/json"
	"fmt"

	v1 "github.com/MercuryTechnologies/streamly/internal/api/v1"
)

// marshalLabels marshals a sample's labels to JSON.
// Nil labels produce nil (SQL NULL) rather than a JSON "null" string.
func marshalLabels(sample *v1.Sample) ([]byte, error) {
	if len(sample.Labels) == 0 {
		return nil, nil
	}
	labelsJSON, err := json.Marshal(sample.Labels)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal labels: %w", err)
	}
	return labelsJSON, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// scanSampleRow scans a database row into a Sample. The value column is
// NUMERIC and scans through decimal, preserving whatever precision the client
// supplied. Compatible with both sql.Row (single) and sql.Rows (multiple).
func scanSampleRow(row scanner) (*v1.Sample, error) {
	var smp v1.Sample
	var labelsJSON []byte

	err := row.Scan(
		&smp.ID,
		&smp.Metric,
		&smp.Value,
		&labelsJSON,
		&smp.OccurredAt,
		&smp.IngestedAt,
		&smp.IngestSeq,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan sample row: %w", err)
	}

	if len(labelsJSON) > 0 {
		if err := json.Unmarshal(labelsJSON, &smp.Labels); err != nil {
			return nil, fmt.Errorf("failed to unmarshal labels: %w", err)
		}
	}

	return &smp, nil
}
