package v1

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Sample is the atomic unit of the system: one numeric observation of one
// metric. The envelope (system attributes) is separated from the measurement
// itself.
type Sample struct {
	// ID uniquely identifies the sample. Clients may provide it for
	// idempotent retries; the ingestion service assigns a UUID when absent.
	ID string `json:"id,omitempty"`

	// Metric names the series this observation belongs to,
	// e.g. "request_latency_ms". Statistic rules match on this field.
	Metric string `json:"metric"`

	// Value is the observation. Decoded through decimal so that JSON numbers
	// and quoted numeric strings round-trip exactly; the statistics engine
	// receives the closest float64.
	Value decimal.Decimal `json:"value"`

	// Labels is a generic key-value store for context (e.g. source, region).
	Labels map[string]string `json:"labels,omitempty"`

	// OccurredAt is when the observation was taken (client-side clock).
	// Defaults to the ingestion time when absent.
	OccurredAt time.Time `json:"occurred_at,omitempty"`

	// IngestedAt is when streamly received the sample. Set by the ingestion
	// service, not the client.
	IngestedAt time.Time `json:"ingested_at,omitempty"`

	// IngestSeq is a monotonic sequence number assigned on ingestion.
	// Set by database (BIGSERIAL), not exposed in the public API.
	IngestSeq int64 `json:"-"`
}

// Validate ensures the sample has all required attributes.
func (s *Sample) Validate() error {
	if s.Metric == "" {
		return fmt.Errorf("metric is required")
	}
	return nil
}

// Float64 returns the observation as the float64 the statistics engine
// consumes. Values outside float64 range saturate per decimal's conversion.
func (s *Sample) Float64() float64 {
	return s.Value.InexactFloat64()
}

// StatPoint is one extracted statistic value, either live from the tracker or
// read back from a stored snapshot.
type StatPoint struct {
	RuleName   string    `json:"rule_name"`
	Metric     string    `json:"metric"`
	Statistic  string    `json:"statistic"`
	WindowSize int       `json:"window_size"` // samples; 0 means cumulative
	Value      float64   `json:"value"`
	Samples    int64     `json:"samples"` // observations seen by the series so far
	ObservedAt time.Time `json:"observed_at"`
}
