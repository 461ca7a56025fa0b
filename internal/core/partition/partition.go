package partition

import "hash/fnv"

// Count is the fixed number of logical shards the tracker spreads metric
// series over. Never changes after initial deployment — it's a contention
// decision, not a scaling decision.
const Count = 64

// For returns the shard ID for a given metric name.
// Stable and deterministic: same metric always maps to the same shard.
// Uses FNV-32a (stdlib, fast, well-distributed).
func For(metric string) int {
	h := fnv.New32a()
	h.Write([]byte(metric))
	return int(h.Sum32()) % Count
}
