// Package window implements incremental statistics over growing and sliding
// windows of numeric values. Accumulators consume one Event at a time and
// answer Extract in O(1) (amortized O(1) for the order statistics) without
// buffering the full input.
//
// Accumulators are not safe for concurrent use. Callers feeding events from
// multiple producers must serialize them into a single ordered sequence.
package window

import "errors"

// ErrEmptyWindow is returned by Extract when an order-statistic accumulator
// has not yet processed any event.
var ErrEmptyWindow = errors.New("window: extract on empty window")

// Number is the set of value types accumulators operate on.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

// Integer is the subset of Number with exact arithmetic.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Event describes one step of window evolution: In always enters the window;
// when HasOut is set, Out leaves it in the same step, keeping the window size
// unchanged. Window size is never passed explicitly — it is inferred from the
// history of Grow vs Slide events, and never shrinks.
type Event[T Number] struct {
	In     T
	Out    T
	HasOut bool
}

// Grow returns an event that inserts in and lets the window grow by one.
func Grow[T Number](in T) Event[T] {
	return Event[T]{In: in}
}

// Slide returns an event that inserts in and evicts out, keeping the window
// size unchanged. Callers must only evict values actually in the window;
// the accumulators do not validate that.
func Slide[T Number](in, out T) Event[T] {
	return Event[T]{In: in, Out: out, HasOut: true}
}

// Accumulator is the contract every statistic implements: a state machine fed
// one event at a time. Step must be deterministic and free of I/O so that a
// replayed event sequence reproduces the same state. Extract may be called at
// any point between steps.
//
// Composite accumulators (Tee, Mean, Range) run two inner accumulators in
// lock-step; presenting divergent event sequences to the two silently yields
// incoherent results, so a composite must be stepped as a unit.
type Accumulator[T Number, V any] interface {
	Step(ev Event[T])
	Extract() (V, error)
}
