package window

// entry is one candidate extremum: the value and the logical timestamp at
// which it arrived, used to detect expiry.
type entry[T Number] struct {
	index int64
	value T
}

// extremum is the shared engine behind Min and Max: a monotonic deque of
// candidate extrema over a growable ring buffer. Two invariants hold between
// steps:
//
//   - values are monotonic front to back (non-decreasing for min,
//     non-increasing for max), so the front is always the current extremum;
//   - the front entry's arrival index is always inside the window, entries
//     that fall outside are popped from the front before each insertion.
//
// Each element is pushed once and popped at most once over its lifetime, so a
// run of n events performs at most 2n deque operations even though a single
// step may pop many entries.
type extremum[T Number] struct {
	index     int64 // logical timestamp, incremented once per event
	windowLen int64 // inferred window size; grows on Grow, holds on Slide

	// evict reports whether the back entry with value back can never be the
	// answer again once in arrives (in is newer and at least as extreme).
	evict func(back, in T) bool

	ring []entry[T]
	head int
	n    int

	ops int64 // pushes + pops, for amortized-cost accounting
}

// Min tracks the sliding-window minimum.
type Min[T Number] struct{ extremum[T] }

// NewMin returns a minimum accumulator over an empty window.
func NewMin[T Number]() *Min[T] {
	return &Min[T]{extremum[T]{evict: func(back, in T) bool { return back >= in }}}
}

// Max tracks the sliding-window maximum.
type Max[T Number] struct{ extremum[T] }

// NewMax returns a maximum accumulator over an empty window.
func NewMax[T Number]() *Max[T] {
	return &Max[T]{extremum[T]{evict: func(back, in T) bool { return back <= in }}}
}

func (e *extremum[T]) Step(ev Event[T]) {
	e.index++
	if !ev.HasOut {
		e.windowLen++
	}

	// Drop candidates that slid out of the window.
	for e.n > 0 && e.front().index <= e.index-e.windowLen {
		e.popFront()
	}
	// Drop candidates dominated by the incoming value.
	for e.n > 0 && e.evict(e.back().value, ev.In) {
		e.popBack()
	}
	e.pushBack(entry[T]{index: e.index, value: ev.In})
}

// Extract returns the current extremum, the front of the deque. It fails with
// ErrEmptyWindow only before the first Step: every step ends with a push, so
// the deque is never empty afterwards.
func (e *extremum[T]) Extract() (T, error) {
	if e.n == 0 {
		var zero T
		return zero, ErrEmptyWindow
	}
	return e.front().value, nil
}

func (e *extremum[T]) front() entry[T] {
	return e.ring[e.head]
}

func (e *extremum[T]) back() entry[T] {
	return e.ring[(e.head+e.n-1)%len(e.ring)]
}

func (e *extremum[T]) popFront() {
	e.head = (e.head + 1) % len(e.ring)
	e.n--
	e.ops++
}

func (e *extremum[T]) popBack() {
	e.n--
	e.ops++
}

func (e *extremum[T]) pushBack(it entry[T]) {
	if e.n == len(e.ring) {
		e.grow()
	}
	e.ring[(e.head+e.n)%len(e.ring)] = it
	e.n++
	e.ops++
}

// grow doubles the ring capacity, unwinding the wrap-around so head restarts
// at zero.
func (e *extremum[T]) grow() {
	capacity := 2 * len(e.ring)
	if capacity == 0 {
		capacity = 8
	}
	next := make([]entry[T], capacity)
	for i := 0; i < e.n; i++ {
		next[i] = e.ring[(e.head+i)%len(e.ring)]
	}
	e.ring = next
	e.head = 0
}
