package window

// Premap applies f to both sides of every event before delegating to an
// inner accumulator, changing the element type the outer world feeds in.
type Premap[C, T Number, V any] struct {
	f     func(C) T
	inner Accumulator[T, V]
}

// NewPremap wraps inner so that it observes f(x) for every element x.
func NewPremap[C, T Number, V any](f func(C) T, inner Accumulator[T, V]) *Premap[C, T, V] {
	return &Premap[C, T, V]{f: f, inner: inner}
}

func (p *Premap[C, T, V]) Step(ev Event[C]) {
	if ev.HasOut {
		p.inner.Step(Slide(p.f(ev.In), p.f(ev.Out)))
		return
	}
	p.inner.Step(Grow(p.f(ev.In)))
}

func (p *Premap[C, T, V]) Extract() (V, error) {
	return p.inner.Extract()
}

// Tee runs two accumulators in lock-step over the same event sequence and
// combines their extracted values on demand. The two inner states stay
// coherent only as long as every event reaches both, which Step guarantees
// for events routed through the Tee itself.
type Tee[T Number, A, B, V any] struct {
	first   Accumulator[T, A]
	second  Accumulator[T, B]
	combine func(A, B) V
}

// NewTee wires two accumulators behind a combining function.
func NewTee[T Number, A, B, V any](combine func(A, B) V, first Accumulator[T, A], second Accumulator[T, B]) *Tee[T, A, B, V] {
	return &Tee[T, A, B, V]{first: first, second: second, combine: combine}
}

func (t *Tee[T, A, B, V]) Step(ev Event[T]) {
	t.first.Step(ev)
	t.second.Step(ev)
}

func (t *Tee[T, A, B, V]) Extract() (V, error) {
	a, err := t.first.Extract()
	if err != nil {
		var zero V
		return zero, err
	}
	b, err := t.second.Extract()
	if err != nil {
		var zero V
		return zero, err
	}
	return t.combine(a, b), nil
}

// NewMean returns sum ÷ length over the window. A zero-length window divides
// by zero and extracts NaN, the IEEE result, uncorrected.
func NewMean() *Tee[float64, float64, int64, float64] {
	return NewTee(
		func(sum float64, n int64) float64 { return sum / float64(n) },
		NewSum(),
		NewLength[float64](),
	)
}

// NewRange returns max − min over the window. Like its components it fails
// with ErrEmptyWindow before the first event.
func NewRange[T Number]() *Tee[T, T, T, T] {
	return NewTee(
		func(hi, lo T) T { return hi - lo },
		Accumulator[T, T](NewMax[T]()),
		Accumulator[T, T](NewMin[T]()),
	)
}

// Cumulative adapts a windowed accumulator into a whole-stream one by feeding
// every element as a Grow event, so the window is the entire sequence seen so
// far.
type Cumulative[T Number, V any] struct {
	inner Accumulator[T, V]
}

// NewCumulative wraps inner in cumulative mode.
func NewCumulative[T Number, V any](inner Accumulator[T, V]) *Cumulative[T, V] {
	return &Cumulative[T, V]{inner: inner}
}

// Push inserts one element without eviction.
func (c *Cumulative[T, V]) Push(x T) {
	c.inner.Step(Grow(x))
}

func (c *Cumulative[T, V]) Extract() (V, error) {
	return c.inner.Extract()
}
