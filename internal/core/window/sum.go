package window

import "math"

// Sum is a compensated (Kahan–Babuska–Neumaier) running sum over float64
// values. Each step captures the rounding error of the addition in a residue
// that is folded back in at extraction, so the extracted total stays within a
// small multiple of machine epsilon of the exact sum regardless of sequence
// length — naive summation does not guarantee that.
//
// Known limitation: on a Slide event the increment is `in - out` computed in
// floating point before any compensation applies, so when the two differ
// hugely in magnitude the smaller one's low bits are lost to rounding. That
// is an accepted approximation, characterized in tests rather than corrected
// here.
type Sum struct {
	total   float64
	residue float64
}

// NewSum returns a compensated sum at zero.
func NewSum() *Sum {
	return &Sum{}
}

func (s *Sum) Step(ev Event[float64]) {
	incr := ev.In
	if ev.HasOut {
		incr = ev.In - ev.Out
	}
	total := s.total + incr
	if math.Abs(s.total) >= math.Abs(incr) {
		s.residue += (s.total - total) + incr
	} else {
		s.residue += (incr - total) + s.total
	}
	s.total = total
}

// Extract returns the running total with the rounding residue applied. The
// error is always nil; an empty window sums to zero.
func (s *Sum) Extract() (float64, error) {
	return s.total + s.residue, nil
}

// SumInt is a plain running total over an integer type. Integer addition is
// exact, so no compensation is needed. Overflow is not detected.
type SumInt[T Integer] struct {
	total T
}

// NewSumInt returns an integral sum at zero.
func NewSumInt[T Integer]() *SumInt[T] {
	return &SumInt[T]{}
}

func (s *SumInt[T]) Step(ev Event[T]) {
	s.total += ev.In
	if ev.HasOut {
		s.total -= ev.Out
	}
}

func (s *SumInt[T]) Extract() (T, error) {
	return s.total, nil
}
