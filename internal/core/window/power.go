package window

import "math"

// Length counts the elements currently in the window. Only Grow events change
// the count: a Slide swaps one element for another and leaves the size alone.
type Length[T Number] struct {
	n int64
}

// NewLength returns a length accumulator at zero.
func NewLength[T Number]() *Length[T] {
	return &Length[T]{}
}

func (l *Length[T]) Step(ev Event[T]) {
	if !ev.HasOut {
		l.n++
	}
}

func (l *Length[T]) Extract() (int64, error) {
	return l.n, nil
}

// NewPowerSum returns an accumulator for the running sum of x^k over the
// window, for integral k. Exponentiation is by repeated multiplication; the
// summation itself is compensated.
func NewPowerSum(k int) *Premap[float64, float64, float64] {
	return NewPremap(func(x float64) float64 { return powInt(x, k) }, NewSum())
}

// NewPowerSumFrac is the continuous-exponent variant of NewPowerSum,
// accepting fractional and negative exponents via math.Pow. Slower than the
// integral fast path; a negative base with a fractional exponent yields NaN,
// propagated as-is.
func NewPowerSumFrac(p float64) *Premap[float64, float64, float64] {
	return NewPremap(func(x float64) float64 { return math.Pow(x, p) }, NewSum())
}

// powInt raises x to an integral power by repeated multiplication.
func powInt(x float64, k int) float64 {
	if k < 0 {
		return 1 / powInt(x, -k)
	}
	out := 1.0
	for ; k > 0; k-- {
		out *= x
	}
	return out
}
