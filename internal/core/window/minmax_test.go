package window

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMinMax_ExtractBeforeFirstEvent(t *testing.T) {
	_, err := NewMin[float64]().Extract()
	require.ErrorIs(t, err, ErrEmptyWindow)

	_, err = NewMax[float64]().Extract()
	require.ErrorIs(t, err, ErrEmptyWindow)
}

func TestMinMax_SlidingScenario(t *testing.T) {
	// Window of 3: grow three times, then slide.
	events := []Event[int]{
		Grow(5),
		Grow(3),
		Grow(8),
		Slide(1, 5),
		Slide(9, 3),
	}
	wantMin := []int{5, 3, 3, 1, 1}
	wantMax := []int{5, 5, 8, 8, 9}

	mn := NewMin[int]()
	mx := NewMax[int]()
	for i, ev := range events {
		mn.Step(ev)
		mx.Step(ev)

		gotMin, err := mn.Extract()
		require.NoError(t, err)
		require.Equal(t, wantMin[i], gotMin, "min after event %d", i)

		gotMax, err := mx.Extract()
		require.NoError(t, err)
		require.Equal(t, wantMax[i], gotMax, "max after event %d", i)
	}
}

// Cross-checks the deque engine against a naive rescan of the last w
// elements, for several window sizes over a fixed pseudo-random sequence.
func TestMinMax_MatchesNaiveRescan(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	xs := make([]float64, 500)
	for i := range xs {
		xs[i] = rng.Float64()*200 - 100
	}

	for _, w := range []int{1, 2, 3, 7, 50, 500} {
		mn := NewMin[float64]()
		mx := NewMax[float64]()
		for i, x := range xs {
			if i < w {
				mn.Step(Grow(x))
				mx.Step(Grow(x))
			} else {
				mn.Step(Slide(x, xs[i-w]))
				mx.Step(Slide(x, xs[i-w]))
			}

			lo := 0
			if i >= w {
				lo = i - w + 1
			}
			wantMin, wantMax := xs[lo], xs[lo]
			for _, y := range xs[lo : i+1] {
				if y < wantMin {
					wantMin = y
				}
				if y > wantMax {
					wantMax = y
				}
			}

			gotMin, err := mn.Extract()
			require.NoError(t, err)
			require.Equal(t, wantMin, gotMin, "w=%d i=%d", w, i)

			gotMax, err := mx.Extract()
			require.NoError(t, err)
			require.Equal(t, wantMax, gotMax, "w=%d i=%d", w, i)
		}
	}
}

// Each element is pushed once and popped at most once, so total deque
// operations over n events stay within 2n regardless of window size.
func TestMinMax_AmortizedDequeOps(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	const n = 10000
	const w = 250

	mn := NewMin[float64]()
	xs := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		x := rng.Float64()
		xs = append(xs, x)
		if i < w {
			mn.Step(Grow(x))
		} else {
			mn.Step(Slide(x, xs[i-w]))
		}
	}
	require.LessOrEqual(t, mn.ops, int64(2*n))
}

func TestMinMax_EqualValues(t *testing.T) {
	// Ties must not disturb the extracted extremum.
	mn := NewMin[int]()
	for _, ev := range []Event[int]{Grow(4), Grow(4), Slide(4, 4), Slide(7, 4), Slide(7, 4)} {
		mn.Step(ev)
	}
	got, err := mn.Extract()
	require.NoError(t, err)
	require.Equal(t, 7, got)
}
