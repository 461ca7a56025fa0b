package rule

import (
	"math"

	"github.com/MercuryTechnologies/streamly/internal/core/window"
)

// Supported statistics. Every entry maps to an accumulator from the core
// window engine; adding one means implementing Statistic and registering it
// here — the tracker's hot path stays a single map lookup, no switch.
const (
	StatCount    = "count"
	StatSum      = "sum"
	StatMean     = "mean"
	StatMin      = "min"
	StatMax      = "max"
	StatRange    = "range"
	StatPowerSum = "power_sum"
)

// Statistic builds a fresh accumulator for one rule. Build is called once per
// (metric, rule) series; the returned accumulator is then stepped for the
// series' lifetime.
type Statistic interface {
	Build(r Rule) window.Accumulator[float64, float64]
}

// Statistics is the registry of all supported statistics.
var Statistics = map[string]Statistic{
	StatCount:    countStat{},
	StatSum:      sumStat{},
	StatMean:     meanStat{},
	StatMin:      minStat{},
	StatMax:      maxStat{},
	StatRange:    rangeStat{},
	StatPowerSum: powerSumStat{},
}

// ValidStatistic reports whether name is a registered statistic.
func ValidStatistic(name string) bool {
	_, ok := Statistics[name]
	return ok
}

type countStat struct{}

func (countStat) Build(Rule) window.Accumulator[float64, float64] {
	return lengthAsFloat{inner: window.NewLength[float64]()}
}

type sumStat struct{}

func (sumStat) Build(Rule) window.Accumulator[float64, float64] {
	return window.NewSum()
}

type meanStat struct{}

func (meanStat) Build(Rule) window.Accumulator[float64, float64] {
	return window.NewMean()
}

type minStat struct{}

func (minStat) Build(Rule) window.Accumulator[float64, float64] {
	return window.NewMin[float64]()
}

type maxStat struct{}

func (maxStat) Build(Rule) window.Accumulator[float64, float64] {
	return window.NewMax[float64]()
}

type rangeStat struct{}

func (rangeStat) Build(Rule) window.Accumulator[float64, float64] {
	return window.NewRange[float64]()
}

// powerSumStat picks the repeated-multiplication fast path for integral
// exponents and falls back to math.Pow otherwise.
type powerSumStat struct{}

func (powerSumStat) Build(r Rule) window.Accumulator[float64, float64] {
	if r.Exponent == math.Trunc(r.Exponent) {
		return window.NewPowerSum(int(r.Exponent))
	}
	return window.NewPowerSumFrac(r.Exponent)
}

// lengthAsFloat adapts the int64-valued Length accumulator to the float64
// extract type every other statistic shares.
type lengthAsFloat struct {
	inner *window.Length[float64]
}

func (a lengthAsFloat) Step(ev window.Event[float64]) {
	a.inner.Step(ev)
}

func (a lengthAsFloat) Extract() (float64, error) {
	n, err := a.inner.Extract()
	return float64(n), err
}
