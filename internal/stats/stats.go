// Package stats reduces cycle samples to summary statistics.
package stats

import (
	"math"
	"math/bits"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// Aggregate summarises one sample sequence. Empty is set when there were no
// samples; every numeric field is then zero rather than NaN.
type Aggregate struct {
	Count  int     `json:"count" yaml:"count"`
	Min    uint64  `json:"min" yaml:"min"`
	Max    uint64  `json:"max" yaml:"max"`
	Mean   float64 `json:"mean" yaml:"mean"`
	StdDev float64 `json:"stddev" yaml:"stddev"`
	Empty  bool    `json:"empty" yaml:"empty"`
}

// Compute returns min, max, mean and the population standard deviation
// (denominator N, not N-1) of values. The mean is taken over offsets from
// the minimum, summed in 128 bits so ten million full-width samples cannot
// overflow. Mean is a float64: once samples exceed 2^53 neighbouring values
// are no longer representable and Mean can round onto Min or Max even when
// the samples differ.
func Compute(values []uint64) Aggregate {
	n := len(values)
	if n == 0 {
		return Aggregate{Empty: true}
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	agg := Aggregate{Count: n, Min: lo, Max: hi}
	if lo == hi {
		agg.Mean = float64(lo)
		return agg
	}

	var sumHi, sumLo, carry uint64
	for _, v := range values {
		sumLo, carry = bits.Add64(sumLo, v-lo, 0)
		sumHi += carry
	}
	offset := (float64(sumHi)*0x1p64 + float64(sumLo)) / float64(n)

	var ss float64
	for _, v := range values {
		d := float64(v-lo) - offset
		ss += d * d
	}
	agg.Mean = math.Max(float64(lo), math.Min(float64(hi), float64(lo)+offset))
	agg.StdDev = math.Sqrt(ss / float64(n))
	return agg
}

// Distribution holds descriptive quantiles of a sequence. It is reported
// alongside the aggregate and never used to discard samples.
type Distribution struct {
	P50 float64 `json:"p50" yaml:"p50"`
	P90 float64 `json:"p90" yaml:"p90"`
	P99 float64 `json:"p99" yaml:"p99"`
}

// Describe computes the median, 90th and 99th percentile of values using the
// empirical quantile. An empty input yields a zero Distribution.
func Describe(values []uint64) Distribution {
	q := Quantiles(values, 0.5, 0.9, 0.99)
	if q == nil {
		return Distribution{}
	}
	return Distribution{P50: q[0], P90: q[1], P99: q[2]}
}

// Quantiles returns the empirical quantile of values for each p in ps. values
// is not modified. It returns nil for an empty input.
func Quantiles(values []uint64, ps ...float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	xs := make([]float64, len(values))
	for i, v := range values {
		xs[i] = float64(v)
	}
	slices.Sort(xs)

	out := make([]float64, len(ps))
	for i, p := range ps {
		out[i] = stat.Quantile(math.Max(0, math.Min(1, p)), stat.Empirical, xs, nil)
	}
	return out
}
