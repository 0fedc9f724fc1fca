// Package overhead estimates the cost of bracketing code with two counter reads.
package overhead

import "github.com/mwiater/cyclebench/internal/cyclecounter"

// DefaultTrials is enough trials for the true floor to show up despite
// scheduler and interrupt jitter.
const DefaultTrials uint32 = 100000

// Estimate is the measurement floor. It is computed once per run and only read
// afterwards.
type Estimate struct {
	cycles uint64
	trials uint32
}

// NewEstimate builds an Estimate from a known floor.
func NewEstimate(cycles uint64, trials uint32) Estimate {
	return Estimate{cycles: cycles, trials: trials}
}

// Cycles returns the floor in counter ticks.
func (e Estimate) Cycles() uint64 { return e.cycles }

// Trials returns how many brackets were sampled to find the floor.
func (e Estimate) Trials() uint32 { return e.trials }

// Subtract removes the floor from a raw delta. A delta below the floor is
// clamped to 0; for raw >= floor, Subtract(raw)+Cycles() == raw.
func (e Estimate) Subtract(raw uint64) uint64 {
	if raw < e.cycles {
		return 0
	}
	return raw - e.cycles
}

// Calibrate brackets an empty region with two reads trials times and keeps
// the smallest delta. Any delta above the floor is noise, so the minimum, not
// the mean, is the overhead. Zero trials yield a zero Estimate.
func Calibrate(c cyclecounter.Counter, trials uint32) Estimate {
	if trials == 0 {
		return Estimate{}
	}
	floor := ^uint64(0)
	for i := uint32(0); i < trials; i++ {
		t0 := c.Read()
		barrier()
		t1 := c.Read()
		if d := cyclecounter.Delta(t0, t1); d < floor {
			floor = d
		}
	}
	return Estimate{cycles: floor, trials: trials}
}

// barrier is an opaque call the compiler cannot move reads across.
//
//go:noinline
func barrier() {}
