//go:build !linux

package cyclecounter

import "time"

const monotonicName = "time_monotonic"

// processEpoch anchors the fallback; time.Since uses the runtime's monotonic reading.
var processEpoch = time.Now()

type monotonicClock struct{}

func (c *monotonicClock) Read() uint64 {
	return uint64(time.Since(processEpoch))
}
