//go:build linux

package cyclecounter

import (
	"time"

	"golang.org/x/sys/unix"
)

const monotonicName = "clock_monotonic_raw"

// monotonicClock reads CLOCK_MONOTONIC_RAW, which is not slewed by NTP.
// ts is reused between reads so Read does not allocate.
type monotonicClock struct {
	ts    unix.Timespec
	epoch time.Time
}

func (c *monotonicClock) Read() uint64 {
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC_RAW, &c.ts); err != nil {
		if c.epoch.IsZero() {
			c.epoch = time.Now()
		}
		return uint64(time.Since(c.epoch))
	}
	return uint64(c.ts.Nano())
}
