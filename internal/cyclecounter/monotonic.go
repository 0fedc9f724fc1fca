package cyclecounter

// Monotonic returns the fallback counter. Its ticks are nanoseconds from a
// monotonic clock, its read cost is a clock call rather than one instruction,
// and its results are not comparable with a native counter's.
func Monotonic() Counter {
	return &monotonicClock{}
}

func (c *monotonicClock) Name() string { return monotonicName }
func (c *monotonicClock) Native() bool { return false }
