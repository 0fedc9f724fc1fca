// Package cyclecounter provides the tick source used to bracket primitive calls.
//
// On amd64 and arm64 the counter is read with a single serialized instruction
// (RDTSC, CNTVCT_EL0). Every other platform, or an explicit request, gets the
// monotonic-clock fallback. The fallback has materially higher and more
// variable read overhead than a hardware counter and counts nanoseconds rather
// than cycles, so magnitudes taken with it must never be compared against
// magnitudes taken with a native counter.
package cyclecounter

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// Mode selects how New picks a counter.
type Mode string

const (
	// ModeAuto uses the native counter when the architecture has one.
	ModeAuto Mode = "auto"
	// ModeNative requires the native counter and reports ErrCounterUnavailable otherwise.
	ModeNative Mode = "native"
	// ModeMonotonic always uses the monotonic-clock fallback.
	ModeMonotonic Mode = "monotonic"
)

// ErrCounterUnavailable is returned when a native counter was requested on an
// architecture that has none. The accompanying Counter is the fallback.
var ErrCounterUnavailable = errors.New("hardware cycle counter unavailable")

// Counter is a monotonically non-decreasing tick source.
//
// Read must not allocate, log or take locks. Implementations are not safe for
// concurrent use; a parallel harness gives each worker its own Counter.
type Counter interface {
	Read() uint64
	Name() string
	Native() bool
}

// New returns the counter selected by mode. With ModeNative on an unsupported
// architecture it returns the fallback together with a wrapped
// ErrCounterUnavailable so the caller can flag the run.
func New(mode Mode) (Counter, error) {
	switch mode {
	case ModeAuto, "":
		if c := native(); c != nil {
			return c, nil
		}
		return Monotonic(), nil
	case ModeNative:
		if c := native(); c != nil {
			return c, nil
		}
		return Monotonic(), fmt.Errorf("%s: %w", runtime.GOARCH, ErrCounterUnavailable)
	case ModeMonotonic:
		return Monotonic(), nil
	default:
		return nil, fmt.Errorf("unknown counter mode %q", mode)
	}
}

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeAuto:
		return ModeAuto, nil
	case ModeNative, ModeMonotonic:
		return m, nil
	default:
		return "", fmt.Errorf("unknown counter mode %q (want auto, native or monotonic)", s)
	}
}

// HasNative reports whether this architecture has a native counter.
func HasNative() bool {
	return native() != nil
}

// Delta returns end-start. A counter that reads backwards between the two
// reads (unsynchronised TSCs after a core migration) yields 0, not a wrapped
// near-maximum value.
func Delta(start, end uint64) uint64 {
	if end < start {
		return 0
	}
	return end - start
}
