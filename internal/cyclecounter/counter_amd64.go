//go:build amd64

package cyclecounter

// rdtsc executes LFENCE followed by RDTSC so earlier instructions retire
// before the counter is sampled.
// Implemented in counter_amd64.s
//
//go:noescape
func rdtsc() uint64

type tsc struct{}

func (tsc) Read() uint64 { return rdtsc() }
func (tsc) Name() string { return "rdtsc" }
func (tsc) Native() bool { return true }

func native() Counter { return tsc{} }
