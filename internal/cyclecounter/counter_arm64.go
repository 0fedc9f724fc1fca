//go:build arm64

package cyclecounter

// cntvct reads the virtual counter (CNTVCT_EL0) behind an ISB.
// Implemented in counter_arm64.s
//
//go:noescape
func cntvct() uint64

type virtualCounter struct{}

func (virtualCounter) Read() uint64 { return cntvct() }
func (virtualCounter) Name() string { return "cntvct_el0" }
func (virtualCounter) Native() bool { return true }

func native() Counter { return virtualCounter{} }
