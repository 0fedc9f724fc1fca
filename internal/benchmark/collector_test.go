package benchmark

import (
	"runtime/debug"
	"testing"

	"github.com/mwiater/cyclebench/internal/overhead"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectPausedGCHonoursMemoryLimit(t *testing.T) {
	gcPercent := debug.SetGCPercent(100)
	debug.SetGCPercent(gcPercent)
	memLimit := debug.SetMemoryLimit(-1)

	clock := &fakeClock{readCost: 1}
	adapter := newFakeAdapter(clock)
	adapter.allocPerCall = 1 << 20

	// 300 MiB of garbage against a 96 MiB ceiling.
	collector := NewCollector(clock, overhead.NewEstimate(0, 1),
		WithGCDisabled(true),
		WithMemoryLimit(96<<20),
	)
	samples, err := collector.Collect(adapter, 300, 0)
	require.NoError(t, err)
	assert.Equal(t, 300, samples.Generate.Len())
	assert.Positive(t, samples.GCCycles)

	assert.Equal(t, gcPercent, debug.SetGCPercent(gcPercent), "gc percent restored")
	assert.Equal(t, memLimit, debug.SetMemoryLimit(-1), "memory limit restored")
}

func TestCollectDefaultMemoryLimitWhileMeasuring(t *testing.T) {
	memLimit := debug.SetMemoryLimit(-1)

	clock := &fakeClock{readCost: 1}
	adapter := &limitRecorder{fakeAdapter: newFakeAdapter(clock)}
	collector := NewCollector(clock, overhead.NewEstimate(0, 1), WithGCDisabled(true))
	_, err := collector.Collect(adapter, 3, 0)
	require.NoError(t, err)

	assert.Equal(t, int64(DefaultMemoryLimit), adapter.limit)
	assert.Equal(t, memLimit, debug.SetMemoryLimit(-1))
}

func TestCollectPreparesBeforeWarmup(t *testing.T) {
	clock := &fakeClock{readCost: 1}
	adapter := &preparedAdapter{fakeAdapter: newFakeAdapter(clock)}
	collector := NewCollector(clock, overhead.NewEstimate(0, 1))

	samples, err := collector.Collect(adapter, 4, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, adapter.prepared)
	assert.Zero(t, adapter.generateAtFirst)
	assert.Equal(t, 4, samples.Forward.Len())
}

// limitRecorder captures the memory limit in force during Generate.
type limitRecorder struct {
	*fakeAdapter
	limit int64
}

func (l *limitRecorder) Generate(pk, sk []byte) error {
	l.limit = debug.SetMemoryLimit(-1)
	return l.fakeAdapter.Generate(pk, sk)
}
