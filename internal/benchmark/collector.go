package benchmark

import (
	"runtime"
	"runtime/debug"

	"github.com/mwiater/cyclebench/internal/cyclecounter"
	"github.com/mwiater/cyclebench/internal/logging"
	"github.com/mwiater/cyclebench/internal/overhead"
	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/mwiater/cyclebench/internal/report"
	"go.uber.org/zap"
)

// Collector runs the warm-up and measured phases for an adapter.
type Collector struct {
	counter        cyclecounter.Counter
	overhead       overhead.Estimate
	maxBufferBytes int
	disableGC      bool
	memoryLimit    int64
	pinCPU         int
}

// DefaultMemoryLimit is the heap ceiling applied while the collector is
// paused, when no other limit is configured.
const DefaultMemoryLimit = 1 << 30

// Option configures a Collector.
type Option func(*Collector)

// WithMaxBufferBytes caps the size of any single buffer role.
func WithMaxBufferBytes(n int) Option {
	return func(c *Collector) { c.maxBufferBytes = n }
}

// WithGCDisabled pauses the garbage collector during collection.
func WithGCDisabled(on bool) Option {
	return func(c *Collector) { c.disableGC = on }
}

// WithMemoryLimit sets the soft memory limit in force while the collector
// is paused. Adapters that allocate per call would otherwise grow the heap
// without bound; at the limit the runtime collects despite the pause. Zero
// or less selects DefaultMemoryLimit.
func WithMemoryLimit(n int64) Option {
	return func(c *Collector) { c.memoryLimit = n }
}

// WithPinnedCPU pins the measuring thread to cpu. A negative cpu disables
// pinning.
func WithPinnedCPU(cpu int) Option {
	return func(c *Collector) { c.pinCPU = cpu }
}

// NewCollector returns a Collector that brackets calls with counter and
// subtracts est from every raw delta.
func NewCollector(counter cyclecounter.Counter, est overhead.Estimate, opts ...Option) *Collector {
	c := &Collector{counter: counter, overhead: est, pinCPU: -1}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Samples is the output of one collection.
type Samples struct {
	Generate *SampleSequence
	Forward  *SampleSequence
	Inverse  *SampleSequence
	Buffers  *Buffers
	// GCCycles counts collections that ran during warm-up and measurement.
	GCCycles uint32
}

// Sequences returns the three sequences in measurement order.
func (s *Samples) Sequences() []*SampleSequence {
	return []*SampleSequence{s.Generate, s.Forward, s.Inverse}
}

// Collect allocates buffers, runs warmup untimed chains and then iterations
// measured trials. Each stage of a trial is bracketed on its own. A failing
// stage is recorded as a failure and the rest of that trial is skipped; the
// skipped stages are not counted as attempts. Adapters implementing
// primitive.Preparer get the shared-secret buffer filled before warm-up.
func (c *Collector) Collect(a primitive.Adapter, iterations, warmup uint32) (*Samples, error) {
	bufs, err := NewBuffers(a.BufferSizes(), c.maxBufferBytes)
	if err != nil {
		return nil, err
	}
	s := &Samples{
		Generate: NewSampleSequence(report.LabelGenerate, iterations),
		Forward:  NewSampleSequence(report.LabelForward, iterations),
		Inverse:  NewSampleSequence(report.LabelInverse, iterations),
		Buffers:  bufs,
	}
	if err := primitive.Prepare(a, bufs.SharedSecret); err != nil {
		return nil, err
	}

	release := c.prepare(a.Name())
	defer func() { s.GCCycles = release() }()

	for i := uint32(0); i < warmup; i++ {
		if err := chain(a, bufs); err != nil {
			logging.LogStage(a.Name(), "warmup", zap.Uint32("chain", i), zap.Error(err))
		}
	}

	counter, est := c.counter, c.overhead
	pk, sk, ct, ss, ss2 := bufs.PublicKey, bufs.SecretKey, bufs.Ciphertext, bufs.SharedSecret, bufs.Recovered
	for i := uint32(0); i < iterations; i++ {
		t0 := counter.Read()
		err := a.Generate(pk, sk)
		t1 := counter.Read()
		if err != nil {
			s.Generate.Fail(err)
			continue
		}
		s.Generate.Append(est.Subtract(cyclecounter.Delta(t0, t1)))

		t0 = counter.Read()
		err = a.Forward(pk, ct, ss)
		t1 = counter.Read()
		if err != nil {
			s.Forward.Fail(err)
			continue
		}
		s.Forward.Append(est.Subtract(cyclecounter.Delta(t0, t1)))

		t0 = counter.Read()
		err = a.Inverse(ct, sk, ss2)
		t1 = counter.Read()
		if err != nil {
			s.Inverse.Fail(err)
			continue
		}
		s.Inverse.Append(est.Subtract(cyclecounter.Delta(t0, t1)))
	}
	return s, nil
}

// prepare locks the goroutine to its thread, optionally pins it and pauses
// the collector under a memory limit. The returned function undoes all of it
// and reports how many collections ran in between.
func (c *Collector) prepare(variant string) func() uint32 {
	runtime.LockOSThread()
	var unpin func()
	if c.pinCPU >= 0 {
		var err error
		if unpin, err = pinThread(c.pinCPU); err != nil {
			logging.Warn("cpu pinning skipped", zap.String("variant", variant), zap.Error(err))
		}
	}
	gcPercent, memLimit, gcPaused := 0, int64(0), false
	if c.disableGC {
		runtime.GC()
		limit := c.memoryLimit
		if limit <= 0 {
			limit = DefaultMemoryLimit
		}
		memLimit = debug.SetMemoryLimit(limit)
		gcPercent, gcPaused = debug.SetGCPercent(-1), true
	}
	startGC := numGC()
	return func() uint32 {
		cycles := numGC() - startGC
		if gcPaused {
			debug.SetGCPercent(gcPercent)
			debug.SetMemoryLimit(memLimit)
			if cycles > 0 {
				logging.Warn("garbage collector ran at the memory limit during measurement",
					zap.String("variant", variant), zap.Uint32("cycles", cycles))
			}
		}
		if unpin != nil {
			unpin()
		}
		runtime.UnlockOSThread()
		return cycles
	}
}

func numGC() uint32 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ms.NumGC
}

// chain runs one untimed generate, forward, inverse sequence.
func chain(a primitive.Adapter, bufs *Buffers) error {
	if err := a.Generate(bufs.PublicKey, bufs.SecretKey); err != nil {
		return err
	}
	if err := a.Forward(bufs.PublicKey, bufs.Ciphertext, bufs.SharedSecret); err != nil {
		return err
	}
	return a.Inverse(bufs.Ciphertext, bufs.SecretKey, bufs.Recovered)
}
