package benchmark

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mwiater/cyclebench/internal/appconfig"
	"github.com/mwiater/cyclebench/internal/cyclecounter"
	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/mwiater/cyclebench/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Kyber:512":         "kyber_512",
		"  XChaCha20 Poly ": "xchacha20-poly",
		"mlkem--768!!":      "mlkem-768",
		"__Mixed__Case__":   "mixed__case",
	}
	for input, expected := range cases {
		if got := Slugify(input); got != expected {
			t.Fatalf("Slugify(%q) = %q, want %q", input, got, expected)
		}
	}
}

func testConfig() *appconfig.Config {
	cfg := appconfig.Defaults()
	cfg.Iterations = 1000
	cfg.WarmupIterations = 10
	cfg.OverheadCalibrationTrials = 1000
	cfg.DisableGC = false
	return &cfg
}

func TestRunAdapterConstantCost(t *testing.T) {
	clock := &fakeClock{readCost: 24, native: true}
	adapter := newFakeAdapter(clock)

	rep, err := RunAdapter(adapter, primitive.FamilyKEM, clock, testConfig())
	require.NoError(t, err)

	assert.Equal(t, uint64(24), rep.Overhead)
	assert.Equal(t, uint32(1000), rep.CalibrationTrials)
	require.Len(t, rep.Operations, 3)
	for i, want := range []uint64{50000, 60000, 70000} {
		op := rep.Operations[i]
		assert.Equal(t, 1000, op.Count, op.Label)
		assert.Equal(t, want, op.Min, op.Label)
		assert.Equal(t, want, op.Max, op.Label)
		assert.Equal(t, float64(want), op.Mean, op.Label)
		assert.Zero(t, op.StdDev, op.Label)
		assert.Equal(t, float64(want), op.P99, op.Label)
		assert.Equal(t, uint64(1000), op.Attempts)
		assert.Nil(t, op.Samples)
	}
	assert.Equal(t, []string{"Keypair", "Encapsulation", "Decapsulation"},
		[]string{rep.Operations[0].Name, rep.Operations[1].Name, rep.Operations[2].Name})

	assert.True(t, rep.SecretsMatch)
	assert.Zero(t, rep.FailureCount)
	assert.False(t, rep.Degraded)
	assert.Equal(t, "fake", rep.Counter.Name)

	// warm-up chains, measured trials and the self-check
	assert.Equal(t, [3]int{1011, 1011, 1011}, adapter.calls)

	assert.Equal(t, report.StaticFootprint{Generate: 16, Forward: 40, Inverse: 40}, rep.Footprint.Static)
	assert.Equal(t, 8+8+16+16+16, rep.Footprint.Heap.Total)
}

func TestRunAdapterKeepSamples(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	cfg := testConfig()
	cfg.KeepSamples = true
	cfg.Iterations = 25

	rep, err := RunAdapter(newFakeAdapter(clock), primitive.FamilyKEM, clock, cfg)
	require.NoError(t, err)
	for _, op := range rep.Operations {
		require.Len(t, op.Samples, 25)
	}
	assert.Equal(t, uint64(50000), rep.Operations[0].Samples[0])
}

func TestRunAdapterWrongInverse(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	adapter := newFakeAdapter(clock)
	adapter.wrongInverse = true

	rep, err := RunAdapter(adapter, primitive.FamilyKEM, clock, testConfig())
	require.NoError(t, err)
	assert.False(t, rep.SecretsMatch)
	assert.Empty(t, rep.SelfCheckError)
	assert.Zero(t, rep.FailureCount)
	assert.Equal(t, 1000, rep.Operations[2].Count)
}

func TestRunAdapterFailingInverse(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	adapter := newFakeAdapter(clock)
	adapter.failInverse = true

	rep, err := RunAdapter(adapter, primitive.FamilyKEM, clock, testConfig())
	require.NoError(t, err)

	inverse, ok := rep.Operation(report.LabelInverse)
	require.True(t, ok)
	assert.True(t, inverse.Empty)
	assert.Zero(t, inverse.Count)
	assert.Zero(t, inverse.Mean)
	assert.Equal(t, uint64(1000), inverse.Failures)
	assert.Equal(t, []string{"fake-kem decapsulate: bad ciphertext"}, inverse.Errors)

	assert.Equal(t, 1000, rep.Operations[0].Count)
	assert.Equal(t, 1000, rep.Operations[1].Count)
	assert.Equal(t, uint64(1000), rep.FailureCount)
	assert.InDelta(t, 1.0/3.0, rep.FailureRate, 1e-9)
	assert.True(t, rep.Degraded)
	assert.False(t, rep.SecretsMatch)
	assert.Contains(t, rep.SelfCheckError, "bad ciphertext")
}

func TestRunAdapterSkipsRestOfFailedTrial(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	adapter := newFakeAdapter(clock)
	adapter.failForwardEvery = 10

	rep, err := RunAdapter(adapter, primitive.FamilyKEM, clock, testConfig())
	require.NoError(t, err)

	generate, forward, inverse := rep.Operations[0], rep.Operations[1], rep.Operations[2]
	assert.Equal(t, uint64(1000), generate.Attempts)
	assert.Equal(t, uint64(1000), forward.Attempts)
	assert.Equal(t, uint64(100), forward.Failures)
	assert.Equal(t, 900, forward.Count)
	assert.Equal(t, uint64(900), inverse.Attempts)
	assert.Zero(t, inverse.Failures)
	assert.Equal(t, uint64(100), rep.FailureCount)
	assert.InDelta(t, 100.0/2900.0, rep.FailureRate, 1e-9)
	assert.True(t, rep.Degraded)
	assert.True(t, rep.SecretsMatch)
}

func TestRunAdapterFailureThreshold(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	adapter := newFakeAdapter(clock)
	adapter.failForwardEvery = 10
	cfg := testConfig()
	cfg.FailureThreshold = 0.05

	rep, err := RunAdapter(adapter, primitive.FamilyKEM, clock, cfg)
	require.NoError(t, err)
	assert.False(t, rep.Degraded)
}

func TestRunAdapterZeroIterations(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	cfg := testConfig()
	cfg.Iterations = 0

	rep, err := RunAdapter(newFakeAdapter(clock), primitive.FamilyKEM, clock, cfg)
	require.NoError(t, err)
	for _, op := range rep.Operations {
		assert.True(t, op.Empty)
		assert.Zero(t, op.Attempts)
	}
	assert.Zero(t, rep.FailureRate)
	assert.False(t, rep.Degraded)
	assert.True(t, rep.SecretsMatch)
}

func TestRunAdapterAllocationError(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	adapter := newFakeAdapter(clock)
	adapter.sizes.SharedSecret = 0

	_, err := RunAdapter(adapter, primitive.FamilyKEM, clock, testConfig())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAllocation))
	assert.Equal(t, [3]int{}, adapter.calls)
}

func TestRunUsesSeams(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	adapter := newFakeAdapter(clock)

	prevLookup, prevCounter, prevWrite := lookupAdapter, newCounter, writeResultsFn
	t.Cleanup(func() { lookupAdapter, newCounter, writeResultsFn = prevLookup, prevCounter, prevWrite })

	var gotVariant string
	lookupAdapter = func(name string, _ primitive.Options) (primitive.Adapter, error) {
		gotVariant = name
		return adapter, nil
	}
	newCounter = func(cyclecounter.Mode) (cyclecounter.Counter, error) {
		return clock, cyclecounter.ErrCounterUnavailable
	}
	var written *report.Report
	writeResultsFn = func(r *report.Report, dir string) error {
		written = r
		return nil
	}

	cfg := testConfig()
	cfg.PrimitiveVariant = "MLKEM768"
	cfg.OutputDir = t.TempDir()
	rep, err := Run(cfg, "v1.2.3")
	require.NoError(t, err)

	assert.Equal(t, "mlkem768", gotVariant)
	assert.Equal(t, "v1.2.3", rep.Version)
	assert.False(t, rep.Counter.Native)
	assert.Contains(t, rep.Counter.Warning, "unavailable")
	assert.Contains(t, rep.Counter.Warning, "nanoseconds")
	assert.Same(t, rep, written)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	_, err := Run(nil, "")
	assert.Error(t, err)

	cfg := testConfig()
	cfg.OverheadCalibrationTrials = 0
	cfg.PrimitiveVariant = "unknown"
	_, err = Run(cfg, "")
	assert.Error(t, err)
}

func TestRunRealPrimitives(t *testing.T) {
	for _, variant := range []string{"kyber512", "x25519", "xchacha20poly1305"} {
		t.Run(variant, func(t *testing.T) {
			cfg := testConfig()
			cfg.PrimitiveVariant = variant
			cfg.Counter = "monotonic"
			cfg.Iterations = 5
			cfg.WarmupIterations = 1
			cfg.OverheadCalibrationTrials = 100
			cfg.MessageBytes = 4096

			rep, err := Run(cfg, "test")
			require.NoError(t, err)
			assert.True(t, rep.SecretsMatch)
			assert.Zero(t, rep.FailureCount)
			for _, op := range rep.Operations {
				assert.Equal(t, 5, op.Count)
				assert.LessOrEqual(t, float64(op.Min), op.Mean)
				assert.LessOrEqual(t, op.Mean, float64(op.Max))
			}
			data, err := report.Marshal(rep)
			require.NoError(t, err)
			assert.NoError(t, report.Validate(data))
		})
	}
}

func TestWriteResults(t *testing.T) {
	clock := &fakeClock{readCost: 10}
	cfg := testConfig()
	cfg.Iterations = 20
	rep, err := RunAdapter(newFakeAdapter(clock), primitive.FamilyKEM, clock, cfg)
	require.NoError(t, err)
	rep.Variant = "Fake:KEM"

	dir := filepath.Join(t.TempDir(), "results")
	require.NoError(t, writeResults(rep, dir))

	expectedName := filepath.Join(dir, "fake_kem-20.json")
	_, err = os.Stat(expectedName)
	require.NoError(t, err)
	assert.Equal(t, expectedName, ResultPath(dir, rep))

	loaded, err := report.ReadFile(expectedName)
	require.NoError(t, err)
	assert.Equal(t, "Fake:KEM", loaded.Variant)
	assert.Equal(t, rep.Operations[0].Min, loaded.Operations[0].Min)
}
