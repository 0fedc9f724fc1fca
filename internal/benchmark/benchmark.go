// internal/benchmark/benchmark.go
// Package benchmark collects cycle samples for a primitive and assembles the
// run report.
package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mwiater/cyclebench/internal/appconfig"
	"github.com/mwiater/cyclebench/internal/cyclecounter"
	"github.com/mwiater/cyclebench/internal/logging"
	"github.com/mwiater/cyclebench/internal/overhead"
	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/mwiater/cyclebench/internal/report"
	"github.com/mwiater/cyclebench/internal/stats"
	"go.uber.org/zap"
)

// fallbackWarning is attached to every report taken without a native counter.
const fallbackWarning = "monotonic clock fallback: ticks are nanoseconds, not cycles, and are not comparable with native runs"

var (
	newCounter     = cyclecounter.New
	lookupAdapter  = primitive.Lookup
	calibrate      = overhead.Calibrate
	writeResultsFn = writeResults
	now            = time.Now
)

// Run measures the variant named by cfg and returns its report. The result
// file is written when cfg.OutputDir is set.
func Run(cfg *appconfig.Config, version string) (*report.Report, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	variant, _ := primitive.Find(cfg.PrimitiveVariant)
	adapter, err := lookupAdapter(variant.Name, primitive.Options{
		MessageBytes:        cfg.MessageBytes,
		AssociatedDataBytes: cfg.AssociatedDataBytes,
	})
	if err != nil {
		return nil, err
	}

	mode, _ := cyclecounter.ParseMode(cfg.Counter)
	counter, err := newCounter(mode)
	if counter == nil {
		return nil, err
	}
	info := report.Counter{Name: counter.Name(), Native: counter.Native()}
	if !counter.Native() {
		info.Warning = fallbackWarning
		if err != nil {
			info.Warning = fmt.Sprintf("%v; %s", err, fallbackWarning)
		}
		logging.Warn("native cycle counter not in use", zap.String("counter", counter.Name()), zap.Error(err))
	}

	rep, err := RunAdapter(adapter, variant.Family, counter, cfg)
	if err != nil {
		return nil, err
	}
	rep.Version = version
	rep.Counter = info

	if cfg.OutputDir != "" {
		if err := writeResultsFn(rep, cfg.OutputDir); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// RunAdapter calibrates counter, collects samples from a and reduces them
// into a report. Version and counter warning are left for the caller.
func RunAdapter(a primitive.Adapter, family primitive.Family, counter cyclecounter.Counter, cfg *appconfig.Config) (*report.Report, error) {
	started := now()
	name := a.Name()

	logging.LogStage(name, "calibrate", zap.Uint32("trials", cfg.CalibrationTrials()))
	est := calibrate(counter, cfg.CalibrationTrials())
	logging.LogStage(name, "calibrate", zap.Uint64("overhead", est.Cycles()))

	collector := NewCollector(counter, est,
		WithMaxBufferBytes(cfg.MaxBufferBytes),
		WithGCDisabled(cfg.DisableGC),
		WithMemoryLimit(cfg.MemoryLimitBytes),
		WithPinnedCPU(cfg.PinCPU),
	)
	logging.LogStage(name, "collect", zap.Uint32("iterations", cfg.IterationCount()), zap.Uint32("warmup", cfg.WarmupCount()))
	samples, err := collector.Collect(a, cfg.IterationCount(), cfg.WarmupCount())
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", name, err)
	}

	rep := &report.Report{
		Tool:              report.Tool,
		Primitive:         string(family),
		Variant:           name,
		Counter:           report.Counter{Name: counter.Name(), Native: counter.Native()},
		Overhead:          est.Cycles(),
		CalibrationTrials: est.Trials(),
		Iterations:        cfg.IterationCount(),
		Warmup:            cfg.WarmupCount(),
		Operations:        calculateAggregates(samples, family, cfg.KeepSamples),
		BufferSizes:       a.BufferSizes(),
		GCCycles:          samples.GCCycles,
		StartedAt:         started.UTC(),
	}

	var attempts uint64
	for _, seq := range samples.Sequences() {
		attempts += seq.Attempts()
		rep.FailureCount += seq.Failures()
	}
	if attempts > 0 {
		rep.FailureRate = float64(rep.FailureCount) / float64(attempts)
	}
	rep.Degraded = rep.FailureRate > cfg.FailureThreshold
	if rep.FailureCount > 0 {
		logging.Warn("primitive failures during measurement", zap.String("variant", name), zap.Uint64("failures", rep.FailureCount), zap.Bool("degraded", rep.Degraded))
	}

	match, err := SelfCheck(a, samples.Buffers)
	rep.SecretsMatch = match
	if err != nil {
		rep.SelfCheckError = err.Error()
	}
	if !match {
		logging.Warn("self-check failed: forward and inverse secrets differ", zap.String("variant", name), zap.Error(err))
	}

	rep.Footprint = report.Footprint{
		Heap:   samples.Buffers.Heap(),
		Static: report.NewStaticFootprint(rep.BufferSizes),
	}
	rep.ElapsedSeconds = now().Sub(started).Seconds()
	return rep, nil
}

// calculateAggregates reduces every sequence to its report operation.
func calculateAggregates(samples *Samples, family primitive.Family, keep bool) []report.Operation {
	names := report.OperationNames(family)
	ops := make([]report.Operation, 0, 3)
	for i, seq := range samples.Sequences() {
		op := report.Operation{
			Label:        seq.Label(),
			Name:         names[i],
			Aggregate:    stats.Compute(seq.Values()),
			Distribution: stats.Describe(seq.Values()),
			Attempts:     seq.Attempts(),
			Failures:     seq.Failures(),
			Errors:       seq.Errors(),
		}
		if keep && seq.Len() > 0 {
			op.Samples = append([]uint64(nil), seq.Values()...)
		}
		ops = append(ops, op)
	}
	return ops
}

// ResultPath returns the file a report is written to inside dir.
func ResultPath(dir string, r *report.Report) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.json", Slugify(r.Variant), r.Iterations))
}

// writeResults writes the report to a JSON file in dir.
func writeResults(r *report.Report, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("error creating results directory: %w", err)
	}
	data, err := report.Marshal(r)
	if err != nil {
		return fmt.Errorf("error encoding results: %w", err)
	}
	if err := report.Validate(data); err != nil {
		return err
	}

	fileName := ResultPath(dir, r)
	file, err := os.Create(fileName)
	if err != nil {
		return fmt.Errorf("error creating result file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(r); err != nil {
		return fmt.Errorf("error writing results to file: %w", err)
	}

	logging.LogEvent("Benchmark results written to %s", fileName)
	return nil
}

var (
	slugInvalid = regexp.MustCompile(`[^a-z0-9_]+`)
	slugDashes  = regexp.MustCompile(`-+`)
)

// Slugify converts a string into a "slug" format,
// including replacing colons (:) with underscores (_).
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, ":", "_")
	s = slugInvalid.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-_")

	return s
}
