// internal/appconfig/appconfig.go
// Package appconfig manages loading and interpreting benchmark configuration.
package appconfig

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/mwiater/cyclebench/internal/cyclecounter"
	"github.com/mwiater/cyclebench/internal/primitive"
	"go.uber.org/multierr"
	"go.yaml.in/yaml/v3"
)

const (
	// DefaultConfigPath is the default path to the configuration file.
	DefaultConfigPath = "config/cyclebench.yaml"
	// fallbackConfigPath is tried when the default path does not exist.
	fallbackConfigPath = "cyclebench.yaml"

	// DefaultIterations is the number of measured trials per operation.
	DefaultIterations = 1000
	// DefaultWarmupIterations is the number of discarded warm-up chains.
	DefaultWarmupIterations = 10
	// DefaultCalibrationTrials is the number of brackets sampled for the overhead floor.
	DefaultCalibrationTrials = 100000
	// DefaultFailureThreshold is the failure rate above which a run is degraded.
	DefaultFailureThreshold = 0.01
	// DefaultMaxBufferBytes caps any single buffer role.
	DefaultMaxBufferBytes = 64 << 20
	// DefaultMemoryLimitBytes is the soft memory limit while the garbage
	// collector is paused.
	DefaultMemoryLimitBytes = 1 << 30
	// DefaultRoundTripTrials is the key-pair count used by verify.
	DefaultRoundTripTrials = 1000

	// MaxIterations bounds the sample arena; the 128-bit mean accumulator is
	// sized for this many full-width samples.
	MaxIterations = 10_000_000
)

// Formats lists the accepted report formats.
var Formats = []string{"text", "json", "yaml"}

// Config is the configuration of one benchmark run.
type Config struct {
	Iterations                int     `json:"iterations" yaml:"iterations" mapstructure:"iterations"`
	WarmupIterations          int     `json:"warmup_iterations" yaml:"warmup_iterations" mapstructure:"warmup_iterations"`
	OverheadCalibrationTrials int     `json:"overhead_calibration_trials" yaml:"overhead_calibration_trials" mapstructure:"overhead_calibration_trials"`
	PrimitiveVariant          string  `json:"primitive_variant" yaml:"primitive_variant" mapstructure:"primitive_variant"`
	Counter                   string  `json:"counter" yaml:"counter" mapstructure:"counter"`
	FailureThreshold          float64 `json:"failure_threshold" yaml:"failure_threshold" mapstructure:"failure_threshold"`
	MessageBytes              int     `json:"message_bytes" yaml:"message_bytes" mapstructure:"message_bytes"`
	AssociatedDataBytes       int     `json:"associated_data_bytes" yaml:"associated_data_bytes" mapstructure:"associated_data_bytes"`
	MaxBufferBytes            int     `json:"max_buffer_bytes" yaml:"max_buffer_bytes" mapstructure:"max_buffer_bytes"`
	PinCPU                    int     `json:"pin_cpu" yaml:"pin_cpu" mapstructure:"pin_cpu"`
	DisableGC                 bool    `json:"disable_gc" yaml:"disable_gc" mapstructure:"disable_gc"`
	MemoryLimitBytes          int64   `json:"memory_limit_bytes" yaml:"memory_limit_bytes" mapstructure:"memory_limit_bytes"`
	KeepSamples               bool    `json:"keep_samples" yaml:"keep_samples" mapstructure:"keep_samples"`
	RoundTripTrials           int     `json:"roundtrip_trials" yaml:"roundtrip_trials" mapstructure:"roundtrip_trials"`
	Format                    string  `json:"format" yaml:"format" mapstructure:"format"`
	OutputDir                 string  `json:"output_dir,omitempty" yaml:"output_dir,omitempty" mapstructure:"output_dir"`
	LogFile                   string  `json:"log_file,omitempty" yaml:"log_file,omitempty" mapstructure:"log_file"`
	Debug                     bool    `json:"debug" yaml:"debug" mapstructure:"debug"`
	ConfigPath                string  `json:"-" yaml:"-" mapstructure:"-"`
}

// Defaults returns a configuration with every option at its default.
func Defaults() Config {
	return Config{
		Iterations:                DefaultIterations,
		WarmupIterations:          DefaultWarmupIterations,
		OverheadCalibrationTrials: DefaultCalibrationTrials,
		PrimitiveVariant:          primitive.DefaultVariant,
		Counter:                   string(cyclecounter.ModeAuto),
		FailureThreshold:          DefaultFailureThreshold,
		MessageBytes:              primitive.DefaultMessageBytes,
		MaxBufferBytes:            DefaultMaxBufferBytes,
		PinCPU:                    -1,
		DisableGC:                 true,
		MemoryLimitBytes:          DefaultMemoryLimitBytes,
		RoundTripTrials:           DefaultRoundTripTrials,
		Format:                    "text",
	}
}

// DefaultValues returns the defaults keyed by configuration name, for
// registering with viper.
func DefaultValues() map[string]any {
	d := Defaults()
	return map[string]any{
		"iterations":                  d.Iterations,
		"warmup_iterations":           d.WarmupIterations,
		"overhead_calibration_trials": d.OverheadCalibrationTrials,
		"primitive_variant":           d.PrimitiveVariant,
		"counter":                     d.Counter,
		"failure_threshold":           d.FailureThreshold,
		"message_bytes":               d.MessageBytes,
		"associated_data_bytes":       d.AssociatedDataBytes,
		"max_buffer_bytes":            d.MaxBufferBytes,
		"pin_cpu":                     d.PinCPU,
		"disable_gc":                  d.DisableGC,
		"memory_limit_bytes":          d.MemoryLimitBytes,
		"keep_samples":                d.KeepSamples,
		"roundtrip_trials":            d.RoundTripTrials,
		"format":                      d.Format,
		"output_dir":                  d.OutputDir,
		"log_file":                    d.LogFile,
		"debug":                       d.Debug,
	}
}

// Validate checks every option and returns all problems at once.
func (c Config) Validate() error {
	var err error
	if c.Iterations < 0 || c.Iterations > MaxIterations {
		err = multierr.Append(err, fmt.Errorf("iterations must be between 0 and %d, got %d", MaxIterations, c.Iterations))
	}
	if c.WarmupIterations < 0 || int64(c.WarmupIterations) > math.MaxUint32 {
		err = multierr.Append(err, fmt.Errorf("warmup_iterations must be non-negative, got %d", c.WarmupIterations))
	}
	if c.OverheadCalibrationTrials < 1 || int64(c.OverheadCalibrationTrials) > math.MaxUint32 {
		err = multierr.Append(err, fmt.Errorf("overhead_calibration_trials must be between 1 and %d, got %d", uint32(math.MaxUint32), c.OverheadCalibrationTrials))
	}
	if _, ok := primitive.Find(c.PrimitiveVariant); !ok {
		err = multierr.Append(err, fmt.Errorf("primitive_variant %q is not one of %s", c.PrimitiveVariant, strings.Join(primitive.Names(), ", ")))
	}
	if _, perr := cyclecounter.ParseMode(c.Counter); perr != nil {
		err = multierr.Append(err, perr)
	}
	if c.FailureThreshold < 0 || c.FailureThreshold > 1 || math.IsNaN(c.FailureThreshold) {
		err = multierr.Append(err, fmt.Errorf("failure_threshold must be within [0, 1], got %v", c.FailureThreshold))
	}
	if c.MessageBytes < 0 {
		err = multierr.Append(err, fmt.Errorf("message_bytes must be non-negative, got %d", c.MessageBytes))
	}
	if c.AssociatedDataBytes < 0 {
		err = multierr.Append(err, fmt.Errorf("associated_data_bytes must be non-negative, got %d", c.AssociatedDataBytes))
	}
	if c.MaxBufferBytes < 0 {
		err = multierr.Append(err, fmt.Errorf("max_buffer_bytes must be non-negative, got %d", c.MaxBufferBytes))
	}
	if c.MemoryLimitBytes < 0 {
		err = multierr.Append(err, fmt.Errorf("memory_limit_bytes must be non-negative, got %d", c.MemoryLimitBytes))
	}
	if c.PinCPU < -1 {
		err = multierr.Append(err, fmt.Errorf("pin_cpu must be -1 (disabled) or a CPU index, got %d", c.PinCPU))
	}
	if c.RoundTripTrials < 0 {
		err = multierr.Append(err, fmt.Errorf("roundtrip_trials must be non-negative, got %d", c.RoundTripTrials))
	}
	if !validFormat(c.Format) {
		err = multierr.Append(err, fmt.Errorf("format %q is not one of %s", c.Format, strings.Join(Formats, ", ")))
	}
	return err
}

func validFormat(f string) bool {
	for _, known := range Formats {
		if strings.EqualFold(f, known) {
			return true
		}
	}
	return false
}

// IterationCount returns Iterations as the collector's counter type. Call
// after Validate.
func (c Config) IterationCount() uint32 { return uint32(max(c.Iterations, 0)) }

// WarmupCount returns WarmupIterations as the collector's counter type.
func (c Config) WarmupCount() uint32 { return uint32(max(c.WarmupIterations, 0)) }

// CalibrationTrials returns OverheadCalibrationTrials, falling back to the
// default when unset.
func (c Config) CalibrationTrials() uint32 {
	if c.OverheadCalibrationTrials <= 0 {
		return DefaultCalibrationTrials
	}
	return uint32(min(int64(c.OverheadCalibrationTrials), math.MaxUint32))
}

// LogFilePath returns the log file path; empty means stderr only.
func (c Config) LogFilePath() string {
	return strings.TrimSpace(c.LogFile)
}

// Load reads the configuration from path, with fallback to cyclebench.yaml
// in the working directory when the default path is missing. Options absent
// from the file keep their defaults. The result is validated.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	config, err := loadFromPath(path)
	if err == nil {
		config.ConfigPath = path
		return config, config.Validate()
	}

	if errors.Is(err, os.ErrNotExist) {
		if path == DefaultConfigPath {
			config, fbErr := loadFromPath(fallbackConfigPath)
			if fbErr == nil {
				config.ConfigPath = fallbackConfigPath
				return config, config.Validate()
			}
			if errors.Is(fbErr, os.ErrNotExist) {
				return Config{}, fmt.Errorf("no configuration file found (searched %q and %q)", DefaultConfigPath, fallbackConfigPath)
			}
			return Config{}, fmt.Errorf("could not read config file %q: %w", fallbackConfigPath, fbErr)
		}
		return Config{}, fmt.Errorf("no configuration file found at %q", path)
	}

	return Config{}, fmt.Errorf("could not read config file %q: %w", path, err)
}

// loadFromPath decodes a JSON or YAML file over the defaults.
func loadFromPath(path string) (Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	config := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.NewDecoder(file).Decode(&config)
	default:
		err = yaml.NewDecoder(file).Decode(&config)
	}
	if err != nil {
		return Config{}, err
	}
	return config, nil
}
