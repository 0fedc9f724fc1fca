// internal/commands/root.go
package cyclebench

import (
	"errors"
	"fmt"
	"os"

	"github.com/mwiater/cyclebench/internal/appconfig"
	"github.com/mwiater/cyclebench/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	v             = viper.New()
	currentConfig *appconfig.Config
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"iterations":        "iterations",
	"warmup":            "warmup_iterations",
	"trials":            "overhead_calibration_trials",
	"primitive":         "primitive_variant",
	"counter":           "counter",
	"failure-threshold": "failure_threshold",
	"message-bytes":     "message_bytes",
	"ad-bytes":          "associated_data_bytes",
	"max-buffer-bytes":  "max_buffer_bytes",
	"pin-cpu":           "pin_cpu",
	"disable-gc":        "disable_gc",
	"memory-limit":      "memory_limit_bytes",
	"keep-samples":      "keep_samples",
	"roundtrip-trials":  "roundtrip_trials",
	"format":            "format",
	"output-dir":        "output_dir",
	"log-file":          "log_file",
	"debug":             "debug",
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cyclebench",
	Short: "cyclebench: cycle-accurate micro-benchmarks for KEM and AEAD primitives",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		// flags > config file > defaults
		var cfg appconfig.Config
		if err := v.Unmarshal(&cfg); err != nil {
			return fmt.Errorf("unmarshal config: %w", err)
		}
		cfg.ConfigPath = v.ConfigFileUsed()
		currentConfig = &cfg

		if err := logging.Init(currentConfig.LogFilePath()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logging.SetDebug(currentConfig.Debug)
		return nil
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	err := rootCmd.Execute()
	_ = logging.Close()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	d := appconfig.Defaults()
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default: "+appconfig.DefaultConfigPath+" if present)")
	flags.IntP("iterations", "n", d.Iterations, "measured trials per operation")
	flags.Int("warmup", d.WarmupIterations, "untimed warm-up chains before measuring")
	flags.Int("trials", d.OverheadCalibrationTrials, "overhead calibration trials")
	flags.StringP("primitive", "p", d.PrimitiveVariant, "primitive variant to measure (see 'list primitives')")
	flags.String("counter", d.Counter, "tick source: auto, native or monotonic")
	flags.Float64("failure-threshold", d.FailureThreshold, "failure rate above which a run is flagged degraded")
	flags.Int("message-bytes", d.MessageBytes, "AEAD plaintext size in bytes")
	flags.Int("ad-bytes", d.AssociatedDataBytes, "AEAD associated data size in bytes")
	flags.Int("max-buffer-bytes", d.MaxBufferBytes, "largest allowed buffer for any role")
	flags.Int("pin-cpu", d.PinCPU, "pin the measuring thread to this CPU (-1 disables)")
	flags.Bool("disable-gc", d.DisableGC, "pause the garbage collector while measuring")
	flags.Int64("memory-limit", d.MemoryLimitBytes, "soft memory limit in bytes while the garbage collector is paused")
	flags.Bool("keep-samples", d.KeepSamples, "include raw samples in the report")
	flags.Int("roundtrip-trials", d.RoundTripTrials, "key pairs checked by 'verify'")
	flags.StringP("format", "f", d.Format, "report format: text, json or yaml")
	flags.StringP("output-dir", "o", d.OutputDir, "write the JSON report into this directory")
	flags.String("log-file", d.LogFile, "path to the log file")
	flags.Bool("debug", d.Debug, "enable debug logging")
}

// initConfig builds a fresh viper instance for this invocation, with
// defaults, flag bindings and the config file location.
func initConfig() {
	v = viper.New()
	for key, value := range appconfig.DefaultValues() {
		v.SetDefault(key, value)
	}
	for flag, key := range flagKeys {
		_ = v.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag))
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return
	}
	v.SetConfigName("cyclebench")
	v.AddConfigPath("config")
	v.AddConfigPath(".")
}

// ensureConfigLoaded reads the config file. A missing file is fine unless
// it was named explicitly.
func ensureConfigLoaded() error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
