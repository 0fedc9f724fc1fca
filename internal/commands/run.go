// internal/commands/run.go
package cyclebench

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/mwiater/cyclebench/internal/benchmark"
	"github.com/mwiater/cyclebench/internal/report"
	"github.com/spf13/cobra"
)

var runBenchmark = benchmark.Run

// runCmd measures the configured primitive and prints the report.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Measure the cycle cost of a primitive's operations",
	Long: `The 'run' command calibrates the counter overhead, measures generate, forward
and inverse for the configured primitive variant, runs the correctness
self-check and prints the report. With --output-dir the JSON report is also
written to <dir>/<variant>-<iterations>.json.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration is not initialized")
		}

		formatter, err := report.NewFormatter(cfg.Format)
		if err != nil {
			return err
		}
		rep, err := runBenchmark(cfg, appVersion)
		if err != nil {
			return err
		}
		if err := formatter.Format(cmd.OutOrStdout(), rep); err != nil {
			return err
		}
		if cfg.OutputDir != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", benchmark.ResultPath(cfg.OutputDir, rep))
		}
		if rep.Degraded {
			fmt.Fprintln(cmd.ErrOrStderr(), color.YellowString("warning: %.2f%% of attempts failed; results are degraded", rep.FailureRate*100))
		}
		if !rep.SecretsMatch {
			return fmt.Errorf("correctness self-check failed for %s", rep.Variant)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
