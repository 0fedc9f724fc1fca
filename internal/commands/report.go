// internal/commands/report.go
package cyclebench

import (
	"fmt"

	"github.com/mwiater/cyclebench/internal/report"
	"github.com/mwiater/cyclebench/internal/tui"
	"github.com/spf13/cobra"
)

var viewReport = tui.Run

// reportCmd represents the 'report' command group for saved reports.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Group commands for working with saved reports",
	Long:  `The 'report' command groups subcommands that validate, print or browse JSON reports written by 'run --output-dir'.`,
}

var reportValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a saved report against the report schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := report.ReadFile(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: valid %s report for %s (%d iterations)\n", args[0], r.Tool, r.Variant, r.Iterations)
		return nil
	},
}

var reportShowCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a saved report in the configured format",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := "text"
		if cfg := GetConfig(); cfg != nil {
			format = cfg.Format
		}
		formatter, err := report.NewFormatter(format)
		if err != nil {
			return err
		}
		r, err := report.ReadFile(args[0])
		if err != nil {
			return err
		}
		return formatter.Format(cmd.OutOrStdout(), r)
	},
}

var reportViewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Browse a saved report interactively",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := report.ReadFile(args[0])
		if err != nil {
			return err
		}
		return viewReport(r)
	},
}

var reportSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON schema reports are validated against",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := cmd.OutOrStdout().Write(report.Schema())
		return err
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportValidateCmd, reportShowCmd, reportViewCmd, reportSchemaCmd)
}
