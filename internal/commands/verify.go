// internal/commands/verify.go
package cyclebench

import (
	"fmt"
	"math"

	"github.com/fatih/color"
	"github.com/mwiater/cyclebench/internal/benchmark"
	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/spf13/cobra"
)

// verifyCmd checks round trips over many independently generated key pairs
// without timing anything.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check forward/inverse round trips for a primitive",
	Long:  `The 'verify' command runs --roundtrip-trials uninstrumented generate, forward, inverse chains, each with a fresh key pair, and compares the forward and inverse secrets.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		if cfg == nil {
			return fmt.Errorf("configuration is not initialized")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		adapter, err := primitive.Lookup(cfg.PrimitiveVariant, primitive.Options{
			MessageBytes:        cfg.MessageBytes,
			AssociatedDataBytes: cfg.AssociatedDataBytes,
		})
		if err != nil {
			return err
		}
		trials := uint32(min(int64(cfg.RoundTripTrials), math.MaxUint32))
		res, err := benchmark.VerifyRoundTrip(adapter, trials, cfg.MaxBufferBytes)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s: %d trials, %d matches, %d mismatches, %d failures\n",
			res.Variant, res.Trials, res.Matches, res.Mismatches, res.Failures)
		for _, e := range res.Errors {
			fmt.Fprintf(out, "  %s\n", e)
		}
		if !res.OK() {
			fmt.Fprintln(out, color.RedString("FAIL"))
			return fmt.Errorf("round trip verification failed for %s", res.Variant)
		}
		fmt.Fprintln(out, color.GreenString("OK"))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
