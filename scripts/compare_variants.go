// scripts/compare_variants.go
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/mwiater/cyclebench/internal/appconfig"
	"github.com/mwiater/cyclebench/internal/benchmark"
	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/mwiater/cyclebench/internal/report"
)

// compare_variants measures several primitive variants with one shared
// configuration and prints them side by side, ordered by mean forward cost.
func main() {
	configPath := flag.String("config", "", "Path to config file (defaults only when empty)")
	variants := flag.String("variants", strings.Join(primitive.Names(), ","), "Comma-separated variants to measure")
	iterations := flag.Int("iterations", 200, "Measured trials per operation")
	outputDir := flag.String("output-dir", "", "Also write each JSON report into this directory")
	flag.Parse()

	cfg, err := resolveConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg.Iterations = *iterations
	cfg.OutputDir = *outputDir

	var reports []*report.Report
	for _, name := range strings.Split(*variants, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		run := cfg
		run.PrimitiveVariant = name
		fmt.Fprintf(os.Stderr, "measuring %s...\n", name)
		rep, err := benchmark.Run(&run, "compare")
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s failed: %v\n", name, err)
			continue
		}
		reports = append(reports, rep)
	}
	if len(reports) == 0 {
		os.Exit(1)
	}

	slices.SortFunc(reports, func(a, b *report.Report) int {
		fa, _ := a.Operation(report.LabelForward)
		fb, _ := b.Operation(report.LabelForward)
		switch {
		case fa.Mean < fb.Mean:
			return -1
		case fa.Mean > fb.Mean:
			return 1
		}
		return strings.Compare(a.Variant, b.Variant)
	})

	fmt.Printf("%-20s %-5s %16s %16s %16s %10s  %s\n", "variant", "kind", "generate", "forward", "inverse", "footprint", "check")
	for _, r := range reports {
		means := make([]string, 0, 3)
		for _, op := range r.Operations {
			means = append(means, humanize.CommafWithDigits(op.Mean, 0))
		}
		check := "ok"
		if !r.SecretsMatch {
			check = "MISMATCH"
		} else if r.Degraded {
			check = "degraded"
		}
		fmt.Printf("%-20s %-5s %16s %16s %16s %10s  %s\n", r.Variant, r.Primitive, means[0], means[1], means[2],
			humanize.IBytes(uint64(r.Footprint.Heap.Total)), check)
	}
	fmt.Printf("\ncounter: %s (overhead %d ticks)\n", reports[0].Counter.Name, reports[0].Overhead)
}

func resolveConfig(path string) (appconfig.Config, error) {
	if path == "" {
		cfg, err := appconfig.Load("")
		if err == nil {
			return cfg, nil
		}
		if _, statErr := os.Stat(appconfig.DefaultConfigPath); errors.Is(statErr, os.ErrNotExist) {
			return appconfig.Defaults(), nil
		}
		return appconfig.Config{}, err
	}
	return appconfig.Load(path)
}
