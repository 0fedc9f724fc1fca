package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"go.yaml.in/yaml/v3"
)

// Formatter writes a report in one output format.
type Formatter interface {
	Format(w io.Writer, r *Report) error
}

// NewFormatter returns the formatter for name (text, json or yaml).
func NewFormatter(name string) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text":
		return TextFormatter{}, nil
	case "json":
		return JSONFormatter{}, nil
	case "yaml", "yml":
		return YAMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown report format %q", name)
	}
}

// JSONFormatter writes schema-validated, indented JSON.
type JSONFormatter struct{}

func (JSONFormatter) Format(w io.Writer, r *Report) error {
	data, err := Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := Validate(data); err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// YAMLFormatter writes the report as YAML.
type YAMLFormatter struct{}

func (YAMLFormatter) Format(w io.Writer, r *Report) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return enc.Close()
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(22)
	headStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255"))

	passText = color.New(color.FgGreen, color.Bold).SprintFunc()
	failText = color.New(color.FgRed, color.Bold).SprintFunc()
	warnText = color.New(color.FgYellow).SprintFunc()
)

// TextFormatter writes a human-readable summary.
type TextFormatter struct{}

func (TextFormatter) Format(w io.Writer, r *Report) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("%s %s", r.Tool, r.Version)) + "\n")
	field := func(label, value string) {
		b.WriteString(labelStyle.Render(label) + value + "\n")
	}
	field("Variant", fmt.Sprintf("%s (%s)", r.Variant, r.Primitive))
	counter := r.Counter.Name
	if !r.Counter.Native {
		counter += " " + warnText("(fallback)")
	}
	field("Counter", counter)
	if r.Counter.Warning != "" {
		field("", warnText(r.Counter.Warning))
	}
	field("Overhead", fmt.Sprintf("%s ticks (%s trials)", humanize.Comma(int64(r.Overhead)), humanize.Comma(int64(r.CalibrationTrials))))
	field("Iterations", fmt.Sprintf("%s (warm-up %s)", humanize.Comma(int64(r.Iterations)), humanize.Comma(int64(r.Warmup))))
	b.WriteString("\n")

	b.WriteString(headStyle.Render(fmt.Sprintf("%-14s %8s %14s %14s %16s %14s %14s %14s", "operation", "count", "min", "max", "mean", "stddev", "p50", "p99")) + "\n")
	for _, op := range r.Operations {
		if op.Empty {
			b.WriteString(fmt.Sprintf("%-14s %8d %s\n", op.Name, 0, warnText("no samples")))
			continue
		}
		b.WriteString(fmt.Sprintf("%-14s %8d %14s %14s %16s %14s %14s %14s\n",
			op.Name, op.Count,
			humanize.Comma(int64(op.Min)), humanize.Comma(int64(op.Max)),
			humanize.CommafWithDigits(op.Mean, 2), humanize.CommafWithDigits(op.StdDev, 2),
			humanize.CommafWithDigits(op.P50, 0), humanize.CommafWithDigits(op.P99, 0)))
	}
	b.WriteString("\n")

	if r.SecretsMatch {
		field("Secrets match", passText("yes"))
	} else {
		field("Secrets match", failText("NO"))
		if r.SelfCheckError != "" {
			field("", failText(r.SelfCheckError))
		}
	}
	failures := fmt.Sprintf("%d (%.4f%%)", r.FailureCount, r.FailureRate*100)
	if r.Degraded {
		failures += " " + failText("degraded")
	}
	field("Failures", failures)
	if r.GCCycles > 0 {
		field("GC cycles", warnText(fmt.Sprintf("%d during measurement", r.GCCycles)))
	}
	for _, op := range r.Operations {
		for _, msg := range op.Errors {
			field("", warnText(fmt.Sprintf("%s: %s", op.Label, msg)))
		}
	}
	b.WriteString("\n")

	b.WriteString(headStyle.Render("Buffers") + "\n")
	field("Public key", humanize.IBytes(uint64(r.BufferSizes.PublicKey)))
	field("Secret key", humanize.IBytes(uint64(r.BufferSizes.SecretKey)))
	field("Ciphertext", humanize.IBytes(uint64(r.BufferSizes.Ciphertext)))
	field("Shared secret", humanize.IBytes(uint64(r.BufferSizes.SharedSecret)))
	if r.BufferSizes.AssociatedData > 0 {
		field("Associated data", humanize.IBytes(uint64(r.BufferSizes.AssociatedData)))
	}
	field("Heap total", humanize.IBytes(uint64(r.Footprint.Heap.Total)))
	field("Static generate", humanize.IBytes(uint64(r.Footprint.Static.Generate)))
	field("Static forward", humanize.IBytes(uint64(r.Footprint.Static.Forward)))
	field("Static inverse", humanize.IBytes(uint64(r.Footprint.Static.Inverse)))
	field("Elapsed", fmt.Sprintf("%.3fs", r.ElapsedSeconds))

	_, err := io.WriteString(w, b.String())
	return err
}
