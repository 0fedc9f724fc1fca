// Package report holds the result value of a benchmark run and renders it.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/mwiater/cyclebench/internal/stats"
)

// Tool is the producer name stamped on every report.
const Tool = "cyclebench"

// Operation labels, in measurement order.
const (
	LabelGenerate = "generate"
	LabelForward  = "forward"
	LabelInverse  = "inverse"
)

// Report is the complete, immutable outcome of one run.
type Report struct {
	Tool              string                `json:"tool" yaml:"tool"`
	Version           string                `json:"version" yaml:"version"`
	Primitive         string                `json:"primitive" yaml:"primitive"`
	Variant           string                `json:"variant" yaml:"variant"`
	Counter           Counter               `json:"counter" yaml:"counter"`
	Overhead          uint64                `json:"overhead" yaml:"overhead"`
	CalibrationTrials uint32                `json:"calibration_trials" yaml:"calibration_trials"`
	Iterations        uint32                `json:"iterations" yaml:"iterations"`
	Warmup            uint32                `json:"warmup" yaml:"warmup"`
	Operations        []Operation           `json:"operations" yaml:"operations"`
	SecretsMatch      bool                  `json:"secrets_match" yaml:"secrets_match"`
	SelfCheckError    string                `json:"self_check_error,omitempty" yaml:"self_check_error,omitempty"`
	FailureCount      uint64                `json:"failure_count" yaml:"failure_count"`
	FailureRate       float64               `json:"failure_rate" yaml:"failure_rate"`
	Degraded          bool                  `json:"degraded" yaml:"degraded"`
	GCCycles          uint32                `json:"gc_cycles,omitempty" yaml:"gc_cycles,omitempty"`
	BufferSizes       primitive.BufferSizes `json:"buffer_sizes" yaml:"buffer_sizes"`
	Footprint         Footprint             `json:"footprint" yaml:"footprint"`
	StartedAt         time.Time             `json:"started_at" yaml:"started_at"`
	ElapsedSeconds    float64               `json:"elapsed_seconds" yaml:"elapsed_seconds"`
}

// Counter describes the tick source used for the run.
type Counter struct {
	Name    string `json:"name" yaml:"name"`
	Native  bool   `json:"native" yaml:"native"`
	Warning string `json:"warning,omitempty" yaml:"warning,omitempty"`
}

// Operation is the summary of one measured category.
type Operation struct {
	Label              string `json:"label" yaml:"label"`
	Name               string `json:"name" yaml:"name"`
	stats.Aggregate    `yaml:",inline"`
	stats.Distribution `yaml:",inline"`
	Attempts           uint64   `json:"attempts" yaml:"attempts"`
	Failures           uint64   `json:"failures" yaml:"failures"`
	Errors             []string `json:"errors,omitempty" yaml:"errors,omitempty"`
	Samples            []uint64 `json:"samples,omitempty" yaml:"samples,omitempty"`
}

// Footprint estimates the memory touched by each operation.
type Footprint struct {
	Heap   HeapFootprint   `json:"heap" yaml:"heap"`
	Static StaticFootprint `json:"static" yaml:"static"`
}

// HeapFootprint is the usable capacity of every harness buffer.
type HeapFootprint struct {
	PublicKey    int `json:"public_key" yaml:"public_key"`
	SecretKey    int `json:"secret_key" yaml:"secret_key"`
	Ciphertext   int `json:"ciphertext" yaml:"ciphertext"`
	SharedSecret int `json:"shared_secret" yaml:"shared_secret"`
	Recovered    int `json:"recovered" yaml:"recovered"`
	Total        int `json:"total" yaml:"total"`
}

// StaticFootprint is the working set each operation reads or writes.
type StaticFootprint struct {
	Generate int `json:"generate" yaml:"generate"`
	Forward  int `json:"forward" yaml:"forward"`
	Inverse  int `json:"inverse" yaml:"inverse"`
}

// NewStaticFootprint derives the per-operation working sets from sizes.
func NewStaticFootprint(sizes primitive.BufferSizes) StaticFootprint {
	return StaticFootprint{
		Generate: sizes.PublicKey + sizes.SecretKey,
		Forward:  sizes.PublicKey + sizes.Ciphertext + sizes.SharedSecret,
		Inverse:  sizes.SecretKey + sizes.Ciphertext + sizes.SharedSecret,
	}
}

// OperationNames returns the display names for the three categories of a
// primitive family.
func OperationNames(family primitive.Family) [3]string {
	if family == primitive.FamilyAEAD {
		return [3]string{"Keygen", "Encryption", "Decryption"}
	}
	return [3]string{"Keypair", "Encapsulation", "Decapsulation"}
}

// Operation returns the operation with the given label.
func (r *Report) Operation(label string) (Operation, bool) {
	for _, op := range r.Operations {
		if op.Label == label {
			return op, true
		}
	}
	return Operation{}, false
}

// Marshal renders r as indented JSON.
func Marshal(r *Report) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// ReadFile loads a JSON report after validating it against the schema.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read report %q: %w", path, err)
	}
	if err := Validate(data); err != nil {
		return nil, fmt.Errorf("report %q: %w", path, err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("could not decode report %q: %w", path, err)
	}
	return &r, nil
}
