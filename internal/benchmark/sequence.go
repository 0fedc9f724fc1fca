package benchmark

import "slices"

// maxRecordedErrors bounds the distinct failure messages kept per sequence.
const maxRecordedErrors = 5

// SampleSequence is the bounded, chronologically ordered set of samples for
// one operation category. Storage is allocated once; Append never grows it.
type SampleSequence struct {
	label    string
	values   []uint64
	attempts uint64
	failures uint64
	errs     []string
}

// NewSampleSequence allocates a sequence with room for capacity samples.
func NewSampleSequence(label string, capacity uint32) *SampleSequence {
	return &SampleSequence{label: label, values: make([]uint64, 0, capacity)}
}

// Label returns the operation category.
func (s *SampleSequence) Label() string { return s.label }

// Append records a successful attempt. It reports false, and records
// nothing, once the sequence is full.
func (s *SampleSequence) Append(v uint64) bool {
	if len(s.values) == cap(s.values) {
		return false
	}
	s.values = append(s.values, v)
	s.attempts++
	return true
}

// Fail records a failed attempt. The sample is not stored.
func (s *SampleSequence) Fail(err error) {
	s.attempts++
	s.failures++
	if err == nil || len(s.errs) >= maxRecordedErrors {
		return
	}
	if msg := err.Error(); !slices.Contains(s.errs, msg) {
		s.errs = append(s.errs, msg)
	}
}

// Values returns the recorded samples in append order. The slice aliases the
// sequence storage and must not be modified.
func (s *SampleSequence) Values() []uint64 { return s.values }

// Len returns the number of recorded samples.
func (s *SampleSequence) Len() int { return len(s.values) }

// Attempts returns successful plus failed attempts.
func (s *SampleSequence) Attempts() uint64 { return s.attempts }

// Failures returns the number of failed attempts.
func (s *SampleSequence) Failures() uint64 { return s.failures }

// Errors returns up to five distinct failure messages.
func (s *SampleSequence) Errors() []string { return s.errs }
