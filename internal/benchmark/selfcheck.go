package benchmark

import (
	"crypto/subtle"

	"github.com/mwiater/cyclebench/internal/primitive"
)

// SelfCheck runs one uninstrumented chain and reports whether the forward
// and inverse secrets are identical. A primitive error is returned as is; a
// mismatch is not an error.
func SelfCheck(a primitive.Adapter, bufs *Buffers) (bool, error) {
	clear(bufs.Recovered)
	if err := chain(a, bufs); err != nil {
		return false, err
	}
	return subtle.ConstantTimeCompare(bufs.SharedSecret, bufs.Recovered) == 1, nil
}

// RoundTripResult counts the outcomes of VerifyRoundTrip.
type RoundTripResult struct {
	Variant    string   `json:"variant" yaml:"variant"`
	Trials     uint32   `json:"trials" yaml:"trials"`
	Matches    uint32   `json:"matches" yaml:"matches"`
	Mismatches uint32   `json:"mismatches" yaml:"mismatches"`
	Failures   uint32   `json:"failures" yaml:"failures"`
	Errors     []string `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// OK reports whether every trial matched.
func (r RoundTripResult) OK() bool {
	return r.Mismatches == 0 && r.Failures == 0
}

// VerifyRoundTrip runs SelfCheck for trials freshly generated key pairs.
func VerifyRoundTrip(a primitive.Adapter, trials uint32, maxBufferBytes int) (RoundTripResult, error) {
	bufs, err := NewBuffers(a.BufferSizes(), maxBufferBytes)
	if err != nil {
		return RoundTripResult{}, err
	}
	if err := primitive.Prepare(a, bufs.SharedSecret); err != nil {
		return RoundTripResult{}, err
	}
	res := RoundTripResult{Variant: a.Name(), Trials: trials}
	seq := NewSampleSequence("roundtrip", 0)
	for i := uint32(0); i < trials; i++ {
		ok, err := SelfCheck(a, bufs)
		switch {
		case err != nil:
			res.Failures++
			seq.Fail(err)
		case ok:
			res.Matches++
		default:
			res.Mismatches++
		}
	}
	res.Errors = seq.Errors()
	return res, nil
}
