package benchmark

import (
	"errors"
	"fmt"

	"github.com/mwiater/cyclebench/internal/primitive"
	"github.com/mwiater/cyclebench/internal/report"
)

// ErrAllocation is returned when the buffer sizes of an adapter cannot be
// satisfied. It is fatal and always occurs before any measurement.
var ErrAllocation = errors.New("buffer allocation failed")

// Buffers are the harness-owned byte slices handed to the adapter. They are
// allocated once per run and reused by every call.
type Buffers struct {
	PublicKey    []byte
	SecretKey    []byte
	Ciphertext   []byte
	SharedSecret []byte
	// Recovered receives the output of Inverse.
	Recovered []byte
}

// NewBuffers allocates buffers for sizes. Every role must be at least one
// byte and, when maxBytes is positive, no larger than maxBytes.
func NewBuffers(sizes primitive.BufferSizes, maxBytes int) (*Buffers, error) {
	roles := []struct {
		name string
		size int
	}{
		{"public key", sizes.PublicKey},
		{"secret key", sizes.SecretKey},
		{"ciphertext", sizes.Ciphertext},
		{"shared secret", sizes.SharedSecret},
	}
	for _, r := range roles {
		if r.size <= 0 {
			return nil, fmt.Errorf("%w: %s size %d", ErrAllocation, r.name, r.size)
		}
		if maxBytes > 0 && r.size > maxBytes {
			return nil, fmt.Errorf("%w: %s size %d exceeds limit %d", ErrAllocation, r.name, r.size, maxBytes)
		}
	}
	if sizes.AssociatedData < 0 {
		return nil, fmt.Errorf("%w: associated data size %d", ErrAllocation, sizes.AssociatedData)
	}

	return &Buffers{
		PublicKey:    make([]byte, sizes.PublicKey),
		SecretKey:    make([]byte, sizes.SecretKey),
		Ciphertext:   make([]byte, sizes.Ciphertext),
		SharedSecret: make([]byte, sizes.SharedSecret),
		Recovered:    make([]byte, sizes.SharedSecret),
	}, nil
}

// Heap reports the usable capacity of every buffer.
func (b *Buffers) Heap() report.HeapFootprint {
	h := report.HeapFootprint{
		PublicKey:    cap(b.PublicKey),
		SecretKey:    cap(b.SecretKey),
		Ciphertext:   cap(b.Ciphertext),
		SharedSecret: cap(b.SharedSecret),
		Recovered:    cap(b.Recovered),
	}
	h.Total = h.PublicKey + h.SecretKey + h.Ciphertext + h.SharedSecret + h.Recovered
	return h
}
