// Package primitive defines the fixed-buffer capability interface the harness
// measures, and the adapters shipped for KEM and AEAD schemes.
package primitive

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ErrPrimitiveFailure marks an error reported by the primitive itself (a
// failed decapsulation, an authentication failure, a malformed key). The
// harness drops the sample and counts the failure instead of aborting.
var ErrPrimitiveFailure = errors.New("primitive operation failed")

// BufferSizes are the byte lengths of every buffer role for one variant.
// They are fixed for the lifetime of a run.
type BufferSizes struct {
	PublicKey      int `json:"public_key" yaml:"public_key"`
	SecretKey      int `json:"secret_key" yaml:"secret_key"`
	Ciphertext     int `json:"ciphertext" yaml:"ciphertext"`
	SharedSecret   int `json:"shared_secret" yaml:"shared_secret"`
	AssociatedData int `json:"associated_data" yaml:"associated_data"`
}

// Adapter is a primitive under test. Buffers are allocated by the caller
// with the lengths from BufferSizes and are only valid for the duration of a
// call; an Adapter must not keep references to them.
//
// Forward consumes pk and writes ct and ss. Inverse consumes the ct written
// by Forward together with sk and writes the recovered ss.
type Adapter interface {
	Name() string
	BufferSizes() BufferSizes
	Generate(pk, sk []byte) error
	Forward(pk, ct, ss []byte) error
	Inverse(ct, sk, ss []byte) error
}

// Preparer is implemented by adapters whose Forward reads its input from
// the ss buffer instead of producing it. Prepare fills ss once, outside any
// timed region; the caller keeps ss untouched between trials.
type Preparer interface {
	Prepare(ss []byte) error
}

// Prepare calls a.Prepare when a implements Preparer and is a no-op
// otherwise.
func Prepare(a Adapter, ss []byte) error {
	if p, ok := a.(Preparer); ok {
		return p.Prepare(ss)
	}
	return nil
}

// Options tune adapter construction.
type Options struct {
	// Rand supplies seeds, keys and nonces. Defaults to crypto/rand.Reader.
	Rand io.Reader
	// MessageBytes is the AEAD plaintext size.
	MessageBytes int
	// AssociatedDataBytes is the AEAD associated data size.
	AssociatedDataBytes int
}

// DefaultMessageBytes matches the 880 KiB payload used for AEAD runs.
const DefaultMessageBytes = 880 * 1024

func (o Options) withDefaults() Options {
	if o.Rand == nil {
		o.Rand = rand.Reader
	}
	if o.MessageBytes <= 0 {
		o.MessageBytes = DefaultMessageBytes
	}
	if o.AssociatedDataBytes < 0 {
		o.AssociatedDataBytes = 0
	}
	return o
}

// Error describes a failed adapter call. It matches ErrPrimitiveFailure with
// errors.Is.
type Error struct {
	Variant string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Variant, e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is ErrPrimitiveFailure.
func (e *Error) Is(target error) bool { return target == ErrPrimitiveFailure }

func failure(variant, op string, err error) error {
	return &Error{Variant: variant, Op: op, Err: err}
}

// copyExact copies src into dst and fails when the lengths differ, so a
// mis-sized buffer never silently truncates key material.
func copyExact(dst, src []byte, role string) error {
	if len(dst) != len(src) {
		return fmt.Errorf("%s buffer is %d bytes, want %d", role, len(dst), len(src))
	}
	copy(dst, src)
	return nil
}
