package benchmark

import (
	"errors"
	"fmt"

	"github.com/mwiater/cyclebench/internal/primitive"
)

// fakeClock advances by readCost on every Read. Fake adapters advance it by
// their per-call cost, so measured samples are exact.
type fakeClock struct {
	now      uint64
	readCost uint64
	native   bool
}

func (c *fakeClock) Read() uint64 {
	c.now += c.readCost
	return c.now
}

func (c *fakeClock) Name() string { return "fake" }
func (c *fakeClock) Native() bool { return c.native }

// fakeAdapter is a deterministic primitive with fixed per-call costs.
type fakeAdapter struct {
	clock *fakeClock
	sizes primitive.BufferSizes
	cost  [3]uint64
	calls [3]int

	// failForwardEvery fails every n-th Forward call when positive.
	failForwardEvery int
	failInverse      bool
	wrongInverse     bool
	// allocPerCall makes every Generate allocate this many heap bytes.
	allocPerCall int
}

var allocSink []byte

func newFakeAdapter(clock *fakeClock) *fakeAdapter {
	return &fakeAdapter{
		clock: clock,
		sizes: primitive.BufferSizes{PublicKey: 8, SecretKey: 8, Ciphertext: 16, SharedSecret: 16},
		cost:  [3]uint64{50000, 60000, 70000},
	}
}

func (f *fakeAdapter) Name() string                        { return "fake-kem" }
func (f *fakeAdapter) BufferSizes() primitive.BufferSizes { return f.sizes }

func (f *fakeAdapter) Generate(pk, sk []byte) error {
	f.calls[0]++
	f.clock.now += f.cost[0]
	if f.allocPerCall > 0 {
		allocSink = make([]byte, f.allocPerCall)
	}
	for i := range pk {
		pk[i] = byte(f.calls[0] + i)
	}
	copy(sk, pk)
	return nil
}

func (f *fakeAdapter) Forward(pk, ct, ss []byte) error {
	f.calls[1]++
	f.clock.now += f.cost[1]
	if f.failForwardEvery > 0 && f.calls[1]%f.failForwardEvery == 0 {
		return &primitive.Error{Variant: f.Name(), Op: "encapsulate", Err: fmt.Errorf("call %d rejected", f.calls[1])}
	}
	for i := range ct {
		ct[i] = pk[i%len(pk)] ^ byte(i)
	}
	copy(ss, ct)
	return nil
}

func (f *fakeAdapter) Inverse(ct, sk, ss []byte) error {
	f.calls[2]++
	f.clock.now += f.cost[2]
	if f.failInverse {
		return &primitive.Error{Variant: f.Name(), Op: "decapsulate", Err: errors.New("bad ciphertext")}
	}
	copy(ss, ct)
	if f.wrongInverse {
		ss[0] ^= 0xff
	}
	return nil
}

// preparedAdapter records when Prepare is called relative to Generate.
type preparedAdapter struct {
	*fakeAdapter
	prepared        int
	generateAtFirst int
}

func (p *preparedAdapter) Prepare(ss []byte) error {
	if p.prepared == 0 {
		p.generateAtFirst = p.calls[0]
	}
	p.prepared++
	for i := range ss {
		ss[i] = 0xab
	}
	return nil
}
