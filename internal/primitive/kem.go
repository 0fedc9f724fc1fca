package primitive

import (
	"encoding"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem"
)

// kemAdapter measures a key-encapsulation mechanism. Generate is key-pair
// derivation, Forward is encapsulation and Inverse is decapsulation.
type kemAdapter struct {
	name   string
	scheme kem.Scheme
	rand   io.Reader

	// scratch seeds, reused across calls
	keySeed   []byte
	encapSeed []byte
}

func newKEM(name string, scheme kem.Scheme, opts Options) *kemAdapter {
	opts = opts.withDefaults()
	return &kemAdapter{
		name:      name,
		scheme:    scheme,
		rand:      opts.Rand,
		keySeed:   make([]byte, scheme.SeedSize()),
		encapSeed: make([]byte, scheme.EncapsulationSeedSize()),
	}
}

func (a *kemAdapter) Name() string { return a.name }

func (a *kemAdapter) BufferSizes() BufferSizes {
	return BufferSizes{
		PublicKey:    a.scheme.PublicKeySize(),
		SecretKey:    a.scheme.PrivateKeySize(),
		Ciphertext:   a.scheme.CiphertextSize(),
		SharedSecret: a.scheme.SharedKeySize(),
	}
}

func (a *kemAdapter) Generate(pk, sk []byte) error {
	if _, err := io.ReadFull(a.rand, a.keySeed); err != nil {
		return failure(a.name, "generate", fmt.Errorf("read seed: %w", err))
	}
	pub, priv := a.scheme.DeriveKeyPair(a.keySeed)
	if err := marshalInto(pk, pub, "public key"); err != nil {
		return failure(a.name, "generate", err)
	}
	if err := marshalInto(sk, priv, "secret key"); err != nil {
		return failure(a.name, "generate", err)
	}
	return nil
}

func (a *kemAdapter) Forward(pk, ct, ss []byte) error {
	pub, err := a.scheme.UnmarshalBinaryPublicKey(pk)
	if err != nil {
		return failure(a.name, "encapsulate", err)
	}
	if _, err := io.ReadFull(a.rand, a.encapSeed); err != nil {
		return failure(a.name, "encapsulate", fmt.Errorf("read seed: %w", err))
	}
	c, s, err := a.scheme.EncapsulateDeterministically(pub, a.encapSeed)
	if err != nil {
		return failure(a.name, "encapsulate", err)
	}
	if err := copyExact(ct, c, "ciphertext"); err != nil {
		return failure(a.name, "encapsulate", err)
	}
	if err := copyExact(ss, s, "shared secret"); err != nil {
		return failure(a.name, "encapsulate", err)
	}
	return nil
}

func (a *kemAdapter) Inverse(ct, sk, ss []byte) error {
	priv, err := a.scheme.UnmarshalBinaryPrivateKey(sk)
	if err != nil {
		return failure(a.name, "decapsulate", err)
	}
	s, err := a.scheme.Decapsulate(priv, ct)
	if err != nil {
		return failure(a.name, "decapsulate", err)
	}
	if err := copyExact(ss, s, "shared secret"); err != nil {
		return failure(a.name, "decapsulate", err)
	}
	return nil
}

func marshalInto(dst []byte, key encoding.BinaryMarshaler, role string) error {
	b, err := key.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal %s: %w", role, err)
	}
	return copyExact(dst, b, role)
}
