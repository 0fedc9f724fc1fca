package primitive

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"io"

	"github.com/cloudflare/circl/cipher/ascon"
)

// aeadAdapter measures an authenticated cipher over a fixed message.
//
// Both key roles carry key‖nonce: the sealing side needs them through pk and
// the opening side through sk. ss is the plaintext. Prepare copies the
// adapter's message into it once, Forward seals ss into ct and Inverse opens
// ct into the recovered buffer. A failed open is a primitive failure.
//
// Generate also builds the cipher for the new key, so key setup is charged to
// generate. Forward and Inverse reuse that cipher while they are handed the
// same key material and only rebuild it, inside their own bracket, for
// material Generate did not produce.
type aeadAdapter struct {
	name      string
	keySize   int
	nonceSize int
	overhead  int
	newAEAD   func(key []byte) (cipher.AEAD, error)
	rand      io.Reader

	message []byte
	ad      []byte

	material []byte
	aead     cipher.AEAD
}

func newAEADAdapter(name string, keySize, nonceSize, overhead int, newAEAD func([]byte) (cipher.AEAD, error), opts Options) (*aeadAdapter, error) {
	opts = opts.withDefaults()
	a := &aeadAdapter{
		name:      name,
		keySize:   keySize,
		nonceSize: nonceSize,
		overhead:  overhead,
		newAEAD:   newAEAD,
		rand:      opts.Rand,
		message:   make([]byte, opts.MessageBytes),
		ad:        make([]byte, opts.AssociatedDataBytes),
		material:  make([]byte, keySize+nonceSize),
	}
	if _, err := io.ReadFull(a.rand, a.message); err != nil {
		return nil, fmt.Errorf("%s: generate message: %w", name, err)
	}
	if _, err := io.ReadFull(a.rand, a.ad); err != nil {
		return nil, fmt.Errorf("%s: generate associated data: %w", name, err)
	}
	return a, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func newAscon(mode ascon.Mode) func([]byte) (cipher.AEAD, error) {
	return func(key []byte) (cipher.AEAD, error) {
		return ascon.New(key, mode)
	}
}

func (a *aeadAdapter) Name() string { return a.name }

func (a *aeadAdapter) BufferSizes() BufferSizes {
	return BufferSizes{
		PublicKey:      a.keySize + a.nonceSize,
		SecretKey:      a.keySize + a.nonceSize,
		Ciphertext:     len(a.message) + a.overhead,
		SharedSecret:   len(a.message),
		AssociatedData: len(a.ad),
	}
}

// Prepare writes the message into ss.
func (a *aeadAdapter) Prepare(ss []byte) error {
	if err := copyExact(ss, a.message, "plaintext"); err != nil {
		return failure(a.name, "prepare", err)
	}
	return nil
}

func (a *aeadAdapter) Generate(pk, sk []byte) error {
	want := a.keySize + a.nonceSize
	if len(sk) != want || len(pk) != want {
		return failure(a.name, "generate", fmt.Errorf("key buffers must be %d bytes", want))
	}
	if _, err := io.ReadFull(a.rand, sk); err != nil {
		return failure(a.name, "generate", fmt.Errorf("read key: %w", err))
	}
	copy(pk, sk)
	if _, _, err := a.cipherFor(sk); err != nil {
		return failure(a.name, "generate", err)
	}
	return nil
}

func (a *aeadAdapter) Forward(pk, ct, ss []byte) error {
	aead, nonce, err := a.cipherFor(pk)
	if err != nil {
		return failure(a.name, "encrypt", err)
	}
	if len(ss) != len(a.message) {
		return failure(a.name, "encrypt", fmt.Errorf("plaintext buffer is %d bytes, want %d", len(ss), len(a.message)))
	}
	if len(ct) != len(ss)+aead.Overhead() {
		return failure(a.name, "encrypt", fmt.Errorf("ciphertext buffer is %d bytes, want %d", len(ct), len(ss)+aead.Overhead()))
	}
	aead.Seal(ct[:0], nonce, ss, a.ad)
	return nil
}

func (a *aeadAdapter) Inverse(ct, sk, ss []byte) error {
	aead, nonce, err := a.cipherFor(sk)
	if err != nil {
		return failure(a.name, "decrypt", err)
	}
	if len(ss) != len(ct)-aead.Overhead() {
		return failure(a.name, "decrypt", fmt.Errorf("plaintext buffer is %d bytes, want %d", len(ss), len(ct)-aead.Overhead()))
	}
	if _, err := aead.Open(ss[:0], nonce, ct, a.ad); err != nil {
		return failure(a.name, "decrypt", err)
	}
	return nil
}

// cipherFor splits key‖nonce and returns the cipher for the key, building it
// only when material differs from the last key seen.
func (a *aeadAdapter) cipherFor(material []byte) (cipher.AEAD, []byte, error) {
	if len(material) != a.keySize+a.nonceSize {
		return nil, nil, fmt.Errorf("key material is %d bytes, want %d", len(material), a.keySize+a.nonceSize)
	}
	nonce := material[a.keySize:]
	if a.aead != nil && bytes.Equal(material[:a.keySize], a.material[:a.keySize]) {
		return a.aead, nonce, nil
	}
	aead, err := a.newAEAD(material[:a.keySize])
	if err != nil {
		a.aead = nil
		return nil, nil, err
	}
	copy(a.material, material)
	a.aead = aead
	return aead, nonce, nil
}
