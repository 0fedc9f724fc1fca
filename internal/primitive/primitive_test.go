package primitive

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededOptions(seed byte) Options {
	var key [32]byte
	key[0] = seed
	return Options{
		Rand:                rand.NewChaCha8(key),
		MessageBytes:        1024,
		AssociatedDataBytes: 16,
	}
}

type buffers struct {
	pk, sk, ct, ss, ss2 []byte
}

func allocate(sizes BufferSizes) buffers {
	return buffers{
		pk:  make([]byte, sizes.PublicKey),
		sk:  make([]byte, sizes.SecretKey),
		ct:  make([]byte, sizes.Ciphertext),
		ss:  make([]byte, sizes.SharedSecret),
		ss2: make([]byte, sizes.SharedSecret),
	}
}

func TestKyberBufferSizes(t *testing.T) {
	// Sizes of the reference Kyber parameter sets.
	tests := []struct {
		variant string
		want    BufferSizes
	}{
		{"kyber512", BufferSizes{PublicKey: 800, SecretKey: 1632, Ciphertext: 768, SharedSecret: 32}},
		{"kyber768", BufferSizes{PublicKey: 1184, SecretKey: 2400, Ciphertext: 1088, SharedSecret: 32}},
		{"kyber1024", BufferSizes{PublicKey: 1568, SecretKey: 3168, Ciphertext: 1568, SharedSecret: 32}},
	}
	for _, tt := range tests {
		t.Run(tt.variant, func(t *testing.T) {
			a, err := Lookup(tt.variant, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, a.BufferSizes())
		})
	}
}

func TestAEADBufferSizes(t *testing.T) {
	a, err := Lookup("xchacha20poly1305", Options{MessageBytes: 4096, AssociatedDataBytes: 13})
	require.NoError(t, err)
	assert.Equal(t, BufferSizes{
		PublicKey:      32 + 24,
		SecretKey:      32 + 24,
		Ciphertext:     4096 + 16,
		SharedSecret:   4096,
		AssociatedData: 13,
	}, a.BufferSizes())

	a, err = Lookup("aes256gcm", Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultMessageBytes, a.BufferSizes().SharedSecret)
}

func TestRoundTripEveryVariant(t *testing.T) {
	for i, name := range Names() {
		t.Run(name, func(t *testing.T) {
			a, err := Lookup(name, seededOptions(byte(i)))
			require.NoError(t, err)
			assert.Equal(t, name, a.Name())

			b := allocate(a.BufferSizes())
			for trial := 0; trial < 20; trial++ {
				require.NoError(t, a.Generate(b.pk, b.sk))
				require.NoError(t, a.Forward(b.pk, b.ct, b.ss))
				require.NoError(t, a.Inverse(b.ct, b.sk, b.ss2))
				require.True(t, bytes.Equal(b.ss, b.ss2), "trial %d", trial)
			}
		})
	}
}

func TestSeededGenerateIsDeterministic(t *testing.T) {
	a1, err := Lookup("mlkem768", seededOptions(7))
	require.NoError(t, err)
	a2, err := Lookup("mlkem768", seededOptions(7))
	require.NoError(t, err)

	b1, b2 := allocate(a1.BufferSizes()), allocate(a2.BufferSizes())
	require.NoError(t, a1.Generate(b1.pk, b1.sk))
	require.NoError(t, a2.Generate(b2.pk, b2.sk))
	assert.Equal(t, b1.pk, b2.pk)
	assert.Equal(t, b1.sk, b2.sk)
}

func TestAEADTamperIsPrimitiveFailure(t *testing.T) {
	a, err := Lookup("chacha20poly1305", seededOptions(3))
	require.NoError(t, err)
	b := allocate(a.BufferSizes())
	require.NoError(t, a.Generate(b.pk, b.sk))
	require.NoError(t, a.Forward(b.pk, b.ct, b.ss))

	b.ct[0] ^= 0xff
	err = a.Inverse(b.ct, b.sk, b.ss2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrimitiveFailure))

	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "chacha20poly1305", perr.Variant)
	assert.Equal(t, "decrypt", perr.Op)
}

func TestKEMWrongKeyGivesDifferentSecret(t *testing.T) {
	a, err := Lookup("kyber768", seededOptions(9))
	require.NoError(t, err)
	b := allocate(a.BufferSizes())
	other := allocate(a.BufferSizes())

	require.NoError(t, a.Generate(b.pk, b.sk))
	require.NoError(t, a.Generate(other.pk, other.sk))
	require.NoError(t, a.Forward(b.pk, b.ct, b.ss))
	// Kyber decapsulation rejects implicitly: no error, wrong secret.
	require.NoError(t, a.Inverse(b.ct, other.sk, b.ss2))
	assert.NotEqual(t, b.ss, b.ss2)
}

func TestMisSizedBuffersFail(t *testing.T) {
	a, err := Lookup("kyber512", seededOptions(1))
	require.NoError(t, err)
	sizes := a.BufferSizes()

	err = a.Generate(make([]byte, sizes.PublicKey-1), make([]byte, sizes.SecretKey))
	assert.ErrorIs(t, err, ErrPrimitiveFailure)

	err = a.Inverse(make([]byte, 3), make([]byte, sizes.SecretKey), make([]byte, sizes.SharedSecret))
	assert.ErrorIs(t, err, ErrPrimitiveFailure)
}

func TestLookupUnknown(t *testing.T) {
	_, err := Lookup("rot13", Options{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownVariant)
	assert.Contains(t, err.Error(), "kyber512")
}

func TestFindIgnoresCase(t *testing.T) {
	v, ok := Find(" Kyber1024 ")
	require.True(t, ok)
	assert.Equal(t, "kyber1024", v.Name)
	assert.Equal(t, FamilyKEM, v.Family)

	v, ok = Find("AES256GCM")
	require.True(t, ok)
	assert.Equal(t, FamilyAEAD, v.Family)
}

func TestVariantsSorted(t *testing.T) {
	names := Names()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		assert.Less(t, names[i-1], names[i])
	}
	_, ok := Find(DefaultVariant)
	assert.True(t, ok)
}

func TestAsconVariants(t *testing.T) {
	for _, name := range []string{"ascon128", "ascon128a"} {
		t.Run(name, func(t *testing.T) {
			v, ok := Find(name)
			require.True(t, ok)
			assert.Equal(t, FamilyAEAD, v.Family)

			a, err := Lookup(name, seededOptions(5))
			require.NoError(t, err)
			assert.Equal(t, BufferSizes{
				PublicKey:      16 + 16,
				SecretKey:      16 + 16,
				Ciphertext:     1024 + 16,
				SharedSecret:   1024,
				AssociatedData: 16,
			}, a.BufferSizes())

			b := allocate(a.BufferSizes())
			require.NoError(t, Prepare(a, b.ss))
			require.NoError(t, a.Generate(b.pk, b.sk))
			require.NoError(t, a.Forward(b.pk, b.ct, b.ss))
			require.NoError(t, a.Inverse(b.ct, b.sk, b.ss2))
			assert.Equal(t, b.ss, b.ss2)
		})
	}
}

func TestAEADForwardSealsPreparedPlaintext(t *testing.T) {
	a, err := Lookup("chacha20poly1305", seededOptions(11))
	require.NoError(t, err)
	adapter := a.(*aeadAdapter)
	b := allocate(a.BufferSizes())

	require.NoError(t, Prepare(a, b.ss))
	assert.Equal(t, adapter.message, b.ss)
	assert.ErrorIs(t, Prepare(a, make([]byte, 3)), ErrPrimitiveFailure)

	// Generate builds the cipher; Forward and Inverse reuse it.
	require.NoError(t, a.Generate(b.pk, b.sk))
	built := adapter.aead
	require.NotNil(t, built)

	plaintext := bytes.Clone(b.ss)
	require.NoError(t, a.Forward(b.pk, b.ct, b.ss))
	require.NoError(t, a.Inverse(b.ct, b.sk, b.ss2))
	assert.Equal(t, plaintext, b.ss, "forward must not rewrite the plaintext")
	assert.Equal(t, plaintext, b.ss2)
	assert.Same(t, built, adapter.aead)

	// Foreign key material is still accepted and rebuilds the cipher.
	other := allocate(a.BufferSizes())
	copy(other.pk, b.pk)
	other.pk[0] ^= 0x01
	require.NoError(t, a.Forward(other.pk, other.ct, b.ss))
	assert.NotSame(t, built, adapter.aead)
	assert.NotEqual(t, b.ct, other.ct)
}

func TestPrepareIsNoOpForKEM(t *testing.T) {
	a, err := Lookup("kyber512", seededOptions(2))
	require.NoError(t, err)
	ss := make([]byte, a.BufferSizes().SharedSecret)
	require.NoError(t, Prepare(a, ss))
	assert.Equal(t, make([]byte, len(ss)), ss)
}
