package primitive

import (
	"crypto/cipher"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/cloudflare/circl/cipher/ascon"
	"github.com/cloudflare/circl/hpke"
	"github.com/cloudflare/circl/kem"
	"github.com/cloudflare/circl/kem/kyber/kyber1024"
	"github.com/cloudflare/circl/kem/kyber/kyber512"
	"github.com/cloudflare/circl/kem/kyber/kyber768"
	"github.com/cloudflare/circl/kem/mlkem/mlkem1024"
	"github.com/cloudflare/circl/kem/mlkem/mlkem512"
	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"golang.org/x/crypto/chacha20poly1305"
)

// ErrUnknownVariant is returned by Lookup for a name that is not registered.
var ErrUnknownVariant = errors.New("unknown primitive variant")

// Family groups variants that share buffer-role semantics.
type Family string

const (
	FamilyKEM  Family = "kem"
	FamilyAEAD Family = "aead"
)

// Variant is a registered parameter set of a primitive.
type Variant struct {
	Name        string
	Family      Family
	Description string
	build       func(name string, opts Options) (Adapter, error)
}

// DefaultVariant is measured when the configuration names none.
const DefaultVariant = "kyber512"

func kemVariant(name, desc string, scheme func() kem.Scheme) Variant {
	return Variant{
		Name:        name,
		Family:      FamilyKEM,
		Description: desc,
		build: func(name string, opts Options) (Adapter, error) {
			return newKEM(name, scheme(), opts), nil
		},
	}
}

func aeadVariant(name, desc string, keySize, nonceSize, overhead int, newAEAD func([]byte) (cipher.AEAD, error)) Variant {
	return Variant{
		Name:        name,
		Family:      FamilyAEAD,
		Description: desc,
		build: func(name string, opts Options) (Adapter, error) {
			return newAEADAdapter(name, keySize, nonceSize, overhead, newAEAD, opts)
		},
	}
}

var registry = []Variant{
	kemVariant("kyber512", "CRYSTALS-Kyber, NIST level 1", kyber512.Scheme),
	kemVariant("kyber768", "CRYSTALS-Kyber, NIST level 3", kyber768.Scheme),
	kemVariant("kyber1024", "CRYSTALS-Kyber, NIST level 5", kyber1024.Scheme),
	kemVariant("mlkem512", "FIPS 203 ML-KEM-512", mlkem512.Scheme),
	kemVariant("mlkem768", "FIPS 203 ML-KEM-768", mlkem768.Scheme),
	kemVariant("mlkem1024", "FIPS 203 ML-KEM-1024", mlkem1024.Scheme),
	kemVariant("x25519", "DHKEM(X25519, HKDF-SHA256)", func() kem.Scheme {
		return hpke.KEM_X25519_HKDF_SHA256.Scheme()
	}),
	aeadVariant("chacha20poly1305", "ChaCha20-Poly1305 (RFC 8439)",
		chacha20poly1305.KeySize, chacha20poly1305.NonceSize, chacha20poly1305.Overhead, chacha20poly1305.New),
	aeadVariant("xchacha20poly1305", "XChaCha20-Poly1305, 192-bit nonce",
		chacha20poly1305.KeySize, chacha20poly1305.NonceSizeX, chacha20poly1305.Overhead, chacha20poly1305.NewX),
	aeadVariant("aes256gcm", "AES-256-GCM", 32, 12, 16, newAESGCM),
	aeadVariant("ascon128", "Ascon-128, NIST lightweight AEAD",
		ascon.KeySize, ascon.NonceSize, ascon.TagSize, newAscon(ascon.Ascon128)),
	aeadVariant("ascon128a", "Ascon-128a, 128-bit rate",
		ascon.KeySize, ascon.NonceSize, ascon.TagSize, newAscon(ascon.Ascon128a)),
}

// Variants lists every registered variant sorted by name.
func Variants() []Variant {
	out := slices.Clone(registry)
	slices.SortFunc(out, func(a, b Variant) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Names lists the registered variant names sorted.
func Names() []string {
	vs := Variants()
	names := make([]string, len(vs))
	for i, v := range vs {
		names[i] = v.Name
	}
	return names
}

// Find returns the registered variant with the given name, ignoring case.
func Find(name string) (Variant, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, v := range registry {
		if v.Name == key {
			return v, true
		}
	}
	return Variant{}, false
}

// Lookup builds the adapter for a variant name.
func Lookup(name string, opts Options) (Adapter, error) {
	v, ok := Find(name)
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownVariant, name, strings.Join(Names(), ", "))
	}
	return v.build(v.Name, opts)
}
