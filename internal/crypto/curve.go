package crypto

import (
	"crypto/ecdh"
	"crypto/rand"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cloudflare/circl/dh/x25519"
	"github.com/cloudflare/circl/dh/x448"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// randReader is the random source used for key and IV generation.
// It defaults to nil (which uses crypto/rand) but can be overridden for testing.
var randReader io.Reader

func random() io.Reader {
	if randReader != nil {
		return randReader
	}
	return rand.Reader
}

// Curve is a named elliptic curve usable for Diffie-Hellman key agreement.
// Keys are exchanged as raw bytes in the curve's canonical encoding.
type Curve interface {
	// Name returns the canonical curve name.
	Name() string
	// GenerateKey returns a fresh private key and its public key.
	GenerateKey(r io.Reader) (priv, pub []byte, err error)
	// PublicKey derives the public key for priv.
	PublicKey(priv []byte) ([]byte, error)
	// ECDH computes the shared secret between priv and peerPub.
	ECDH(priv, peerPub []byte) ([]byte, error)
}

var curves = map[string]Curve{}

func registerCurve(c Curve, aliases ...string) {
	curves[strings.ToLower(c.Name())] = c
	for _, a := range aliases {
		curves[strings.ToLower(a)] = c
	}
}

func init() {
	registerCurve(nistCurve{name: "prime256v1", curve: ecdh.P256()}, "secp256r1", "p-256", "p256")
	registerCurve(nistCurve{name: "secp384r1", curve: ecdh.P384()}, "p-384", "p384")
	registerCurve(nistCurve{name: "secp521r1", curve: ecdh.P521()}, "p-521", "p521")
	registerCurve(secp256k1Curve{})
	registerCurve(x25519Curve{})
	registerCurve(x448Curve{})
}

// LookupCurve returns the curve registered under name. Names are matched
// case-insensitively and include the OpenSSL and NIST aliases.
func LookupCurve(name string) (Curve, error) {
	if name == "" {
		name = DefaultCurve
	}
	c, ok := curves[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCurve, name)
	}
	return c, nil
}

// Curves returns every accepted curve name, aliases included, sorted.
func Curves() []string {
	names := make([]string, 0, len(curves))
	for n := range curves {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// nistCurve wraps the constant-time crypto/ecdh implementations.
type nistCurve struct {
	name  string
	curve ecdh.Curve
}

func (c nistCurve) Name() string { return c.name }

func (c nistCurve) GenerateKey(r io.Reader) ([]byte, []byte, error) {
	priv, err := c.curve.GenerateKey(r)
	if err != nil {
		return nil, nil, err
	}
	return priv.Bytes(), priv.PublicKey().Bytes(), nil
}

func (c nistCurve) PublicKey(priv []byte) ([]byte, error) {
	k, err := c.curve.NewPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	return k.PublicKey().Bytes(), nil
}

func (c nistCurve) ECDH(priv, peerPub []byte) ([]byte, error) {
	k, err := c.curve.NewPrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPrivateKey, err)
	}
	pub, err := c.curve.NewPublicKey(peerPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return k.ECDH(pub)
}

// secp256k1Curve produces the X coordinate of the shared point, matching
// OpenSSL's ECDH output for this curve.
type secp256k1Curve struct{}

func (secp256k1Curve) Name() string { return "secp256k1" }

func (secp256k1Curve) GenerateKey(r io.Reader) ([]byte, []byte, error) {
	priv, err := secp256k1.GeneratePrivateKeyFromRand(r)
	if err != nil {
		return nil, nil, err
	}
	return priv.Serialize(), priv.PubKey().SerializeUncompressed(), nil
}

func (c secp256k1Curve) PublicKey(priv []byte) ([]byte, error) {
	k, err := c.privateKey(priv)
	if err != nil {
		return nil, err
	}
	return k.PubKey().SerializeUncompressed(), nil
}

func (c secp256k1Curve) ECDH(priv, peerPub []byte) ([]byte, error) {
	k, err := c.privateKey(priv)
	if err != nil {
		return nil, err
	}
	pub, err := secp256k1.ParsePubKey(peerPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	return secp256k1.GenerateSharedSecret(k, pub), nil
}

func (secp256k1Curve) privateKey(priv []byte) (*secp256k1.PrivateKey, error) {
	if len(priv) != secp256k1.PrivKeyBytesLen {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(priv), secp256k1.PrivKeyBytesLen)
	}
	k := secp256k1.PrivKeyFromBytes(priv)
	if k.Key.IsZero() {
		return nil, fmt.Errorf("%w: zero scalar", ErrInvalidPrivateKey)
	}
	return k, nil
}

type x25519Curve struct{}

func (x25519Curve) Name() string { return "x25519" }

func (x25519Curve) GenerateKey(r io.Reader) ([]byte, []byte, error) {
	var sec, pub x25519.Key
	if _, err := io.ReadFull(r, sec[:]); err != nil {
		return nil, nil, fmt.Errorf("read random: %w", err)
	}
	x25519.KeyGen(&pub, &sec)
	return sec[:], pub[:], nil
}

func (x25519Curve) PublicKey(priv []byte) ([]byte, error) {
	if len(priv) != x25519.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(priv), x25519.Size)
	}
	var sec, pub x25519.Key
	copy(sec[:], priv)
	x25519.KeyGen(&pub, &sec)
	return pub[:], nil
}

func (x25519Curve) ECDH(priv, peerPub []byte) ([]byte, error) {
	if len(priv) != x25519.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(priv), x25519.Size)
	}
	if len(peerPub) != x25519.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(peerPub), x25519.Size)
	}
	var sec, pub, shared x25519.Key
	copy(sec[:], priv)
	copy(pub[:], peerPub)
	if !x25519.Shared(&shared, &sec, &pub) {
		return nil, fmt.Errorf("%w: low order point", ErrInvalidPublicKey)
	}
	return shared[:], nil
}

type x448Curve struct{}

func (x448Curve) Name() string { return "x448" }

func (x448Curve) GenerateKey(r io.Reader) ([]byte, []byte, error) {
	var sec, pub x448.Key
	if _, err := io.ReadFull(r, sec[:]); err != nil {
		return nil, nil, fmt.Errorf("read random: %w", err)
	}
	x448.KeyGen(&pub, &sec)
	return sec[:], pub[:], nil
}

func (x448Curve) PublicKey(priv []byte) ([]byte, error) {
	if len(priv) != x448.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(priv), x448.Size)
	}
	var sec, pub x448.Key
	copy(sec[:], priv)
	x448.KeyGen(&pub, &sec)
	return pub[:], nil
}

func (x448Curve) ECDH(priv, peerPub []byte) ([]byte, error) {
	if len(priv) != x448.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPrivateKey, len(priv), x448.Size)
	}
	if len(peerPub) != x448.Size {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrInvalidPublicKey, len(peerPub), x448.Size)
	}
	var sec, pub, shared x448.Key
	copy(sec[:], priv)
	copy(pub[:], peerPub)
	if !x448.Shared(&shared, &sec, &pub) {
		return nil, fmt.Errorf("%w: low order point", ErrInvalidPublicKey)
	}
	return shared[:], nil
}
