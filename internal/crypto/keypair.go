package crypto

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// KeyPair is a long-term elliptic-curve key pair owned by one client.
type KeyPair struct {
	// PrivateKey is the raw private scalar in the curve's encoding.
	PrivateKey []byte
	// PublicKey is the public key in the curve's canonical encoding.
	PublicKey []byte
	// Curve is the canonical name of the curve the keys belong to.
	Curve string
}

// GenerateKeyPair creates a new key pair on the named curve.
func GenerateKeyPair(curveName string) (*KeyPair, error) {
	curve, err := LookupCurve(curveName)
	if err != nil {
		return nil, err
	}

	priv, pub, err := curve.GenerateKey(random())
	if err != nil {
		return nil, fmt.Errorf("generate %s key: %w", curve.Name(), err)
	}

	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  pub,
		Curve:      curve.Name(),
	}, nil
}

// KeyPairFromPrivateKey reconstructs a key pair from a private key.
func KeyPairFromPrivateKey(curveName string, privateKey []byte) (*KeyPair, error) {
	curve, err := LookupCurve(curveName)
	if err != nil {
		return nil, err
	}

	pub, err := curve.PublicKey(privateKey)
	if err != nil {
		return nil, err
	}

	priv := make([]byte, len(privateKey))
	copy(priv, privateKey)

	return &KeyPair{
		PrivateKey: priv,
		PublicKey:  pub,
		Curve:      curve.Name(),
	}, nil
}

// PublicKeyHex returns the public key as lowercase hex.
func (k *KeyPair) PublicKeyHex() string {
	return hex.EncodeToString(k.PublicKey)
}

// ClientID returns the envelope fingerprint of the public key: the first
// eight hex characters of its SHA-256 digest.
func (k *KeyPair) ClientID() string {
	return ClientID(k.PublicKey)
}

// Clone returns a deep copy of the key pair.
func (k *KeyPair) Clone() *KeyPair {
	return &KeyPair{
		PrivateKey: append([]byte(nil), k.PrivateKey...),
		PublicKey:  append([]byte(nil), k.PublicKey...),
		Curve:      k.Curve,
	}
}

// ValidateKeyPair reports whether the public key is the one derived from
// the private key on the pair's curve.
func ValidateKeyPair(keypair *KeyPair) bool {
	if keypair == nil || len(keypair.PrivateKey) == 0 || len(keypair.PublicKey) == 0 {
		return false
	}

	curve, err := LookupCurve(keypair.Curve)
	if err != nil {
		return false
	}

	pub, err := curve.PublicKey(keypair.PrivateKey)
	if err != nil {
		return false
	}

	return bytes.Equal(pub, keypair.PublicKey)
}

// ClientID returns the first eight hex characters of SHA-256(publicKey).
func ClientID(publicKey []byte) string {
	sum := sha256.Sum256(publicKey)
	return hex.EncodeToString(sum[:])[:ClientIDLength]
}

// DecodePublicKeyHex decodes a hex public key. An optional 0x prefix is accepted.
func DecodePublicKeyHex(s string) ([]byte, error) {
	if len(s) >= 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPublicKey, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidPublicKey)
	}
	return b, nil
}
