package crypto

import (
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KDF selects how the symmetric and MAC keys are derived from the ECDH
// shared secret. Both ends of a channel must use the same mode.
type KDF string

const (
	// KDFDigest derives encKey = SHA-256(shared) and macKey = encKey || "HMAC_KEY".
	// This is the wire-compatible default.
	KDFDigest KDF = "digest"
	// KDFHKDF derives independent 32-byte keys with HKDF-SHA-256 and distinct
	// info strings.
	KDFHKDF KDF = "hkdf"
)

// sessionKeys holds the keys derived for a single envelope.
type sessionKeys struct {
	enc []byte
	mac []byte
}

func deriveSessionKeys(kdf KDF, shared []byte) (*sessionKeys, error) {
	switch kdf {
	case KDFDigest, "":
		digest := sha256.Sum256(shared)
		mac := make([]byte, 0, len(digest)+len(MACKeySuffix))
		mac = append(mac, digest[:]...)
		mac = append(mac, MACKeySuffix...)
		return &sessionKeys{enc: digest[:], mac: mac}, nil
	case KDFHKDF:
		enc, err := DeriveKey(shared, nil, []byte(HKDFEncInfo), AESKeySize)
		if err != nil {
			return nil, err
		}
		mac, err := DeriveKey(shared, nil, []byte(HKDFMACInfo), sha256.Size)
		if err != nil {
			return nil, err
		}
		return &sessionKeys{enc: enc, mac: mac}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKDF, kdf)
	}
}

// DeriveKey derives a key using HKDF-SHA-256.
//
// Parameters:
//   - secret: the input key material (e.g., an ECDH shared secret)
//   - salt: optional salt value; if empty, a zero-filled salt is used
//   - info: context/application-specific info for domain separation
//   - length: desired output key length in bytes
func DeriveKey(secret, salt, info []byte, length int) ([]byte, error) {
	if len(salt) == 0 {
		salt = make([]byte, sha256.Size)
	}

	reader := hkdf.New(sha256.New, secret, salt, info)
	key := make([]byte, length)

	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("failed to derive key: %w", err)
	}

	return key, nil
}

// ParseKDF validates a key derivation name.
func ParseKDF(s string) (KDF, error) {
	switch KDF(s) {
	case "", KDFDigest:
		return KDFDigest, nil
	case KDFHKDF:
		return KDFHKDF, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKDF, s)
}
