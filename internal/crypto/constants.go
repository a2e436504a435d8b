package crypto

import "time"

const (
	// DefaultCurve is the curve used when none is configured.
	DefaultCurve = "prime256v1"

	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// EnvelopeFields is the number of colon-separated fields in a decoded envelope.
	EnvelopeFields = 7
	// ClientIDLength is the number of hex characters in an envelope client ID.
	ClientIDLength = 8

	// MACKeySuffix is appended to the digest of the shared secret to form the
	// HMAC key under KDFDigest.
	MACKeySuffix = "HMAC_KEY"

	// HKDFEncInfo and HKDFMACInfo are the HKDF info strings used under KDFHKDF.
	HKDFEncInfo = "cipherlink/v1 enc"
	HKDFMACInfo = "cipherlink/v1 mac"

	// ClientPublicKeyField is the payload field carrying the sender's
	// long-term public key.
	ClientPublicKeyField = "clientPublicKey"
)

// DefaultReplayWindow is the maximum accepted age of an envelope.
const DefaultReplayWindow = 300 * time.Second
