package crypto

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedCurve is returned when a curve name is not recognized.
	ErrUnsupportedCurve = errors.New("unsupported curve")

	// ErrInvalidPublicKey is returned when a public key cannot be decoded or
	// is not a valid point on the curve.
	ErrInvalidPublicKey = errors.New("invalid public key")

	// ErrInvalidPrivateKey is returned when a private key has the wrong size
	// or is out of range for the curve.
	ErrInvalidPrivateKey = errors.New("invalid private key")

	// ErrMissingPeerKey is returned by Encrypt when no peer public key is given.
	ErrMissingPeerKey = errors.New("missing peer public key")

	// ErrMalformedEnvelope matches any *MalformedEnvelopeError.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrExpiredEnvelope matches any *ExpiredEnvelopeError.
	ErrExpiredEnvelope = errors.New("envelope expired")

	// ErrAuthentication matches any *AuthenticationError.
	ErrAuthentication = errors.New("envelope authentication failed")

	// ErrDecryptionFailed is returned when decryption fails.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidKeySize is returned when the AES key size is invalid.
	ErrInvalidKeySize = errors.New("invalid key size")

	// ErrInvalidNonceSize is returned when the nonce size is invalid.
	ErrInvalidNonceSize = errors.New("invalid nonce size")

	// ErrUnknownKDF is returned for an unrecognized key derivation mode.
	ErrUnknownKDF = errors.New("unknown key derivation")
)

// MalformedEnvelopeError reports an envelope that could not be split into
// its fields. Parts is the number of fields actually found.
type MalformedEnvelopeError struct {
	Parts  int
	Reason string
}

func (e *MalformedEnvelopeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("malformed envelope: %s", e.Reason)
	}
	return fmt.Sprintf("malformed envelope: expected %d parts, got %d", EnvelopeFields, e.Parts)
}

// Is implements errors.Is for sentinel error matching.
func (e *MalformedEnvelopeError) Is(target error) bool {
	return target == ErrMalformedEnvelope
}

// ExpiredEnvelopeError reports an envelope older than the replay window.
type ExpiredEnvelopeError struct {
	Timestamp int64
	Age       time.Duration
}

func (e *ExpiredEnvelopeError) Error() string {
	return fmt.Sprintf("envelope expired: timestamp %d is %v old", e.Timestamp, e.Age)
}

// Is implements errors.Is for sentinel error matching.
func (e *ExpiredEnvelopeError) Is(target error) bool {
	return target == ErrExpiredEnvelope
}

// AuthenticationError reports an envelope whose HMAC could not be verified.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (e *AuthenticationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("authentication failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("authentication failed: %s", e.Reason)
}

// Unwrap returns the underlying error.
func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

// DecryptionError reports a failure after the envelope was authenticated.
type DecryptionError struct {
	Stage string // "decode", "aes"
	Err   error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("decryption failed at %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *DecryptionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is for sentinel error matching.
func (e *DecryptionError) Is(target error) bool {
	return target == ErrDecryptionFailed
}
