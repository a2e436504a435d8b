package cipherlink

import (
	"errors"

	"github.com/cipherlink/client-go/internal/api"
	"github.com/cipherlink/client-go/internal/crypto"
	"github.com/cipherlink/client-go/internal/logging"
)

// Sentinel errors for errors.Is() checks
var (
	// ErrMissingPeerKey is returned when encrypting before a server public
	// key is known.
	ErrMissingPeerKey = crypto.ErrMissingPeerKey

	// ErrMalformedEnvelope matches any *MalformedEnvelopeError.
	ErrMalformedEnvelope = crypto.ErrMalformedEnvelope

	// ErrExpiredEnvelope matches any *ExpiredEnvelopeError.
	ErrExpiredEnvelope = crypto.ErrExpiredEnvelope

	// ErrAuthentication matches any *AuthenticationError.
	ErrAuthentication = crypto.ErrAuthentication

	// ErrDecryptionFailed matches any *DecryptionError.
	ErrDecryptionFailed = crypto.ErrDecryptionFailed

	// ErrHandshakeFailed matches any *HandshakeError.
	ErrHandshakeFailed = api.ErrHandshakeFailed

	// ErrTransport matches any *TransportError.
	ErrTransport = api.ErrTransport

	// ErrUnsupportedCurve is returned for unknown curve names.
	ErrUnsupportedCurve = crypto.ErrUnsupportedCurve

	// ErrInvalidPublicKey is returned for undecodable or off-curve public keys.
	ErrInvalidPublicKey = crypto.ErrInvalidPublicKey

	// ErrUnknownKDF is returned for an unrecognized key derivation mode.
	ErrUnknownKDF = crypto.ErrUnknownKDF

	// ErrInvalidLogLevel is returned for unknown log level names.
	ErrInvalidLogLevel = logging.ErrInvalidLogLevel

	// ErrMissingBaseURL is returned when an operation needs a base URL and
	// none was configured.
	ErrMissingBaseURL = errors.New("base URL is required")

	// ErrNoOutputDir is returned by SavedResponses when responses are not
	// persisted.
	ErrNoOutputDir = errors.New("no output directory configured")
)

// Error types. Each matches its sentinel with errors.Is and can be
// extracted with errors.As.
type (
	// MalformedEnvelopeError reports an envelope that does not split into
	// exactly seven fields, or whose timestamp is not a number.
	MalformedEnvelopeError = crypto.MalformedEnvelopeError

	// ExpiredEnvelopeError reports an envelope older than the replay window.
	ExpiredEnvelopeError = crypto.ExpiredEnvelopeError

	// AuthenticationError reports an envelope whose HMAC did not verify.
	AuthenticationError = crypto.AuthenticationError

	// DecryptionError reports an authenticated envelope that still failed to
	// decrypt.
	DecryptionError = crypto.DecryptionError

	// HandshakeError reports a failed key exchange.
	HandshakeError = api.HandshakeError

	// TransportError reports a non-2xx answer to an encrypted request.
	TransportError = api.TransportError

	// NetworkError represents a network-level failure.
	NetworkError = api.NetworkError
)
