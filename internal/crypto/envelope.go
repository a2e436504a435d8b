package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Envelope is the parsed wire form of an encrypted message. The first six
// fields are kept exactly as transmitted because the MAC covers their text.
type Envelope struct {
	// ClientID is the 8-hex-char fingerprint of the sender's long-term key.
	ClientID string
	// EphemeralPublicKey is the sender's per-message public key (hex).
	EphemeralPublicKey string
	// IV is the AES-GCM nonce (base64).
	IV string
	// Ciphertext is the AES-GCM ciphertext without tag (base64).
	Ciphertext string
	// AuthTag is the AES-GCM authentication tag (base64).
	AuthTag string
	// Timestamp is the Unix time in seconds at which the envelope was sealed.
	Timestamp string
	// MAC is the HMAC-SHA256 over the preceding fields (base64).
	MAC string
}

// AuthenticatedData returns the colon-joined text covered by the MAC.
func (e *Envelope) AuthenticatedData() string {
	return strings.Join([]string{
		e.ClientID,
		e.EphemeralPublicKey,
		e.IV,
		e.Ciphertext,
		e.AuthTag,
		e.Timestamp,
	}, ":")
}

// Encode returns the transport form: base64 of all seven fields joined by colons.
func (e *Envelope) Encode() string {
	return ToBase64([]byte(e.AuthenticatedData() + ":" + e.MAC))
}

// ParseEnvelope decodes the transport form without verifying anything.
func ParseEnvelope(s string) (*Envelope, error) {
	raw, err := DecodeBase64(strings.TrimSpace(s))
	if err != nil {
		return nil, &MalformedEnvelopeError{Reason: fmt.Sprintf("invalid base64: %v", err)}
	}

	parts := strings.Split(string(raw), ":")
	if len(parts) != EnvelopeFields {
		return nil, &MalformedEnvelopeError{Parts: len(parts)}
	}

	return &Envelope{
		ClientID:           parts[0],
		EphemeralPublicKey: parts[1],
		IV:                 parts[2],
		Ciphertext:         parts[3],
		AuthTag:            parts[4],
		Timestamp:          parts[5],
		MAC:                parts[6],
	}, nil
}

// Unix parses the envelope timestamp.
func (e *Envelope) Unix() (int64, error) {
	ts, err := strconv.ParseInt(e.Timestamp, 10, 64)
	if err != nil {
		return 0, &MalformedEnvelopeError{
			Parts:  EnvelopeFields,
			Reason: fmt.Sprintf("invalid timestamp %q", e.Timestamp),
		}
	}
	return ts, nil
}

// Codec seals payloads to a peer's public key and opens envelopes sealed to
// the local key pair. A Codec is safe for concurrent use as long as the key
// pair it was built with is not mutated.
type Codec struct {
	keys   *KeyPair
	curve  Curve
	kdf    KDF
	window time.Duration
	now    func() time.Time
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithClock sets the time source used for timestamps and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(c *Codec) {
		c.now = now
	}
}

// WithReplayWindow sets the maximum accepted envelope age.
// Default: 300 seconds
func WithReplayWindow(d time.Duration) CodecOption {
	return func(c *Codec) {
		c.window = d
	}
}

// WithKeyDerivation selects the key derivation mode.
// Default: KDFDigest
func WithKeyDerivation(kdf KDF) CodecOption {
	return func(c *Codec) {
		c.kdf = kdf
	}
}

// NewCodec creates a codec bound to the given long-term key pair.
func NewCodec(keys *KeyPair, opts ...CodecOption) (*Codec, error) {
	if keys == nil {
		return nil, fmt.Errorf("%w: nil key pair", ErrInvalidPrivateKey)
	}

	curve, err := LookupCurve(keys.Curve)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		keys:   keys,
		curve:  curve,
		kdf:    KDFDigest,
		window: DefaultReplayWindow,
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	if _, err := ParseKDF(string(c.kdf)); err != nil {
		return nil, err
	}

	return c, nil
}

// KeyPair returns the long-term key pair the codec was built with.
func (c *Codec) KeyPair() *KeyPair {
	return c.keys
}

// Encrypt serializes payload, with the local public key injected under
// "clientPublicKey", and seals it to peerPublicKeyHex.
func (c *Codec) Encrypt(payload map[string]interface{}, peerPublicKeyHex string) (string, error) {
	if peerPublicKeyHex == "" {
		return "", ErrMissingPeerKey
	}

	merged := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		merged[k] = v
	}
	merged[ClientPublicKeyField] = c.keys.PublicKeyHex()

	plaintext, err := json.Marshal(merged)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}

	return c.Seal(plaintext, peerPublicKeyHex)
}

// Seal encrypts plaintext to peerPublicKeyHex and returns the encoded envelope.
//
// Each call uses a fresh ephemeral key pair, so compromise of one message's
// keys does not expose any other message.
func (c *Codec) Seal(plaintext []byte, peerPublicKeyHex string) (string, error) {
	if peerPublicKeyHex == "" {
		return "", ErrMissingPeerKey
	}

	peerPub, err := DecodePublicKeyHex(peerPublicKeyHex)
	if err != nil {
		return "", err
	}

	// 1. Ephemeral key agreement
	ephPriv, ephPub, err := c.curve.GenerateKey(random())
	if err != nil {
		return "", fmt.Errorf("generate ephemeral key: %w", err)
	}

	shared, err := c.curve.ECDH(ephPriv, peerPub)
	if err != nil {
		return "", fmt.Errorf("ecdh: %w", err)
	}

	// 2. Key derivation
	keys, err := deriveSessionKeys(c.kdf, shared)
	if err != nil {
		return "", err
	}

	// 3. AES-256-GCM
	iv := make([]byte, AESNonceSize)
	if _, err := io.ReadFull(random(), iv); err != nil {
		return "", fmt.Errorf("generate iv: %w", err)
	}

	ciphertext, tag, err := SealAESGCM(keys.enc, iv, plaintext)
	if err != nil {
		return "", err
	}

	// 4. Authenticate
	env := &Envelope{
		ClientID:           c.keys.ClientID(),
		EphemeralPublicKey: hex.EncodeToString(ephPub),
		IV:                 ToBase64(iv),
		Ciphertext:         ToBase64(ciphertext),
		AuthTag:            ToBase64(tag),
		Timestamp:          strconv.FormatInt(c.now().Unix(), 10),
	}
	env.MAC = ToBase64(computeMAC(keys.mac, env.AuthenticatedData()))

	return env.Encode(), nil
}

// Open verifies an envelope sealed to the local key pair and returns the
// plaintext bytes.
//
// The MAC is checked before any ciphertext is touched. Envelopes older than
// the replay window are rejected; envelopes dated in the future are accepted.
func (c *Codec) Open(envelope string) ([]byte, error) {
	env, err := ParseEnvelope(envelope)
	if err != nil {
		return nil, err
	}

	ts, err := env.Unix()
	if err != nil {
		return nil, err
	}

	now := c.now().Unix()
	if age := now - ts; age > int64(c.window/time.Second) {
		return nil, &ExpiredEnvelopeError{Timestamp: ts, Age: time.Duration(age) * time.Second}
	}

	// 1. Recompute the shared secret from the ephemeral key
	ephPub, err := DecodePublicKeyHex(env.EphemeralPublicKey)
	if err != nil {
		return nil, &AuthenticationError{Reason: "invalid ephemeral public key", Err: err}
	}

	shared, err := c.curve.ECDH(c.keys.PrivateKey, ephPub)
	if err != nil {
		return nil, &AuthenticationError{Reason: "invalid ephemeral public key", Err: err}
	}

	keys, err := deriveSessionKeys(c.kdf, shared)
	if err != nil {
		return nil, err
	}

	// 2. Authenticate the literal fields
	mac, err := FromBase64(env.MAC)
	if err != nil {
		return nil, &AuthenticationError{Reason: "invalid hmac", Err: err}
	}
	if !hmac.Equal(mac, computeMAC(keys.mac, env.AuthenticatedData())) {
		return nil, &AuthenticationError{Reason: "invalid hmac"}
	}

	// 3. Decrypt
	iv, err := FromBase64(env.IV)
	if err != nil {
		return nil, &DecryptionError{Stage: "decode", Err: fmt.Errorf("iv: %w", err)}
	}
	ciphertext, err := FromBase64(env.Ciphertext)
	if err != nil {
		return nil, &DecryptionError{Stage: "decode", Err: fmt.Errorf("ciphertext: %w", err)}
	}
	tag, err := FromBase64(env.AuthTag)
	if err != nil {
		return nil, &DecryptionError{Stage: "decode", Err: fmt.Errorf("auth tag: %w", err)}
	}

	plaintext, err := OpenAESGCM(keys.enc, iv, ciphertext, tag)
	if err != nil {
		return nil, &DecryptionError{Stage: "aes", Err: err}
	}

	return plaintext, nil
}

// Decrypt opens an envelope and parses the plaintext as JSON. Plaintext that
// is not JSON is returned as a string.
func (c *Codec) Decrypt(envelope string) (interface{}, error) {
	plaintext, err := c.Open(envelope)
	if err != nil {
		return nil, err
	}
	return ParsePlaintext(plaintext), nil
}

// ParsePlaintext decodes JSON plaintext, falling back to the raw text.
func ParsePlaintext(plaintext []byte) interface{} {
	var v interface{}
	if err := json.Unmarshal(plaintext, &v); err != nil {
		return string(plaintext)
	}
	return v
}

func computeMAC(key []byte, data string) []byte {
	h := hmac.New(sha256.New, key)
	h.Write([]byte(data))
	return h.Sum(nil)
}
