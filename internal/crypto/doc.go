// Package crypto implements the cipherlink envelope protocol: per-message
// elliptic-curve key agreement, AES-256-GCM encryption and HMAC-SHA256
// authentication with a replay window.
//
// # Algorithm Suite
//
//   - ECDH on a named curve. The default is prime256v1 (NIST P-256); secp384r1,
//     secp521r1, secp256k1, x25519 and x448 are also supported. See [LookupCurve].
//
//   - SHA-256 key derivation. The AES key is SHA-256 of the shared secret and
//     the MAC key is that digest followed by the bytes "HMAC_KEY". [KDFHKDF]
//     selects HKDF-SHA-256 with distinct info strings instead; both peers must
//     agree on the mode.
//
//   - AES-256-GCM with a random 12-byte IV and a 16-byte tag.
//
//   - HMAC-SHA256 over the colon-joined envelope fields.
//
// # Envelope Format
//
// After the outer base64 decode an envelope is exactly seven colon-separated
// fields:
//
//	clientId:ephemeralPublicKeyHex:iv:ciphertext:authTag:unixSeconds:hmac
//
// clientId is the first eight hex characters of SHA-256 of the sender's
// long-term public key. iv, ciphertext, authTag and hmac are standard base64.
//
// # Security Notes
//
// [Codec.Open] verifies the HMAC before decoding or decrypting any ciphertext.
// Envelopes older than the replay window (300 seconds by default) are
// rejected. Envelopes with a timestamp in the future are accepted.
//
// The scheme encrypts to the recipient's long-term key; it is not a signature
// and does not prove the sender's identity beyond the injected clientPublicKey.
package crypto
