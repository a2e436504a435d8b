// Package api provides the HTTP layer of the encrypted channel: the key
// exchange handshake and the encrypted GET. It knows nothing about key
// material; envelopes arrive already sealed and leave undecrypted.
//
// # Endpoints
//
//   - POST {base}/api/v4/keys/public with {"clientPublicKey": "<hex>"},
//     answered by {"serverPublicKey": "<hex>"}. See [Client.FetchServerPublicKey].
//   - GET {url}?ENC=<envelope>. See [Client.GetEncrypted].
//
// [EndpointURL] builds versioned endpoint URLs and [BaseOrigin] extracts the
// scheme and host a handshake is sent to.
//
// # Retry Behavior
//
// None. Each call makes exactly one attempt and failures are terminal for
// that call; callers that want retries wrap the root client.
//
// # Error Handling
//
//   - [HandshakeError] matches [ErrHandshakeFailed].
//   - [TransportError] matches [ErrTransport].
//   - [NetworkError] wraps the underlying net/http error.
//
// Query strings are stripped from URLs before they are logged or placed in
// errors so envelopes never appear there.
//
// # Thread Safety
//
// The [Client] type is safe for concurrent use.
package api
