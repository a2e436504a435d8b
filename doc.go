// Package cipherlink provides a Go client for APIs that speak an
// application-layer encrypted envelope protocol on top of ordinary HTTPS.
//
// Each client owns an elliptic-curve key pair. On first use it exchanges
// public keys with the server, then seals every request payload with a
// fresh ephemeral key (ECDH, AES-256-GCM, HMAC-SHA256) and opens encrypted
// responses transparently. Envelopes older than five minutes are rejected.
//
// Basic usage:
//
//	client, err := cipherlink.New(
//	    cipherlink.WithBaseURL("https://api.example.com"),
//	    cipherlink.WithAPIKey("your-api-key"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := client.Call(ctx, "users/search",
//	    cipherlink.NewPayload("", cipherlink.Param("name", "ada")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if resp.HasData() {
//	    fmt.Println(resp.Data)
//	} else {
//	    fmt.Println(resp.Text)
//	}
//
// Errors can be matched with errors.Is against the package sentinels
// (ErrHandshakeFailed, ErrTransport, ErrAuthentication, ...) or extracted
// with errors.As into the corresponding error types.
package cipherlink
