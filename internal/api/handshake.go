package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// PublicKeyRequest is the key exchange request body.
type PublicKeyRequest struct {
	ClientPublicKey string `json:"clientPublicKey"`
}

// PublicKeyResponse is the key exchange response body.
type PublicKeyResponse struct {
	ServerPublicKey string `json:"serverPublicKey"`
}

// FetchServerPublicKey posts the client's public key to
// {baseURL}/api/v4/keys/public and returns the server's public key (hex).
//
// There is a single attempt. Every failure is a *HandshakeError.
func (c *Client) FetchServerPublicKey(ctx context.Context, baseURL, clientPublicKeyHex string) (string, error) {
	endpoint, err := EndpointURL(baseURL, PublicKeyPath)
	if err != nil {
		return "", &HandshakeError{Message: "invalid base url", Err: err}
	}

	c.logger.Debug("fetching server public key",
		zap.String("url", endpoint),
		zap.String("client_public_key", clientPublicKeyHex))

	resp, err := c.do(ctx, http.MethodPost, endpoint, &PublicKeyRequest{ClientPublicKey: clientPublicKeyHex})
	if err != nil {
		herr := &HandshakeError{Err: err}
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			herr.Message = err.Error()
		}
		c.logger.Error("key exchange failed", zap.String("url", endpoint), zap.Error(err))
		return "", herr
	}

	if !resp.OK() {
		c.logger.Error("key exchange returned error status",
			zap.String("url", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(resp.Body), 512)))
		return "", &HandshakeError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}

	var result PublicKeyResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil || strings.TrimSpace(result.ServerPublicKey) == "" {
		c.logger.Error("key exchange response missing public key",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(resp.Body), 512)))
		return "", &HandshakeError{
			StatusCode: resp.StatusCode,
			Body:       string(resp.Body),
			Message:    "response missing public key",
		}
	}

	c.logger.Debug("received server public key",
		zap.String("server_public_key", result.ServerPublicKey),
		zap.Duration("duration", resp.Duration))

	return strings.TrimSpace(result.ServerPublicKey), nil
}
