package cipherlink

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cipherlink/client-go/internal/api"
	"github.com/cipherlink/client-go/internal/storage"
)

// MakeRequest sends payload encrypted to rawURL and interprets the answer.
//
// The payload gets the client's default API key when it has none, and an
// empty parameter list when it has none; the caller's map is not modified.
// A key exchange with the URL's origin is performed first if no server key
// is cached. The request is GET rawURL?ENC=<envelope>.
//
// Non-2xx answers fail with *TransportError. A 2xx JSON body with a string
// ENC field is decrypted (Kind ResponseEncrypted); other JSON is returned
// as is (ResponseJSON); anything else is returned as text (ResponseText).
// When an output directory is configured the result is also written to
// disk; failing to write it is logged and does not fail the call.
func (c *Client) MakeRequest(ctx context.Context, rawURL string, payload Payload) (*Response, error) {
	body := payload.withDefaults(c.apiKey)

	if !c.HasServerPublicKey() {
		origin, err := api.BaseOrigin(rawURL)
		if err != nil {
			return nil, fmt.Errorf("invalid request url: %w", err)
		}
		if _, err := c.FetchServerPublicKey(ctx, origin); err != nil {
			return nil, err
		}
	}

	codec, peer := c.snapshot()
	envelope, err := codec.Encrypt(body, peer)
	if err != nil {
		return nil, fmt.Errorf("encrypt request: %w", err)
	}

	resp, err := c.apiClient.GetEncrypted(ctx, rawURL, envelope)
	if err != nil {
		return nil, err
	}

	result := &Response{
		Status:   resp.StatusCode,
		Duration: resp.Duration,
	}

	kind, data, err := classifyBody(resp.Body, codec)
	if err != nil {
		c.logger.Error("failed to decrypt response", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, fmt.Errorf("decrypt response: %w", err)
	}
	result.Kind = kind
	if kind == ResponseText {
		result.Text = string(resp.Body)
	} else {
		result.Data = data
	}

	c.logger.Debug("request complete",
		zap.String("url", api.RedactQuery(rawURL)),
		zap.Int("status", result.Status),
		zap.String("kind", string(result.Kind)),
		zap.Duration("duration", result.Duration))

	if c.store != nil {
		c.persist(rawURL, result)
	}

	return result, nil
}

// Call resolves endpoint under the configured base URL's /api/v4/ prefix and
// delegates to MakeRequest.
func (c *Client) Call(ctx context.Context, endpoint string, payload Payload) (*Response, error) {
	if c.baseURL == "" {
		return nil, ErrMissingBaseURL
	}
	target, err := api.EndpointURL(c.baseURL, endpoint)
	if err != nil {
		return nil, err
	}
	return c.MakeRequest(ctx, target, payload)
}

// persist writes result to the response store and records the file path.
func (c *Client) persist(rawURL string, result *Response) {
	path, err := c.store.Save(&storage.Record{
		URL:        api.RedactQuery(rawURL),
		Status:     result.Status,
		DurationMS: result.Duration.Milliseconds(),
		Kind:       string(result.Kind),
		Data:       result.Data,
		Text:       result.Text,
	})
	if err != nil {
		c.logger.Warn("failed to persist response", zap.String("dir", c.store.Dir()), zap.Error(err))
		return
	}
	result.FilePath = path
	c.logger.Debug("response persisted", zap.String("path", path))
}

// SavedResponse is a response persisted under the output directory.
type SavedResponse struct {
	Path     string
	URL      string
	Status   int
	Kind     ResponseKind
	Duration time.Duration
	SavedAt  time.Time
}

// SavedResponses lists the responses persisted under the output directory,
// oldest first. It returns ErrNoOutputDir when none is configured.
func (c *Client) SavedResponses() ([]SavedResponse, error) {
	if c.store == nil {
		return nil, ErrNoOutputDir
	}
	paths, err := c.store.List()
	if err != nil {
		return nil, err
	}

	saved := make([]SavedResponse, 0, len(paths))
	for _, path := range paths {
		rec, err := storage.Load(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		saved = append(saved, SavedResponse{
			Path:     path,
			URL:      rec.URL,
			Status:   rec.Status,
			Kind:     ResponseKind(rec.Kind),
			Duration: time.Duration(rec.DurationMS) * time.Millisecond,
			SavedAt:  rec.SavedAt,
		})
	}
	return saved, nil
}
