package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/cipherlink/client-go/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultTimeout bounds each HTTP exchange when no client is supplied.
const DefaultTimeout = 30 * time.Second

// maxBodySize caps how much of a response body is read into memory.
const maxBodySize = 32 << 20

// Client performs the two HTTP exchanges of the protocol: the key handshake
// and the encrypted GET. It holds no key material.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger
	userAgent  string
}

// Option configures the API client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New creates a new API client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.Nop(),
		userAgent:  "cipherlink-client-go",
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// Response is the raw outcome of an HTTP exchange.
type Response struct {
	StatusCode  int
	Header      http.Header
	Body        []byte
	Duration    time.Duration
	ContentType string
}

// OK reports whether the status code is in the 2xx range.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// do sends a single request and reads the whole body. Non-2xx statuses are
// not errors at this level; callers decide how to classify them.
func (c *Client) do(ctx context.Context, method, rawURL string, body interface{}) (*Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		// *url.Error repeats the full URL, envelope included.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = RedactQuery(ue.URL)
		}
		return nil, &NetworkError{Err: err, URL: RedactQuery(rawURL)}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("read body: %w", err), URL: RedactQuery(rawURL)}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Header:      resp.Header,
		Body:        data,
		Duration:    time.Since(start),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// GetEncrypted issues GET rawURL with the envelope in the ENC query
// parameter. Existing query parameters are preserved.
//
// A non-2xx status yields a *TransportError carrying the body text.
func (c *Client) GetEncrypted(ctx context.Context, rawURL, envelope string) (*Response, error) {
	target, err := EnvelopeURL(rawURL, envelope)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("sending encrypted request",
		zap.String("url", RedactQuery(target)),
		zap.Int("envelope_len", len(envelope)))

	resp, err := c.do(ctx, http.MethodGet, target, nil)
	if err != nil {
		c.logger.Error("request failed", zap.String("url", RedactQuery(target)), zap.Error(err))
		return nil, err
	}

	c.logger.Debug("received response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", resp.Duration),
		zap.String("content_type", resp.ContentType))

	if !resp.OK() {
		terr := &TransportError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		c.logger.Error("request returned error status",
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(terr.Body, 512)))
		return resp, terr
	}

	return resp, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
