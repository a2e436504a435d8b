package cipherlink

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/cipherlink/client-go/internal/crypto"
)

const (
	defaultTimeout = 30 * time.Second
	defaultCurve   = crypto.DefaultCurve
)

// clientConfig holds configuration for the client.
type clientConfig struct {
	baseURL    string
	apiKey     string
	curve      string
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string

	// Logging
	logger   *zap.Logger
	logLevel string
	debug    bool
	logFile  string

	// Response persistence
	outputDir string

	// Envelope codec
	kdf             crypto.KDF
	replayWindow    time.Duration
	clock           func() time.Time
	serverPublicKey string
}

// Option configures the client.
type Option func(*clientConfig)

// WithBaseURL sets the API base URL used by Call and by FetchServerPublicKey
// when no URL is given.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithAPIKey sets the API key placed in payloads that do not carry one.
// Default: the CIPHERLINK_API_KEY environment variable
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.apiKey = key
	}
}

// WithCurve selects the elliptic curve for the client's key pair.
// Default: prime256v1
func WithCurve(name string) Option {
	return func(c *clientConfig) {
		c.curve = name
	}
}

// WithHTTPClient sets a custom HTTP client. It takes precedence over WithTimeout.
func WithHTTPClient(client *http.Client) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP timeout.
// Default: 30 seconds
func WithTimeout(timeout time.Duration) Option {
	return func(c *clientConfig) {
		c.timeout = timeout
	}
}

// WithLogger sets the logger. It takes precedence over WithLogLevel,
// WithDebug and WithLogFile.
func WithLogger(logger *zap.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// WithLogLevel sets the minimum log level: debug, info, warn or error.
func WithLogLevel(level string) Option {
	return func(c *clientConfig) {
		c.logLevel = level
	}
}

// WithDebug enables human-readable debug logging.
func WithDebug(debug bool) Option {
	return func(c *clientConfig) {
		c.debug = debug
	}
}

// WithLogFile writes logs to a rotated file instead of stderr.
func WithLogFile(path string) Option {
	return func(c *clientConfig) {
		c.logFile = path
	}
}

// WithOutputDir persists every successful response as a JSON file in dir.
// The directory is created if needed.
func WithOutputDir(dir string) Option {
	return func(c *clientConfig) {
		c.outputDir = dir
	}
}

// WithKeyDerivation selects how envelope keys are derived from the shared
// secret. Both sides must agree.
// Default: KDFDigest
func WithKeyDerivation(kdf KDF) Option {
	return func(c *clientConfig) {
		c.kdf = kdf
	}
}

// WithReplayWindow sets the maximum accepted age of incoming envelopes.
// Default: 300 seconds
func WithReplayWindow(window time.Duration) Option {
	return func(c *clientConfig) {
		c.replayWindow = window
	}
}

// WithClock sets the time source for envelope timestamps and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *clientConfig) {
		c.clock = now
	}
}

// WithServerPublicKey pins a server public key (hex) obtained out of band,
// so no key exchange is performed.
func WithServerPublicKey(hex string) Option {
	return func(c *clientConfig) {
		c.serverPublicKey = hex
	}
}

// WithUserAgent sets the User-Agent header sent with the key exchange and
// every encrypted request.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		c.userAgent = ua
	}
}
