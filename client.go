package cipherlink

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/cipherlink/client-go/internal/api"
	"github.com/cipherlink/client-go/internal/config"
	"github.com/cipherlink/client-go/internal/crypto"
	"github.com/cipherlink/client-go/internal/logging"
	"github.com/cipherlink/client-go/internal/storage"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// KeyPair is an elliptic-curve key pair with raw key bytes.
type KeyPair = crypto.KeyPair

// KDF selects how envelope keys are derived from the ECDH shared secret.
type KDF = crypto.KDF

// Key derivation modes.
const (
	// KDFDigest derives encKey = SHA-256(shared), macKey = encKey || "HMAC_KEY".
	KDFDigest = crypto.KDFDigest
	// KDFHKDF derives independent keys with HKDF-SHA-256.
	KDFHKDF = crypto.KDFHKDF
)

// Curves returns every accepted curve name, aliases included.
func Curves() []string {
	return crypto.Curves()
}

// Client talks to an API over the encrypted envelope channel. It owns one
// key pair for its lifetime (until ResetKeys) and caches the server's
// public key after the first key exchange.
//
// A Client is safe for concurrent use. Concurrent requests made before a
// server key is cached may each perform a key exchange; the last one wins.
type Client struct {
	apiClient *api.Client
	store     *storage.Store
	logger    *zap.Logger

	baseURL  string
	apiKey   string
	curve    string
	codecOps []crypto.CodecOption

	mu              sync.RWMutex
	keys            *crypto.KeyPair
	codec           *crypto.Codec
	serverPublicKey string
}

// buildLogger picks the configured logger, builds one from the logging
// options, or falls back to a no-op logger.
func buildLogger(cfg *clientConfig) (*zap.Logger, error) {
	if cfg.logger != nil {
		return cfg.logger, nil
	}
	if cfg.logLevel == "" && !cfg.debug && cfg.logFile == "" {
		return logging.Nop(), nil
	}

	lc := logging.Config{Level: cfg.logLevel, Debug: cfg.debug}
	if cfg.logFile != "" {
		lc.File = logging.DefaultFileConfig(cfg.logFile)
	}
	return logging.New(lc)
}

// buildAPIClient creates and configures an API client from the given config.
func buildAPIClient(cfg *clientConfig, logger *zap.Logger) *api.Client {
	apiOpts := []api.Option{api.WithLogger(logger)}
	if cfg.timeout > 0 {
		apiOpts = append(apiOpts, api.WithTimeout(cfg.timeout))
	}
	if cfg.httpClient != nil {
		apiOpts = append(apiOpts, api.WithHTTPClient(cfg.httpClient))
	}
	if cfg.userAgent != "" {
		apiOpts = append(apiOpts, api.WithUserAgent(cfg.userAgent))
	}
	return api.New(apiOpts...)
}

// envConfig seeds a clientConfig from CIPHERLINK_* variables; options
// applied afterwards take precedence.
func envConfig(env *config.Config) *clientConfig {
	cfg := &clientConfig{
		baseURL:   env.BaseURL,
		apiKey:    env.APIKey,
		curve:     env.Curve,
		timeout:   env.Timeout,
		logLevel:  env.LogLevel,
		debug:     env.Debug,
		logFile:   env.LogFile,
		outputDir: env.OutputDir,
		kdf:       env.KDF,
	}
	if cfg.curve == "" {
		cfg.curve = defaultCurve
	}
	if cfg.timeout <= 0 {
		cfg.timeout = defaultTimeout
	}
	if cfg.kdf == "" {
		cfg.kdf = crypto.KDFDigest
	}
	return cfg
}

// New creates a client with a freshly generated key pair.
//
// Defaults come from the CIPHERLINK_* environment (after loading ./.env when
// present) and are overridden by opts. An invalid environment value fails
// New even when an option would have replaced it.
func New(opts ...Option) (*Client, error) {
	env, err := config.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	cfg := envConfig(env)

	for _, opt := range opts {
		opt(cfg)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		return nil, err
	}

	curve, err := crypto.LookupCurve(cfg.curve)
	if err != nil {
		return nil, err
	}

	kdf, err := crypto.ParseKDF(string(cfg.kdf))
	if err != nil {
		return nil, err
	}

	codecOpts := []crypto.CodecOption{crypto.WithKeyDerivation(kdf)}
	if cfg.replayWindow > 0 {
		codecOpts = append(codecOpts, crypto.WithReplayWindow(cfg.replayWindow))
	}
	if cfg.clock != nil {
		codecOpts = append(codecOpts, crypto.WithClock(cfg.clock))
	}

	c := &Client{
		apiClient: buildAPIClient(cfg, logger),
		logger:    logger,
		baseURL:   strings.TrimRight(cfg.baseURL, "/"),
		apiKey:    cfg.apiKey,
		curve:     curve.Name(),
		codecOps:  codecOpts,
	}

	if err := c.rotateKeys(); err != nil {
		return nil, err
	}

	if cfg.outputDir != "" {
		store, err := storage.NewStore(cfg.outputDir)
		if err != nil {
			return nil, fmt.Errorf("output directory: %w", err)
		}
		c.store = store
	}

	if cfg.serverPublicKey != "" {
		if err := c.SetServerPublicKey(cfg.serverPublicKey); err != nil {
			return nil, err
		}
	}

	logger.Debug("client initialized",
		zap.String("curve", c.curve),
		zap.String("kdf", string(kdf)),
		zap.String("public_key", c.PublicKey()),
		zap.Bool("persist_responses", c.store != nil))

	return c, nil
}

// rotateKeys generates a new key pair and codec and forgets the server key.
func (c *Client) rotateKeys() error {
	keys, err := crypto.GenerateKeyPair(c.curve)
	if err != nil {
		return fmt.Errorf("generate key pair: %w", err)
	}
	codec, err := crypto.NewCodec(keys, c.codecOps...)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.keys = keys
	c.codec = codec
	c.serverPublicKey = ""
	c.mu.Unlock()
	return nil
}

// snapshot returns the current codec and server key under one read lock.
func (c *Client) snapshot() (*crypto.Codec, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.codec, c.serverPublicKey
}

// PublicKey returns the client's public key as lowercase hex.
func (c *Client) PublicKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys.PublicKeyHex()
}

// ClientID returns the 8-character fingerprint placed in every envelope.
func (c *Client) ClientID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys.ClientID()
}

// Curve returns the canonical name of the client's curve.
func (c *Client) Curve() string {
	return c.curve
}

// KeyPair returns a copy of the client's key pair.
func (c *Client) KeyPair() *KeyPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keys.Clone()
}

// ResetKeys replaces the key pair and clears the cached server public key,
// since the server bound its key to the old identity.
func (c *Client) ResetKeys() error {
	if err := c.rotateKeys(); err != nil {
		return err
	}
	c.logger.Debug("key pair reset", zap.String("public_key", c.PublicKey()))
	return nil
}

// HasServerPublicKey reports whether a server public key is cached.
func (c *Client) HasServerPublicKey() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverPublicKey != ""
}

// ServerPublicKey returns the cached server public key, or "".
func (c *Client) ServerPublicKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.serverPublicKey
}

// SetServerPublicKey caches a server public key obtained out of band. The
// key must be a valid point on the client's curve.
func (c *Client) SetServerPublicKey(hexKey string) error {
	hexKey = strings.TrimSpace(hexKey)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkPeerKeyLocked(hexKey); err != nil {
		return fmt.Errorf("server public key: %w", err)
	}
	c.serverPublicKey = hexKey
	return nil
}

// checkPeerKeyLocked verifies hexKey is a usable point on the client's
// curve by running ECDH against the current private key. c.mu must be held.
func (c *Client) checkPeerKeyLocked(hexKey string) error {
	raw, err := crypto.DecodePublicKeyHex(hexKey)
	if err != nil {
		return err
	}
	curve, err := crypto.LookupCurve(c.curve)
	if err != nil {
		return err
	}
	_, err = curve.ECDH(c.keys.PrivateKey, raw)
	return err
}

// ClearServerPublicKey forgets the cached server public key so the next
// request performs a new key exchange.
func (c *Client) ClearServerPublicKey() {
	c.mu.Lock()
	c.serverPublicKey = ""
	c.mu.Unlock()
}

// FetchServerPublicKey performs the key exchange with baseURL (or the
// configured base URL when empty) and caches the server's public key. A key
// that is not a valid point on the client's curve is rejected with a
// *HandshakeError and nothing is cached.
func (c *Client) FetchServerPublicKey(ctx context.Context, baseURL string) (string, error) {
	if baseURL == "" {
		baseURL = c.baseURL
	}
	if baseURL == "" {
		return "", ErrMissingBaseURL
	}

	start := time.Now()
	key, err := c.apiClient.FetchServerPublicKey(ctx, baseURL, c.PublicKey())
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	err = c.checkPeerKeyLocked(key)
	if err == nil {
		c.serverPublicKey = key
	}
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("key exchange returned an unusable key",
			zap.String("base_url", baseURL),
			zap.String("server_public_key", key),
			zap.Error(err))
		return "", &HandshakeError{Message: "invalid server public key", Err: err}
	}

	c.logger.Debug("key exchange complete",
		zap.String("base_url", baseURL),
		zap.String("server_public_key", key),
		zap.Duration("duration", time.Since(start)))

	return key, nil
}

// Encrypt seals payload to the cached server public key. It returns
// ErrMissingPeerKey when no key exchange has happened yet.
func (c *Client) Encrypt(payload map[string]interface{}) (string, error) {
	codec, peer := c.snapshot()
	return codec.Encrypt(payload, peer)
}

// EncryptTo seals payload to an explicit peer public key (hex).
func (c *Client) EncryptTo(payload map[string]interface{}, peerPublicKeyHex string) (string, error) {
	codec, _ := c.snapshot()
	return codec.Encrypt(payload, peerPublicKeyHex)
}

// Decrypt opens an envelope sealed to this client's public key. JSON
// plaintext is decoded; anything else is returned as a string.
func (c *Client) Decrypt(envelope string) (interface{}, error) {
	codec, _ := c.snapshot()
	return codec.Decrypt(envelope)
}
