// Package config reads client settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/cipherlink/client-go/internal/crypto"
	"github.com/cipherlink/client-go/internal/logging"
)

// Environment variable names.
const (
	EnvAPIKey    = "CIPHERLINK_API_KEY"
	EnvBaseURL   = "CIPHERLINK_BASE_URL"
	EnvCurve     = "CIPHERLINK_CURVE"
	EnvDebug     = "CIPHERLINK_DEBUG"
	EnvLogLevel  = "CIPHERLINK_LOG_LEVEL"
	EnvLogFile   = "CIPHERLINK_LOG_FILE"
	EnvOutputDir = "CIPHERLINK_OUTPUT_DIR"
	EnvTimeout   = "CIPHERLINK_TIMEOUT_SECS"
	EnvKDF       = "CIPHERLINK_KDF"
)

// DefaultEnvFile is loaded by FromEnv when present.
const DefaultEnvFile = ".env"

// Config holds settings resolved from the environment. Zero values mean
// "use the library default".
type Config struct {
	APIKey    string
	BaseURL   string
	Curve     string
	Debug     bool
	LogLevel  string
	LogFile   string
	OutputDir string
	Timeout   time.Duration
	KDF       crypto.KDF
}

// LoadEnvFiles reads .env files into the process environment without
// overriding variables that are already set. Named files must exist; with no
// names, a .env file in the working directory is loaded if present.
func LoadEnvFiles(files ...string) error {
	if len(files) > 0 {
		if err := godotenv.Load(files...); err != nil {
			return fmt.Errorf("load env files: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(DefaultEnvFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", DefaultEnvFile, err)
	}
	return nil
}

// Load reads the given .env files, then calls FromEnv.
func Load(files ...string) (*Config, error) {
	if err := LoadEnvFiles(files...); err != nil {
		return nil, err
	}
	return FromEnv()
}

// FromEnv resolves a Config from CIPHERLINK_* variables. A .env file in the
// working directory is loaded first if one exists.
func FromEnv() (*Config, error) {
	if err := LoadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := &Config{
		APIKey:    getenv(EnvAPIKey, ""),
		BaseURL:   strings.TrimRight(getenv(EnvBaseURL, ""), "/"),
		Curve:     getenv(EnvCurve, crypto.DefaultCurve),
		LogLevel:  strings.ToLower(getenv(EnvLogLevel, "")),
		LogFile:   getenv(EnvLogFile, ""),
		OutputDir: getenv(EnvOutputDir, ""),
		KDF:       crypto.KDF(strings.ToLower(getenv(EnvKDF, string(crypto.KDFDigest)))),
	}

	if raw := getenv(EnvDebug, ""); raw != "" {
		debug, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%s must be a boolean, got %q", EnvDebug, raw)
		}
		cfg.Debug = debug
	}

	if raw := getenv(EnvTimeout, ""); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer, got %q", EnvTimeout, raw)
		}
		cfg.Timeout = time.Duration(n) * time.Second
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every set field holds an accepted value.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvBaseURL, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("%s must be http(s), got %q", EnvBaseURL, u.Scheme)
		}
	}
	if _, err := crypto.LookupCurve(c.Curve); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvCurve, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid %s: %w", EnvLogLevel, err)
	}
	if c.KDF != "" {
		if _, err := crypto.ParseKDF(string(c.KDF)); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvKDF, err)
		}
	}
	return nil
}

func getenv(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}
