package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cipherlink/client-go/internal/crypto"
	"github.com/cipherlink/client-go/internal/logging"
)

var allVars = []string{
	EnvAPIKey, EnvBaseURL, EnvCurve, EnvDebug, EnvLogLevel,
	EnvLogFile, EnvOutputDir, EnvTimeout, EnvKDF,
}

// clearEnv unsets every CIPHERLINK_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allVars {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.Curve != crypto.DefaultCurve {
		t.Errorf("Curve = %q, want %q", cfg.Curve, crypto.DefaultCurve)
	}
	if cfg.LogLevel != "" {
		t.Errorf("LogLevel = %q, want empty (library default)", cfg.LogLevel)
	}
	if cfg.KDF != crypto.KDFDigest {
		t.Errorf("KDF = %q, want %q", cfg.KDF, crypto.KDFDigest)
	}
	if cfg.Debug || cfg.APIKey != "" || cfg.BaseURL != "" || cfg.Timeout != 0 {
		t.Errorf("unexpected non-default values: %+v", cfg)
	}
}

func TestFromEnv_AllSet(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "key-123")
	t.Setenv(EnvBaseURL, "https://api.example.com/")
	t.Setenv(EnvCurve, "X25519")
	t.Setenv(EnvDebug, "true")
	t.Setenv(EnvLogLevel, "WARN")
	t.Setenv(EnvLogFile, "/tmp/cipherlink.log")
	t.Setenv(EnvOutputDir, "/tmp/out")
	t.Setenv(EnvTimeout, "45")
	t.Setenv(EnvKDF, "HKDF")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}

	want := Config{
		APIKey:    "key-123",
		BaseURL:   "https://api.example.com",
		Curve:     "X25519",
		Debug:     true,
		LogLevel:  "warn",
		LogFile:   "/tmp/cipherlink.log",
		OutputDir: "/tmp/out",
		Timeout:   45 * time.Second,
		KDF:       crypto.KDFHKDF,
	}
	if *cfg != want {
		t.Errorf("FromEnv() = %+v, want %+v", *cfg, want)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr error
	}{
		{"debug not bool", EnvDebug, "maybe", nil},
		{"timeout not int", EnvTimeout, "soon", nil},
		{"timeout zero", EnvTimeout, "0", nil},
		{"base url scheme", EnvBaseURL, "ftp://example.com", nil},
		{"curve", EnvCurve, "brainpoolP256r1", crypto.ErrUnsupportedCurve},
		{"log level", EnvLogLevel, "chatty", logging.ErrInvalidLogLevel},
		{"kdf", EnvKDF, "pbkdf2", crypto.ErrUnknownKDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := FromEnv()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "test.env")
	content := "CIPHERLINK_API_KEY=from-file\nCIPHERLINK_CURVE=secp256k1\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-file" {
		t.Errorf("APIKey = %q, want from-file", cfg.APIKey)
	}
	if cfg.Curve != "secp256k1" {
		t.Errorf("Curve = %q, want secp256k1", cfg.Curve)
	}
	if os.Getenv(EnvAPIKey) != "from-file" {
		t.Errorf("%s = %q, want from-file in the process environment", EnvAPIKey, os.Getenv(EnvAPIKey))
	}
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAPIKey, "from-env")

	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("CIPHERLINK_API_KEY=from-file\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.APIKey != "from-env" {
		t.Errorf("APIKey = %q, want from-env", cfg.APIKey)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	clearEnv(t)
	if _, err := Load(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Error("expected error for missing env file")
	}
}

func TestFromEnv_LoadsDotEnvInWorkingDir(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, DefaultEnvFile), []byte("CIPHERLINK_API_KEY=from-dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv() error = %v", err)
	}
	if cfg.APIKey != "from-dotenv" {
		t.Errorf("APIKey = %q, want from-dotenv", cfg.APIKey)
	}
}
