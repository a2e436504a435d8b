package cipherlink

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/cipherlink/client-go/internal/crypto"
)

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("CIPHERLINK_API_KEY", "env-key")

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if c.Curve() != "prime256v1" {
		t.Errorf("Curve() = %q, want prime256v1", c.Curve())
	}
	pub := c.PublicKey()
	if len(pub) != 130 || !strings.HasPrefix(pub, "04") {
		t.Errorf("PublicKey() = %q, want 65-byte uncompressed point in hex", pub)
	}
	if c.HasServerPublicKey() {
		t.Error("HasServerPublicKey() = true for a new client")
	}
	if c.apiKey != "env-key" {
		t.Errorf("apiKey = %q, want env-key from environment", c.apiKey)
	}
	if c.store != nil {
		t.Error("store should be nil without WithOutputDir")
	}
	if len(c.ClientID()) != 8 {
		t.Errorf("ClientID() = %q, want 8 hex chars", c.ClientID())
	}
}

// clearEnv unsets every CIPHERLINK_* variable for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, "CIPHERLINK_") {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
}

func TestNew_DotEnvDefaults(t *testing.T) {
	clearEnv(t)

	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	content := "CIPHERLINK_API_KEY=from-dotenv\n" +
		"CIPHERLINK_BASE_URL=https://api.example.com/\n" +
		"CIPHERLINK_CURVE=x25519\n" +
		"CIPHERLINK_TIMEOUT_SECS=12\n" +
		"CIPHERLINK_OUTPUT_DIR=" + outDir + "\n"
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)

	c, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.apiKey != "from-dotenv" {
		t.Errorf("apiKey = %q, want from-dotenv", c.apiKey)
	}
	if c.baseURL != "https://api.example.com" {
		t.Errorf("baseURL = %q", c.baseURL)
	}
	if c.Curve() != "x25519" {
		t.Errorf("Curve() = %q, want x25519", c.Curve())
	}
	if got := c.apiClient.HTTPClient().Timeout; got != 12*time.Second {
		t.Errorf("Timeout = %v, want 12s", got)
	}
	if c.store == nil || c.store.Dir() != outDir {
		t.Error("output dir from environment not applied")
	}
}

func TestNew_OptionsOverrideEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("CIPHERLINK_API_KEY", "env-key")
	t.Setenv("CIPHERLINK_CURVE", "x448")
	t.Setenv("CIPHERLINK_LOG_LEVEL", "debug")

	c, err := New(WithAPIKey("opt-key"), WithCurve("secp256k1"), WithLogLevel("error"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if c.apiKey != "opt-key" || c.Curve() != "secp256k1" {
		t.Errorf("apiKey/curve = %q/%q, want option values", c.apiKey, c.Curve())
	}
	if c.logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("WithLogLevel should override the environment level")
	}
}

func TestNew_InvalidEnv(t *testing.T) {
	tests := []struct {
		key, value string
		wantErr    error
	}{
		{"CIPHERLINK_CURVE", "brainpoolP256r1", ErrUnsupportedCurve},
		{"CIPHERLINK_LOG_LEVEL", "shouty", ErrInvalidLogLevel},
		{"CIPHERLINK_KDF", "pbkdf2", ErrUnknownKDF},
		{"CIPHERLINK_TIMEOUT_SECS", "soon", nil},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := New()
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	tests := []struct {
		name    string
		opts    []Option
		wantErr error
	}{
		{"unsupported curve", []Option{WithCurve("brainpoolP256r1")}, ErrUnsupportedCurve},
		{"invalid log level", []Option{WithLogLevel("shouty")}, ErrInvalidLogLevel},
		{"unknown kdf", []Option{WithKeyDerivation("pbkdf2")}, ErrUnknownKDF},
		{"invalid pinned key", []Option{WithServerPublicKey("zz")}, ErrInvalidPublicKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_CurveAliases(t *testing.T) {
	tests := map[string]string{
		"P-384":     "secp384r1",
		"secp256r1": "prime256v1",
		"X25519":    "x25519",
		"secp256k1": "secp256k1",
	}

	for alias, want := range tests {
		c, err := New(WithCurve(alias))
		if err != nil {
			t.Fatalf("New(WithCurve(%q)) error = %v", alias, err)
		}
		if c.Curve() != want {
			t.Errorf("Curve() = %q, want %q", c.Curve(), want)
		}
	}
}

func TestResetKeys(t *testing.T) {
	server, err := crypto.GenerateKeyPair("prime256v1")
	if err != nil {
		t.Fatal(err)
	}

	c, err := New(WithServerPublicKey(server.PublicKeyHex()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !c.HasServerPublicKey() {
		t.Fatal("pinned server key not cached")
	}

	before := c.PublicKey()
	if err := c.ResetKeys(); err != nil {
		t.Fatalf("ResetKeys() error = %v", err)
	}

	if c.PublicKey() == before {
		t.Error("PublicKey() unchanged after ResetKeys()")
	}
	if c.HasServerPublicKey() {
		t.Error("ResetKeys() must clear the cached server key")
	}
}

func TestKeyPair_ReturnsCopy(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}

	kp := c.KeyPair()
	if !crypto.ValidateKeyPair(kp) {
		t.Fatal("KeyPair() returned an invalid pair")
	}
	kp.PrivateKey[0] ^= 0xff
	kp.PublicKey[1] ^= 0xff

	again := c.KeyPair()
	if reflect.DeepEqual(again.PrivateKey, kp.PrivateKey) {
		t.Error("mutating the returned key pair changed the client")
	}
	if !crypto.ValidateKeyPair(again) {
		t.Error("client key pair no longer valid")
	}
}

func TestSetServerPublicKey(t *testing.T) {
	c, err := New(WithCurve("x25519"))
	if err != nil {
		t.Fatal(err)
	}

	server, err := crypto.GenerateKeyPair("x25519")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.SetServerPublicKey("  " + server.PublicKeyHex() + "\n"); err != nil {
		t.Fatalf("SetServerPublicKey() error = %v", err)
	}
	if c.ServerPublicKey() != server.PublicKeyHex() {
		t.Errorf("ServerPublicKey() = %q, want %q", c.ServerPublicKey(), server.PublicKeyHex())
	}

	c.ClearServerPublicKey()
	if c.HasServerPublicKey() {
		t.Error("ClearServerPublicKey() did not clear the key")
	}

	// Wrong curve: a P-256 point is not an X25519 key.
	p256, err := crypto.GenerateKeyPair("prime256v1")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.SetServerPublicKey(p256.PublicKeyHex()); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("SetServerPublicKey(wrong curve) error = %v, want ErrInvalidPublicKey", err)
	}
	if err := c.SetServerPublicKey("not-hex"); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("SetServerPublicKey(not-hex) error = %v, want ErrInvalidPublicKey", err)
	}
	if c.HasServerPublicKey() {
		t.Error("rejected key must not be cached")
	}
}

func TestEncrypt_MissingPeerKey(t *testing.T) {
	c, err := New()
	if err != nil {
		t.Fatal(err)
	}

	_, err = c.Encrypt(map[string]interface{}{"a": 1})
	if !errors.Is(err, ErrMissingPeerKey) {
		t.Errorf("Encrypt() error = %v, want ErrMissingPeerKey", err)
	}
}

func TestEncryptDecrypt_BetweenClients(t *testing.T) {
	for _, curve := range []string{"prime256v1", "secp521r1", "secp256k1", "x448"} {
		t.Run(curve, func(t *testing.T) {
			alice, err := New(WithCurve(curve))
			if err != nil {
				t.Fatal(err)
			}
			bob, err := New(WithCurve(curve))
			if err != nil {
				t.Fatal(err)
			}

			if err := alice.SetServerPublicKey(bob.PublicKey()); err != nil {
				t.Fatalf("SetServerPublicKey() error = %v", err)
			}

			payload := map[string]interface{}{"msg": "hi bob", "n": float64(3)}
			env, err := alice.Encrypt(payload)
			if err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}

			got, err := bob.Decrypt(env)
			if err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}

			want := map[string]interface{}{
				"msg":             "hi bob",
				"n":               float64(3),
				"clientPublicKey": alice.PublicKey(),
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Decrypt() = %v, want %v", got, want)
			}

			if _, err := alice.Decrypt(env); !errors.Is(err, ErrAuthentication) {
				t.Errorf("sender Decrypt() error = %v, want ErrAuthentication", err)
			}
		})
	}
}

func TestEncryptTo(t *testing.T) {
	alice, err := New(WithKeyDerivation(KDFHKDF))
	if err != nil {
		t.Fatal(err)
	}
	bob, err := New(WithKeyDerivation(KDFHKDF))
	if err != nil {
		t.Fatal(err)
	}

	env, err := alice.EncryptTo(map[string]interface{}{"x": "y"}, bob.PublicKey())
	if err != nil {
		t.Fatalf("EncryptTo() error = %v", err)
	}
	if alice.HasServerPublicKey() {
		t.Error("EncryptTo() must not cache the peer key")
	}

	got, err := bob.Decrypt(env)
	if err != nil {
		t.Fatalf("Decrypt() error = %v", err)
	}
	if m, _ := got.(map[string]interface{}); m["x"] != "y" {
		t.Errorf("Decrypt() = %v", got)
	}

	digestOnly, err := New()
	if err != nil {
		t.Fatal(err)
	}
	env, err = digestOnly.EncryptTo(map[string]interface{}{"x": "y"}, bob.PublicKey())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := bob.Decrypt(env); !errors.Is(err, ErrAuthentication) {
		t.Errorf("Decrypt() with mismatched KDF error = %v, want ErrAuthentication", err)
	}
}

func TestCurves(t *testing.T) {
	names := Curves()
	for _, want := range []string{"prime256v1", "secp384r1", "secp521r1", "secp256k1", "x25519", "x448"} {
		found := false
		for _, n := range names {
			if n == want {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Curves() missing %q", want)
		}
	}
}
