package crypto

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"testing"
)

func TestDeriveSessionKeys_Digest(t *testing.T) {
	shared := []byte("shared secret from ecdh")
	keys, err := deriveSessionKeys(KDFDigest, shared)
	if err != nil {
		t.Fatal(err)
	}

	digest := sha256.Sum256(shared)
	if !bytes.Equal(keys.enc, digest[:]) {
		t.Error("enc key is not SHA-256 of the shared secret")
	}

	wantMAC := append(append([]byte(nil), digest[:]...), []byte("HMAC_KEY")...)
	if !bytes.Equal(keys.mac, wantMAC) {
		t.Errorf("mac key = %x, want %x", keys.mac, wantMAC)
	}
}

func TestDeriveSessionKeys_HKDF(t *testing.T) {
	shared := []byte("shared secret from ecdh")
	keys, err := deriveSessionKeys(KDFHKDF, shared)
	if err != nil {
		t.Fatal(err)
	}

	if len(keys.enc) != AESKeySize {
		t.Errorf("enc key length = %d, want %d", len(keys.enc), AESKeySize)
	}
	if bytes.Equal(keys.enc, keys.mac) {
		t.Error("HKDF enc and mac keys must differ")
	}

	digest, _ := deriveSessionKeys(KDFDigest, shared)
	if bytes.Equal(keys.enc, digest.enc) {
		t.Error("HKDF enc key equals digest enc key")
	}
}

func TestDeriveSessionKeys_Unknown(t *testing.T) {
	if _, err := deriveSessionKeys("argon", []byte("x")); !errors.Is(err, ErrUnknownKDF) {
		t.Errorf("expected ErrUnknownKDF, got %v", err)
	}
}

func TestDeriveKey(t *testing.T) {
	t.Parallel()
	secret := []byte("test secret key for derivation")

	tests := []struct {
		name   string
		salt   []byte
		info   []byte
		length int
	}{
		{"basic 32 bytes", make([]byte, 32), []byte("info"), 32},
		{"empty salt", nil, []byte("info"), 32},
		{"empty info", make([]byte, 32), nil, 32},
		{"64 byte key", make([]byte, 32), []byte("info"), 64},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := DeriveKey(secret, tt.salt, tt.info, tt.length)
			if err != nil {
				t.Fatalf("DeriveKey() error = %v", err)
			}
			if len(key) != tt.length {
				t.Errorf("key length = %d, want %d", len(key), tt.length)
			}
		})
	}
}

func TestDeriveKey_ExceedsMaxLength(t *testing.T) {
	t.Parallel()
	// HKDF-SHA-256 can produce at most 255 * 32 = 8160 bytes
	if _, err := DeriveKey([]byte("s"), nil, nil, 8161); err == nil {
		t.Error("expected error when requesting more than HKDF max output")
	}
}

func TestParseKDF(t *testing.T) {
	tests := []struct {
		in      string
		want    KDF
		wantErr bool
	}{
		{"", KDFDigest, false},
		{"digest", KDFDigest, false},
		{"hkdf", KDFHKDF, false},
		{"HKDF", "", true},
		{"scrypt", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKDF(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseKDF(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKDF(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
