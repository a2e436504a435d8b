// Command interop seals and opens envelopes with explicit keys over
// stdin/stdout JSON, so other implementations of the envelope format can be
// tested against this one.
//
// Usage:
//
//	interop keygen [curve]
//	interop seal   < {"curve","privateKey","peerPublicKey","payload","kdf"}
//	interop open   < {"curve","privateKey","envelope","kdf","replayWindowSecs"}
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/cipherlink/client-go/internal/crypto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Config holds the streams the helper reads from and writes to.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultConfig returns a Config wired to the process streams.
func DefaultConfig() Config {
	return Config{Stdin: os.Stdin, Stdout: os.Stdout, Stderr: os.Stderr}
}

// KeyOutput is printed by keygen.
type KeyOutput struct {
	Curve      string `json:"curve"`
	PrivateKey string `json:"privateKey"`
	PublicKey  string `json:"publicKey"`
	ClientID   string `json:"clientId"`
}

// SealInput is read by seal.
type SealInput struct {
	Curve         string                 `json:"curve"`
	PrivateKey    string                 `json:"privateKey"`
	PeerPublicKey string                 `json:"peerPublicKey"`
	Payload       map[string]interface{} `json:"payload"`
	KDF           string                 `json:"kdf,omitempty"`
}

// OpenInput is read by open.
type OpenInput struct {
	Curve            string `json:"curve"`
	PrivateKey       string `json:"privateKey"`
	Envelope         string `json:"envelope"`
	KDF              string `json:"kdf,omitempty"`
	ReplayWindowSecs int    `json:"replayWindowSecs,omitempty"`
}

var errUsage = errors.New("usage: interop keygen [curve] | seal | open")

func main() {
	cfg := DefaultConfig()
	if err := run(os.Args, cfg); err != nil {
		fmt.Fprintln(cfg.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, cfg Config) error {
	if len(args) < 2 {
		return errUsage
	}

	switch args[1] {
	case "keygen":
		curve := crypto.DefaultCurve
		if len(args) > 2 {
			curve = args[2]
		}
		return keygen(cfg, curve)
	case "seal":
		return seal(cfg)
	case "open":
		return open(cfg)
	default:
		return fmt.Errorf("unknown command: %s", args[1])
	}
}

func keygen(cfg Config, curve string) error {
	kp, err := crypto.GenerateKeyPair(curve)
	if err != nil {
		return err
	}
	return encode(cfg.Stdout, KeyOutput{
		Curve:      kp.Curve,
		PrivateKey: hex.EncodeToString(kp.PrivateKey),
		PublicKey:  kp.PublicKeyHex(),
		ClientID:   kp.ClientID(),
	})
}

func seal(cfg Config) error {
	var in SealInput
	if err := decode(cfg.Stdin, &in); err != nil {
		return err
	}

	codec, err := newCodec(in.Curve, in.PrivateKey, in.KDF, 0)
	if err != nil {
		return err
	}
	env, err := codec.Encrypt(in.Payload, in.PeerPublicKey)
	if err != nil {
		return fmt.Errorf("seal: %w", err)
	}
	return encode(cfg.Stdout, map[string]string{"envelope": env})
}

func open(cfg Config) error {
	var in OpenInput
	if err := decode(cfg.Stdin, &in); err != nil {
		return err
	}

	codec, err := newCodec(in.Curve, in.PrivateKey, in.KDF, in.ReplayWindowSecs)
	if err != nil {
		return err
	}
	payload, err := codec.Decrypt(in.Envelope)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	return encode(cfg.Stdout, map[string]interface{}{"payload": payload})
}

func newCodec(curve, privateKeyHex, kdf string, windowSecs int) (*crypto.Codec, error) {
	if curve == "" {
		curve = crypto.DefaultCurve
	}
	priv, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	kp, err := crypto.KeyPairFromPrivateKey(curve, priv)
	if err != nil {
		return nil, err
	}
	parsed, err := crypto.ParseKDF(kdf)
	if err != nil {
		return nil, err
	}

	opts := []crypto.CodecOption{crypto.WithKeyDerivation(parsed)}
	if windowSecs > 0 {
		opts = append(opts, crypto.WithReplayWindow(time.Duration(windowSecs)*time.Second))
	}
	return crypto.NewCodec(kp, opts...)
}

func decode(r io.Reader, v interface{}) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse input: %w", err)
	}
	return nil
}

func encode(w io.Writer, v interface{}) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
