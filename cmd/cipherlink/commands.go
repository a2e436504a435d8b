package main

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	cipherlink "github.com/cipherlink/client-go"
	"github.com/cipherlink/client-go/internal/crypto"
)

func newKeygenCmd(opts *rootOptions) *cobra.Command {
	var showPrivate bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a key pair and print its public key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			kp := client.KeyPair()

			out := map[string]string{
				"curve":     kp.Curve,
				"publicKey": kp.PublicKeyHex(),
				"clientId":  kp.ClientID(),
			}
			if showPrivate {
				out["privateKey"] = hex.EncodeToString(kp.PrivateKey)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().BoolVar(&showPrivate, "private", false, "also print the private key")
	return cmd
}

func newHandshakeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "handshake [BASE_URL]",
		Short: "Exchange public keys with the server",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}

			base := ""
			if len(args) == 1 {
				base = args[0]
			}

			start := time.Now()
			serverKey, err := client.FetchServerPublicKey(cmd.Context(), base)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), map[string]interface{}{
				"curve":           client.Curve(),
				"clientPublicKey": client.PublicKey(),
				"serverPublicKey": serverKey,
				"durationMs":      time.Since(start).Milliseconds(),
			})
		},
	}
}

func newRequestCmd(opts *rootOptions) *cobra.Command {
	var params []string
	var serverKey string

	cmd := &cobra.Command{
		Use:   "request URL|ENDPOINT",
		Short: "Send an encrypted request and print the response",
		Long: `Send an encrypted request and print the response as JSON.

An absolute URL is used as is. Anything else is treated as an endpoint under
{base-url}/api/v4/. Parameters are given as --param name=value; values that
parse as JSON (numbers, booleans, objects) are sent as such, everything else
as a string.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseParams(params)
			if err != nil {
				return err
			}

			clientOpts := opts.clientOptions()
			if serverKey != "" {
				clientOpts = append(clientOpts, cipherlink.WithServerPublicKey(serverKey))
			}
			client, err := cipherlink.New(clientOpts...)
			if err != nil {
				return err
			}

			payload := cipherlink.NewPayload(opts.apiKey, parsed...)

			var resp *cipherlink.Response
			target := args[0]
			if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
				resp, err = client.MakeRequest(cmd.Context(), target, payload)
			} else {
				resp, err = client.Call(cmd.Context(), target, payload)
			}
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"status":     resp.Status,
				"durationMs": resp.Duration.Milliseconds(),
				"kind":       resp.Kind,
			}
			if resp.HasData() {
				out["data"] = resp.Data
			} else {
				out["text"] = resp.Text
			}
			if resp.FilePath != "" {
				out["filePath"] = resp.FilePath
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringArrayVarP(&params, "param", "p", nil, "request parameter as name=value (repeatable)")
	cmd.Flags().StringVar(&serverKey, "server-key", "", "pinned server public key (hex); skips the key exchange")
	return cmd
}

// parseParams turns name=value pairs into parameters, keeping their order.
func parseParams(raw []string) ([]cipherlink.Parameter, error) {
	params := make([]cipherlink.Parameter, 0, len(raw))
	for _, kv := range raw {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected name=value", kv)
		}

		var v interface{}
		if err := json.Unmarshal([]byte(value), &v); err != nil {
			v = value
		}
		params = append(params, cipherlink.Param(strings.TrimSpace(name), v))
	}
	return params, nil
}

func newSavedCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "saved",
		Short: "List responses persisted under --output-dir",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := opts.newClient()
			if err != nil {
				return err
			}
			saved, err := client.SavedResponses()
			if err != nil {
				return err
			}

			out := make([]map[string]interface{}, 0, len(saved))
			for _, s := range saved {
				out = append(out, map[string]interface{}{
					"path":       s.Path,
					"url":        s.URL,
					"status":     s.Status,
					"kind":       s.Kind,
					"durationMs": s.Duration.Milliseconds(),
					"savedAt":    s.SavedAt.Format(time.RFC3339),
				})
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect ENVELOPE",
		Short: "Print the fields of an envelope without verifying it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := crypto.ParseEnvelope(args[0])
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"clientId":           env.ClientID,
				"ephemeralPublicKey": env.EphemeralPublicKey,
				"iv":                 env.IV,
				"ciphertext":         env.Ciphertext,
				"authTag":            env.AuthTag,
				"timestamp":          env.Timestamp,
				"mac":                env.MAC,
			}
			if ts, err := strconv.ParseInt(env.Timestamp, 10, 64); err == nil {
				sealed := time.Unix(ts, 0).UTC()
				out["sealedAt"] = sealed.Format(time.RFC3339)
				out["ageSeconds"] = int64(time.Since(sealed) / time.Second)
			}
			if ct, err := crypto.DecodeBase64(env.Ciphertext); err == nil {
				out["ciphertextBytes"] = len(ct)
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newCurvesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "curves",
		Short: "List accepted curve names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range cipherlink.Curves() {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
