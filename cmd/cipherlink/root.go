package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	cipherlink "github.com/cipherlink/client-go"
	"github.com/cipherlink/client-go/internal/config"
	"github.com/cipherlink/client-go/internal/crypto"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const envPrefix = "CIPHERLINK_"

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	baseURL   string
	apiKey    string
	curve     string
	kdf       string
	debug     bool
	logLevel  string
	logFile   string
	outputDir string
	timeout   time.Duration
	envFile   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "cipherlink",
		Short: "Client for APIs behind an encrypted envelope channel",
		Long: `cipherlink exchanges keys with an API server, sends requests sealed with
ECDH + AES-256-GCM + HMAC-SHA256 envelopes, and opens encrypted responses.

Every persistent flag can also be set through the environment as
CIPHERLINK_<FLAG>, for example CIPHERLINK_BASE_URL or CIPHERLINK_API_KEY.
Values from a .env file are loaded when present.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var files []string
			if opts.envFile != "" {
				files = append(files, opts.envFile)
			}
			if err := config.LoadEnvFiles(files...); err != nil {
				return err
			}
			return setFlagsFromEnv(envPrefix, cmd.Flags())
		},
	}

	fs := cmd.PersistentFlags()
	fs.StringVar(&opts.baseURL, "base-url", "", "API base URL, e.g. https://api.example.com")
	fs.StringVar(&opts.apiKey, "api-key", "", "API key placed in request payloads")
	fs.StringVar(&opts.curve, "curve", crypto.DefaultCurve, "elliptic curve for the client key pair")
	fs.StringVar(&opts.kdf, "kdf", string(cipherlink.KDFDigest), "key derivation: digest or hkdf")
	fs.BoolVar(&opts.debug, "debug", false, "enable debug logging")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&opts.logFile, "log-file", "", "write logs to a rotated file")
	fs.StringVar(&opts.outputDir, "output-dir", "", "persist responses as JSON files in this directory")
	fs.DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP timeout")
	fs.StringVar(&opts.envFile, "env-file", "", "load environment variables from this file")

	cmd.AddCommand(
		newKeygenCmd(opts),
		newHandshakeCmd(opts),
		newRequestCmd(opts),
		newSavedCmd(opts),
		newInspectCmd(),
		newCurvesCmd(),
	)

	return cmd
}

// setFlagsFromEnv fills every flag not set on the command line from
// PREFIX_FLAG_NAME, if that variable exists.
func setFlagsFromEnv(prefix string, fs *pflag.FlagSet) error {
	set := map[string]bool{}
	fs.Visit(func(f *pflag.Flag) {
		set[f.Name] = true
	})

	var firstErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if set[f.Name] || f.Name == "help" {
			return
		}
		cleanPrefix := strings.TrimSuffix(prefix, "_")
		name := fmt.Sprintf("%s_%s", cleanPrefix, strings.ReplaceAll(strings.ToUpper(f.Name), "-", "_"))
		if e, ok := os.LookupEnv(name); ok {
			if err := f.Value.Set(e); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("invalid %s: %w", name, err)
			}
		}
	})
	return firstErr
}

// clientOptions translates flags into client options.
func (o *rootOptions) clientOptions() []cipherlink.Option {
	opts := []cipherlink.Option{
		cipherlink.WithCurve(o.curve),
		cipherlink.WithKeyDerivation(cipherlink.KDF(strings.ToLower(o.kdf))),
		cipherlink.WithTimeout(o.timeout),
		cipherlink.WithDebug(o.debug),
	}
	if o.baseURL != "" {
		opts = append(opts, cipherlink.WithBaseURL(o.baseURL))
	}
	if o.apiKey != "" {
		opts = append(opts, cipherlink.WithAPIKey(o.apiKey))
	}
	if o.logLevel != "" {
		opts = append(opts, cipherlink.WithLogLevel(o.logLevel))
	}
	if o.logFile != "" {
		opts = append(opts, cipherlink.WithLogFile(o.logFile))
	}
	if o.outputDir != "" {
		opts = append(opts, cipherlink.WithOutputDir(o.outputDir))
	}
	return opts
}

func (o *rootOptions) newClient() (*cipherlink.Client, error) {
	return cipherlink.New(o.clientOptions()...)
}

func printJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
