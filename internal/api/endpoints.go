package api

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	// APIPrefix is the path prefix shared by all versioned endpoints.
	APIPrefix = "/api/v4/"
	// PublicKeyPath is the key exchange endpoint.
	PublicKeyPath = APIPrefix + "keys/public"
	// EnvelopeParam is the query parameter carrying an encrypted envelope,
	// and the JSON field carrying one in a response body.
	EnvelopeParam = "ENC"
)

// BaseOrigin returns scheme://host[:port] of rawURL.
func BaseOrigin(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: scheme and host are required", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}

// EndpointURL resolves endpoint under the versioned API prefix of baseURL.
// An endpoint that already starts with the prefix is used as is, and a
// leading slash is ignored: "users", "/users" and "/api/v4/users" all map
// to {baseURL}/api/v4/users.
func EndpointURL(baseURL, endpoint string) (string, error) {
	if baseURL == "" {
		return "", fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	path, query, _ := strings.Cut(endpoint, "?")
	path = "/" + strings.TrimLeft(path, "/")
	if !strings.HasPrefix(path, APIPrefix) {
		path = strings.TrimSuffix(APIPrefix, "/") + path
	}

	base.Path = strings.TrimRight(base.Path, "/") + path
	base.RawQuery = query
	return base.String(), nil
}

// EnvelopeURL sets the ENC query parameter on rawURL, keeping any other
// parameters. The value is URL-escaped.
func EnvelopeURL(rawURL, envelope string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	q := u.Query()
	q.Set(EnvelopeParam, envelope)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// RedactQuery strips the query string so envelopes stay out of logs and
// error messages.
func RedactQuery(rawURL string) string {
	if i := strings.IndexByte(rawURL, '?'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
