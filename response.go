package cipherlink

import (
	"fmt"
	"time"

	"github.com/cipherlink/client-go/internal/api"
	"github.com/cipherlink/client-go/internal/crypto"
)

// ResponseKind says how a response body was interpreted.
type ResponseKind string

const (
	// ResponseJSON is a plain JSON body.
	ResponseJSON ResponseKind = "json"
	// ResponseEncrypted is a JSON body whose ENC field was decrypted.
	ResponseEncrypted ResponseKind = "encrypted"
	// ResponseText is a body that is not JSON.
	ResponseText ResponseKind = "text"
)

// Response is the result of MakeRequest.
type Response struct {
	// Status is the HTTP status code.
	Status int
	// Duration is the time spent on the HTTP exchange.
	Duration time.Duration
	// Kind selects which of Data and Text is meaningful.
	Kind ResponseKind
	// Data is the decoded JSON value for ResponseJSON and ResponseEncrypted.
	Data interface{}
	// Text is the raw body for ResponseText.
	Text string
	// FilePath is where the response was persisted, if a store is configured.
	FilePath string
}

// HasData reports whether Data (rather than Text) carries the result.
func (r *Response) HasData() bool {
	return r.Kind == ResponseJSON || r.Kind == ResponseEncrypted
}

// Decode converts Data into v, which should be a pointer.
func (r *Response) Decode(v interface{}) error {
	if !r.HasData() {
		return fmt.Errorf("response is %s, not JSON", r.Kind)
	}
	data, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("marshal response data: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}

// classifyBody interprets a 2xx body. JSON objects with an ENC field are
// decrypted; other JSON is returned as is; anything else is text. An ENC
// value that is not a string is a malformed envelope.
func classifyBody(body []byte, codec *crypto.Codec) (ResponseKind, interface{}, error) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return ResponseText, nil, nil
	}

	obj, ok := v.(map[string]interface{})
	if !ok {
		return ResponseJSON, v, nil
	}
	raw, ok := obj[api.EnvelopeParam]
	if !ok {
		return ResponseJSON, v, nil
	}
	enc, ok := raw.(string)
	if !ok {
		return ResponseEncrypted, nil, &crypto.MalformedEnvelopeError{
			Reason: fmt.Sprintf("%s field is %T, want string", api.EnvelopeParam, raw),
		}
	}

	data, err := codec.Decrypt(enc)
	if err != nil {
		return ResponseEncrypted, nil, err
	}
	return ResponseEncrypted, data, nil
}
