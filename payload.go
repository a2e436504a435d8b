package cipherlink

// Payload field names.
const (
	FieldAPIKey     = "apikey"
	FieldParameters = "parameters"
)

// Payload is the JSON object sent inside an encrypted request. It always
// carries "apikey" and "parameters" once it reaches the wire; the client
// also injects "clientPublicKey" at encryption time.
type Payload map[string]interface{}

// Parameter is one named request parameter.
type Parameter struct {
	Name  string      `json:"name"`
	Value interface{} `json:"value"`
}

// Param is shorthand for Parameter{Name: name, Value: value}.
func Param(name string, value interface{}) Parameter {
	return Parameter{Name: name, Value: value}
}

// NewPayload builds a payload with the given API key and parameters in order.
// An empty apiKey is filled from the client default at request time.
func NewPayload(apiKey string, params ...Parameter) Payload {
	p := Payload{FieldParameters: append([]Parameter{}, params...)}
	if apiKey != "" {
		p[FieldAPIKey] = apiKey
	}
	return p
}

// withDefaults returns a copy with apikey and parameters present. The
// receiver is not modified.
func (p Payload) withDefaults(apiKey string) Payload {
	out := make(Payload, len(p)+2)
	for k, v := range p {
		out[k] = v
	}
	if v, ok := out[FieldAPIKey]; !ok || v == nil || v == "" {
		out[FieldAPIKey] = apiKey
	}
	if v, ok := out[FieldParameters]; !ok || v == nil {
		out[FieldParameters] = []Parameter{}
	}
	return out
}
