package cipherlink

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cipherlink/client-go/internal/crypto"
)

// fakeServer speaks the server side of the protocol: it answers the key
// exchange with its own key pair and opens envelopes sent to any other path.
type fakeServer struct {
	*httptest.Server

	t     *testing.T
	keys  *crypto.KeyPair
	codec *crypto.Codec

	handshakes int32
	requests   int32

	// handshake overrides the key exchange answer when set.
	handshake func(w http.ResponseWriter)
	// respond writes the answer to an opened request. Default: encrypted echo.
	respond func(f *fakeServer, w http.ResponseWriter, payload map[string]interface{})

	mu          sync.Mutex
	agents      []string
	clientKey   string
	lastPath    string
	lastQuery   url.Values
	lastPayload map[string]interface{}
}

func newFakeServer(t *testing.T, curve string, opts ...crypto.CodecOption) *fakeServer {
	t.Helper()

	keys, err := crypto.GenerateKeyPair(curve)
	if err != nil {
		t.Fatalf("GenerateKeyPair(%s) error = %v", curve, err)
	}
	codec, err := crypto.NewCodec(keys, opts...)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}

	f := &fakeServer{t: t, keys: keys, codec: codec, respond: echoEncrypted}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.agents = append(f.agents, r.Header.Get("User-Agent"))
	f.mu.Unlock()

	if r.URL.Path == "/api/v4/keys/public" {
		atomic.AddInt32(&f.handshakes, 1)
		if r.Method != http.MethodPost {
			f.t.Errorf("key exchange method = %s, want POST", r.Method)
		}
		if f.handshake != nil {
			f.handshake(w)
			return
		}

		var req struct {
			ClientPublicKey string `json:"clientPublicKey"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			f.t.Errorf("decode key exchange body: %v", err)
		}
		f.mu.Lock()
		f.clientKey = req.ClientPublicKey
		f.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]string{"serverPublicKey": f.keys.PublicKeyHex()})
		return
	}

	atomic.AddInt32(&f.requests, 1)
	if r.Method != http.MethodGet {
		f.t.Errorf("request method = %s, want GET", r.Method)
	}

	data, err := f.codec.Decrypt(r.URL.Query().Get("ENC"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	payload, ok := data.(map[string]interface{})
	if !ok {
		http.Error(w, "payload is not an object", http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	f.lastPath = r.URL.Path
	f.lastQuery = r.URL.Query()
	f.lastPayload = payload
	f.mu.Unlock()

	f.respond(f, w, payload)
}

// seal encrypts v to the sender of payload.
func (f *fakeServer) seal(v map[string]interface{}, payload map[string]interface{}) string {
	clientKey, _ := payload["clientPublicKey"].(string)
	env, err := f.codec.Encrypt(v, clientKey)
	if err != nil {
		f.t.Errorf("server encrypt: %v", err)
	}
	return env
}

func (f *fakeServer) payload() map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastPayload
}

func (f *fakeServer) seenClientKey() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clientKey
}

// userAgents returns the User-Agent of every request received, in order.
func (f *fakeServer) userAgents() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.agents...)
}

func (f *fakeServer) handshakeCount() int {
	return int(atomic.LoadInt32(&f.handshakes))
}

func (f *fakeServer) requestCount() int {
	return int(atomic.LoadInt32(&f.requests))
}

func echoEncrypted(f *fakeServer, w http.ResponseWriter, payload map[string]interface{}) {
	reply := map[string]interface{}{"echo": payload["parameters"], "ok": true}
	writeJSON(w, http.StatusOK, map[string]string{"ENC": f.seal(reply, payload)})
}

func replyJSON(v interface{}) func(*fakeServer, http.ResponseWriter, map[string]interface{}) {
	return func(_ *fakeServer, w http.ResponseWriter, _ map[string]interface{}) {
		writeJSON(w, http.StatusOK, v)
	}
}

func replyStatus(status int, body string) func(*fakeServer, http.ResponseWriter, map[string]interface{}) {
	return func(_ *fakeServer, w http.ResponseWriter, _ map[string]interface{}) {
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
