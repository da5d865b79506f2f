package web

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jxeal/superdev-quiz/pkg/metrics"
	"github.com/jxeal/superdev-quiz/pkg/rate"
	"github.com/jxeal/superdev-quiz/pkg/solana/token"
	"github.com/jxeal/superdev-quiz/pkg/testutil"
)

type testEnv struct {
	server  *Server
	metrics *metrics.RequestMetrics
	router  *mux.Router
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func setup(t *testing.T, overrides *testOverrides) testEnv {
	requestMetrics := metrics.NewRequestMetrics()
	server := NewServer(withManualTestOverrides(overrides), requestMetrics)

	router := mux.NewRouter()
	server.RegisterWithHTTP(router)

	server.Start()
	t.Cleanup(server.Stop)

	return testEnv{
		server:  server,
		metrics: requestMetrics,
		router:  router,
	}
}

func defaultOverrides() *testOverrides {
	return &testOverrides{
		rateLimitPerSecond:  1000,
		rateLimitBurst:      1000,
		maxRequestBodyBytes: 64 * 1024,
	}
}

func (e testEnv) do(t *testing.T, method, path string, body string) (int, envelope) {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(contentTypeHeaderName, jsonContentTypeHeaderValue)

	recorder := httptest.NewRecorder()
	e.router.ServeHTTP(recorder, req)

	assert.Equal(t, jsonContentTypeHeaderValue, recorder.Header().Get(contentTypeHeaderName))

	var decoded envelope
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &decoded), recorder.Body.String())
	return recorder.Code, decoded
}

func (e testEnv) post(t *testing.T, path string, body any) (int, envelope) {
	encoded, err := json.Marshal(body)
	require.NoError(t, err)
	return e.do(t, http.MethodPost, path, string(encoded))
}

func (e testEnv) scrapeMetrics(t *testing.T) string {
	recorder := httptest.NewRecorder()
	e.metrics.Handler().ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, recorder.Code)
	return recorder.Body.String()
}

func TestKeypair(t *testing.T) {
	env := setup(t, defaultOverrides())

	statusCode, resp := env.do(t, http.MethodPost, keypairPath, "")
	require.Equal(t, http.StatusOK, statusCode)
	require.True(t, resp.Success)
	assert.Empty(t, resp.Error)

	var data struct {
		PublicKey string `json:"pubkey"`
		Secret    string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))

	secret, err := base58.Decode(data.Secret)
	require.NoError(t, err)
	require.Len(t, secret, ed25519.PrivateKeySize)
	assert.Equal(t, data.PublicKey, base58.Encode(secret[32:]))
}

func TestCreateToken(t *testing.T) {
	env := setup(t, defaultOverrides())
	mint, authority := testutil.GenerateAddress(t), testutil.GenerateAddress(t)

	statusCode, resp := env.post(t, createTokenPath, map[string]any{
		"mint":          mint,
		"mintAuthority": authority,
		"decimals":      6,
	})
	require.Equal(t, http.StatusOK, statusCode)
	require.True(t, resp.Success, resp.Error)

	var data struct {
		ProgramID string `json:"program_id"`
		Accounts  []struct {
			PublicKey  string `json:"pubkey"`
			IsSigner   bool   `json:"is_signer"`
			IsWritable bool   `json:"is_writable"`
		} `json:"accounts"`
		InstructionData string `json:"instruction_data"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	assert.Equal(t, base58.Encode(token.ProgramKey), data.ProgramID)
	require.Len(t, data.Accounts, 2)
	assert.Equal(t, mint, data.Accounts[0].PublicKey)
	assert.True(t, data.Accounts[0].IsWritable)
	assert.NotEmpty(t, data.InstructionData)

	assert.Contains(t, env.scrapeMetrics(t), `instruction_server_requests_total{outcome="success",route="/token/create"} 1`)
}

func TestClientErrors(t *testing.T) {
	env := setup(t, defaultOverrides())
	valid := testutil.GenerateAddress(t)

	for _, tc := range []struct {
		path     string
		body     any
		expected string
	}{
		{createTokenPath, map[string]any{"mint": "", "mintAuthority": valid, "decimals": 6}, "Mint and Mint Authority fields cannot be empty"},
		{createTokenPath, map[string]any{"mint": valid, "mintAuthority": valid, "decimals": 19}, "Decimals must be between 0 and 18"},
		{mintTokenPath, map[string]any{"mint": valid, "destination": valid, "authority": valid, "amount": 0}, "Amount must be greater than 0"},
		{sendSolPath, map[string]any{"from": "0OIl", "to": valid, "lamports": 1}, "Invalid sender public key"},
		{signMessagePath, map[string]any{"message": "hello", "secret": ""}, "Secret key must be 64 bytes"},
		{verifyMessagePath, map[string]any{"message": "hello", "signature": "!!", "pubkey": valid}, "Invalid base64 signature"},
	} {
		statusCode, resp := env.post(t, tc.path, tc.body)
		assert.Equal(t, http.StatusBadRequest, statusCode, tc.path)
		assert.False(t, resp.Success)
		assert.Equal(t, tc.expected, resp.Error)
		assert.Equal(t, "null", nullOrEmpty(resp.Data))
	}
}

func TestSignAndVerifyRoundTrip(t *testing.T) {
	env := setup(t, defaultOverrides())

	_, keypairResp := env.do(t, http.MethodPost, keypairPath, "")
	var kp struct {
		PublicKey string `json:"pubkey"`
		Secret    string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(keypairResp.Data, &kp))

	statusCode, signResp := env.post(t, signMessagePath, map[string]string{
		"message": "Hello, Solana!",
		"secret":  kp.Secret,
	})
	require.Equal(t, http.StatusOK, statusCode)
	require.True(t, signResp.Success, signResp.Error)

	var signed struct {
		Signature string `json:"signature"`
		PublicKey string `json:"public_key"`
	}
	require.NoError(t, json.Unmarshal(signResp.Data, &signed))
	assert.Equal(t, kp.PublicKey, signed.PublicKey)

	statusCode, verifyResp := env.post(t, verifyMessagePath, map[string]string{
		"message":   "Hello, Solana!",
		"signature": signed.Signature,
		"pubkey":    kp.PublicKey,
	})
	require.Equal(t, http.StatusOK, statusCode)

	var verified struct {
		Valid bool `json:"valid"`
	}
	require.NoError(t, json.Unmarshal(verifyResp.Data, &verified))
	assert.True(t, verified.Valid)

	_, verifyResp = env.post(t, verifyMessagePath, map[string]string{
		"message":   "Hello, Ethereum!",
		"signature": signed.Signature,
		"pubkey":    kp.PublicKey,
	})
	require.NoError(t, json.Unmarshal(verifyResp.Data, &verified))
	assert.False(t, verified.Valid)
}

func TestInvalidBody(t *testing.T) {
	env := setup(t, defaultOverrides())

	for _, body := range []string{
		"",
		"{",
		`{"mint": 5}`,
		`{"mint": "a"} {"mint": "b"}`,
	} {
		statusCode, resp := env.do(t, http.MethodPost, createTokenPath, body)
		assert.Equal(t, http.StatusBadRequest, statusCode, body)
		assert.False(t, resp.Success)
		assert.Equal(t, "Invalid request body", resp.Error)
	}

	assert.Contains(t, env.scrapeMetrics(t), `instruction_server_requests_total{outcome="invalid_body",route="/token/create"} 4`)
}

func TestBodyTooLarge(t *testing.T) {
	overrides := defaultOverrides()
	overrides.maxRequestBodyBytes = 16
	env := setup(t, overrides)

	body, err := json.Marshal(map[string]string{
		"message": string(bytes.Repeat([]byte("a"), 64)),
		"secret":  "x",
	})
	require.NoError(t, err)

	statusCode, resp := env.do(t, http.MethodPost, signMessagePath, string(body))
	assert.Equal(t, http.StatusRequestEntityTooLarge, statusCode)
	assert.False(t, resp.Success)
	assert.Equal(t, "Request body too large", resp.Error)
}

func TestMethodNotAllowed(t *testing.T) {
	env := setup(t, defaultOverrides())

	statusCode, resp := env.do(t, http.MethodGet, createTokenPath, "")
	assert.Equal(t, http.StatusMethodNotAllowed, statusCode)
	assert.False(t, resp.Success)
	assert.Equal(t, "Method not allowed", resp.Error)

	statusCode, resp = env.do(t, http.MethodPost, "/unknown", "{}")
	assert.Equal(t, http.StatusNotFound, statusCode)
	assert.False(t, resp.Success)
}

func TestHealth(t *testing.T) {
	env := setup(t, defaultOverrides())

	req := httptest.NewRequest(http.MethodGet, healthPath, nil)
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"status":"ok"}`, recorder.Body.String())
}

func TestRateLimit(t *testing.T) {
	overrides := defaultOverrides()
	overrides.rateLimitPerSecond = 0.001
	overrides.rateLimitBurst = 2
	env := setup(t, overrides)
	require.IsType(t, &rate.LocalRateLimiter{}, env.server.limiter)

	for i := 0; i < 2; i++ {
		statusCode, _ := env.do(t, http.MethodPost, keypairPath, "")
		require.Equal(t, http.StatusOK, statusCode)
	}

	statusCode, resp := env.do(t, http.MethodPost, keypairPath, "")
	assert.Equal(t, http.StatusTooManyRequests, statusCode)
	assert.False(t, resp.Success)
	assert.Equal(t, rateLimitedMessage, resp.Error)

	// Another client is tracked separately.
	req := httptest.NewRequest(http.MethodPost, keypairPath, nil)
	req.RemoteAddr = "10.0.0.1:4242"
	recorder := httptest.NewRecorder()
	env.router.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 2, env.server.buckets.Size())
}

func TestRateLimit_Disabled(t *testing.T) {
	overrides := defaultOverrides()
	overrides.rateLimitPerSecond = 0.001
	overrides.rateLimitBurst = 1
	overrides.disableRateLimit = true
	env := setup(t, overrides)
	assert.IsType(t, &rate.NoLimiter{}, env.server.limiter)
	assert.Nil(t, env.server.buckets)

	for i := 0; i < 5; i++ {
		statusCode, _ := env.do(t, http.MethodPost, keypairPath, "")
		require.Equal(t, http.StatusOK, statusCode)
	}
}

func TestClientAddress(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.10:5555"
	assert.Equal(t, "192.168.1.10", clientAddress(req))

	req.RemoteAddr = "not-a-host-port"
	assert.Equal(t, "not-a-host-port", clientAddress(req))
}

func nullOrEmpty(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "null"
	}
	return string(raw)
}
