package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/business-anzsic-locator/internal/certs"
	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/matcher"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/testutil"
)

type stubIdentifier struct {
	outcome   model.Outcome
	addresses []string
	mu        sync.Mutex
}

func (s *stubIdentifier) Identify(_ context.Context, address string) model.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addresses = append(s.addresses, address)
	return s.outcome
}

func cafeOutcome() model.Outcome {
	return testutil.SingleOutcome("Test Cafe", "cafe", "4511", "Cafes and Restaurants")
}

var configured = Config{LookupConfigured: true}

func newTestServer(t *testing.T, id Identifier, opts Options) *httptest.Server {
	t.Helper()

	opts.Identifier = id
	srv, err := New(opts)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postIdentify(t *testing.T, url, body string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, url+"/api/identify", strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestNew(t *testing.T) {
	_, err := New(Options{})
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestIdentifyEndpoint(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		id := &stubIdentifier{outcome: cafeOutcome()}
		ts := newTestServer(t, id, Options{Config: configured})

		resp, body := postIdentify(t, ts.URL, `{"address": "123 Test St"}`, nil)

		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
		assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
		assert.Equal(t, "single", body["status"])
		result, ok := body["result"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "direct_map", result["match_method"])
		assert.Nil(t, result["ai_classification"])
		assert.Equal(t, []string{"123 Test St"}, id.addresses)
	})

	t.Run("missing address", func(t *testing.T) {
		id := &stubIdentifier{}
		ts := newTestServer(t, id, Options{Config: configured})

		for _, body := range []string{`{}`, `{"address": "   "}`, `not json`, ``} {
			resp, decoded := postIdentify(t, ts.URL, body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
			assert.Equal(t, map[string]any{"error": "Address is required"}, decoded)
		}
		assert.Empty(t, id.addresses)
	})

	t.Run("lookup not configured", func(t *testing.T) {
		id := &stubIdentifier{}
		ts := newTestServer(t, id, Options{})

		resp, decoded := postIdentify(t, ts.URL, `{"address": "123 Test St"}`, nil)
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
		assert.Equal(t, MsgLookupNotConfigured, decoded["error"])
		assert.Empty(t, id.addresses)
	})

	t.Run("error outcome", func(t *testing.T) {
		id := &stubIdentifier{outcome: model.ErrorOutcome(engine.MsgNoBusinessFound)}
		ts := newTestServer(t, id, Options{Config: configured})

		resp, decoded := postIdentify(t, ts.URL, `{"address": "nowhere"}`, nil)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, map[string]any{"error": "No business found at this address."}, decoded)
	})

	t.Run("request id is propagated", func(t *testing.T) {
		ts := newTestServer(t, &stubIdentifier{outcome: cafeOutcome()}, Options{Config: configured})

		resp, _ := postIdentify(t, ts.URL, `{"address": "x"}`, http.Header{RequestIDHeader: []string{"abc-123"}})
		assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
	})

	t.Run("wrong method", func(t *testing.T) {
		ts := newTestServer(t, &stubIdentifier{}, Options{})

		for _, path := range []string{"/api/identify", "/api/history"} {
			method := http.MethodGet
			if path == "/api/history" {
				method = http.MethodDelete
			}
			req, err := http.NewRequest(method, ts.URL+path, nil)
			require.NoError(t, err)
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)

			var decoded map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
			_ = resp.Body.Close()
			assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode, path)
			assert.Equal(t, "application/json", resp.Header.Get("Content-Type"), path)
			assert.Equal(t, map[string]any{"error": "Method not allowed"}, decoded, path)
		}
	})

	t.Run("wrong method on root route", func(t *testing.T) {
		ts := newTestServer(t, &stubIdentifier{}, Options{})

		resp, err := http.Post(ts.URL+"/healthz", "application/json", nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	})
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, &stubIdentifier{outcome: cafeOutcome()}, Options{
		Config: Config{LookupConfigured: true, RateLimit: 0.001, Burst: 1},
	})

	resp, _ := postIdentify(t, ts.URL, `{"address": "x"}`, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, decoded := postIdentify(t, ts.URL, `{"address": "x"}`, nil)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, MsgRateLimited, decoded["error"])

	// Health checks are not limited.
	health, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = health.Body.Close()
	assert.Equal(t, http.StatusOK, health.StatusCode)
}

func TestHistoryEndpoint(t *testing.T) {
	store := testutil.NewHistoryStore(t)

	ts := newTestServer(t, &stubIdentifier{outcome: cafeOutcome()}, Options{History: store, Config: configured})

	resp, _ := postIdentify(t, ts.URL, `{"address": "123 Test St"}`, http.Header{RequestIDHeader: []string{"req-42"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	get := func(query string) (*http.Response, map[string]any) {
		r, err := http.Get(ts.URL + "/api/history" + query)
		require.NoError(t, err)
		defer func() { _ = r.Body.Close() }()
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		return r, body
	}

	r, body := get("?code=4511")
	require.Equal(t, http.StatusOK, r.StatusCode)
	lookups, ok := body["lookups"].([]any)
	require.True(t, ok)
	require.Len(t, lookups, 1)
	first := lookups[0].(map[string]any)
	assert.Equal(t, "req-42", first["request_id"])
	assert.Equal(t, "123 Test St", first["address"])

	r, body = get("?code=9999")
	require.Equal(t, http.StatusOK, r.StatusCode)
	assert.Empty(t, body["lookups"])

	r, _ = get("?limit=abc")
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)

	r, _ = get("?status=pending")
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestHistoryDisabled(t *testing.T) {
	ts := newTestServer(t, &stubIdentifier{}, Options{})

	resp, err := http.Get(ts.URL + "/api/history")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	places := engine.NewMockPlaceLookup()
	places.TextResults["123 Test St"] = []model.PlaceRecord{{DisplayName: "Test Cafe", PrimaryType: "cafe"}}
	direct, err := matcher.NewDirectTypeMapper()
	require.NoError(t, err)

	metrics := NewMetrics()
	resolver, err := engine.NewResolver(engine.Options{Places: places, Direct: direct, Recorder: metrics})
	require.NoError(t, err)

	ts := newTestServer(t, resolver, Options{Metrics: metrics, Config: configured})

	resp, _ := postIdentify(t, ts.URL, `{"address": "123 Test St"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	m, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = m.Body.Close() }()
	raw, err := io.ReadAll(m.Body)
	require.NoError(t, err)

	text := string(raw)
	assert.Contains(t, text, `anzsic_resolver_lookups_total{status="single"} 1`)
	assert.Contains(t, text, `anzsic_resolver_candidates_total{match_method="direct_map"} 1`)
	assert.Contains(t, text, `anzsic_http_requests_total{method="POST",path="/api/identify",status="200"} 1`)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, &stubIdentifier{}, Options{Config: configured})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["lookup_configured"])
}

func TestTLS(t *testing.T) {
	tlsConfig, err := certs.TLSConfig(certs.NewFileManager(t.TempDir()))
	require.NoError(t, err)

	srv, err := New(Options{
		Identifier: &stubIdentifier{outcome: cafeOutcome()},
		Config:     Config{LookupConfigured: true, TLS: tlsConfig},
	})
	require.NoError(t, err)

	ts := httptest.NewUnstartedServer(srv.Handler())
	ts.TLS = srv.httpServer.TLSConfig
	ts.StartTLS()
	t.Cleanup(ts.Close)

	resp, err := ts.Client().Get(ts.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, resp.TLS)
}
