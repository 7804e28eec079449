package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reqlab/reqlab/internal/storage"
	"github.com/reqlab/reqlab/pkg/api/types"
	"github.com/reqlab/reqlab/pkg/curl"
	"github.com/reqlab/reqlab/pkg/httputil"
	"github.com/reqlab/reqlab/pkg/metrics"
	"github.com/reqlab/reqlab/pkg/proxy"
	"github.com/reqlab/reqlab/pkg/ratelimit"
	"github.com/reqlab/reqlab/pkg/request"
	"github.com/reqlab/reqlab/pkg/share"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, storage.Store) {
	t.Helper()
	store := storage.NewMemoryStore()
	t.Cleanup(func() { _ = store.Close() })
	return New(store, append([]Option{WithVersion("test")}, opts...)...), store
}

// do sends body (marshaled unless it is a string) and returns the recorder.
func do(t *testing.T, s *Server, method, path string, body any, userID string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, r)
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[httputil.ErrorResponse](t, rec).Error
}

var postUser = &request.Request{
	Method: request.MethodPost,
	URL:    "https://api.example.com/users",
	Headers: []request.Header{
		{Key: "Content-Type", Value: "application/json"},
		{Key: "", Value: ""},
	},
	Body: `{"name": "Ada"}`,
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/health", nil, "")

	require.Equal(t, http.StatusOK, rec.Code)
	health := decode[types.HealthResponse](t, rec)
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "test", health.Version)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestCORSPreflight(t *testing.T) {
	s, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/proxy", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), UserHeader)
}

func TestCORSConfig_AllowOrigin(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		cfg    CORSConfig
		origin string
		want   string
	}{
		{"wildcard", CORSConfig{AllowedOrigins: []string{"*"}}, "https://a.test", "*"},
		{"empty list allows all", CORSConfig{}, "https://a.test", "*"},
		{"listed origin echoed", CORSConfig{AllowedOrigins: []string{"https://a.test"}}, "https://a.test", "https://a.test"},
		{"unlisted origin", CORSConfig{AllowedOrigins: []string{"https://a.test"}}, "https://b.test", ""},
		{"credentials echo origin", CORSConfig{AllowedOrigins: []string{"*"}, AllowCredentials: true}, "https://b.test", "https://b.test"},
		{"credentials without origin", CORSConfig{AllowCredentials: true}, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.cfg.allowOrigin(tt.origin))
		})
	}
}

func TestCurlFormat(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/curl/format", types.FormatRequest{Request: postUser}, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, curl.Format(postUser), decode[types.FormatResponse](t, rec).Curl)

	t.Run("missing request", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/curl/format", `{}`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", errorCode(t, rec))
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/curl/format", `{"request":`, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", errorCode(t, rec))
	})
}

func TestCurlParse(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		text     string
		wantCode int
		wantErr  string
	}{
		{"not curl", "wget https://example.com", http.StatusBadRequest, "not_curl"},
		{"no url", "curl -X POST -H 'Accept: */*'", http.StatusUnprocessableEntity, "no_url"},
		{"ok", "curl -X PUT 'https://api.example.com/items/1' -H 'Content-Type: application/json' -d '{\"a\":1}'", http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/curl/parse", types.ParseRequest{Text: tt.text}, "")
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, errorCode(t, rec))
				return
			}
			got := decode[request.Request](t, rec)
			assert.Equal(t, request.MethodPut, got.Method)
			assert.Equal(t, "https://api.example.com/items/1", got.URL)
			assert.Equal(t, []request.Header{{Key: "Content-Type", Value: "application/json"}}, got.Headers)
			assert.Equal(t, `{"a":1}`, got.Body)
		})
	}
}

func TestCurlPrettify(t *testing.T) {
	s, _ := newTestServer(t)

	text := "curl -X GET 'https://example.com' -H 'Accept: text/plain'"
	rec := do(t, s, http.MethodPost, "/api/curl/prettify", types.ParseRequest{Text: text}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, curl.Prettify(text), decode[types.PrettifyResponse](t, rec).Curl)

	rec = do(t, s, http.MethodPost, "/api/curl/prettify", types.ParseRequest{Text: "ls -la"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSnippets(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("list", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/snippets", nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		list := decode[types.ListResponse[types.TargetInfo]](t, rec)
		require.Equal(t, 6, list.Count)
		assert.Equal(t, "curl", list.Items[0].Target)
	})

	t.Run("generate", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/snippets/curl", types.SnippetRequest{Request: postUser}, "")
		require.Equal(t, http.StatusOK, rec.Code)
		resp := decode[types.SnippetResponse](t, rec)
		assert.Equal(t, "curl", resp.Target)
		assert.Equal(t, "bash", resp.Language)
		assert.Equal(t, curl.Format(postUser), resp.Code)
	})

	t.Run("every target", func(t *testing.T) {
		for _, target := range []string{"fetch", "axios", "python", "go", "nodejs"} {
			rec := do(t, s, http.MethodPost, "/api/snippets/"+target, types.SnippetRequest{Request: postUser}, "")
			require.Equal(t, http.StatusOK, rec.Code, target)
			assert.Contains(t, decode[types.SnippetResponse](t, rec).Code, "https://api.example.com/users", target)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/snippets/cobol", types.SnippetRequest{Request: postUser}, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "unknown_target", errorCode(t, rec))
	})
}

func TestProxy(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"method": r.Method,
			"body":   string(body),
		})
	}))
	defer target.Close()

	s, store := newTestServer(t)

	call := proxy.Request{
		URL:     target.URL + "/users",
		Method:  "POST",
		Headers: map[string]string{"X-Trace": "1"},
		Body:    json.RawMessage(`{"name":"Ada"}`),
	}

	t.Run("anonymous", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/proxy", call, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var result struct {
			Status int               `json:"status"`
			Data   map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, http.StatusCreated, result.Status)
		assert.Equal(t, "POST", result.Data["method"])
		assert.JSONEq(t, `{"name":"Ada"}`, result.Data["body"])
	})

	t.Run("records history for user", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/proxy", call, "u1")
		require.Equal(t, http.StatusOK, rec.Code)

		hist, err := store.ListHistory(t.Context(), "u1")
		require.NoError(t, err)
		require.Len(t, hist, 1)
		assert.Equal(t, request.MethodPost, hist[0].Method)
		assert.Equal(t, http.StatusCreated, hist[0].Status)
		assert.NotEmpty(t, hist[0].Response)

		rec = do(t, s, http.MethodGet, "/api/history", nil, "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, decode[types.ListResponse[storage.HistoryEntry]](t, rec).Count)
	})

	t.Run("missing field", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/proxy", proxy.Request{Method: "GET"}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_field", errorCode(t, rec))
	})

	t.Run("unreachable", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/proxy", proxy.Request{Method: "GET", URL: "http://127.0.0.1:1/"}, "")
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "upstream_error", errorCode(t, rec))
	})
}

func TestProxy_HostBlocked(t *testing.T) {
	filter, err := proxy.NewHostFilter(nil, []string{"127.0.0.1", "localhost"})
	require.NoError(t, err)
	s, _ := newTestServer(t, WithProxy(proxy.NewExecutor(time.Second, proxy.WithHostFilter(filter))))

	rec := do(t, s, http.MethodPost, "/api/proxy", proxy.Request{Method: "GET", URL: "http://127.0.0.1:8080/"}, "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "host_blocked", errorCode(t, rec))
}

func TestShares(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := storage.NewMemoryStore()
	svc := share.NewService(store, "https://reqlab.example.com",
		share.WithTTL(time.Hour),
		share.WithClock(func() time.Time { return now }),
	)
	s := New(store, WithShareService(svc))

	rec := do(t, s, http.MethodPost, "/api/share", types.ShareRequest{
		Type: share.KindRequest,
		Data: json.RawMessage(`{"url":"https://example.com"}`),
		ID:   "abc",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[types.ShareResponse](t, rec)
	assert.Equal(t, "abc", created.ID)
	assert.Equal(t, "https://reqlab.example.com/shared/abc", created.URL)

	rec = do(t, s, http.MethodGet, "/api/share/abc", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"url":"https://example.com"}`, string(decode[storage.Share](t, rec).Data))

	t.Run("duplicate id", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/share", types.ShareRequest{
			Type: share.KindRequest, Data: json.RawMessage(`{}`), ID: "abc",
		}, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("invalid kind", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/share", types.ShareRequest{
			Type: "workspace", Data: json.RawMessage(`{}`),
		}, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/share/nope", nil, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("expired", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		rec := do(t, s, http.MethodGet, "/api/share/abc", nil, "")
		assert.Equal(t, http.StatusGone, rec.Code)
		assert.Equal(t, "expired", errorCode(t, rec))
	})
}

func TestUserRoutesRequireUser(t *testing.T) {
	s, _ := newTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/api/requests"},
		{http.MethodPost, "/api/requests"},
		{http.MethodGet, "/api/requests/x"},
		{http.MethodDelete, "/api/requests/x"},
		{http.MethodGet, "/api/collections"},
		{http.MethodPost, "/api/collections"},
		{http.MethodDelete, "/api/collections/x"},
		{http.MethodGet, "/api/history"},
	}
	for _, rt := range routes {
		rec := do(t, s, rt.method, rt.path, `{}`, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", rt.method, rt.path)
	}
}

func TestSavedRequests(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/requests", types.SaveRequestBody{Request: postUser}, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Updated bool                 `json:"updated"`
		Item    storage.SavedRequest `json:"item"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.False(t, created.Updated)
	assert.Equal(t, "POST https://api.example.com/users", created.Item.Name)
	id := created.Item.ID

	rec = do(t, s, http.MethodPost, "/api/requests", types.SaveRequestBody{Name: "Create user", Request: postUser}, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[types.SaveRequestResponse](t, rec).Updated)

	rec = do(t, s, http.MethodGet, "/api/requests", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[types.ListResponse[storage.SavedRequest]](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, "Create user", list.Items[0].Name)

	t.Run("other user cannot see it", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/requests/"+id, nil, "u2")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("snippet of saved request", func(t *testing.T) {
		rec := do(t, s, http.MethodGet, "/api/requests/"+id+"/snippets/curl", nil, "u1")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, curl.Format(postUser), decode[types.SnippetResponse](t, rec).Code)
	})

	t.Run("missing url", func(t *testing.T) {
		rec := do(t, s, http.MethodPost, "/api/requests", types.SaveRequestBody{Request: &request.Request{Method: "GET"}}, "u1")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	rec = do(t, s, http.MethodDelete, "/api/requests/"+id, nil, "u1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/requests/"+id, nil, "u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCollections(t *testing.T) {
	s, store := newTestServer(t)

	saved, _, err := store.SaveRequest(t.Context(), "u1", "", postUser)
	require.NoError(t, err)

	rec := do(t, s, http.MethodPost, "/api/collections", types.CollectionBody{Name: "Users"}, "u1")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	coll := decode[storage.Collection](t, rec)

	rec = do(t, s, http.MethodPost, "/api/collections", types.CollectionBody{Name: "Users"}, "u1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/collections/"+coll.ID+"/requests", types.CollectionMemberBody{RequestID: saved.ID}, "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{saved.ID}, decode[storage.Collection](t, rec).RequestIDs)

	rec = do(t, s, http.MethodGet, "/api/collections", nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[types.ListResponse[storage.Collection]](t, rec).Count)

	rec = do(t, s, http.MethodDelete, "/api/collections/"+coll.ID+"/requests/"+saved.ID, nil, "u1")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/collections/"+coll.ID, nil, "u1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[storage.Collection](t, rec).RequestIDs)

	rec = do(t, s, http.MethodDelete, "/api/collections/"+coll.ID, nil, "u1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, s, http.MethodDelete, "/api/collections/"+coll.ID, nil, "u1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics(t *testing.T) {
	filter, err := proxy.NewHostFilter(nil, []string{"127.0.0.1"})
	require.NoError(t, err)
	s, _ := newTestServer(t,
		WithMetrics(metrics.NewRegistry()),
		WithProxy(proxy.NewExecutor(time.Second, proxy.WithHostFilter(filter))),
	)

	do(t, s, http.MethodGet, "/health", nil, "")
	do(t, s, http.MethodPost, "/api/snippets/python", types.SnippetRequest{Request: postUser}, "")
	do(t, s, http.MethodPost, "/api/proxy", proxy.Request{Method: "get", URL: "http://127.0.0.1:1/"}, "")
	do(t, s, http.MethodPost, "/api/share", types.ShareRequest{Type: share.KindRequest, Data: json.RawMessage(`{}`)}, "")

	rec := do(t, s, http.MethodGet, "/metrics", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()

	assert.Contains(t, body, `reqlab_http_requests_total{method="GET",route="GET /health",status="200"} 1`)
	assert.Contains(t, body, `route="POST /api/snippets/{target}",status="200"} 1`)
	assert.Contains(t, body, `reqlab_snippets_generated_total{target="python"} 1`)
	assert.Contains(t, body, `reqlab_proxy_requests_total{method="GET",outcome="blocked"} 1`)
	assert.Contains(t, body, `reqlab_shares_created_total{type="request"} 1`)
}

func TestMetrics_DisabledByDefault(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeAndShutdown(t *testing.T) {
	s, _ := newTestServer(t)

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.Serve(l) }()

	resp, err := http.Get("http://" + l.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Shutdown(ctx))
	assert.NoError(t, <-done)
}

func TestProxy_RateLimited(t *testing.T) {
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer target.Close()

	limiter := ratelimit.NewLimiter(ratelimit.Config{Rate: 0.001, Burst: 1})
	defer limiter.Stop()
	s, _ := newTestServer(t, WithRateLimiter(limiter))

	call := proxy.Request{Method: "GET", URL: target.URL}

	rec := do(t, s, http.MethodPost, "/api/proxy", call, "u1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/proxy", call, "u1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	rec = do(t, s, http.MethodPost, "/api/proxy", call, "u2")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/proxy", call, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
