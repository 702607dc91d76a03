package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	engineclient "buildcheck/internal/client/engine"
	"buildcheck/internal/ratelimit"
	"buildcheck/internal/usecase/inspector"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

const testKey = "engine-key-0123456789"

type alwaysOne struct{}

func (alwaysOne) Intn(int) int { return 1 }

type brokenLimiter struct{}

func (brokenLimiter) Allow(context.Context, string) (bool, error) {
	return false, errors.New("redis down")
}

func newTestHandler(t *testing.T, limiter rateLimiter, apiKey string) (http.Handler, string) {
	t.Helper()
	zlog.Init()

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	insp, err := inspector.NewInspector(dir, 2, alwaysOne{}, &zlog.Logger)
	require.NoError(t, err)

	h := NewEngineHandler(insp, limiter, apiKey, &zlog.Logger)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /engine/analyze", h.Analyze)
	mux.HandleFunc("GET /engine/health", h.Health)
	return mux, dir
}

func writeImage(t *testing.T, path string) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

func post(t *testing.T, h http.Handler, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/engine/analyze", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded), rec.Body.String())
	return rec, decoded
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(t, nil, "")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/engine/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"service":"engine"}`, rec.Body.String())
}

func TestAnalyzePaths(t *testing.T) {
	h, dir := newTestHandler(t, nil, testKey)

	good := filepath.Join(dir, "a.png")
	writeImage(t, good)
	missing := filepath.Join(dir, "gone.png")

	body, _ := json.Marshal(map[string]any{"request_id": "rid-1", "paths": []string{good, missing}})
	rec, decoded := post(t, h, string(body), map[string]string{engineclient.HeaderEngineKey: testKey})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decoded["ok"])

	results := decoded["results"].([]any)
	require.Len(t, results, 2)

	first := results[0].(map[string]any)
	assert.Equal(t, true, first["ok"])
	assert.Equal(t, good, first["path"])
	assert.Equal(t, []any{"crack", "moisture", "peeling_paint", "breakage"}, first["damage_types"])

	second := results[1].(map[string]any)
	assert.Equal(t, false, second["ok"])
	assert.Equal(t, "file not found", second["error"])
}

func TestAnalyzeAllFailedIsNotOK(t *testing.T) {
	h, _ := newTestHandler(t, nil, "")

	rec, decoded := post(t, h, `{"paths":["/etc/passwd"]}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decoded["ok"])
	first := decoded["results"].([]any)[0].(map[string]any)
	assert.Equal(t, "path outside shared directory", first["error"])
}

func TestAnalyzeEngineKey(t *testing.T) {
	h, _ := newTestHandler(t, nil, testKey)

	rec, decoded := post(t, h, `{"paths":["/tmp/a.png"]}`, map[string]string{engineclient.HeaderEngineKey: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, decoded["ok"])

	rec, _ = post(t, h, `{"paths":["/tmp/a.png"]}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAnalyzeBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		msg  string
	}{
		{name: "not json", body: `nope`, msg: "missing paths array"},
		{name: "no paths", body: `{"request_id":"x"}`, msg: "missing paths array"},
		{name: "paths not array", body: `{"paths":"a.png"}`, msg: "missing paths array"},
		{name: "empty paths", body: `{"paths":[]}`, msg: "missing paths array"},
		{name: "too many", body: `{"paths":["/a","/b","/c"]}`, msg: "too many paths"},
	}

	h, _ := newTestHandler(t, nil, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, decoded := post(t, h, tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, map[string]any{"ok": false, "error": tt.msg}, decoded)
		})
	}
}

func TestAnalyzeRateLimit(t *testing.T) {
	h, _ := newTestHandler(t, ratelimit.NewMemory(2), "")

	limited := map[string]string{engineclient.HeaderRateLimitKey: "203.0.113.7"}
	for i := 0; i < 2; i++ {
		rec, _ := post(t, h, `{"paths":["/etc/hosts"]}`, limited)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec, decoded := post(t, h, `{"paths":["/etc/hosts"]}`, limited)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate limit exceeded", decoded["error"])

	rec, _ = post(t, h, `{"paths":["/etc/hosts"]}`, map[string]string{engineclient.HeaderRateLimitKey: "203.0.113.8"})
	assert.Equal(t, http.StatusOK, rec.Code, "other keys have their own window")
}

func TestAnalyzeRateLimiterErrorFailsOpen(t *testing.T) {
	h, _ := newTestHandler(t, brokenLimiter{}, "")

	rec, _ := post(t, h, `{"paths":["/etc/hosts"]}`, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
