package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"buildcheck/internal/http-server/middleware"

	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/zlog"
)

func TestHealth(t *testing.T) {
	zlog.Init()
	r := SetupRouter(&Handler{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"BuildCheck API"}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get(middleware.HeaderRequestID))
}

func TestUnknownRoutes(t *testing.T) {
	zlog.Init()
	r := SetupRouter(&Handler{})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/property/analyze", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
