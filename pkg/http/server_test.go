package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type routes func(e *echo.Echo)

func (r routes) RegisterRoutes(e *echo.Echo) { r(e) }

func testServer(opts ...ServerOption) *Server {
	h := routes(func(e *echo.Echo) {
		e.GET("/panic", func(c echo.Context) error {
			panic("boom")
		})
		e.GET("/fail", func(c echo.Context) error {
			return errors.New("db down")
		})
		e.GET("/gone", func(c echo.Context) error {
			return NotFoundErrorf("instrument %s", "X")
		})
		e.GET("/ok", func(c echo.Context) error {
			return SuccessResponse(c, "fine")
		})
	})
	return NewServer([]Handler{h, nil}, opts...)
}

func serve(s *Server, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Echo().ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var res APIResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return res
}

func TestServerErrors(t *testing.T) {
	s := testServer()

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"panic", "/panic", http.StatusInternalServerError},
		{"plain error", "/fail", http.StatusInternalServerError},
		{"app error", "/gone", http.StatusNotFound},
		{"no route", "/missing", http.StatusNotFound},
		{"ok", "/ok", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(s, http.MethodGet, tt.target, nil)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.status, body(t, rec).Status)
		})
	}

	res := body(t, serve(s, http.MethodGet, "/panic", nil))
	assert.Equal(t, InternalErrorMessage, res.Data)
	assert.NotContains(t, serve(s, http.MethodGet, "/fail", nil).Body.String(), "db down")
}

func TestServerMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := testServer(WithMetrics("/metrics", reg, reg))

	serve(s, http.MethodGet, "/ok", nil)
	serve(s, http.MethodGet, "/ok", nil)

	rec := serve(s, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `tradingbot_http_requests_total{method="GET",route="/ok",status="200"} 2`))
}

func TestServerWithoutMetrics(t *testing.T) {
	s := testServer()
	assert.Equal(t, http.StatusNotFound, serve(s, http.MethodGet, "/metrics", nil).Code)
}

func TestServerCORS(t *testing.T) {
	s := testServer()
	rec := serve(s, http.MethodOptions, "/ok", map[string]string{echo.HeaderOrigin: "http://localhost:5173"})
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
	assert.Contains(t, rec.Header().Get(echo.HeaderAccessControlAllowMethods), http.MethodGet)

	off := testServer(WithCORS(false))
	rec = serve(off, http.MethodGet, "/ok", map[string]string{echo.HeaderOrigin: "http://localhost:5173"})
	assert.Empty(t, rec.Header().Get(echo.HeaderAccessControlAllowOrigin))
}

func TestServerAddr(t *testing.T) {
	s := testServer(WithHost("127.0.0.1"), WithPort(8081))
	assert.Equal(t, "127.0.0.1:8081", s.Addr())
}
