package router

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func echo(name string) HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(name))
		for _, p := range Params(r) {
			w.Write([]byte("|" + p))
		}
	}
}

func newTestRouter(t *testing.T) *Router {
	r := New(zaptest.NewLogger(t))
	r.GET("/health", echo("health"))
	r.GET("/api/v1/jobs/*/errors", echo("errors"))
	r.GET("/api/v1/jobs/*", echo("job"))
	r.GET("/api/v1/download/*/*", echo("download"))
	r.POST("/api/v1/plans", echo("create"))
	r.GET("/swagger/*", echo("swagger"))
	return r
}

func serve(r *Router, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestRouter_Matching(t *testing.T) {
	r := newTestRouter(t)
	tests := []struct {
		method, path string
		status       int
		body         string
	}{
		{http.MethodGet, "/health", http.StatusOK, "health"},
		{http.MethodGet, "/api/v1/jobs/abc/errors", http.StatusOK, "errors|abc"},
		{http.MethodGet, "/api/v1/jobs/abc", http.StatusOK, "job|abc"},
		{http.MethodGet, "/api/v1/download/p1/TO_Palmas_plano.xlsx", http.StatusOK, "download|p1|TO_Palmas_plano.xlsx"},
		{http.MethodGet, "/swagger/index.html", http.StatusOK, "swagger|index.html"},
		{http.MethodGet, "/swagger/a/b.js", http.StatusOK, "swagger|a/b.js"},
		{http.MethodGet, "/api/v1/download/p1", http.StatusNotFound, "Not Found\n"},
		{http.MethodGet, "/api/v1/jobs/", http.StatusNotFound, "Not Found\n"},
		{http.MethodGet, "/api/v1/plans", http.StatusMethodNotAllowed, "Method Not Allowed\n"},
		{http.MethodDelete, "/api/v1/jobs/abc", http.StatusMethodNotAllowed, "Method Not Allowed\n"},
		{http.MethodPost, "/api/v1/plans", http.StatusOK, "create"},
	}
	for _, tc := range tests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			rec := serve(r, tc.method, tc.path)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.body, rec.Body.String())
		})
	}
}

func TestRouter_CORS(t *testing.T) {
	r := newTestRouter(t)
	rec := serve(r, http.MethodOptions, "/api/v1/plans")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	r.AllowOrigin = ""
	rec = serve(r, http.MethodGet, "/health")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, Param(req, 0))
	assert.Nil(t, Params(req))
}

func TestRouter_StartAndShutdown(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	r := newTestRouter(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Start(ctx, ServerConfig{Addr: addr, ShutdownTimeout: time.Second}) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
