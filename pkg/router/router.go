package router

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type route struct {
	method   string
	pattern  string
	segments []string
	handler  HandlerFunc
}

// Router dispatches METHOD:PATH routes. A "*" segment matches one path
// segment, a trailing "*" matches the rest of the path. Routes are tried in
// registration order, so specific routes go first.
type Router struct {
	mux    *http.ServeMux
	routes []route
	exact  map[string]HandlerFunc // key = METHOD:PATH
	paths  map[string]bool
	logger *zap.Logger

	// AllowOrigin is sent as Access-Control-Allow-Origin; empty disables CORS.
	AllowOrigin string
}

type paramsKey struct{}

func New(logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Router{
		mux:         http.NewServeMux(),
		exact:       make(map[string]HandlerFunc),
		paths:       make(map[string]bool),
		logger:      logger,
		AllowOrigin: "*",
	}
	r.mux.HandleFunc("/", r.dispatch)
	return r
}

func (r *Router) dispatch(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

	if r.AllowOrigin != "" {
		h := lrw.Header()
		h.Set("Access-Control-Allow-Origin", r.AllowOrigin)
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	}

	switch {
	case req.Method == http.MethodOptions && r.AllowOrigin != "":
		lrw.WriteHeader(http.StatusNoContent)
	default:
		if h, params, ok := r.match(req.Method, req.URL.Path); ok {
			if len(params) > 0 {
				req = req.WithContext(context.WithValue(req.Context(), paramsKey{}, params))
			}
			h(lrw, req)
		} else if r.pathExists(req.URL.Path) {
			http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
		} else {
			http.Error(lrw, "Not Found", http.StatusNotFound)
		}
	}

	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", lrw.statusCode),
		zap.Duration("duration", time.Since(start)),
	}
	switch {
	case lrw.statusCode >= 500:
		r.logger.Error("request", fields...)
	case lrw.statusCode >= 400:
		r.logger.Warn("request", fields...)
	default:
		r.logger.Info("request", fields...)
	}
}

func (r *Router) match(method, path string) (HandlerFunc, []string, bool) {
	if h, ok := r.exact[method+":"+path]; ok {
		return h, nil, true
	}
	segments := split(path)
	for _, rt := range r.routes {
		if rt.method != method {
			continue
		}
		if params, ok := matchWildcardRoute(segments, rt.segments); ok {
			return rt.handler, params, true
		}
	}
	return nil, nil, false
}

func (r *Router) pathExists(path string) bool {
	if r.paths[path] {
		return true
	}
	segments := split(path)
	for _, rt := range r.routes {
		if _, ok := matchWildcardRoute(segments, rt.segments); ok {
			return true
		}
	}
	return false
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// matchWildcardRoute matches request segments against a route pattern and
// returns the segments captured by each "*".
func matchWildcardRoute(request, pattern []string) ([]string, bool) {
	var params []string
	last := len(pattern) - 1
	if last >= 0 && pattern[last] == "*" {
		// trailing wildcard needs at least one non-empty segment
		if len(request) <= last || request[last] == "" {
			return nil, false
		}
		for i := 0; i < last; i++ {
			if pattern[i] == "*" {
				if request[i] == "" {
					return nil, false
				}
				params = append(params, request[i])
			} else if request[i] != pattern[i] {
				return nil, false
			}
		}
		return append(params, strings.Join(request[last:], "/")), true
	}

	if len(request) != len(pattern) {
		return nil, false
	}
	for i, seg := range pattern {
		if seg == "*" {
			if request[i] == "" {
				return nil, false
			}
			params = append(params, request[i])
			continue
		}
		if request[i] != seg {
			return nil, false
		}
	}
	return params, true
}

// Params returns the wildcard captures of the matched route.
func Params(req *http.Request) []string {
	params, _ := req.Context().Value(paramsKey{}).([]string)
	return params
}

// Param returns the i-th wildcard capture or "".
func Param(req *http.Request, i int) string {
	params := Params(req)
	if i < 0 || i >= len(params) {
		return ""
	}
	return params[i]
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	r.paths[path] = true
	if !strings.Contains(path, "*") {
		r.exact[method+":"+path] = handler
		return
	}
	r.routes = append(r.routes, route{method: method, pattern: path, segments: split(path), handler: handler})
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// Routes lists the registered routes as METHOD:PATH, wildcard routes in
// matching order.
func (r *Router) Routes() []string {
	out := make([]string, 0, len(r.exact)+len(r.routes))
	for k := range r.exact {
		out = append(out, k)
	}
	for _, rt := range r.routes {
		out = append(out, rt.method+":"+rt.pattern)
	}
	return out
}

func (r *Router) Paths() map[string]bool {
	return r.paths
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// ServerConfig holds the HTTP server timeouts.
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// --- Start server ---

// Start serves until ctx is cancelled, then shuts down gracefully.
func (r *Router) Start(ctx context.Context, cfg ServerConfig) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("server started", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	r.logger.Info("shutting down server", zap.Duration("timeout", timeout))
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// --- Logging response writer to capture status codes ---
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}
