// package server contains middleware & handlers for the library sync web service
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an HTTP handler that knows the path patterns it serves.
type Handler interface {
	http.Handler
	Routes() []string // Routes returns the path patterns this handler serves
}

// Router registers handlers and middleware over an [http.ServeMux].
type Router struct {
	mux         *http.ServeMux
	middlewares []Middleware
}

// NewRouter creates an empty [Router].
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Use adds middleware to the stack, applied in the order added.
func (r *Router) Use(middleware ...Middleware) {
	r.middlewares = append(r.middlewares, middleware...)
}

// Handle registers a handler for the specified method and path.
func (r *Router) Handle(method, path string, handler http.Handler) {
	wrapped := r.apply(handler)

	r.mux.Handle(path, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if !strings.EqualFold(req.Method, method) {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wrapped.ServeHTTP(w, req)
	}))
}

// Handler registers every route a [Handler] serves.
func (r *Router) Handler(handler Handler) {
	wrapped := r.apply(handler)
	for _, route := range handler.Routes() {
		r.mux.Handle(route, wrapped)
	}
}

// ServeHTTP implements [http.Handler] for the entire router.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// apply wraps a handler with the middleware stack in reverse order (last
// added wraps first).
func (r *Router) apply(handler http.Handler) http.Handler {
	wrapped := handler
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		wrapped = r.middlewares[i](wrapped)
	}
	return wrapped
}

// RequestLogger logs method, path, and duration of every request.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.Debug("request", "method", req.Method, "path", req.URL.Path, "duration", time.Since(start))
		})
	}
}

// writeJSON encodes a JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError encodes the conventional {"success": false, "error": ...} body.
func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, map[string]any{
		"success": false,
		"error":   fmt.Sprintf(format, args...),
	})
}
