// Package router is a small method-aware HTTP router with wildcard path
// segments and structured per-request logging.
package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type HandlerFunc func(http.ResponseWriter, *http.Request)

type Router struct {
	mux    *http.ServeMux
	routes map[string]HandlerFunc // key = METHOD:PATH
	paths  map[string]bool        // track registered paths
}

func New() *Router {
	r := &Router{
		mux:    http.NewServeMux(),
		routes: make(map[string]HandlerFunc),
		paths:  make(map[string]bool),
	}

	// Catch-all handler dispatches exact routes first, then wildcards
	r.mux.HandleFunc("/", func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		key := req.Method + ":" + req.URL.Path
		if h, ok := r.routes[key]; ok {
			h(lrw, req)
		} else {
			// Several wildcard routes can match one path; the one with the
			// most literal segments wins, so /a/*/errors beats /a/*.
			var best HandlerFunc
			bestScore := -1
			for routePath := range r.paths {
				if !strings.Contains(routePath, "/*") || !matchWildcardRoute(req.URL.Path, routePath) {
					continue
				}
				h, ok := r.routes[req.Method+":"+routePath]
				if !ok {
					continue
				}
				if score := literalSegments(routePath); score > bestScore {
					best, bestScore = h, score
				}
			}

			if best != nil {
				best(lrw, req)
			} else if r.paths[req.URL.Path] {
				// Path exists but method not allowed
				http.Error(lrw, "Method Not Allowed", http.StatusMethodNotAllowed)
			} else {
				http.Error(lrw, "Not Found", http.StatusNotFound)
			}
		}

		log.Info().
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Int("status", lrw.statusCode).
			Dur("duration", time.Since(start)).
			Msg("request")
	})

	return r
}

// literalSegments counts the non-wildcard segments of a route pattern.
func literalSegments(routePattern string) int {
	n := 0
	for _, seg := range strings.Split(strings.Trim(routePattern, "/"), "/") {
		if seg != "*" {
			n++
		}
	}
	return n
}

// matchWildcardRoute checks if a request path matches a wildcard route pattern
func matchWildcardRoute(requestPath, routePattern string) bool {
	requestSegments := strings.Split(strings.Trim(requestPath, "/"), "/")
	routeSegments := strings.Split(strings.Trim(routePattern, "/"), "/")

	// A trailing wildcard matches any number of remaining segments
	if len(routeSegments) > 0 && routeSegments[len(routeSegments)-1] == "*" {
		if len(requestSegments) < len(routeSegments)-1 {
			return false
		}
		for i := 0; i < len(routeSegments)-1; i++ {
			if requestSegments[i] != routeSegments[i] {
				return false
			}
		}
		return true
	}

	if len(requestSegments) != len(routeSegments) {
		return false
	}
	for i, routeSegment := range routeSegments {
		if routeSegment == "*" {
			continue
		}
		if requestSegments[i] != routeSegment {
			return false
		}
	}
	return true
}

// --- Register paths ---
func (r *Router) register(method, path string, handler HandlerFunc) {
	key := method + ":" + path
	r.routes[key] = handler
	r.paths[path] = true
}

func (r *Router) GET(path string, handler HandlerFunc)   { r.register(http.MethodGet, path, handler) }
func (r *Router) POST(path string, handler HandlerFunc)  { r.register(http.MethodPost, path, handler) }
func (r *Router) PUT(path string, handler HandlerFunc)   { r.register(http.MethodPut, path, handler) }
func (r *Router) PATCH(path string, handler HandlerFunc) { r.register(http.MethodPatch, path, handler) }
func (r *Router) DELETE(path string, handler HandlerFunc) {
	r.register(http.MethodDelete, path, handler)
}

// ServeHTTP makes the router mountable and testable as an http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Getter methods for testing
func (r *Router) Routes() map[string]HandlerFunc {
	return r.routes
}

func (r *Router) Paths() map[string]bool {
	return r.paths
}

// Start runs the server and blocks until the listener fails.
func (r *Router) Start(addr string) {
	log.Info().Str("addr", addr).Msg("server started")
	if err := http.ListenAndServe(addr, r.mux); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
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
