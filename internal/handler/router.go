package handler

import (
	"net/http"
	"strings"
)

// APIPrefix is the alternate mount point for every API route.
const APIPrefix = "/api"

// Router wraps http.ServeMux so that every route answers at both /<path>
// and /api/<path>, and so that unmatched requests get JSON 404 and 405
// bodies instead of the mux's plain text.
type Router struct {
	mux *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{mux: http.NewServeMux()}
}

// Handle registers h for pattern ("METHOD /path") under both prefixes.
func (rt *Router) Handle(pattern string, h http.Handler) {
	rt.mux.Handle(pattern, h)
	if p, ok := prefixed(pattern); ok {
		rt.mux.Handle(p, h)
	}
}

// HandleFunc registers f for pattern under both prefixes.
func (rt *Router) HandleFunc(pattern string, f http.HandlerFunc) {
	rt.Handle(pattern, f)
}

// Mount registers h for pattern only, without the /api alias. Used for
// infrastructure endpoints such as /metrics and /files/.
func (rt *Router) Mount(pattern string, h http.Handler) {
	rt.mux.Handle(pattern, h)
}

// ServeHTTP dispatches to the matching route. When nothing matches, the
// mux's own 404/405 handler runs behind a writer that replaces its body
// with the JSON error shape.
func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h, pattern := rt.mux.Handler(r)
	if pattern != "" {
		// Serve through the mux so that r.PathValue is populated.
		rt.mux.ServeHTTP(w, r)
		return
	}
	h.ServeHTTP(&jsonStatusWriter{ResponseWriter: w}, r)
}

// prefixed returns pattern with /api inserted in front of its path.
// Patterns for the root path are not aliased.
func prefixed(pattern string) (string, bool) {
	method, path, found := strings.Cut(pattern, " ")
	if !found {
		path, method = method, ""
	}
	if path == "/{$}" || path == "/" || strings.HasPrefix(path, APIPrefix+"/") {
		return "", false
	}
	path = APIPrefix + path
	if method == "" {
		return path, true
	}
	return method + " " + path, true
}

// jsonStatusWriter rewrites the mux's plain-text 404 and 405 responses.
type jsonStatusWriter struct {
	http.ResponseWriter
	wroteHeader bool
	passthrough bool
}

func (w *jsonStatusWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true

	switch status {
	case http.StatusNotFound:
		NotFoundResponse(w.ResponseWriter)
	case http.StatusMethodNotAllowed:
		MethodNotAllowedResponse(w.ResponseWriter)
	default:
		w.passthrough = true
		w.ResponseWriter.WriteHeader(status)
	}
}

func (w *jsonStatusWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	if w.passthrough {
		return w.ResponseWriter.Write(b)
	}
	return len(b), nil
}
