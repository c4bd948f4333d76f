package module

import (
	"net/http"
	"strings"
)

// Router routes requests to mounted modules by their first path segment and
// falls back to a plain ServeMux for everything else.
type Router struct {
	mounts   map[string]*Module
	fallback *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		mounts:   make(map[string]*Module),
		fallback: http.NewServeMux(),
	}
}

// HandleNative registers a handler on the fallback mux.
func (r *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	r.fallback.HandleFunc(pattern, handler)
}

// Mount attaches a module at its prefix.
func (r *Router) Mount(m *Module) {
	r.mounts[m.prefix] = m
}

// ServeHTTP dispatches to the module owning the request's first path
// segment, or to the fallback mux when none matches.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	path := trimTrailingSlash(req)

	if m, ok := r.mounts[firstSegment(path)]; ok {
		m.Serve(w, req)
		return
	}

	r.fallback.ServeHTTP(w, req)
}

func firstSegment(path string) string {
	rest := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return "/" + rest
}

func trimTrailingSlash(req *http.Request) string {
	path := req.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
		req.URL.Path = path
	}
	return path
}
