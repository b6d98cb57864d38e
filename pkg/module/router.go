package module

import (
	"net/http"
	"strings"
)

// Router dispatches to mounted modules by first path segment and falls back
// to a native ServeMux for everything else (health probes and similar).
type Router struct {
	modules map[string]*Module
	native  *http.ServeMux
}

// NewRouter creates an empty Router.
func NewRouter() *Router {
	return &Router{
		modules: make(map[string]*Module),
		native:  http.NewServeMux(),
	}
}

// Mount registers a module under its prefix.
func (rt *Router) Mount(m *Module) {
	rt.modules[m.prefix] = m
}

// HandleNative registers a handler on the fallback mux using ServeMux patterns.
func (rt *Router) HandleNative(pattern string, handler http.HandlerFunc) {
	rt.native.HandleFunc(pattern, handler)
}

func (rt *Router) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
		r.URL.Path = path
		r.URL.RawPath = ""
	}

	if m, ok := rt.modules[firstSegment(path)]; ok {
		m.Serve(w, r)
		return
	}

	rt.native.ServeHTTP(w, r)
}

func firstSegment(path string) string {
	if path == "" || path == "/" {
		return ""
	}
	rest := path[1:]
	if i := strings.Index(rest, "/"); i >= 0 {
		return "/" + rest[:i]
	}
	return "/" + rest
}
