// Package module mounts independent HTTP surfaces under path prefixes, each
// with its own middleware stack.
package module

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/compliance-sentinel/sentinel/pkg/middleware"
)

// Module serves one mounted surface: requests arrive with the mount prefix
// stripped, pass through the module's middleware, and land on the inner
// router.
type Module struct {
	prefix     string
	router     http.Handler
	middleware middleware.System
}

// New creates a Module mounted at a single-level prefix such as "/api".
// An empty, unrooted, or multi-level prefix panics: mounts are wired at
// startup and a bad prefix is a programming error.
func New(prefix string, router http.Handler) *Module {
	if err := checkPrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{
		prefix:     prefix,
		router:     router,
		middleware: middleware.New(),
	}
}

// Handler returns the inner router wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	return m.middleware.Apply(m.router)
}

// Prefix returns the mount prefix.
func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware to the module's stack.
func (m *Module) Use(mw func(http.Handler) http.Handler) {
	m.middleware.Use(mw)
}

// Serve strips the mount prefix from the request path and dispatches to the
// wrapped router.
func (m *Module) Serve(w http.ResponseWriter, req *http.Request) {
	stripped := req.Clone(req.Context())
	stripped.URL.Path = innerPath(req.URL.Path, m.prefix)
	stripped.URL.RawPath = ""
	m.Handler().ServeHTTP(w, stripped)
}

func innerPath(full, prefix string) string {
	path := full[len(prefix):]
	if path == "" {
		return "/"
	}
	return path
}

func checkPrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case !strings.HasPrefix(prefix, "/"):
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case strings.Count(prefix, "/") != 1:
		return fmt.Errorf("module prefix must be a single-level path: %s", prefix)
	}
	return nil
}
