package routes

import "net/http"

// Group collects the routes of one handler under a shared path prefix.
// Children are registered beneath the parent's prefix.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Register adds every route in the given groups, and their children, to mux.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, group := range groups {
		group.mount(mux, "")
	}
}

func (g Group) mount(mux *http.ServeMux, base string) {
	prefix := base + g.Prefix
	for _, route := range g.Routes {
		mux.HandleFunc(route.Method+" "+prefix+route.Pattern, route.Handler)
	}
	for _, child := range g.Children {
		child.mount(mux, prefix)
	}
}
