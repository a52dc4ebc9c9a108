// Package router resolves client view paths and decides, through the route guard, which view is shown.
package router

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
)

// Well-known view paths.
const (
	HomePath     = "/"
	LoginPath    = "/login"
	NotFoundName = "not-found"
)

// View is one page of the client.
type View struct {
	Name      string
	Pattern   string
	Protected bool
}

// Views is the client's view table.
var Views = []View{
	{Name: "home", Pattern: "/"},
	{Name: "about", Pattern: "/about"},
	{Name: "login", Pattern: "/login"},
	{Name: "register", Pattern: "/register"},
	{Name: "health", Pattern: "/health"},
	{Name: "users", Pattern: "/users", Protected: true},
	{Name: "user", Pattern: "/users/{id}", Protected: true},
	{Name: "companies", Pattern: "/companies", Protected: true},
	{Name: "company", Pattern: "/companies/{id}", Protected: true},
	{Name: "profile", Pattern: "/profile", Protected: true},
}

// Match is a resolved view with its path variables.
type Match struct {
	View View
	Path string
	Vars map[string]string
}

// Table matches paths against a view list.
type Table struct {
	mux   *mux.Router
	views map[string]View
}

// NewTable builds a Table from views. Routes are matched in order.
func NewTable(views []View) *Table {
	r := mux.NewRouter()
	byName := make(map[string]View, len(views))
	for _, v := range views {
		r.NewRoute().Path(v.Pattern).Name(v.Name)
		byName[v.Name] = v
	}
	return &Table{mux: r, views: byName}
}

// Resolve matches path, ignoring any query or fragment. Unknown paths resolve to the not-found view.
func (t *Table) Resolve(path string) Match {
	clean := normalize(path)
	req := &http.Request{Method: http.MethodGet, URL: &url.URL{Path: clean}}
	var rm mux.RouteMatch
	if !t.mux.Match(req, &rm) || rm.Route == nil {
		return Match{View: View{Name: NotFoundName, Pattern: clean}, Path: clean}
	}
	v := t.views[rm.Route.GetName()]
	return Match{View: v, Path: clean, Vars: rm.Vars}
}

func normalize(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" || path[0] != '/' {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
