// Package routes declares HTTP routes as data and registers them on a ServeMux.
package routes

import "net/http"

// Route binds a method and pattern to a handler. Pattern is relative to the
// enclosing Group prefix and may use ServeMux wildcards such as {id}.
type Route struct {
	Method  string
	Pattern string
	Handler http.HandlerFunc
}
