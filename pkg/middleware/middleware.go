// Package middleware provides composable net/http middleware: CORS, request
// logging, and trailing-slash canonicalization.
package middleware

import "net/http"

// System accumulates middleware and applies it to a handler.
type System interface {
	Use(mw func(http.Handler) http.Handler)
	Apply(handler http.Handler) http.Handler
}

type chain struct {
	middlewares []func(http.Handler) http.Handler
}

// New creates an empty middleware chain.
func New() System {
	return &chain{}
}

func (c *chain) Use(mw func(http.Handler) http.Handler) {
	c.middlewares = append(c.middlewares, mw)
}

// Apply wraps handler so the first registered middleware runs outermost.
func (c *chain) Apply(handler http.Handler) http.Handler {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}
	return handler
}
