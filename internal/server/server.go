package server

import (
	"net/http"
)

// Middleware decorates a handler. See [Logging] and [Recover].
type Middleware func(http.Handler) http.Handler

// Handler is an [http.Handler] that knows the mux patterns it answers on.
type Handler interface {
	http.Handler
	Routes() []string
}

// Router registers handlers behind a shared middleware stack.
type Router interface {
	Use(middleware ...Middleware)
	Handle(method, path string, handler http.Handler)
	Handler(handler Handler)
	ServeHTTP(w http.ResponseWriter, r *http.Request)
}

var _ Router = (*BasicRouter)(nil)
