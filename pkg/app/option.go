package app

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Option configures the environment run by Run().
type Option func(o *opts)

type opts struct {
	middleware   []mux.MiddlewareFunc
	debugHandles map[string]http.Handler
	metrics      http.Handler
}

// WithMiddleware configures the app's router to use the provided middleware.
//
// Middleware is evaluated in addition order, and configured middleware is
// executed after the app's default middleware.
func WithMiddleware(mw mux.MiddlewareFunc) Option {
	return func(o *opts) {
		o.middleware = append(o.middleware, mw)
	}
}

// WithMetricsHandler serves h at /metrics on the debug listener when
// enable_prometheus is set.
func WithMetricsHandler(h http.Handler) Option {
	return func(o *opts) {
		o.metrics = h
	}
}

// WithDebugHandler serves h at path on the debug listener.
func WithDebugHandler(path string, h http.Handler) Option {
	return func(o *opts) {
		if o.debugHandles == nil {
			o.debugHandles = make(map[string]http.Handler)
		}
		o.debugHandles[path] = h
	}
}
