package app

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/jxeal/superdev-quiz/pkg/metrics"
)

const RequestIDHeader = "X-Request-Id"

type requestIDContextKey struct{}

// RequestIDFromContext returns the id assigned to the request being served, or
// an empty string outside of a request.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDContextKey{}).(string)
	return id
}

// RouteName is the path template of the matched route, falling back to the raw
// path when no route matched.
func RouteName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if template, err := route.GetPathTemplate(); err == nil {
			return template
		}
	}
	return r.URL.Path
}

// requestIDMiddleware assigns every request a fresh id. A client supplied
// X-Request-Id is kept if it's a valid UUID.
func requestIDMiddleware() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if _, err := uuid.Parse(id); err != nil {
				id = uuid.New().String()
			}

			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDContextKey{}, id)))
		})
	}
}

// newRelicMiddleware starts a web transaction per request named after its
// route, and makes the application available to metrics.RecordCount and
// friends.
func newRelicMiddleware(nr *newrelic.Application) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			txn := nr.StartTransaction(r.Method + " " + RouteName(r))
			defer txn.End()

			txn.SetWebRequestHTTP(r)
			txn.AddAttribute("request_id", RequestIDFromContext(r.Context()))
			w = txn.SetWebResponse(w)

			ctx := metrics.NewContextWithNewRelicApplication(r.Context(), nr)
			r = newrelic.RequestWithTransactionContext(r.WithContext(ctx), txn)

			next.ServeHTTP(w, r)
		})
	}
}

// recoveryMiddleware turns a panicking handler into a 500 rather than a
// dropped connection.
func recoveryMiddleware(log *logrus.Entry) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if recovered := recover(); recovered != nil {
					log.WithFields(logrus.Fields{
						"panic":      recovered,
						"route":      RouteName(r),
						"request_id": RequestIDFromContext(r.Context()),
					}).Error("recovered from panic while serving request")

					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
