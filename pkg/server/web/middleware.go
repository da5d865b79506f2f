package web

import (
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/jxeal/superdev-quiz/pkg/app"
)

const rateLimitedMessage = "Rate limit exceeded"

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(recorder, r)

		log := s.log.WithFields(logrus.Fields{
			"method":      "loggingMiddleware",
			"request_id":  app.RequestIDFromContext(r.Context()),
			"http_method": r.Method,
			"path":        r.URL.Path,
			"route":       app.RouteName(r),
			"status":      recorder.statusCode,
			"duration":    time.Since(start),
		})
		if recorder.statusCode >= http.StatusInternalServerError {
			log.Warn("request failed")
		} else {
			log.Debug("request handled")
		}
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := s.log.WithFields(logrus.Fields{
			"method":     "rateLimitMiddleware",
			"request_id": app.RequestIDFromContext(r.Context()),
		})

		client := clientAddress(r)
		allowed, err := s.limiter.Allow(client)
		if err != nil {
			// Limiter faults fail open.
			log.WithError(err).Warn("failure checking rate limit")
		} else if !allowed {
			log.WithField("client", client).Debug("client rate limited")
			s.metrics.ObserveRequest(app.RouteName(r), "rate_limited", 0)
			writeFailure(s.log, w, http.StatusTooManyRequests, rateLimitedMessage)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func clientAddress(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
