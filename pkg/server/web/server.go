// Package web exposes the instruction API over HTTP with JSON request and
// response bodies.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	xrate "golang.org/x/time/rate"

	"github.com/jxeal/superdev-quiz/pkg/apierr"
	"github.com/jxeal/superdev-quiz/pkg/app"
	"github.com/jxeal/superdev-quiz/pkg/instruction"
	"github.com/jxeal/superdev-quiz/pkg/metrics"
	"github.com/jxeal/superdev-quiz/pkg/rate"
	"github.com/jxeal/superdev-quiz/pkg/server/api"
)

const (
	keypairPath           = "/keypair"
	createTokenPath       = "/token/create"
	mintTokenPath         = "/token/mint"
	associatedAccountPath = "/token/associated-account"
	signMessagePath       = "/message/sign"
	verifyMessagePath     = "/message/verify"
	sendSolPath           = "/send/sol"
	sendTokenPath         = "/send/token"
	healthPath            = "/healthz"

	contentTypeHeaderName      = "Content-Type"
	jsonContentTypeHeaderValue = "application/json"

	limiterPruneSchedule = "@every 1m"
	limiterIdleTimeout   = 10 * time.Minute
)

type Server struct {
	log     *logrus.Entry
	conf    *conf
	api     *api.Server
	metrics *metrics.RequestMetrics

	limiter   rate.Limiter
	buckets   *rate.LocalRateLimiter
	pruneCron *cron.Cron
}

// NewServer returns a server whose rate limiting is fixed from config at
// construction. The body size limit is re-read on every request.
func NewServer(configProvider ConfigProvider, requestMetrics *metrics.RequestMetrics) *Server {
	conf := configProvider()
	ctx := context.Background()

	s := &Server{
		log:       logrus.StandardLogger().WithField("type", "web/server"),
		conf:      conf,
		api:       api.NewServer(),
		metrics:   requestMetrics,
		limiter:   &rate.NoLimiter{},
		pruneCron: cron.New(),
	}

	if conf.disableRateLimit.Get(ctx) {
		s.log.Info("rate limiting disabled")
		return s
	}

	s.buckets = rate.NewLocalRateLimiter(
		xrate.Limit(conf.rateLimitPerSecond.Get(ctx)),
		int(conf.rateLimitBurst.Get(ctx)),
	)
	s.limiter = s.buckets

	_, err := s.pruneCron.AddFunc(limiterPruneSchedule, func() {
		if pruned := s.buckets.Prune(limiterIdleTimeout); pruned > 0 {
			s.log.WithField("pruned", pruned).Debug("pruned idle rate limiters")
		}
	})
	if err != nil {
		// The schedule is a constant, so this only fires on a programming error.
		panic(errors.Wrap(err, "invalid limiter prune schedule"))
	}

	return s
}

// Start begins background maintenance. Stop undoes it.
func (s *Server) Start() {
	s.pruneCron.Start()
}

func (s *Server) Stop() {
	<-s.pruneCron.Stop().Done()
}

// RegisterWithHTTP installs every route and the service middleware on router.
func (s *Server) RegisterWithHTTP(router *mux.Router) {
	router.Use(s.loggingMiddleware, s.rateLimitMiddleware)

	router.HandleFunc(keypairPath, s.keypairHandler(keypairPath)).Methods(http.MethodPost)
	router.HandleFunc(createTokenPath, handle(s, createTokenPath, s.api.CreateToken)).Methods(http.MethodPost)
	router.HandleFunc(mintTokenPath, handle(s, mintTokenPath, s.api.MintToken)).Methods(http.MethodPost)
	router.HandleFunc(associatedAccountPath, handle(s, associatedAccountPath, s.api.DeriveAssociatedAccount)).Methods(http.MethodPost)
	router.HandleFunc(signMessagePath, handle(s, signMessagePath, s.api.SignMessage)).Methods(http.MethodPost)
	router.HandleFunc(verifyMessagePath, handle(s, verifyMessagePath, s.api.VerifyMessage)).Methods(http.MethodPost)
	router.HandleFunc(sendSolPath, handle(s, sendSolPath, s.api.SendSol)).Methods(http.MethodPost)
	router.HandleFunc(sendTokenPath, handle(s, sendTokenPath, s.api.SendToken)).Methods(http.MethodPost)
	router.HandleFunc(healthPath, s.healthHandler).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(s.log, w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeFailure(s.log, w, http.StatusNotFound, "Not found")
	})
}

func (s *Server) keypairHandler(route string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		result := s.api.GenerateKeypair(r.Context())
		s.respond(w, r, route, start, result.Err(), result)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(s.log, w, http.StatusOK, map[string]string{"status": "ok"})
}

// handle decodes the JSON body into Req, runs op and writes its result.
func handle[Req any, Resp any](s *Server, route string, op func(context.Context, *Req) instruction.ApiResult[Resp]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		var req Req
		if statusCode, err := s.decodeBody(w, r, &req); err != nil {
			s.metrics.ObserveRequest(route, "invalid_body", time.Since(start))
			writeFailure(s.log, w, statusCode, err.Error())
			return
		}

		result := op(r.Context(), &req)
		s.respond(w, r, route, start, result.Err(), result)
	}
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, route string, start time.Time, err error, body any) {
	statusCode := http.StatusOK
	outcome := "success"
	if err != nil {
		statusCode = apierr.HTTPStatus(err)
		outcome = apierr.KindOf(err).String()
	}

	s.metrics.ObserveRequest(route, outcome, time.Since(start))
	writeJSON(s.log.WithField("request_id", app.RequestIDFromContext(r.Context())), w, statusCode, body)
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) (int, error) {
	limit := s.conf.maxRequestBodyBytes.Get(r.Context())
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))

	if err := decoder.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return http.StatusRequestEntityTooLarge, errors.New("Request body too large")
		}
		return http.StatusBadRequest, errors.New("Invalid request body")
	}
	if decoder.More() {
		return http.StatusBadRequest, errors.New("Invalid request body")
	}

	return http.StatusOK, nil
}
