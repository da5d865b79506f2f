package main

import (
	"sync"

	"github.com/gorilla/mux"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"github.com/jxeal/superdev-quiz/pkg/app"
	"github.com/jxeal/superdev-quiz/pkg/metrics"
	"github.com/jxeal/superdev-quiz/pkg/server/web"
)

type instructionApp struct {
	metrics *metrics.RequestMetrics
	server  *web.Server

	shutdown   sync.Once
	shutdownCh chan struct{}
}

// Init implements app.App.Init
func (a *instructionApp) Init(_ app.Config, _ *newrelic.Application) error {
	a.server = web.NewServer(web.WithEnvConfigs(), a.metrics)
	a.server.Start()
	return nil
}

// RegisterWithHTTP implements app.App.RegisterWithHTTP
func (a *instructionApp) RegisterWithHTTP(router *mux.Router) {
	a.server.RegisterWithHTTP(router)
}

// ShutdownChan implements app.App.ShutdownChan
func (a *instructionApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop
func (a *instructionApp) Stop() {
	a.shutdown.Do(func() {
		if a.server != nil {
			a.server.Stop()
		}
		close(a.shutdownCh)
	})
}

func main() {
	requestMetrics := metrics.NewRequestMetrics()

	a := &instructionApp{
		metrics:    requestMetrics,
		shutdownCh: make(chan struct{}),
	}

	if err := app.Run(a, app.WithMetricsHandler(requestMetrics.Handler())); err != nil {
		logrus.WithError(err).Fatal("error running instruction server")
	}
}
