// Package observability provides Prometheus metrics functionality for monitoring the AudioFeed application.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/tphakala/audiofeed/internal/buildinfo"
	"github.com/tphakala/audiofeed/internal/conf"
	metricspkg "github.com/tphakala/audiofeed/internal/observability/metrics"
)

// Endpoint handles all operations related to Prometheus-compatible telemetry.
type Endpoint struct {
	server        *http.Server
	listenAddress string
	debug         bool
	metrics       *Metrics
	build         buildinfo.BuildInfo
}

// NewEndpoint creates a new instance of metrics Endpoint.
//
// It initializes the Endpoint with the provided settings, metrics, and build
// metadata. If the metrics endpoint is not enabled in the settings, it returns
// an error.
//
// Parameters:
//   - settings: A pointer to the application settings.
//   - metrics: A pointer to the Metrics instance containing all collectors.
//   - build: Build metadata served on the /version route, may be nil.
//
// Returns:
//   - A pointer to the new Endpoint instance and nil error on success.
//   - nil and an error if the metrics endpoint is not enabled in the settings.
//
// The function does not create new metrics but uses the provided Metrics instance.
// Ensure that the Metrics instance is properly initialized before calling this function.
func NewEndpoint(settings *conf.Settings, metrics *Metrics, build buildinfo.BuildInfo) (*Endpoint, error) {
	if !settings.Metrics.Enabled {
		return nil, fmt.Errorf("metrics endpoint not enabled in settings")
	}

	return &Endpoint{
		listenAddress: settings.Metrics.Listen,
		debug:         settings.Metrics.Debug,
		metrics:       metrics,
		build:         build,
	}, nil
}

// Start initializes and runs the HTTP server for the metrics endpoint.
//
// It sets up the necessary routes, starts the server in a separate goroutine,
// and listens for a quit signal to shut down gracefully.
//
// Parameters:
//   - wg: A pointer to a WaitGroup for coordinating goroutine completion.
//   - quitChan: A channel for receiving the quit signal.
func (e *Endpoint) Start(wg *sync.WaitGroup, quitChan <-chan struct{}) {
	mux := http.NewServeMux()
	e.metrics.RegisterHandlers(mux)
	mux.HandleFunc("/version", e.versionHandler)
	if e.debug {
		RegisterDebugHandlers(mux)
	}

	e.server = &http.Server{
		Addr:    e.listenAddress,
		Handler: mux,
	}

	wg.Go(func() {
		log.Info("Metrics endpoint starting", "address", e.listenAddress)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Metrics HTTP server error", "error", err)
		}
	})

	go e.gracefulShutdown(quitChan)
}

// versionHandler reports build metadata as JSON on the /version route.
func (e *Endpoint) versionHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	resp := struct {
		Version   string `json:"version"`
		BuildDate string `json:"build_date"`
	}{
		Version:   buildinfo.UnknownValue,
		BuildDate: buildinfo.UnknownValue,
	}
	if e.build != nil {
		resp.Version = e.build.Version()
		resp.BuildDate = e.build.BuildDate()
	}
	if err := json.NewEncoder(w).Encode(&resp); err != nil {
		log.Error("Failed to encode version response", "error", err)
	}
}

// gracefulShutdown waits for the quit signal and shuts down the server gracefully.
func (e *Endpoint) gracefulShutdown(quitChan <-chan struct{}) {
	<-quitChan
	log.Info("Stopping metrics server")
	ctx, cancel := context.WithTimeout(context.Background(), metricspkg.ShutdownTimeout)
	defer cancel()
	if err := e.server.Shutdown(ctx); err != nil {
		log.Error("Metrics server shutdown error", "error", err)
	}
}

// GetMetrics returns the Metrics instance associated with this Endpoint.
//
// Returns:
//   - A pointer to the Metrics instance.
func (e *Endpoint) GetMetrics() *Metrics {
	return e.metrics
}
