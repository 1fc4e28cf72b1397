package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/autopeer-io/carbridge/internal/bridge/control"
	"github.com/autopeer-io/carbridge/internal/bridge/fields"
	"github.com/autopeer-io/carbridge/internal/bridge/status"
	"github.com/autopeer-io/carbridge/internal/pkg/metrics"
	"github.com/autopeer-io/carbridge/pkg/log"
	"github.com/autopeer-io/carbridge/pkg/options"
)

// Connection reports the broker connection state. mqtt.Client satisfies it.
type Connection interface {
	IsConnected() bool
}

// ExportFunc generates the DiLauncher automations and returns where they
// were stored.
type ExportFunc func(ctx context.Context) (string, error)

// Deps are the bridge components served over HTTP.
type Deps struct {
	Fields     *fields.Store
	Status     *status.Resolver
	Actuators  *control.Panel
	Connection Connection
	Export     ExportFunc
}

type Server struct {
	server  *http.Server
	options *options.HttpOptions
	deps    Deps

	// jobCtx outlives the request that triggers a background job.
	jobCtx    context.Context
	jobs      sync.WaitGroup
	exporting atomic.Bool
}

func NewServer(opts *options.HttpOptions, deps Deps) *Server {
	s := &Server{
		options: opts,
		deps:    deps,
		jobCtx:  context.Background(),
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: opts.Timeout,
	}
	return s
}

// Handler returns the root handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(logRequests)

	timeout := func(h http.HandlerFunc) http.Handler {
		if s.options.Timeout <= 0 {
			return h
		}
		return http.TimeoutHandler(h, s.options.Timeout, "request timed out")
	}

	r.Handle("/healthz", timeout(s.handleHealthz)).Methods(http.MethodGet)
	r.Handle("/readyz", timeout(s.handleReadyz)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.Handle("/catalog", timeout(s.handleCatalog)).Methods(http.MethodGet)
	api.Handle("/fields", timeout(s.handleFields)).Methods(http.MethodGet)
	api.Handle("/fields/{key}", timeout(s.handleField)).Methods(http.MethodGet)
	api.Handle("/status", timeout(s.handleStatus)).Methods(http.MethodGet)
	api.Handle("/actuators", timeout(s.handleActuators)).Methods(http.MethodGet)
	api.Handle("/actuators/{name}", timeout(s.handleActuator)).Methods(http.MethodGet)
	api.Handle("/actuators/{name}", timeout(s.handleCommand)).Methods(http.MethodPost)
	api.Handle("/dilauncher", timeout(s.handleDiLauncher)).Methods(http.MethodPost)
	// Hijacked connections cannot go through http.TimeoutHandler.
	api.HandleFunc("/stream", s.handleStream).Methods(http.MethodGet)

	return r
}

func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen(s.options.Network, s.options.Addr)
	if err != nil {
		return err
	}
	log.Info("Starting HTTP Server", "addr", ln.Addr().String())

	jobCtx, cancelJobs := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelJobs()
	s.jobCtx = jobCtx
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.options.ShutdownTimeout)
		defer cancel()
		err := s.server.Shutdown(shutdownCtx)
		s.waitJobs(shutdownCtx)
		return err
	}
}

// waitJobs lets running exports finish until ctx expires.
func (s *Server) waitJobs(ctx context.Context) {
	done := make(chan struct{})
	go func() {
		s.jobs.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("Background jobs still running at shutdown")
	}
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Debug("Handled request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
