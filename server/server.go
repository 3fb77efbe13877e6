// Package server provides the HTTP server for clubsignup.
//
// The server exposes the activity catalog and its roster operations as a small
// JSON API, together with the embedded static front-end.
//
// # Endpoints
//
//   - GET / - Redirects to the web UI
//   - GET /static/ - Web UI assets
//   - GET /activities - All activities keyed by name, in catalog order
//   - POST /activities/{activity}/signup?email= - Sign a student up
//   - DELETE /activities/{activity}/participants?email= - Remove a participant
//   - GET /history - Applied roster changes, newest first
//   - GET /config - Returns current configuration as YAML
//   - GET /api/status - Server properties and roster totals
//   - GET /health - Simple health check, returns "ok"
//   - GET /metrics - Prometheus scrape endpoint
//
// # Example
//
//	srv, err := server.New(config.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/nomis52/clubsignup/catalog"
	"github.com/nomis52/clubsignup/journal"
	"github.com/nomis52/clubsignup/logging"
	"github.com/nomis52/clubsignup/metrics"
	"github.com/nomis52/clubsignup/server/config"
	"github.com/nomis52/clubsignup/server/cron"
	"github.com/nomis52/clubsignup/server/handlers"
	"github.com/nomis52/clubsignup/server/types"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// Server is the HTTP server for the clubsignup API and web interface.
type Server struct {
	cfg        *config.ServerConfig
	logger     *logging.Logger
	properties types.ServerProperties
	seed       []catalog.Activity

	registry    *catalog.Registry
	journal     *journal.MemoryJournal
	scrape      *metrics.ScrapeRegistry
	cronTrigger *cron.CronTrigger
	certLoader  *CertLoader

	handler    http.Handler
	httpServer *http.Server
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger replaces the logger built from the logging config.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger must not be nil")
		}
		s.logger = logger
		return nil
	}
}

// WithSeed sets the initial catalog, taking precedence over catalog.seed_file.
func WithSeed(seed []catalog.Activity) Option {
	return func(s *Server) error {
		s.seed = seed
		return nil
	}
}

// New creates a new Server from cfg. A nil cfg uses config.Default().
func New(cfg *config.ServerConfig, opts ...Option) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:        cfg,
		properties: types.NewServerProperties(time.Now()),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.logger == nil {
		logger, err := logging.New(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("creating logger: %w", err)
		}
		s.logger = logger
	}

	if err := s.buildRoster(); err != nil {
		return nil, err
	}

	if cfg.PushEnabled() {
		if err := s.buildPush(); err != nil {
			return nil, err
		}
	}

	if cfg.TLSEnabled() {
		loader, err := NewCertLoader(cfg.Listener.TLSCert, cfg.Listener.TLSKey, s.logger.Logger)
		if err != nil {
			return nil, fmt.Errorf("loading tls certificate: %w", err)
		}
		s.certLoader = loader
	}

	mux := http.NewServeMux()
	if err := s.registerRoutes(mux); err != nil {
		return nil, err
	}
	s.handler = s.logRequests(mux)

	return s, nil
}

// buildRoster creates the registry and the observers that follow it.
func (s *Server) buildRoster() error {
	seed := s.seed
	switch {
	case seed != nil:
	case s.cfg.Catalog.SeedFile != "":
		loaded, err := catalog.LoadSeedFile(s.cfg.Catalog.SeedFile)
		if err != nil {
			return err
		}
		seed = loaded
	default:
		seed = catalog.DefaultSeed()
	}

	policy, err := catalog.ParsePolicy(s.cfg.Catalog.EnrollmentPolicy)
	if err != nil {
		return err
	}

	scrape, err := metrics.NewScrapeRegistry(s.cfg.Monitoring.MetricsPrefix)
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}
	enrollment, err := metrics.NewEnrollmentMetrics(scrape)
	if err != nil {
		return fmt.Errorf("registering enrollment metrics: %w", err)
	}

	j := journal.NewMemoryJournal(s.cfg.History.Limit())

	registry, err := catalog.New(seed,
		catalog.WithPolicy(policy),
		catalog.WithObserver(j),
		catalog.WithObserver(enrollment),
	)
	if err != nil {
		return fmt.Errorf("building catalog: %w", err)
	}
	enrollment.Sync(registry.List())

	s.registry = registry
	s.journal = j
	s.scrape = scrape

	s.logger.Info("catalog loaded",
		"activities", len(seed),
		"policy", policy.String(),
		"seed_file", s.cfg.Catalog.SeedFile,
	)
	return nil
}

// buildPush schedules roster snapshots to the remote write endpoint.
func (s *Server) buildPush() error {
	mon := s.cfg.Monitoring
	push := metrics.NewPushRegistry(metrics.PushConfig{
		URL:      mon.PushURL,
		Prefix:   mon.MetricsPrefix,
		Job:      mon.JobName,
		Instance: s.properties.Hostname,
	})

	reporter, err := metrics.NewRosterReporter(push, s.registry)
	if err != nil {
		return fmt.Errorf("creating roster reporter: %w", err)
	}

	trigger, err := cron.NewCronTrigger(mon.PushSchedule, reporter.Report, s.logger.Logger)
	if err != nil {
		return fmt.Errorf("creating cron trigger: %w", err)
	}
	s.cronTrigger = trigger
	return nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger.Logger
}

// Close releases the log output.
func (s *Server) Close() error {
	return s.logger.Close()
}

// Handler returns the root handler, including request logging.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Config returns the effective configuration.
func (s *Server) Config() *config.ServerConfig {
	return s.cfg
}

// Properties returns the build and runtime properties of this instance.
func (s *Server) Properties() types.ServerProperties {
	return s.properties
}

// Policy returns the enrollment policy in force.
func (s *Server) Policy() catalog.EnrollmentPolicy {
	return s.registry.Policy()
}

// List returns a snapshot of every activity in catalog order.
func (s *Server) List() []catalog.Activity {
	return s.registry.List()
}

// NextPush returns the next scheduled metrics push, or nil if pushing is disabled.
func (s *Server) NextPush() *time.Time {
	if s.cronTrigger == nil {
		return nil
	}
	next := s.cronTrigger.NextRun()
	return &next
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If metrics pushing is configured, the push schedule is started as well.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listener.Addr,
		Handler:      s.handler,
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certLoader != nil {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: s.certLoader.GetCertificate,
		}
	}

	if s.cronTrigger != nil {
		s.logger.Info("starting metrics push schedule",
			"schedule", s.cronTrigger.Spec(),
			"next_run", s.cronTrigger.NextRun(),
		)
		s.cronTrigger.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.cfg.Listener.Addr,
			"tls", s.certLoader != nil,
			"version", s.properties.Build.Version,
		)
		var err error
		if s.certLoader != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) error {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return fmt.Errorf("creating static file system: %w", err)
	}

	logger := s.logger.Logger

	// Roster API
	mux.Handle("GET /activities", handlers.NewActivitiesHandler(s.registry))
	mux.Handle("POST /activities/{activity}/signup", handlers.NewSignupHandler(logger, s.registry))
	mux.Handle("DELETE /activities/{activity}/participants", handlers.NewRemoveParticipantHandler(logger, s.registry))

	// Operational endpoints
	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /api/status", handlers.NewStatusHandler(s))
	mux.Handle("GET /config", handlers.NewConfigHandler(s))
	mux.Handle("GET /history", handlers.NewHistoryHandler(s.journal))
	mux.Handle("GET /metrics", s.scrape.Handler())

	// Web UI
	mux.HandleFunc("GET /{$}", handlers.HandleRoot)
	mux.Handle("GET /static/{file...}", staticHandler(staticFS))

	return nil
}
