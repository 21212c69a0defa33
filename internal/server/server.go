/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server assembles the guide's services behind one HTTP process.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/friendsincode/mimir_guide/internal/api"
	"github.com/friendsincode/mimir_guide/internal/cache"
	"github.com/friendsincode/mimir_guide/internal/config"
	"github.com/friendsincode/mimir_guide/internal/db"
	"github.com/friendsincode/mimir_guide/internal/eventbus"
	"github.com/friendsincode/mimir_guide/internal/guide"
	"github.com/friendsincode/mimir_guide/internal/integrity"
	"github.com/friendsincode/mimir_guide/internal/loader"
	"github.com/friendsincode/mimir_guide/internal/schedule"
	"github.com/friendsincode/mimir_guide/internal/telemetry"
)

// Server bundles the HTTP API and supporting services.
type Server struct {
	cfg           *config.Config
	logger        zerolog.Logger
	router        chi.Router
	httpServer    *http.Server
	metricsServer *http.Server
	closers       []func() error

	db           *gorm.DB
	bus          *eventbus.NATSBus
	cache        *cache.Cache
	guideSvc     *guide.Service
	integritySvc *integrity.Service
	api          *api.API
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.TracingMiddleware("mimir-guide-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}
	srv.configureRoutes()

	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           srv.router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", telemetry.Handler())
	srv.metricsServer = &http.Server{
		Addr:              cfg.MetricsBind,
		Handler:           metricsMux,
		ReadHeaderTimeout: 15 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	bus, err := eventbus.NewNATSBus(s.cfg.NATSURL, s.cfg.InstanceID, s.logger)
	if err != nil {
		return fmt.Errorf("connect event bus: %w", err)
	}
	s.bus = bus
	s.DeferClose(bus.Close)

	s.cache = cache.New(cache.Config{
		RedisAddr:     s.cfg.RedisAddr,
		RedisPassword: s.cfg.RedisPassword,
		RedisDB:       s.cfg.RedisDB,
	}, s.logger)
	s.DeferClose(s.cache.Close)

	s.guideSvc = guide.NewService(database, bus, s.cache, s.logger)
	s.integritySvc = integrity.NewService(database, bus, s.logger)

	exportSvc := schedule.NewExportService(database, s.logger)
	loaderSvc := loader.NewService(s.guideSvc, s.logger)
	s.api = api.New(database, s.guideSvc, s.integritySvc, exportSvc, loaderSvc, s.logger)
	return nil
}

func (s *Server) configureRoutes() {
	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	s.api.Routes(s.router)
}

// HTTPServer returns the configured API server; the caller owns listening
// and shutdown.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// MetricsServer returns the Prometheus scrape endpoint server.
func (s *Server) MetricsServer() *http.Server {
	return s.metricsServer
}

// DB exposes the database handle for subcommands sharing server wiring.
func (s *Server) DB() *gorm.DB {
	return s.db
}

// Guide returns the lineup write path.
func (s *Server) Guide() *guide.Service {
	return s.guideSvc
}

// Integrity returns the scan service.
func (s *Server) Integrity() *integrity.Service {
	return s.integritySvc
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
