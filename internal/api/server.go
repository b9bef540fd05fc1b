// Package api exposes the shop over an authenticated JSON HTTP API.
package api

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goodtune/pesonet/internal/report"
	"github.com/goodtune/pesonet/internal/shop"
	"github.com/rs/zerolog"
)

// Config holds the API server configuration.
type Config struct {
	ListenAddr         string
	RateLimit          int
	RateLimitWindow    time.Duration
	DefaultRate        string
	RecentTransactions int
}

// Server represents the API HTTP server.
type Server struct {
	config   Config
	shop     *shop.Shop
	reports  *report.Engine
	router   chi.Router
	server   *http.Server
	listener net.Listener
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, s *shop.Shop, reports *report.Engine, logger zerolog.Logger) *Server {
	if cfg.RecentTransactions <= 0 {
		cfg.RecentTransactions = report.DefaultRecent
	}

	srv := &Server{
		config:  cfg,
		shop:    s,
		reports: reports,
		router:  chi.NewRouter(),
		logger:  logger.With().Str("component", "api").Logger(),
	}
	srv.setupRoutes()

	srv.server = &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return srv
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	r := s.router

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware(s.logger))
	if s.config.RateLimit > 0 && s.config.RateLimitWindow > 0 {
		r.Use(RateLimitMiddleware(s.config.RateLimit, s.config.RateLimitWindow))
	}

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Use(AuthMiddleware(s.shop))

		r.Route("/stations", func(r chi.Router) {
			r.Get("/", s.listStations)
			r.Get("/{id}", s.getStation)
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(shop.RoleAdmin))
				r.Post("/", s.createStation)
				r.Patch("/{id}", s.updateStation)
				r.Delete("/{id}", s.deleteStation)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", s.listProducts)
			r.Get("/{id}", s.getProduct)
			r.Group(func(r chi.Router) {
				r.Use(RequireRole(shop.RoleAdmin))
				r.Post("/", s.createProduct)
				r.Patch("/{id}", s.updateProduct)
				r.Delete("/{id}", s.deleteProduct)
			})
		})

		r.Get("/sessions", s.listSessions)
		r.Post("/sessions", s.startSession)
		r.Post("/sessions/{id}/stop", s.stopSession)

		r.Post("/sales", s.sell)

		r.Get("/transactions", s.listTransactions)
		r.Get("/reports/summary", s.summary)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "No such endpoint")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetListener sets a pre-created listener, used by tests to bind an
// ephemeral port.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server in the background.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting API server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()
	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
