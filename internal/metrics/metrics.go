package metrics

import (
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Session metrics
	SessionsStarted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pesonet_sessions_started_total",
			Help: "Total station sessions started",
		},
	)

	SessionsStopped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pesonet_sessions_stopped_total",
			Help: "Total station sessions stopped and billed",
		},
	)

	StationsOccupied = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "pesonet_stations_occupied",
			Help: "Number of stations with an active session",
		},
	)

	// Sales metrics
	SalesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pesonet_sales_units_total",
			Help: "Total product units sold",
		},
		[]string{"product"},
	)

	// Ledger metrics
	IncomeTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pesonet_income_total",
			Help: "Total income recorded since process start",
		},
		[]string{"kind"},
	)

	// Persistence metrics
	PersistErrors = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "pesonet_persist_errors_total",
			Help: "Failed state document writes",
		},
	)

	// HTTP metrics
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pesonet_http_requests_total",
			Help: "Total API requests processed",
		},
		[]string{"method", "status"},
	)
)

func init() {
	prometheus.MustRegister(
		SessionsStarted,
		SessionsStopped,
		StationsOccupied,
		SalesTotal,
		IncomeTotal,
		PersistErrors,
		RequestsTotal,
	)
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:    addr,
			Handler: mux,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener, such as one handed over by
// systemd socket activation.
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
