// Package server exposes address identification over HTTP.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/storage"
)

// RequestIDHeader carries the per-request ID on requests and responses.
const RequestIDHeader = "X-Request-ID"

// Error messages returned in {"error": ...} bodies.
const (
	MsgLookupNotConfigured = "Server configuration error: Google API Key missing"
	MsgRateLimited         = "Rate limit exceeded"
	MsgInvalidRequest      = "Invalid request"
)

const maxBodyBytes = 1 << 16

// Identifier resolves an address to an outcome.
type Identifier interface {
	Identify(ctx context.Context, address string) model.Outcome
}

// History stores and lists lookups.
type History interface {
	RecordLookup(ctx context.Context, requestID, address string, outcome model.Outcome) (int64, error)
	RecentLookups(ctx context.Context, filter storage.HistoryFilter) ([]storage.LookupRecord, error)
}

// Config holds listener and limiter settings.
type Config struct {
	Addr string
	// RateLimit is requests per second across all clients; zero disables limiting.
	RateLimit float64
	Burst     int
	// LookupConfigured is false when no place-lookup credentials exist and demo mode
	// is off; identify requests then fail with 500.
	LookupConfigured bool
	// TLS, when set, serves HTTPS.
	TLS *tls.Config
}

// Server is the HTTP front end to the resolver.
type Server struct {
	identifier Identifier
	history    History
	metrics    *Metrics
	limiter    *rate.Limiter
	logger     *slog.Logger
	router     *mux.Router
	httpServer *http.Server
	cfg        Config
}

// Options wires a Server. History and Metrics are optional.
type Options struct {
	Identifier Identifier
	History    History
	Metrics    *Metrics
	Logger     *slog.Logger
	Config     Config
}

// New builds the router and the underlying http.Server.
func New(opts Options) (*Server, error) {
	if opts.Identifier == nil {
		return nil, fmt.Errorf("%w: identifier", common.ErrMissingConfig)
	}

	cfg := opts.Config
	if cfg.Addr == "" {
		cfg.Addr = ":5001"
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NewMetrics()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s := &Server{
		identifier: opts.Identifier,
		history:    opts.History,
		metrics:    metrics,
		limiter:    limiter,
		logger:     common.OrDefault(opts.Logger),
		cfg:        cfg,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
		TLSConfig:         cfg.TLS,
	}

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/identify", s.handleIdentify).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.Use(s.rateLimit)

	// A method mismatch inside the subrouter otherwise surfaces as 404.
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("Method not allowed"))
	})
	s.router.MethodNotAllowedHandler = methodNotAllowed
	api.MethodNotAllowedHandler = methodNotAllowed

	s.router.Use(requestID)
	s.router.Use(s.requestLogging)
	s.router.Use(s.metrics.middleware)
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if s.httpServer.TLSConfig != nil {
			s.logger.Info("Starting server", "addr", s.httpServer.Addr, "tls", true)
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			s.logger.Info("Starting server", "addr", s.httpServer.Addr)
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
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

type identifyRequest struct {
	Address *string `json:"address"`
}

func (s *Server) handleIdentify(w http.ResponseWriter, r *http.Request) {
	var req identifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Address == nil || strings.TrimSpace(*req.Address) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody(engine.MsgAddressRequired))
		return
	}

	if !s.cfg.LookupConfigured {
		writeJSON(w, http.StatusInternalServerError, errorBody(MsgLookupNotConfigured))
		return
	}

	address := *req.Address
	outcome := s.identifier.Identify(r.Context(), address)

	if s.history != nil {
		if _, err := s.history.RecordLookup(r.Context(), w.Header().Get(RequestIDHeader), address, outcome); err != nil {
			s.logger.Warn("failed to record lookup", "error", err, "request_id", w.Header().Get(RequestIDHeader))
		}
	}

	if outcome.Failed() {
		writeJSON(w, http.StatusBadRequest, outcome)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusNotFound, errorBody("History is disabled"))
		return
	}

	filter := storage.HistoryFilter{
		Status: r.URL.Query().Get("status"),
		Code:   r.URL.Query().Get("code"),
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(MsgInvalidRequest+": limit"))
			return
		}
		filter.Limit = limit
	}

	records, err := s.history.RecentLookups(r.Context(), filter)
	switch {
	case errors.Is(err, storage.ErrInvalidLimit), errors.Is(err, storage.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("%s: %v", MsgInvalidRequest, err)))
		return
	case err != nil:
		s.logger.Error("failed to list history", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody("Failed to load history"))
		return
	}

	if records == nil {
		records = []storage.LookupRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"lookups": records})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":            "ok",
		"lookup_configured": s.cfg.LookupConfigured,
	})
}

func errorBody(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
