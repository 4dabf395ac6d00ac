// Package server exposes the engine over HTTP: signal generation,
// trade lifecycle, portfolio views, and a websocket price stream.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"alphamind/internal/config"
	apperrors "alphamind/internal/errors"
	"alphamind/internal/signal"
	"alphamind/internal/trading"
)

// Server wires the HTTP routes to the engine components.
type Server struct {
	cfg       *config.Config
	signals   *signal.Service
	ledger    *trading.Ledger
	portfolio *trading.Portfolio
	hub       *Hub
	logger    zerolog.Logger

	router *mux.Router
	http   *http.Server
}

// New creates a server over the given components.
func New(cfg *config.Config, signals *signal.Service, ledger *trading.Ledger, portfolio *trading.Portfolio, hub *Hub, logger zerolog.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		signals:   signals,
		ledger:    ledger,
		portfolio: portfolio,
		hub:       hub,
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.routes()
	s.http = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/signals/generate", s.handleGenerateSignals).Methods(http.MethodPost)
	api.HandleFunc("/trades", s.handleOpenTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades", s.handleListTrades).Methods(http.MethodGet)
	api.HandleFunc("/trades/{id}/close", s.handleCloseTrade).Methods(http.MethodPost)
	api.HandleFunc("/trades/{id}/close-at-market", s.handleCloseAtMarket).Methods(http.MethodPost)
	api.HandleFunc("/portfolio", s.handlePortfolio).Methods(http.MethodGet)
	api.HandleFunc("/portfolio/equity", s.handleEquity).Methods(http.MethodGet)
	api.HandleFunc("/portfolio/strategies", s.handleStrategies).Methods(http.MethodGet)
	api.HandleFunc("/modes", s.handleModes).Methods(http.MethodGet)
	api.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/prices", s.handlePriceStream)
}

// Run starts the hub and serves until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.hub.Start(ctx)
	defer s.hub.Stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("http server listening")
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, apperrors.ErrTradeNotFound):
		status = http.StatusNotFound
	case errors.Is(err, apperrors.ErrTradeAlreadyClosed):
		status = http.StatusConflict
	case errors.Is(err, apperrors.ErrNoValidSetup),
		errors.Is(err, apperrors.ErrInsufficientData):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrPriceUnavailable):
		status = http.StatusServiceUnavailable
	default:
		var ve *apperrors.ValidationError
		if errors.As(err, &ve) {
			status = http.StatusBadRequest
		}
	}
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}
