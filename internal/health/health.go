package health

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dvloznov/finance-bot/internal/logger"
	"github.com/rs/zerolog"
)

const pingTimeout = 3 * time.Second

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler serves GET /health. It answers 200 when store answers a ping and
// 503 otherwise.
func Handler(store Pinger, log zerolog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeJSON(w, http.StatusMethodNotAllowed, statusBody{Status: "error", Error: "method not allowed"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			reqLog := logger.FromContext(ctx)
			reqLog.Warn().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, statusBody{Status: "unhealthy", Error: err.Error()})
			return
		}

		writeJSON(w, http.StatusOK, statusBody{Status: "healthy", Time: time.Now().Format(time.RFC3339)})
	})

	return recoverPanics(log, withLogging(log, mux))
}

// Server is the optional health HTTP server.
type Server struct {
	srv *http.Server
	log zerolog.Logger
}

// NewServer creates a server on addr serving Handler(store).
func NewServer(addr string, store Pinger, log zerolog.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      Handler(store, log),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

// Start serves in the background. Listen errors are logged.
func (s *Server) Start() {
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("Starting health server")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("Health server stopped")
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("health.Shutdown: %w", err)
	}
	return nil
}
