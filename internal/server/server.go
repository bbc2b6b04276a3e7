// Package server exposes the HTTP surface of the interview service: the
// resume upload endpoint and the WebSocket endpoint an interview runs over.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/talvik/intervu/internal/interview"
	"github.com/talvik/intervu/internal/store"
)

const shutdownTimeout = 15 * time.Second

// Runner executes one interview over one connection. Implemented by
// interview.Orchestrator; faked in tests.
type Runner interface {
	Run(ctx context.Context, sess *interview.Session, conn interview.Conn) error
}

// Config holds the listener settings.
type Config struct {
	Address string `mapstructure:"address"`
}

type Server struct {
	store    store.Store
	runner   Runner
	registry *interview.Registry
	upgrader websocket.Upgrader
	http     *http.Server
	logger   *zap.Logger
}

func New(cfg Config, st store.Store, runner Runner, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}

	s := &Server{
		store:    st,
		runner:   runner,
		registry: interview.NewRegistry(),
		upgrader: websocket.Upgrader{
			// The browser client is served from a different origin during
			// development.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: log,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/pdf/upload_pdf", s.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/ws/interview/{id}", s.handleInterview).Methods(http.MethodGet)

	s.http = &http.Server{
		Addr:    cfg.Address,
		Handler: r,
		// No write timeout: it would kill long-lived interview sockets.
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Run serves until the context is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.http.Addr))
		if err := s.http.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.http.Shutdown(shutdownCtx)
}

// Handler exposes the routes for tests.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
