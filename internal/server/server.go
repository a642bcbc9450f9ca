// Package server exposes mask encoding and interactive mask sessions over
// HTTP and websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// DefaultMaxPixels bounds the size of any raster a request can make the
// server allocate.
const DefaultMaxPixels = 8192 * 8192

// Config controls the listener and the sessions it creates.
type Config struct {
	Addr            string
	AllowedOrigins  []string
	ImageWidth      int
	ImageHeight     int
	CreationOpacity float64
	// MaxPixels caps mask boxes, canvases, uploads and session images.
	// Zero means DefaultMaxPixels.
	MaxPixels int
	Logger    *slog.Logger
}

// Server routes mask requests.
type Server struct {
	cfg    Config
	logger *slog.Logger
	router *mux.Router
}

// New builds a server. A nil logger uses slog.Default.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxPixels <= 0 {
		cfg.MaxPixels = DefaultMaxPixels
	}
	s := &Server{cfg: cfg, logger: logger, router: mux.NewRouter()}

	s.router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	api := s.router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/masks/encode", s.handleEncode).Methods("POST")
	api.HandleFunc("/masks/decode", s.handleDecode).Methods("POST")
	api.HandleFunc("/sessions/ws", s.handleSession).Methods("GET")
	return s
}

// Handler returns the routed handler wrapped in the recovery and logging
// middleware.
func (s *Server) Handler() http.Handler {
	return Recovery(s.logger)(Logger(s.logger)(s.router))
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", s.cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	width, height := s.cfg.ImageWidth, s.cfg.ImageHeight
	q := r.URL.Query()
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid width", http.StatusBadRequest)
			return
		}
		width = n
	}
	if v := q.Get("height"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid height", http.StatusBadRequest)
			return
		}
		height = n
	}
	if !fits(width, height, s.cfg.MaxPixels) {
		http.Error(w, "session image too large", http.StatusRequestEntityTooLarge)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.AllowedOrigins,
	})
	if err != nil {
		s.logger.Error("websocket accept failed", "error", err)
		return
	}

	client := NewClient(conn, uuid.New().String(), width, height, s.cfg.CreationOpacity, s.logger)
	client.maxPixels = s.cfg.MaxPixels
	client.logger.Info("session connected", "width", width, "height", height)
	client.Send(TypeWelcome, 0, WelcomePayload{
		ClientID: client.ID,
		Image:    client.h.Geometry().Image,
	})

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
	client.logger.Info("session disconnected")
}

// fits reports whether a width by height raster holds at most limit pixels.
func fits(width, height, limit int) bool {
	if width <= 0 || height <= 0 {
		return true
	}
	return width <= limit/height
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
