// Package server wires the relay engine to its transport: the Socket.IO
// endpoint, the read-only HTTP API, and the static game client.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	socketio "github.com/googollee/go-socket.io"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/bloxcoop/relay/internal/config"
	"github.com/bloxcoop/relay/internal/handlers"
	"github.com/bloxcoop/relay/internal/models"
	"github.com/bloxcoop/relay/internal/monitor"
)

type Server struct {
	cfg        config.Config
	logger     *zap.Logger
	httpServer *http.Server
	socketIO   *socketio.Server
	router     *handlers.Router
	handler    *handlers.Handler
	monitor    *monitor.Manager
}

func New(cfg config.Config, logger *zap.Logger) (*Server, error) {
	socketIO, err := socketio.NewServer(nil)
	if err != nil {
		return nil, fmt.Errorf("creating socket.io server: %w", err)
	}

	registry := models.NewRegistry()
	directory := models.NewDirectory(models.NewCodeGenerator())
	table := handlers.NewConnTable()

	router := handlers.NewRouter(registry, directory, table, handlers.Defaults{
		MaxPlayers: cfg.Game.DefaultMaxPlayers,
		Level:      cfg.Game.StartingLevel,
		Berries:    cfg.Game.StartingBerries,
	}, logger)

	handler := handlers.New(router, table, logger)

	srv := &Server{
		cfg:      cfg,
		logger:   logger,
		socketIO: socketIO,
		router:   router,
		handler:  handler,
		monitor:  monitor.New(cfg.Game.StatsInterval, router.Snapshot, logger),
	}

	return srv, nil
}

// Start binds the listener and begins serving. It does not block.
func (s *Server) Start() error {
	s.handler.Bind(s.socketIO)

	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.buildRouter(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := s.socketIO.Serve(); err != nil {
			s.logger.Error("socket.io serve error", zap.Error(err))
		}
	}()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", zap.Error(err))
		}
	}()

	s.monitor.Start()

	s.logger.Info("relay server listening",
		zap.String("addr", s.cfg.Server.Addr()),
		zap.String("public_dir", s.cfg.Server.PublicDir))

	return nil
}

func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	s.monitor.Stop()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutting down http server: %w", err)
		}
	}

	if err := s.socketIO.Close(); err != nil {
		return fmt.Errorf("closing socket.io server: %w", err)
	}

	return nil
}

func (s *Server) buildRouter() *mux.Router {
	router := mux.NewRouter()
	router.Use(corsMiddleware)

	router.Handle("/socket.io/", s.socketIO)
	router.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	router.HandleFunc("/api/rooms", s.listRooms).Methods(http.MethodGet)
	router.HandleFunc("/api/stats", s.stats).Methods(http.MethodGet)

	// Game client; registered last so the API routes win.
	router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.cfg.Server.PublicDir)))

	return router
}

// corsMiddleware permits any origin; the game client may be served from
// anywhere.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"bloxcoop-relay"}`))
}

func (s *Server) listRooms(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.router.ListRooms(), s.logger)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.router.CurrentStats(), s.logger)
}

func writeJSON(w http.ResponseWriter, v interface{}, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("writing response", zap.Error(err))
	}
}
