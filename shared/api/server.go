// shared/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// BaseServer is an HTTP server with the common middleware installed.
type BaseServer struct {
	Router *mux.Router
	Server *http.Server
	Logger *slog.Logger
}

func NewBaseServer(addr string, logger *slog.Logger) *BaseServer {
	logger = logger.With(slog.String("component", "http"))

	router := mux.NewRouter()
	router.Use(LoggingMiddleware(logger))
	router.Use(RecoveryMiddleware(logger))
	router.Use(CORSMiddleware)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}

	return &BaseServer{
		Router: router,
		Server: server,
		Logger: logger,
	}
}

// Start serves until Shutdown. It returns nil on a graceful stop.
func (bs *BaseServer) Start() error {
	bs.Logger.Info("starting HTTP server", slog.String("addr", bs.Server.Addr))
	if err := bs.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}
	return nil
}

func (bs *BaseServer) Shutdown(ctx context.Context) error {
	bs.Logger.Info("shutting down HTTP server")
	return bs.Server.Shutdown(ctx)
}
