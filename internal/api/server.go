package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/limaJavier/gradplan/internal/logger"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	router *gin.Engine
	http   *http.Server
}

// NewServer wires the middlewares and routes. Writes may take as long as a full solve, so the write timeout grows
// with the solve budget
func NewServer(handler *Handler, port string, mode string, solveBudget time.Duration) *Server {
	if mode != "" {
		gin.SetMode(mode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), RequestIdMiddleware(), LoggerMiddleware())
	handler.Register(router)

	return &Server{
		router: router,
		http: &http.Server{
			Addr:         ":" + port,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: solveBudget + 30*time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (server *Server) Handler() http.Handler {
	return server.router
}

// Run serves until the listener fails or SIGINT/SIGTERM arrives, then shuts down gracefully
func (server *Server) Run() error {
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.http.Addr).Msg("HTTP server listening")
		serverErrors <- server.http.ListenAndServe()
	}()

	osSignals := make(chan os.Signal, 1)
	signal.Notify(osSignals, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	case sig := <-osSignals:
		logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
	}
	return server.Shutdown(context.Background())
}

func (server *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	if err := server.http.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("HTTP server shutdown error")
		return err
	}
	logger.Info().Msg("HTTP server stopped")
	return nil
}
