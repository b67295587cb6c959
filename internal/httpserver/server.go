// Package httpserver bootstraps the gateway's HTTP listener: bind address,
// request timeouts, cleartext HTTP/2 (h2c) upgrade, and graceful shutdown on
// SIGINT/SIGTERM.
package httpserver

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws-samples/aws-lambda-web-gateway/internal/logger"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

const (
	readTimeout     = 2 * time.Minute
	writeTimeout    = 2 * time.Hour
	idleTimeout     = 60 * time.Second
	shutdownTimeout = 15 * time.Second
	maxHeaderBytes  = 64 * 1024
)

// Server wraps an *http.Server configured to speak HTTP/1.1 and cleartext
// HTTP/2 on a single port.
type Server struct {
	http *http.Server
}

// New builds a Server bound to addr, serving handler.
func New(addr string, handler http.Handler) *Server {
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		ReadIdleTimeout:      readTimeout,
		IdleTimeout:          idleTimeout,
	}

	return &Server{
		http: &http.Server{
			Addr:           addr,
			Handler:        h2c.NewHandler(handler, h2s),
			ReadTimeout:    readTimeout,
			WriteTimeout:   writeTimeout,
			IdleTimeout:    idleTimeout,
			MaxHeaderBytes: maxHeaderBytes,
		},
	}
}

// Run starts the listener and blocks until a SIGINT/SIGTERM is received, then
// drains in-flight connections and returns.
func (s *Server) Run() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting gateway on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("gateway HTTP server failed: %v", err)
		}
	}()

	<-stop
	logger.Info("shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(ctx); err != nil {
		logger.Error("gateway forced to shutdown: %v", err)
	} else {
		logger.Info("gateway exited gracefully")
	}
}
