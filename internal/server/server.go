package server

import (
	"context"
	"net/http"
	"time"

	"gorm.io/gorm"

	"platos/internal/catalog"
	"platos/internal/dishes"
	"platos/internal/handlers"
	applog "platos/internal/log"
)

// Config captures the runtime configuration for the HTTP server.
type Config struct {
	Addr     string
	Database *gorm.DB
}

// Server wraps an http.Server serving the costing API.
type Server struct {
	config     Config
	httpServer *http.Server
}

// New builds a Server. Without a database the API answers 503 until one is
// configured.
func New(cfg Config) (*Server, error) {
	applog.Debug(context.Background(), "initializing server", "addr", cfg.Addr, "database", cfg.Database != nil)

	if cfg.Database != nil {
		handlers.Configure(dishes.New(cfg.Database), catalog.New(cfg.Database))
	} else {
		handlers.Configure(nil, nil)
	}
	applog.Debug(context.Background(), "handler dependencies configured")

	return &Server{
		config: cfg,
		httpServer: &http.Server{
			Addr:              cfg.Addr,
			Handler:           newRouter(),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// Start begins serving HTTP traffic using the underlying http.Server.
func (s *Server) Start() error {
	applog.Debug(context.Background(), "server starting listener", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop gracefully shuts down the HTTP server with a timeout.
func (s *Server) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	applog.Debug(ctx, "server initiating graceful shutdown")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the configured HTTP handler, enabling integration tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}
