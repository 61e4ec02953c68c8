// Package relay serves the launch list, favorites and favorites events
// over HTTP. The launch endpoint forwards to the upstream data service
// and hides its failures behind a generic error.
package relay

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/net/netutil"

	"github.com/artpar/liftoff/internal/logging"
)

// Server is the relay HTTP server.
type Server struct {
	httpServer *http.Server
	handler    http.Handler
	config     Config
	logger     *log.Logger
	running    bool
	listener   net.Listener
	served     chan struct{}
	mu         sync.RWMutex
}

// NewServer creates a relay server. favs may be nil to serve launches only.
func NewServer(upstream Upstream, favs Favorites, opts ...ConfigOption) *Server {
	config := NewConfig(opts...)
	logger := logging.OrDiscard(config.Logger)

	mux := http.NewServeMux()
	NewHandler(upstream, favs, config).RegisterRoutes(mux)

	return &Server{
		handler: requestLogger(logger, mux),
		config:  config,
		logger:  logger,
	}
}

// Handler returns the server's root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start starts serving in the background. The server stops when ctx is
// cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("relay server is already running")
	}

	listener, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	if s.config.MaxConns > 0 {
		listener = netutil.LimitListener(listener, s.config.MaxConns)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	s.served = make(chan struct{})
	s.running = true
	s.mu.Unlock()

	s.logger.Info("relay listening", "addr", listener.Addr().String(), "max_conns", s.config.MaxConns)

	go func() {
		defer close(s.served)
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			s.logger.Error("relay server error", "err", err)
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Run starts the server and blocks until ctx is cancelled and the
// server has shut down.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()

	s.mu.RLock()
	served := s.served
	s.mu.RUnlock()
	<-served
	return nil
}

// Stop gracefully stops the server.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		// Force close if graceful shutdown fails
		s.httpServer.Close()
	}

	s.running = false
	s.logger.Info("relay stopped")
	return nil
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ListenAddr returns the actual address the server is listening on.
// Useful when using port 0 to get an available port.
func (s *Server) ListenAddr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.ListenAddr
}
