package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/chatdeploy/configurator/engine/deployment"
	"github.com/chatdeploy/configurator/engine/infra/monitoring"
	"github.com/chatdeploy/configurator/pkg/config"
	"github.com/chatdeploy/configurator/pkg/logger"
	"github.com/gin-gonic/gin"
)

const (
	statusNotReady        = "not_ready"
	statusReady           = "ready"
	serverShutdownTimeout = 10 * time.Second
	httpIdleTimeout       = 60 * time.Second
	hostAny               = "0.0.0.0"
	hostLoopback          = "127.0.0.1"
)

type cleanupFunc func(ctx context.Context) error

type Server struct {
	manager     *config.Manager
	router      *gin.Engine
	monitoring  *monitoring.Service
	deployments *deployment.Service
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
	ready       atomic.Bool
	cleanupMu   sync.Mutex
	cleanups    []cleanupFunc
	closeOnce   sync.Once
}

// NewServer reads its configuration from the manager attached to ctx.
func NewServer(ctx context.Context) (*Server, error) {
	manager := config.ManagerFromContext(ctx)
	if manager == nil || manager.Get() == nil {
		return nil, fmt.Errorf("configuration missing from context; attach a manager with config.ContextWithManager")
	}
	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		manager: manager,
		ctx:     serverCtx,
		cancel:  cancel,
	}, nil
}

func (s *Server) config() *config.Config {
	return s.manager.Get()
}

// Setup opens the data directory, starts background workers and builds the
// router. Close releases everything Setup acquired.
func (s *Server) Setup() error {
	state, err := s.setupDependencies()
	if err != nil {
		return err
	}
	if err := s.buildRouter(state); err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}
	s.ready.Store(true)
	return nil
}

// Handler returns the router built by Setup.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until SIGINT, SIGTERM or cancellation of the server context.
func (s *Server) Run() error {
	if err := s.Setup(); err != nil {
		s.Close()
		return err
	}
	defer s.Close()
	s.logStartupBanner()
	return s.startAndRunServer()
}

func (s *Server) addCleanup(fn cleanupFunc) {
	s.cleanupMu.Lock()
	defer s.cleanupMu.Unlock()
	s.cleanups = append(s.cleanups, fn)
}

// Close runs cleanups in reverse order of registration.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.ready.Store(false)
		s.cancel()
		log := logger.FromContext(s.ctx)
		timeout := s.config().Server.ShutdownTimeout
		if timeout <= 0 {
			timeout = serverShutdownTimeout
		}
		ctx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), timeout)
		defer cancel()
		s.cleanupMu.Lock()
		cleanups := s.cleanups
		s.cleanups = nil
		s.cleanupMu.Unlock()
		for i := len(cleanups) - 1; i >= 0; i-- {
			if err := cleanups[i](ctx); err != nil {
				log.Warn("Cleanup failed", "error", err)
			}
		}
	})
}

func (s *Server) createHTTPServer() *http.Server {
	cfg := s.config().Server
	addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	logger.FromContext(s.ctx).Info("Starting HTTP server", "address", fmt.Sprintf("http://%s", addr))
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       httpIdleTimeout,
		BaseContext:       func(net.Listener) context.Context { return s.ctx },
	}
}

func (s *Server) startAndRunServer() error {
	s.httpServer = s.createHTTPServer()
	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return s.handleGracefulShutdown(errCh)
}

func (s *Server) handleGracefulShutdown(errCh <-chan error) error {
	log := logger.FromContext(s.ctx)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-quit:
		log.Debug("Received shutdown signal, initiating graceful shutdown")
	case <-s.ctx.Done():
		log.Debug("Server context canceled, initiating graceful shutdown")
	}
	s.ready.Store(false)
	timeout := s.config().Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = serverShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(s.ctx), timeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	log.Info("Server shutdown completed successfully")
	return nil
}

func friendlyHost(h string) string {
	if h == hostAny || h == "::" || h == "" {
		return hostLoopback
	}
	return h
}
