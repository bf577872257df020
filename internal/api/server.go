// Package api exposes the download orchestrator over HTTP: catalog
// lookups, batch run control, a WebSocket progress stream, and Prometheus
// metrics.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/schrebra/storeappx/internal/api/middleware"
	"github.com/schrebra/storeappx/internal/apps"
	"github.com/schrebra/storeappx/internal/batch"
	"github.com/schrebra/storeappx/internal/catalog"
	"github.com/schrebra/storeappx/internal/client"
	"github.com/schrebra/storeappx/internal/fetch"
	"github.com/schrebra/storeappx/internal/infrastructure/config"
	"github.com/schrebra/storeappx/internal/infrastructure/logging"
	"github.com/schrebra/storeappx/internal/infrastructure/monitoring"
	"github.com/schrebra/storeappx/internal/install"
	"github.com/schrebra/storeappx/internal/plan"
)

// Server wraps the HTTP surface and its dependencies.
type Server struct {
	cfg       config.Config
	log       *logging.Logger
	router    *gin.Engine
	metrics   *monitoring.Metrics
	resolver  *catalog.Resolver
	installer *install.Installer
	runs      *runRegistry
	catalog   []apps.App
	httpSrv   *http.Server
}

// NewServer builds the full pipeline behind the HTTP surface.
func NewServer(cfg config.Config, log *logging.Logger) (*Server, error) {
	if log == nil {
		log = logging.NewNop()
	}

	httpClient := client.New(client.Options{
		UserAgent:         cfg.HTTP.UserAgent,
		Timeout:           time.Duration(cfg.HTTP.TimeoutSeconds) * time.Second,
		RetryMax:          cfg.HTTP.RetryMax,
		RequestsPerSecond: float64(cfg.HTTP.RequestsPerSecond),
		Burst:             cfg.HTTP.Burst,
	})
	resolver := catalog.NewResolver(httpClient, cfg.Catalog.Endpoint, cfg.Catalog.Ring, log)
	coordinator := batch.NewCoordinator(
		resolver,
		plan.NewPlanner(httpClient, log),
		fetch.NewExecutor(httpClient, log),
		log,
	)
	installer := install.New(install.NewPowerShell(cfg.Install.PowerShell, log), log)

	appList, err := loadAppCatalog(log)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		log:       log.Named("api"),
		metrics:   monitoring.NewMetrics(),
		resolver:  resolver,
		installer: installer,
		runs:      newRunRegistry(coordinator),
		catalog:   appList,
	}
	s.router = s.buildRouter()
	return s, nil
}

func loadAppCatalog(log *logging.Logger) ([]apps.App, error) {
	path, err := apps.UserPath()
	if err != nil {
		log.Warn("cannot locate user app catalog, using built-ins", zap.Error(err))
		return apps.Builtin(), nil
	}
	return apps.Load(path)
}

func (s *Server) buildRouter() *gin.Engine {
	if !s.cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLog(s.log))
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: float64(s.cfg.RateLimit.RequestsPerSecond),
			Burst:             s.cfg.RateLimit.Burst,
		}))
	}

	router.GET("/", s.handleRoot)
	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(s.metrics.Handler()))

	router.GET("/api/status", s.handleStatus)
	router.GET("/api/apps", s.handleListApps)
	router.POST("/api/resolve", s.handleResolve)
	router.POST("/api/runs", s.handleStartRun)
	router.GET("/api/runs", s.handleListRuns)
	router.GET("/api/runs/:id", s.handleGetRun)
	router.DELETE("/api/runs/:id", s.handleCancelRun)
	router.POST("/api/install", s.handleInstall)

	router.GET("/stream", s.handleStream)

	return router
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx ends, then drains in-flight requests, cancelling
// any active download run first.
func (s *Server) Run(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpSrv.ListenAndServe()
	}()
	s.log.Info("server listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	s.runs.cancelActive()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
