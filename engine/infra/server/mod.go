package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/demoplan/demoplan/engine/infra/jobs"
	"github.com/demoplan/demoplan/engine/infra/monitoring"
	"github.com/demoplan/demoplan/engine/infra/postgres"
	"github.com/demoplan/demoplan/engine/infra/repo"
	"github.com/demoplan/demoplan/engine/infra/server/appstate"
	"github.com/demoplan/demoplan/engine/rotation"
	"github.com/demoplan/demoplan/engine/scheduler"
	"github.com/demoplan/demoplan/engine/sync/mvretail"
	"github.com/demoplan/demoplan/engine/sync/tasks"
	"github.com/demoplan/demoplan/pkg/config"
	"github.com/demoplan/demoplan/pkg/logger"
)

// Options control which parts of the process this server instance runs.
type Options struct {
	// WithWorker starts the sync task runner inside this process. Disable it
	// to run workers in a separate process.
	WithWorker bool
}

type Server struct {
	cfg    *config.Config
	opts   Options
	log    logger.Logger
	router *gin.Engine
	store  *postgres.Store
	ctx    context.Context
	cancel context.CancelFunc

	syncEnabled bool
	workerUp    bool
}

func NewServer(cfg *config.Config, log logger.Logger, opts Options) *Server {
	ctx, cancel := context.WithCancel(logger.ContextWithLogger(context.Background(), log))
	return &Server{
		cfg:    cfg,
		opts:   opts,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

func (s *Server) buildRouter(state *appstate.State) error {
	if s.cfg.Runtime.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggerMiddleware(s.log))
	r.Use(monitoring.GinMiddleware())
	r.Use(appstate.StateMiddleware(state))
	if err := s.registerRoutes(r); err != nil {
		return err
	}
	s.router = r
	return nil
}

func (s *Server) Run() error {
	// Setup all dependencies
	state, cleanupFuncs, err := s.setupDependencies()
	defer s.cleanup(cleanupFuncs)
	if err != nil {
		return err
	}

	// Build server routes
	if err := s.buildRouter(state); err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	// Start and run the HTTP server
	return s.startAndRunServer()
}

// Stop triggers a graceful shutdown from another goroutine.
func (s *Server) Stop() {
	s.cancel()
}

func (s *Server) setupDependencies() (*appstate.State, []func(), error) {
	var cleanupFuncs []func()

	store, err := postgres.NewStore(s.ctx, &s.cfg.Database)
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("failed to setup store: %w", err)
	}
	cleanupFuncs = append(cleanupFuncs, func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		if err := store.Close(closeCtx); err != nil {
			s.log.Error("Failed to close store", "error", err)
		}
	})
	s.store = store

	if s.cfg.Database.AutoMigrate {
		if err := postgres.ApplyMigrationsWithLock(s.ctx, postgres.DSN(&s.cfg.Database)); err != nil {
			return nil, cleanupFuncs, fmt.Errorf("failed to apply migrations: %w", err)
		}
		if err := postgres.ApplyRiverMigrations(s.ctx, store.Pool()); err != nil {
			return nil, cleanupFuncs, fmt.Errorf("failed to apply task queue migrations: %w", err)
		}
	}

	loc, err := time.LoadLocation(s.cfg.Upstream.Timezone)
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("invalid timezone %q: %w", s.cfg.Upstream.Timezone, err)
	}

	provider := repo.NewProvider(store.Pool())
	repos := provider.Repos()
	rotations := rotation.NewManager(repos.Rotations, repos.Roster)

	engine, err := scheduler.NewEngine(provider, rotations, &s.cfg.Scheduler, loc)
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("failed to create scheduler engine: %w", err)
	}

	deps := appstate.NewBaseDeps(s.cfg, provider, engine, rotations)
	deps.Loc = loc

	if s.cfg.Upstream.Username != "" {
		cleanupFuncs, err = s.setupSync(provider, store, &deps, cleanupFuncs)
		if err != nil {
			return nil, cleanupFuncs, err
		}
	} else {
		s.log.Warn("Upstream credentials not configured, sync disabled")
	}

	state, err := appstate.NewState(deps)
	if err != nil {
		return nil, cleanupFuncs, fmt.Errorf("failed to create app state: %w", err)
	}
	return state, cleanupFuncs, nil
}

func (s *Server) setupSync(
	provider *repo.Provider,
	store *postgres.Store,
	deps *appstate.BaseDeps,
	cleanupFuncs []func(),
) ([]func(), error) {
	upstream, err := mvretail.NewClient(&s.cfg.Upstream)
	if err != nil {
		return cleanupFuncs, fmt.Errorf("failed to create upstream client: %w", err)
	}
	deps.Upstream = upstream
	s.syncEnabled = true

	manager, err := jobs.NewManager(store.Pool(), tasks.Deps{
		Store:  provider,
		Pusher: upstream,
		Puller: upstream,
		Cfg:    &s.cfg.Sync,
	}, &s.cfg.Sync)
	if err != nil {
		return cleanupFuncs, fmt.Errorf("failed to create job manager: %w", err)
	}
	deps.Queue = tasks.NewQueue(manager.Client(), &s.cfg.Sync)

	if s.opts.WithWorker {
		if err := manager.Start(s.ctx); err != nil {
			return cleanupFuncs, fmt.Errorf("failed to start job manager: %w", err)
		}
		s.workerUp = true
		cleanupFuncs = append(cleanupFuncs, func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			if err := manager.Stop(stopCtx); err != nil {
				s.log.Error("Failed to stop job manager", "error", err)
			}
		})
	}
	return cleanupFuncs, nil
}

func (s *Server) cleanup(cleanupFuncs []func()) {
	for i := len(cleanupFuncs) - 1; i >= 0; i-- {
		cleanupFuncs[i]()
	}
}

func (s *Server) startAndRunServer() error {
	srv := s.createHTTPServer()

	// Start server in goroutine
	go s.startServer(srv)

	// Wait for shutdown signal and handle graceful shutdown
	return s.handleGracefulShutdown(srv)
}

func (s *Server) createHTTPServer() *http.Server {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.log.Info("Starting HTTP server",
		"address", fmt.Sprintf("http://%s", addr),
	)
	writeTimeout := s.cfg.Server.Timeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}
	return &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}
}

func (s *Server) startServer(srv *http.Server) {
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("Server failed to start",
			"error", err,
		)
		os.Exit(1)
	}
}

func (s *Server) handleGracefulShutdown(srv *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		s.log.Debug("Received shutdown signal, initiating graceful shutdown")
	case <-s.ctx.Done():
		s.log.Debug("Server context canceled, initiating graceful shutdown")
	}

	s.cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("Server shutdown completed successfully")
	return nil
}
